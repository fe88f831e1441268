package syncer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	syncCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "strava_sync",
		Subsystem: "sync",
		Name:      "runs_total",
		Help:      "Number of user syncs grouped by result.",
	}, []string{"result"})

	importedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "strava_sync",
		Subsystem: "sync",
		Name:      "activities_imported_total",
		Help:      "Number of activities appended to a user's worksheet.",
	}, []string{"user"})

	duplicateCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "strava_sync",
		Subsystem: "sync",
		Name:      "activities_duplicate_total",
		Help:      "Number of fetched activities skipped because they were already in the worksheet.",
	}, []string{"user"})

	lastSyncGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "strava_sync",
		Subsystem: "sync",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful sync per user.",
	}, []string{"user"})
)

func init() {
	prometheus.MustRegister(syncCounter, importedCounter, duplicateCounter, lastSyncGauge)
}

func recordSync(name string, fetched, imported int, err error) {
	syncCounter.WithLabelValues(classify(err)).Inc()

	if err == nil {
		importedCounter.WithLabelValues(name).Add(float64(imported))
		duplicateCounter.WithLabelValues(name).Add(float64(fetched - imported))
		lastSyncGauge.WithLabelValues(name).Set(float64(time.Now().Unix()))
	}
}
