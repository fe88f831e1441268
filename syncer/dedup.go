package syncer

import (
	"sort"
	"strconv"
	"time"

	"github.com/9Nov/Strava-Sync/strava"
)

// Dedup returns the activities whose ID is not in the existing set, in the original order.
func Dedup(activities []strava.Activity, existing map[string]bool) []strava.Activity {
	list := []strava.Activity{}
	for _, a := range activities {
		if !existing[strconv.FormatInt(a.ID, 10)] {
			list = append(list, a)
		}
	}

	return list
}

// sortByStartDate sorts the activities ascending by local start time. The sort is stable and
// values that cannot be parsed sort after all the others, in string order.
func sortByStartDate(activities []strava.Activity) {
	type key struct {
		t  time.Time
		ok bool
	}

	keys := map[int64]key{}
	for _, a := range activities {
		t, err := strava.ParseLocalTime(a.StartDateLocal)
		keys[a.ID] = key{t, err == nil}
	}

	sort.SliceStable(activities, func(i, j int) bool {
		p, q := keys[activities[i].ID], keys[activities[j].ID]
		switch {
		case p.ok && q.ok:
			return p.t.Before(q.t)

		case p.ok != q.ok:
			return p.ok

		default:
			return activities[i].StartDateLocal < activities[j].StartDateLocal
		}
	})
}
