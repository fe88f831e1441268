package strava

import (
	"strings"
	"time"
)

// Activity is a summary activity as returned by the Strava 'list athlete activities' API. Only
// the fields written to the ledger are decoded.
type Activity struct {
	ID                 int64    `json:"id"`
	Name               string   `json:"name"`
	Type               string   `json:"type"`
	Distance           float64  `json:"distance"`
	MovingTime         int64    `json:"moving_time"`
	StartDate          string   `json:"start_date"`
	StartDateLocal     string   `json:"start_date_local"`
	Description        *string  `json:"description"`
	TotalElevationGain *float64 `json:"total_elevation_gain"`
	AverageSpeed       float64  `json:"average_speed"`
	MaxSpeed           float64  `json:"max_speed"`
	AverageHeartrate   *float64 `json:"average_heartrate"`
	MaxHeartrate       *float64 `json:"max_heartrate"`
	AverageCadence     *float64 `json:"average_cadence"`
	AverageWatts       *float64 `json:"average_watts"`
	MaxWatts           *float64 `json:"max_watts"`
	SufferScore        *float64 `json:"suffer_score"`
	Kilojoules         *float64 `json:"kilojoules"`
}

// Athlete is the athlete summary included in the authorization code exchange response.
type Athlete struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
}

func (a Athlete) Name() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// ParseLocalTime parses a Strava start_date_local value. Strava reports local wall time with a
// 'Z' designator, so a value without any zone is treated the same way i.e. as UTC.
func ParseLocalTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	return time.ParseInLocation("2006-01-02T15:04:05", s, time.UTC)
}
