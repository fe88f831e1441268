package ledger

import (
	"strconv"

	"github.com/9Nov/Strava-Sync/strava"
)

// Header is the fixed header row of an athlete's activity worksheet.
var Header = []string{
	"Activity ID",
	"Name",
	"Type",
	"Distance (km)",
	"Time (min)",
	"Date",
	"Description",
	"Elevation Gain (m)",
	"Avg Speed (km/h)",
	"Max Speed (km/h)",
	"Avg HR (bpm)",
	"Max HR (bpm)",
	"Avg Cadence",
	"Avg Watts",
	"Max Watts",
	"Suffer Score",
	"Kilojoules",
}

const (
	columnID   = 0
	columnDate = 5
)

// Row converts a Strava activity to a worksheet row, converting distance to km, moving time to
// minutes and speeds to km/h. Optional fields that Strava did not report are left blank.
func Row(a strava.Activity) []string {
	return []string{
		strconv.FormatInt(a.ID, 10),
		a.Name,
		a.Type,
		fixed(a.Distance/1000.0, 2),
		fixed(float64(a.MovingTime)/60.0, 2),
		a.StartDateLocal,
		text(a.Description),
		number(a.TotalElevationGain),
		fixed(a.AverageSpeed*3.6, 1),
		fixed(a.MaxSpeed*3.6, 1),
		number(a.AverageHeartrate),
		number(a.MaxHeartrate),
		number(a.AverageCadence),
		number(a.AverageWatts),
		number(a.MaxWatts),
		number(a.SufferScore),
		number(a.Kilojoules),
	}
}

func fixed(v float64, precision int) string {
	return strconv.FormatFloat(v, 'f', precision, 64)
}

func number(v *float64) string {
	if v == nil {
		return ""
	}

	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func text(v *string) string {
	if v == nil {
		return ""
	}

	return *v
}
