package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/9Nov/Strava-Sync/ledger"
	"github.com/9Nov/Strava-Sync/strava"
)

// Window is the [After, Before) range of activity start times (epoch seconds) requested from
// Strava. A nil Before is open ended.
type Window struct {
	After  int64
	Before *int64
}

func (w Window) String() string {
	after := time.Unix(w.After, 0).UTC().Format(time.RFC3339)
	if w.Before == nil {
		return fmt.Sprintf("[%v, ...)", after)
	}

	return fmt.Sprintf("[%v, %v)", after, time.Unix(*w.Before, 0).UTC().Format(time.RFC3339))
}

type history interface {
	LatestActivityDate(ctx context.Context, name string) (string, error)
}

// Resolve determines the window to request for a user. An explicit start date selects
// [start, end+1 day) or [start, ...) if there is no end date. Without a start date the window
// starts at the date of the last row in the user's worksheet, or at the epoch if the worksheet
// is empty. An end date without a start date is ignored.
func Resolve(ctx context.Context, h history, name string, start, end *time.Time) (Window, error) {
	if start != nil {
		w := Window{
			After: midnight(*start).Unix(),
		}

		if end != nil {
			before := midnight(*end).Unix() + 86400
			w.Before = &before
		}

		return w, nil
	}

	latest, err := h.LatestActivityDate(ctx, name)
	if err != nil {
		return Window{}, err
	} else if latest == "" {
		return Window{After: 0}, nil
	}

	t, err := strava.ParseLocalTime(latest)
	if err != nil {
		return Window{}, &ledger.StoreError{
			Op:    "read activities",
			Table: name,
			Err:   fmt.Errorf("invalid date '%v' in last row", latest),
		}
	}

	return Window{After: t.Unix()}, nil
}

// midnight returns 00:00 UTC of the calendar date.
func midnight(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}
