package syncer

import (
	"errors"
	"fmt"

	"github.com/9Nov/Strava-Sync/ledger"
	"github.com/9Nov/Strava-Sync/strava"
)

// Describe returns the message reported to the user for a failed sync.
func Describe(name string, err error) string {
	var autherr *strava.AuthError
	var fetcherr *strava.FetchError

	switch {
	case err == nil:
		return ""

	case errors.Is(err, ledger.ErrUserNotFound):
		return err.Error()

	case errors.As(err, &autherr):
		return fmt.Sprintf("Strava rejected the credentials for '%v' - please reconnect the Strava account", name)

	case errors.As(err, &fetcherr):
		return fmt.Sprintf("Failed to sync data for '%v' (%v)", name, fetcherr)

	default:
		return fmt.Sprintf("Failed to sync data for '%v'", name)
	}
}

// classify returns the metrics label for the outcome of a sync.
func classify(err error) string {
	var autherr *strava.AuthError
	var fetcherr *strava.FetchError
	var storeErr *ledger.StoreError

	switch {
	case err == nil:
		return "ok"

	case errors.Is(err, ledger.ErrUserNotFound):
		return "user_not_found"

	case errors.As(err, &autherr):
		return "auth"

	case errors.As(err, &fetcherr):
		return "fetch"

	case errors.As(err, &storeErr):
		return "store"

	default:
		return "error"
	}
}
