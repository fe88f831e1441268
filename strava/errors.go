package strava

import (
	"fmt"
)

// AuthError is returned when Strava rejects a token exchange or refresh, typically because the
// athlete revoked access or the refresh token expired. The account has to be linked again.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("strava authorisation rejected (%v)", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// FetchError is returned when the activity list request fails. StatusCode is 0 if the request
// did not get a response.
type FetchError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("strava activities request failed (%v)", e.Err)
	}

	if e.Err != nil {
		return fmt.Sprintf("strava activities request failed (HTTP %d: %v)", e.StatusCode, e.Err)
	}

	if e.Body != "" {
		return fmt.Sprintf("strava activities request failed (HTTP %d: %s)", e.StatusCode, e.Body)
	}

	return fmt.Sprintf("strava activities request failed (HTTP %d)", e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
