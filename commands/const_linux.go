package commands

const (
	_etc = "/usr/local/etc/strava-sync"
	_var = "/usr/local/var/strava-sync"

	DEFAULT_WORKDIR     = _var
	DEFAULT_CREDENTIALS = _etc + "/.google/credentials.json"

	OPEN = "xdg-open"
)
