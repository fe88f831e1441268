package commands

const (
	_etc = "/usr/local/etc/com.github.strava-sync"
	_var = "/usr/local/var/com.github.strava-sync"

	DEFAULT_WORKDIR     = _var
	DEFAULT_CREDENTIALS = _etc + "/.google/credentials.json"

	OPEN = "open"
)
