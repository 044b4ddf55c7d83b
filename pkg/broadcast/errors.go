package broadcast

import "errors"

var (
	// ErrHubClosed is returned when publishing on a closed hub.
	ErrHubClosed = errors.New("broadcast: hub is closed")
)
