package sweep

import "errors"

var (
	ErrReminderLogUnavailable = errors.New("reminder log unavailable")
	ErrSweepAlreadyRunning    = errors.New("a sweep is already running")
)
