package notifier

import "errors"

var (
	ErrInvalidConfig = errors.New("invalid notifier configuration")
	ErrFailedToSend  = errors.New("failed to send notification")
)
