package usage

import "errors"

var (
	ErrFailedToCountTickets = errors.New("failed to count tickets")
)
