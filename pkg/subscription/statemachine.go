package subscription

// TransitionEvent names a lifecycle transition trigger.
type TransitionEvent string

const (
	TransitionConvert     TransitionEvent = "convert_to_paid"
	TransitionCancelTrial TransitionEvent = "cancel_trial"
	TransitionExtendTrial TransitionEvent = "extend_trial"
	TransitionExpireFree  TransitionEvent = "expire_to_free"
	TransitionExpireEnd   TransitionEvent = "expire_to_cancelled"
	TransitionSuspend     TransitionEvent = "suspend"
	TransitionResume      TransitionEvent = "resume"
	TransitionCancel      TransitionEvent = "cancel"
)

// transitions is the state machine table: event -> from-status -> to-status.
// Nested map lookup keeps wrong-state checks O(1) and the full machine
// auditable in one place. Cancelled is terminal and appears in no from-set.
var transitions = map[TransitionEvent]map[Status]Status{
	TransitionConvert:     {StatusTrial: StatusActive},
	TransitionCancelTrial: {StatusTrial: StatusCancelled},
	TransitionExtendTrial: {StatusTrial: StatusTrial},
	TransitionExpireFree:  {StatusTrial: StatusActive},
	TransitionExpireEnd:   {StatusTrial: StatusCancelled},
	TransitionSuspend:     {StatusActive: StatusSuspended},
	TransitionResume:      {StatusSuspended: StatusActive},
	TransitionCancel: {
		StatusActive:    StatusCancelled,
		StatusSuspended: StatusCancelled,
	},
}

// CanTransition reports whether the event is valid from the given status.
func CanTransition(from Status, event TransitionEvent) bool {
	_, ok := transitions[event][from]
	return ok
}

// nextStatus resolves the target status for an event, or ErrInvalidTransition
// when the machine has no edge for the current status. Callers translate this
// into the operation-specific error code where the contract names one.
func nextStatus(from Status, event TransitionEvent) (Status, error) {
	to, ok := transitions[event][from]
	if !ok {
		return "", ErrInvalidTransition
	}
	return to, nil
}
