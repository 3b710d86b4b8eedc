package subscription

import "net/http"

// Kind classifies an error per the engine's taxonomy. Validation and
// state-conflict errors fail closed before any state change; dependency
// errors signal that a collaborator was unavailable and let enforcement
// callers fail open instead.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindStateConflict Kind = "state_conflict"
	KindNotFound      Kind = "not_found"
	KindDependency    Kind = "dependency"
)

// Error is a typed subscription error with an HTTP-style status and a
// machine-readable code. It is a value type so predeclared errors compare
// with errors.Is.
type Error struct {
	Status int    // HTTP status code
	Code   string // machine-readable code (e.g. "NOT_IN_TRIAL")
	Kind   Kind
}

// Error implements the error interface.
func (e Error) Error() string {
	return e.Code
}

var (
	ErrAlreadySubscribed = Error{Status: http.StatusConflict, Code: "ALREADY_SUBSCRIBED", Kind: KindStateConflict}
	ErrNoTrialSupport    = Error{Status: http.StatusBadRequest, Code: "NO_TRIAL_SUPPORT", Kind: KindValidation}
	ErrNotInTrial        = Error{Status: http.StatusConflict, Code: "NOT_IN_TRIAL", Kind: KindStateConflict}
	ErrTrialExpired      = Error{Status: http.StatusGone, Code: "TRIAL_EXPIRED", Kind: KindStateConflict}
	ErrTrialEndMissing   = Error{Status: http.StatusConflict, Code: "TRIAL_END_MISSING", Kind: KindStateConflict}
	ErrInvalidExtension  = Error{Status: http.StatusBadRequest, Code: "INVALID_EXTENSION", Kind: KindValidation}
	ErrInvalidTransition = Error{Status: http.StatusConflict, Code: "INVALID_TRANSITION", Kind: KindStateConflict}
	ErrNotFound          = Error{Status: http.StatusNotFound, Code: "SUBSCRIPTION_NOT_FOUND", Kind: KindNotFound}
	ErrPlanNotFound      = Error{Status: http.StatusNotFound, Code: "PLAN_NOT_FOUND", Kind: KindNotFound}
	ErrStoreUnavailable  = Error{Status: http.StatusServiceUnavailable, Code: "STORE_UNAVAILABLE", Kind: KindDependency}
)

// NewError creates a custom typed error for callers extending the engine.
func NewError(status int, code string, kind Kind) Error {
	return Error{Status: status, Code: code, Kind: kind}
}
