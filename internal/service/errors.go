package service

import "fmt"

// Reason codes carried by InvalidStateError.
const (
	ReasonNotActive        = "not-active"
	ReasonExpired          = "expired"
	ReasonAlreadyResponded = "already-responded"
)

// ValidationError reports malformed or missing input, naming the offending
// field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AuthorizationError reports that the caller does not own the resource.
type AuthorizationError struct {
	Resource string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("caller has no access to this %s", e.Resource)
}

// InvalidStateError reports that the operation is not legal in the
// resource's current lifecycle state.
type InvalidStateError struct {
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("operation not allowed: %s", e.Reason)
}

// NotFoundError reports that the referenced record is absent.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}
