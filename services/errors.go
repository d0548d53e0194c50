package services

import "fmt"

// ValidationError marks a request missing required fields; maps to 400.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// AuthorizationError marks a role or ownership mismatch; maps to 403.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return e.Reason
}

// BackendError wraps an unexpected storage failure with operation context;
// maps to 500 and is always logged, never swallowed.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
