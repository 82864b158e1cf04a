package shared

import "errors"

// Error kinds shared across modules. Domain packages wrap these so the HTTP
// boundary can map any error to a response status with errors.Is alone.
var (
	// ErrNotFound indicates a missing or company-mismatched resource.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates input that fails a hard validation rule.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidTransition indicates an illegal lifecycle transition.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrConflict indicates an operation blocked by dependent state.
	ErrConflict = errors.New("dependency conflict")
	// ErrConfigMissing indicates required configuration is absent.
	ErrConfigMissing = errors.New("configuration missing")
)
