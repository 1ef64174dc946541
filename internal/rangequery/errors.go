package rangequery

import "errors"

var (
	// ErrInvalidFormat marks a bound that is not a base-10 integer.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrInvalidRange marks bounds that parse but are inconsistent, or a
	// negative capacity bound.
	ErrInvalidRange = errors.New("invalid range")

	// ErrStorage marks an unexpected failure reading or aggregating stored
	// batteries.
	ErrStorage = errors.New("storage failure")

	// ErrCapacityOverflow marks stored capacities whose sum exceeds int64.
	ErrCapacityOverflow = errors.New("total capacity overflows int64")
)

// ValidationError is a client-facing validation failure. Message is safe to
// return to callers verbatim.
type ValidationError struct {
	Field   string
	Message string
	kind    error
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap exposes ErrInvalidFormat or ErrInvalidRange to errors.Is.
func (e *ValidationError) Unwrap() error {
	return e.kind
}

func invalidFormat(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message, kind: ErrInvalidFormat}
}

func invalidRange(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message, kind: ErrInvalidRange}
}
