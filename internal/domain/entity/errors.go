package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery is wrapped by every rejection of a screening query.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrValidationFailed matches any *ValidationError.
	ErrValidationFailed = errors.New("validation failed")

	// ErrInvalidURL marks a document URL that cannot be canonicalised.
	ErrInvalidURL = errors.New("invalid url")
)

// ValidationError names the field of an audit record, query or document
// that was rejected. Its message is safe to return to clients.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }
