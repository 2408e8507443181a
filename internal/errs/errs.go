// Package errs defines the error kinds surfaced by the contributor portal
// core. Callers match on them with errors.Is / errors.As.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated means the operation required a signed-in
	// collaborator and none was present. Raised before any write.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrStorageUnavailable wraps connectivity failures from the document
	// store.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrPermissionDenied wraps store-level authorization failures.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned by status updates against an unknown
	// submission id. Plain lookups return nil instead.
	ErrNotFound = errors.New("submission not found")

	// ErrConflict means a compare-and-swap status update lost the race:
	// the stored version no longer matches the expected one.
	ErrConflict = errors.New("version conflict")

	// ErrDeadlineExceeded means a storage call ran past its configured
	// deadline.
	ErrDeadlineExceeded = errors.New("storage deadline exceeded")

	// ErrInvalidTransition means a status change would move backwards in
	// the submission lifecycle.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// FieldError is a single schema-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates schema-level failures for one payload. It is
// raised before any storage call is attempted.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d field error(s)", len(e.Fields))
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
