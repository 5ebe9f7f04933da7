package analysis

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// NotFoundError reports that a candidate or job does not exist. It is one
// of the two error kinds that reach the caller; everything downstream of a
// valid profile+job pair degrades to a best-effort result instead.
type NotFoundError struct {
	Resource string
	ID       uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ValidationError reports a rejected request (for example a batch of more
// than MaxBatchSize job ids). Raised before any I/O happens.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
