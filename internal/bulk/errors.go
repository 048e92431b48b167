package bulk

import (
	"errors"
	"fmt"
)

// ErrTooManyRequested is returned when a request names more than MaxBulkSize
// entries. Nothing is resolved in that case.
var ErrTooManyRequested = errors.New("too many works requested")

// NotFoundError reports a well-formed work id with no record in the store.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("work %d not found", e.ID)
}

// MalformedInputError reports a requested entry that is not a positive
// base-10 work id.
type MalformedInputError struct {
	Input string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed work id %q", e.Input)
}

// IsNotFound reports whether err is a per-item not-found failure.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsMalformed reports whether err is a per-item malformed-input failure.
func IsMalformed(err error) bool {
	var mi *MalformedInputError
	return errors.As(err, &mi)
}
