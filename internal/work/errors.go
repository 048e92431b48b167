package work

import "errors"

// ErrNotFound is returned by stores when a requested work does not exist.
// Store-specific errors wrap it so callers can test with errors.Is.
var ErrNotFound = errors.New("work not found")
