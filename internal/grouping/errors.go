package grouping

import "fmt"

// InvariantViolation reports a grouping result that breaks the partition
// invariants. It indicates a bug in the engine, not bad input data, and
// callers must treat it as fatal.
type InvariantViolation struct {
	Reason string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("grouping invariant violated: %s", e.Reason)
}

func violation(format string, args ...any) *InvariantViolation {
	return &InvariantViolation{Reason: fmt.Sprintf(format, args...)}
}
