package holdem

import "fmt"

// PreconditionError means an operation could not start at all (not enough
// funded players, dealing from an exhausted deck). The requested operation is
// aborted cleanly; no state was mutated.
type PreconditionError struct {
	Op     string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func precondition(op, format string, args ...any) error {
	return &PreconditionError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// InvariantViolation means internal accounting failed to reconcile (pot totals
// vs. contributions). It must never occur in correct code; callers should fail
// loudly rather than continue with corrupted state.
type InvariantViolation struct {
	Detail string
}

func (e *InvariantViolation) Error() string {
	return "invariant violation: " + e.Detail
}

func invariant(format string, args ...any) error {
	return &InvariantViolation{Detail: fmt.Sprintf(format, args...)}
}
