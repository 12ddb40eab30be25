package rounds

import (
	"errors"
	"fmt"
)

// InvariantViolationError indicates corrupt round state: a settlement
// sum that does not reconstruct, a malformed slate, an arithmetic
// overflow, or an overlapping tick. It is fatal; the node must halt
// rather than continue from a state that can no longer be trusted.
type InvariantViolationError struct {
	err error
}

func NewInvariantViolationErrorf(msg string, args ...interface{}) error {
	return InvariantViolationError{
		err: fmt.Errorf(msg, args...),
	}
}

func (e InvariantViolationError) Error() string {
	return fmt.Sprintf("round invariant violated: %s", e.err.Error())
}

func (e InvariantViolationError) Unwrap() error {
	return e.err
}

// IsInvariantViolationError returns whether the given error is an
// InvariantViolationError.
func IsInvariantViolationError(err error) bool {
	var target InvariantViolationError
	return errors.As(err, &target)
}
