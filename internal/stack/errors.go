package stack

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyStack is returned by Pop and Peek on a stack with no live frames.
	ErrEmptyStack = errors.New("stack: empty")

	// ErrStackMismatch matches every *MismatchError.
	ErrStackMismatch = errors.New("stack: mismatched pop")
)

// MismatchError reports a Pop whose expected id is not the id on top of the
// stack. Scopes were closed out of order; the stack is left untouched.
type MismatchError struct {
	Expected uint64
	Actual   uint64
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("stack: mismatched pop: expected frame #%d, top is #%d", e.Expected, e.Actual)
}

// Is makes errors.Is(err, ErrStackMismatch) true.
func (e *MismatchError) Is(target error) bool {
	return target == ErrStackMismatch
}

// PanicError is the Result.Err recorded when a wrapped operation panics.
// The panic itself is re-raised after the scope closes.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
