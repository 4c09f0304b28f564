package stack

import (
	"fmt"
	"time"
)

// Frame is one live tracked scope.
type Frame[T any] struct {
	Element T         // payload supplied by the caller
	ID      uint64    // unique within the owning stack, assigned at push
	Start   time.Time // captured at push, carries a monotonic reading
}

// String returns "#<id> <element>".
func (f Frame[T]) String() string {
	return fmt.Sprintf("#%d %v", f.ID, f.Element)
}

// Result summarizes a closed frame. It is produced once, when the frame pops.
type Result[T any] struct {
	Frame   Frame[T]      // the frame that closed
	Value   any           // value of the wrapped operation, nil for a manual Pop
	Err     error         // failure the wrapped operation exited with
	Elapsed time.Duration // pop time minus Frame.Start, never negative
	Span    int64         // ids minted while the frame was open
}

// Failed reports whether the scope closed on a failure path.
func (r Result[T]) Failed() bool {
	return r.Err != nil
}

// Millis returns Elapsed in fractional milliseconds.
func (r Result[T]) Millis() float64 {
	return float64(r.Elapsed) / float64(time.Millisecond)
}

// String returns "<value> (<ms> ms, <span> frames)".
func (r Result[T]) String() string {
	if r.Err != nil {
		return fmt.Sprintf("error: %v (%.3f ms, %d frames)", r.Err, r.Millis(), r.Span)
	}
	return fmt.Sprintf("%v (%.3f ms, %d frames)", r.Value, r.Millis(), r.Span)
}
