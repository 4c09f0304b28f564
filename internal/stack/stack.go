package stack

import (
	"fmt"
	"strings"
	"time"

	"fortio.org/safecast"
	"go.uber.org/zap"
)

// Stack is a LIFO container of live frames. It owns id generation.
// The zero value is not usable; call New.
type Stack[T any] struct {
	frames []Frame[T] // bottom first
	lastID uint64     // most recently minted id, 0 before the first push
	now    func() time.Time
	logger *zap.Logger
}

type options struct {
	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Stack.
type Option func(*options)

// WithLogger sets the logger used for failures that cannot be returned,
// such as a pop failure while the wrapped operation already failed.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock replaces time.Now. Frames and Results use it for timing.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// New creates an empty stack.
func New[T any](opts ...Option) *Stack[T] {
	o := options{
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Stack[T]{
		frames: make([]Frame[T], 0, 16),
		now:    o.now,
		logger: o.logger,
	}
}

// Push places a new frame for elem on top of the stack and returns its id.
func (s *Stack[T]) Push(elem T) uint64 {
	s.lastID++
	s.frames = append(s.frames, Frame[T]{
		Element: elem,
		ID:      s.lastID,
		Start:   s.now(),
	})
	return s.lastID
}

// Pop removes the top frame and returns its Result. The top frame must have
// id expectedID; otherwise a *MismatchError is returned and nothing is removed.
func (s *Stack[T]) Pop(expectedID uint64) (Result[T], error) {
	return s.pop(expectedID, nil, nil)
}

func (s *Stack[T]) pop(expectedID uint64, value any, cause error) (Result[T], error) {
	n := len(s.frames)
	if n == 0 {
		return Result[T]{}, ErrEmptyStack
	}
	top := s.frames[n-1]
	if top.ID != expectedID {
		return Result[T]{}, &MismatchError{Expected: expectedID, Actual: top.ID}
	}
	s.frames[n-1] = Frame[T]{}
	s.frames = s.frames[:n-1]

	elapsed := s.now().Sub(top.Start)
	if elapsed < 0 {
		elapsed = 0
	}
	span, err := safecast.Conv[int64](s.lastID - top.ID)
	if err != nil {
		panic(fmt.Errorf("span overflow: %w", err))
	}
	return Result[T]{
		Frame:   top,
		Value:   value,
		Err:     cause,
		Elapsed: elapsed,
		Span:    span,
	}, nil
}

// Peek returns the top frame without removing it.
func (s *Stack[T]) Peek() (Frame[T], error) {
	if len(s.frames) == 0 {
		return Frame[T]{}, ErrEmptyStack
	}
	return s.frames[len(s.frames)-1], nil
}

// Depth returns the number of live frames.
func (s *Stack[T]) Depth() int {
	return len(s.frames)
}

// NextID returns the id the next Push will assign.
func (s *Stack[T]) NextID() uint64 {
	return s.lastID + 1
}

// Snapshot returns a copy of the live frames, top of stack first.
func (s *Stack[T]) Snapshot() []Frame[T] {
	out := make([]Frame[T], len(s.frames))
	for i, f := range s.frames {
		out[len(s.frames)-1-i] = f
	}
	return out
}

// String renders the live frames one per line, outermost first, indented
// by two spaces per nesting level.
func (s *Stack[T]) String() string {
	var sb strings.Builder
	for depth, f := range s.frames {
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString(f.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
