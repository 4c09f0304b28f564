package trace

import (
	"fmt"

	"trackstack/internal/stack"
)

// Observer emits begin and end events for the frames of one stack.
// Like the stack it observes, it belongs to a single goroutine.
type Observer[T any] struct {
	tracer  Tracer
	gid     uint64
	parents []uint64
}

// NewObserver returns a stack.Observer that reports to t.
func NewObserver[T any](t Tracer) *Observer[T] {
	if t == nil {
		t = Nop
	}
	o := &Observer[T]{tracer: t}
	if t.Enabled() {
		o.gid = getGoroutineID()
	}
	return o
}

// OnPushed emits a begin event.
func (o *Observer[T]) OnPushed(frame stack.Frame[T]) {
	parent := o.parent()
	depth := len(o.parents)
	o.parents = append(o.parents, frame.ID)
	if !o.tracer.Enabled() {
		return
	}
	o.tracer.Emit(&Event{
		Time:     frame.Start,
		Kind:     KindBegin,
		FrameID:  frame.ID,
		ParentID: parent,
		Depth:    depth,
		GID:      o.gid,
		Name:     fmt.Sprint(frame.Element),
	})
}

// OnPopped emits an end event.
func (o *Observer[T]) OnPopped(result stack.Result[T]) {
	if n := len(o.parents); n > 0 {
		o.parents = o.parents[:n-1]
	}
	if !o.tracer.Enabled() {
		return
	}
	ev := &Event{
		Time:     now(),
		Kind:     KindEnd,
		FrameID:  result.Frame.ID,
		ParentID: o.parent(),
		Depth:    len(o.parents),
		GID:      o.gid,
		Name:     fmt.Sprint(result.Frame.Element),
		Elapsed:  result.Elapsed,
		Span:     result.Span,
	}
	if result.Err != nil {
		ev.Err = result.Err.Error()
	} else if result.Value != nil {
		ev.Detail = fmt.Sprint(result.Value)
	}
	o.tracer.Emit(ev)
}

func (o *Observer[T]) parent() uint64 {
	if len(o.parents) == 0 {
		return 0
	}
	return o.parents[len(o.parents)-1]
}
