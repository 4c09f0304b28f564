package ui

import (
	"fmt"

	"trackstack/internal/stack"
)

// Observer forwards the frame path of one scenario to a progress channel.
// Sends block while the channel is full, so the receiving model must keep
// draining it until it is closed.
type Observer[T any] struct {
	index  int
	events chan<- Event
	label  func(T) string
	path   []string
	closed int
}

// NewObserver creates an Observer reporting as scenario index. Elements are
// labelled with fmt.Sprint unless label is given.
func NewObserver[T any](index int, events chan<- Event, label func(T) string) *Observer[T] {
	if label == nil {
		label = func(v T) string { return fmt.Sprint(v) }
	}
	return &Observer[T]{index: index, events: events, label: label}
}

// OnPushed reports the new innermost frame.
func (o *Observer[T]) OnPushed(frame stack.Frame[T]) {
	o.path = append(o.path, o.label(frame.Element))
	o.send(StatusRunning)
}

// OnPopped reports the closed frame.
func (o *Observer[T]) OnPopped(stack.Result[T]) {
	if len(o.path) > 0 {
		o.path = o.path[:len(o.path)-1]
	}
	o.closed++
	o.send(StatusRunning)
}

// Finish reports the scenario as done or failed.
func (o *Observer[T]) Finish(err error) {
	o.path = nil
	if err != nil {
		o.send(StatusFailed)
		return
	}
	o.send(StatusDone)
}

func (o *Observer[T]) send(status Status) {
	o.events <- Event{
		Index:  o.index,
		Status: status,
		Path:   append([]string(nil), o.path...),
		Closed: o.closed,
	}
}
