// Package spans exports trace stack frames as OpenTelemetry spans.
//
// Every push starts a span parented to the span of the enclosing frame and
// every pop ends it with the frame's own start time and elapsed duration, so
// the exported tree matches the stack even when spans are batched.
package spans

import (
	"context"
	"fmt"

	"fortio.org/safecast"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"trackstack/internal/stack"
)

// Attribute keys set on frame spans.
const (
	KeyFrameID   = attribute.Key("trackstack.frame.id")
	KeyFrameSpan = attribute.Key("trackstack.frame.span")
	KeyValue     = attribute.Key("trackstack.frame.value")
)

// Observer is a stack.Observer that mirrors frames as spans. Like the stack
// it observes it is not safe for concurrent use.
type Observer[T any] struct {
	tracer trace.Tracer
	label  func(T) string
	attrs  []attribute.KeyValue
	ctxs   []context.Context // ctxs[0] is the root
	open   []trace.Span
}

// NewObserver creates an Observer starting root spans under ctx. attrs are
// added to every span. Elements are named with fmt.Sprint unless label is
// given.
func NewObserver[T any](ctx context.Context, tracer trace.Tracer, label func(T) string, attrs ...attribute.KeyValue) *Observer[T] {
	if label == nil {
		label = func(v T) string { return fmt.Sprint(v) }
	}
	return &Observer[T]{
		tracer: tracer,
		label:  label,
		attrs:  attrs,
		ctxs:   []context.Context{ctx},
	}
}

// OnPushed starts a span for frame.
func (o *Observer[T]) OnPushed(frame stack.Frame[T]) {
	attrs := append([]attribute.KeyValue{frameID(frame.ID)}, o.attrs...)
	ctx, span := o.tracer.Start(o.ctxs[len(o.ctxs)-1], o.label(frame.Element),
		trace.WithTimestamp(frame.Start),
		trace.WithAttributes(attrs...),
	)
	o.ctxs = append(o.ctxs, ctx)
	o.open = append(o.open, span)
}

// OnPopped ends the innermost open span. Pops without a matching push are
// ignored.
func (o *Observer[T]) OnPopped(result stack.Result[T]) {
	if len(o.open) == 0 {
		return
	}
	span := o.open[len(o.open)-1]
	o.open = o.open[:len(o.open)-1]
	o.ctxs = o.ctxs[:len(o.ctxs)-1]

	span.SetAttributes(KeyFrameSpan.Int64(result.Span))
	if result.Err != nil {
		span.RecordError(result.Err)
		span.SetStatus(codes.Error, result.Err.Error())
	} else if result.Value != nil {
		span.SetAttributes(KeyValue.String(fmt.Sprint(result.Value)))
	}
	span.End(trace.WithTimestamp(result.Frame.Start.Add(result.Elapsed)))
}

// Open returns the number of spans started and not yet ended.
func (o *Observer[T]) Open() int {
	return len(o.open)
}

func frameID(id uint64) attribute.KeyValue {
	v, err := safecast.Conv[int64](id)
	if err != nil {
		return KeyFrameID.String(fmt.Sprint(id))
	}
	return KeyFrameID.Int64(v)
}
