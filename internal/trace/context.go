package trace

import "context"

// ctxKey is the key type for storing Tracer in context.
type ctxKey struct{}

// FromContext extracts the Tracer from context.
// If not found, returns Nop tracer.
func FromContext(ctx context.Context) Tracer {
	if ctx == nil {
		return Nop
	}
	if t, ok := ctx.Value(ctxKey{}).(Tracer); ok {
		return t
	}
	return Nop
}

// WithTracer attaches a Tracer to context.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, ctxKey{}, t)
}

// Point emits an instant event on the context's tracer.
func Point(ctx context.Context, name, detail string) {
	t := FromContext(ctx)
	if !t.Enabled() {
		return
	}
	t.Emit(&Event{
		Time:   now(),
		Kind:   KindPoint,
		GID:    getGoroutineID(),
		Name:   name,
		Detail: detail,
	})
}
