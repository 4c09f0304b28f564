package stack

import "context"

// ctxKey is the key type for storing a Stack in context.
type ctxKey struct{}

// WithStack attaches s to ctx. A stack must only travel with the goroutine
// that owns it.
func WithStack[T any](ctx context.Context, s *Stack[T]) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext extracts the Stack attached by WithStack.
// It reports false if there is none or it has a different element type.
func FromContext[T any](ctx context.Context) (*Stack[T], bool) {
	if ctx == nil {
		return nil, false
	}
	s, ok := ctx.Value(ctxKey{}).(*Stack[T])
	return s, ok && s != nil
}
