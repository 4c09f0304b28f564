package stack

// Observer receives push and pop notifications from scoped runs.
//
// OnPushed is called after the frame is on the stack and before the wrapped
// operation runs. OnPopped is called after the frame is removed and its
// Result computed. Hooks must not push or pop on the observed stack, and
// must copy any data they want to keep past the call.
type Observer[T any] interface {
	OnPushed(frame Frame[T])
	OnPopped(result Result[T])
}

// Funcs adapts two function values to an Observer. Nil fields are skipped.
type Funcs[T any] struct {
	Pushed func(Frame[T])
	Popped func(Result[T])
}

// OnPushed calls f.Pushed.
func (f Funcs[T]) OnPushed(frame Frame[T]) {
	if f.Pushed != nil {
		f.Pushed(frame)
	}
}

// OnPopped calls f.Popped.
func (f Funcs[T]) OnPopped(result Result[T]) {
	if f.Popped != nil {
		f.Popped(result)
	}
}

// multiObserver fans out notifications to several observers in order.
type multiObserver[T any] struct {
	observers []Observer[T]
}

// Multi returns an Observer that notifies every non-nil observer in order.
func Multi[T any](observers ...Observer[T]) Observer[T] {
	list := make([]Observer[T], 0, len(observers))
	for _, o := range observers {
		if o != nil {
			list = append(list, o)
		}
	}
	if len(list) == 1 {
		return list[0]
	}
	return &multiObserver[T]{observers: list}
}

func (m *multiObserver[T]) OnPushed(frame Frame[T]) {
	for _, o := range m.observers {
		o.OnPushed(frame)
	}
}

func (m *multiObserver[T]) OnPopped(result Result[T]) {
	for _, o := range m.observers {
		o.OnPopped(result)
	}
}

type nopObserver[T any] struct{}

func (nopObserver[T]) OnPushed(Frame[T])  {}
func (nopObserver[T]) OnPopped(Result[T]) {}
