package stack

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// ErrAborted is the Result.Err of a scope whose goroutine called runtime.Goexit.
var ErrAborted = errors.New("stack: scope aborted by runtime.Goexit")

// Run executes op inside a frame for elem and returns op's value.
//
// The frame is pushed and obs.OnPushed is called before op runs. Whatever
// way op exits, the frame is popped and obs.OnPopped receives its Result
// exactly once before Run returns, and op's error or panic is passed on
// unchanged. obs may be nil.
func Run[T, U any](s *Stack[T], elem T, obs Observer[T], op func() (U, error)) (U, error) {
	value, _, err := scoped(s, elem, obs, op)
	return value, err
}

// RunResult is Run returning the full Result of the closed frame.
// On failure the Result is still returned, with Err set, whenever the
// frame could be popped.
func RunResult[T, U any](s *Stack[T], elem T, obs Observer[T], op func() (U, error)) (Result[T], error) {
	_, res, err := scoped(s, elem, obs, op)
	return res, err
}

// RunContext is Run for operations that observe a context. Cancellation is
// a failure exit: op is skipped when ctx is already done, and a successful
// op that returns after ctx is done fails with context.Cause(ctx).
func RunContext[T, U any](ctx context.Context, s *Stack[T], elem T, obs Observer[T], op func(context.Context) (U, error)) (U, error) {
	value, _, err := scoped(s, elem, obs, func() (U, error) {
		var zero U
		if ctx.Err() != nil {
			return zero, context.Cause(ctx)
		}
		v, err := op(ctx)
		if err == nil && ctx.Err() != nil {
			return v, context.Cause(ctx)
		}
		return v, err
	})
	return value, err
}

func scoped[T, U any](s *Stack[T], elem T, obs Observer[T], op func() (U, error)) (value U, res Result[T], err error) {
	if obs == nil {
		obs = nopObserver[T]{}
	}
	id := s.Push(elem)

	returned := false
	defer func() {
		if returned {
			return
		}
		r := recover()
		var cause error = &PanicError{Value: r}
		if r == nil {
			cause = ErrAborted
		}
		closed, popErr := s.pop(id, nil, cause)
		if popErr != nil {
			s.logger.Warn("close scope on abnormal exit",
				zap.Uint64("frame", id), zap.NamedError("cause", cause), zap.Error(popErr))
		} else {
			obs.OnPopped(closed)
		}
		if r != nil {
			panic(r)
		}
	}()

	obs.OnPushed(s.frames[len(s.frames)-1])
	value, err = op()
	returned = true

	res, popErr := s.pop(id, value, err)
	if popErr != nil {
		if err != nil {
			s.logger.Warn("close scope after failed operation",
				zap.Uint64("frame", id), zap.NamedError("cause", err), zap.Error(popErr))
			return value, Result[T]{}, err
		}
		return value, Result[T]{}, popErr
	}
	obs.OnPopped(res)
	return value, res, err
}
