// Package stack implements a scoped execution-trace stack.
//
// A Stack records, in strict LIFO order, the frames currently in progress.
// Every frame gets an id that is unique within its stack and strictly
// increasing in push order. When a frame closes it yields a Result carrying
// the elapsed time and the number of ids minted while it was open.
//
// # Usage
//
// Wrap an operation in a scope instead of pairing Push and Pop by hand:
//
//	s := stack.New[string]()
//	p := stack.NewPrinter[string](os.Stderr)
//
//	v, err := stack.Run(s, "parse", p, func() (int, error) {
//		return parse(src)
//	})
//
// The scope is closed (popped, timed, reported) on every exit path: normal
// return, error, panic and runtime.Goexit. RunContext additionally treats
// context cancellation as a failure.
//
// # Ownership
//
// A Stack is not safe for concurrent use. Use one Stack per goroutine, the
// same way each goroutine has its own call stack. WithStack and FromContext
// hand a stack down a call chain.
//
// # Observers
//
// An Observer receives OnPushed before the wrapped operation runs and
// OnPopped after the matching frame is removed. Observers must not push or
// pop on the stack they observe.
package stack
