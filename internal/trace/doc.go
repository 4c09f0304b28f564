// Package trace turns frame push/pop notifications into structured events.
//
// The package records what a stack.Stack does so that slow or hung
// operations can be diagnosed after the fact.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	trackstack run --trace=- --trace-level=frames build.toml
//
// and attach an Observer to the scoped runs:
//
//	tr, err := trace.New(trace.Config{Level: trace.LevelFrames, Mode: trace.ModeStream})
//	obs := trace.NewObserver[string](tr)
//	stack.Run(s, "parse", obs, parse)
//
// # Architecture
//
// The package provides several tracer implementations:
//
//   - Nop: Zero-overhead no-op tracer when disabled
//   - StreamTracer: Immediate write to output (file/stderr)
//   - RingTracer: Circular buffer for crash dumps
//   - MultiTracer: Combines multiple tracers
//
// # Levels
//
//   - LevelOff: No tracing
//   - LevelError: Only frames that closed with a failure
//   - LevelFrames: Every push and pop
//   - LevelDebug: Everything including point events
//
// # Formats
//
// Events are written as text, newline-delimited JSON or MessagePack.
// MessagePack traces are read back with DecodeMsgpack.
package trace
