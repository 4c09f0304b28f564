package trace

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Tracer is the main interface for emitting trace events.
type Tracer interface {
	// Emit records a trace event. Must be goroutine-safe.
	Emit(ev *Event)

	// Flush ensures all buffered events are written.
	Flush() error

	// Close flushes and releases resources.
	Close() error

	// Level returns the current tracing level.
	Level() Level

	// Enabled returns true if tracing is active (Level > LevelOff).
	Enabled() bool
}

// StorageMode determines how events are stored.
type StorageMode uint8

const (
	ModeStream StorageMode = iota + 1 // immediate write
	ModeRing                          // circular buffer
	ModeBoth                          // stream + ring
)

// String returns the string representation of StorageMode.
func (m StorageMode) String() string {
	switch m {
	case ModeStream:
		return "stream"
	case ModeRing:
		return "ring"
	case ModeBoth:
		return "both"
	default:
		return "unknown"
	}
}

// ParseMode converts a string to StorageMode.
func ParseMode(s string) (StorageMode, error) {
	switch strings.ToLower(s) {
	case "stream":
		return ModeStream, nil
	case "ring":
		return ModeRing, nil
	case "both":
		return ModeBoth, nil
	default:
		return ModeRing, fmt.Errorf("invalid storage mode: %q (expected: stream|ring|both)", s)
	}
}

// Config holds tracer configuration.
type Config struct {
	Level      Level       // tracing level
	Mode       StorageMode // storage mode
	Format     Format      // output format (FormatAuto for auto-detection)
	Output     io.Writer   // for stream mode (if nil, use OutputPath)
	OutputPath string      // alternative: file path ("-" for stderr)
	RingSize   int         // for ring mode (default 4096)
}

// New builds the tracer described by cfg. LevelOff yields Nop.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	if cfg.RingSize <= 0 {
		cfg.RingSize = 4096
	}

	switch cfg.Mode {
	case ModeStream:
		return newStream(cfg)
	case ModeRing:
		return NewRingTracer(cfg.RingSize, cfg.Level), nil
	case ModeBoth:
		st, err := newStream(cfg)
		if err != nil {
			return nil, err
		}
		return NewMultiTracer(cfg.Level, st, NewRingTracer(cfg.RingSize, cfg.Level)), nil
	default:
		return nil, fmt.Errorf("unknown storage mode: %v", cfg.Mode)
	}
}

// newStream opens cfg's output. Only a file opened here is closed by the
// returned tracer.
func newStream(cfg Config) (*StreamTracer, error) {
	format := cfg.Format
	if format == FormatAuto {
		format = DetectFormat(cfg.OutputPath)
	}
	w := cfg.Output
	var owned io.Closer
	switch {
	case w != nil:
	case cfg.OutputPath == "" || cfg.OutputPath == "-":
		w = os.Stderr
	default:
		f, err := os.Create(cfg.OutputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open trace output: %w", err)
		}
		w, owned = f, f
	}
	st := NewStreamTracer(w, cfg.Level, format)
	st.closer = owned
	return st, nil
}

// Ring returns the RingTracer inside t, if t is one or fans out to one.
func Ring(t Tracer) (*RingTracer, bool) {
	switch v := t.(type) {
	case *RingTracer:
		return v, true
	case *MultiTracer:
		for _, inner := range v.tracers {
			if r, ok := Ring(inner); ok {
				return r, true
			}
		}
	}
	return nil, false
}
