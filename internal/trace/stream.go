package trace

import (
	"io"
	"sync"
)

// StreamTracer writes events immediately to an io.Writer.
type StreamTracer struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer // set when the tracer owns the output
	level  Level
	format Format
	err    error // first write error
}

// NewStreamTracer creates a new StreamTracer. The writer is not closed by
// Close; callers keep ownership of it.
func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	if format == FormatAuto {
		format = FormatText
	}
	return &StreamTracer{
		w:      w,
		level:  level,
		format: format,
	}
}

// Emit writes an event to the output.
func (t *StreamTracer) Emit(ev *Event) {
	if !t.level.ShouldEmit(ev) {
		return
	}
	if ev.Seq == 0 {
		ev.Seq = NextSeq()
	}

	data := FormatEvent(ev, t.format)

	t.mu.Lock()
	defer t.mu.Unlock()

	// Best-effort write: a broken trace sink must not fail the traced work.
	// The first error is reported by Flush.
	if _, err := t.w.Write(data); err != nil && t.err == nil {
		t.err = err
	}
}

// Flush reports the first write error and flushes the writer if it
// supports it.
func (t *StreamTracer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return t.err
	}
	if flusher, ok := t.w.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	return nil
}

// Close flushes and closes the output if the tracer opened it.
func (t *StreamTracer) Close() error {
	err := t.Flush()
	if t.closer != nil {
		if cerr := t.closer.Close(); cerr != nil && err == nil {
			err = cerr
		}
		t.closer = nil
	}
	return err
}

// Level returns the current tracing level.
func (t *StreamTracer) Level() Level {
	return t.level
}

// Enabled returns true if tracing is active.
func (t *StreamTracer) Enabled() bool {
	return t.level > LevelOff
}
