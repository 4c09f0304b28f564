package trace

import (
	"bufio"
	"io"
	"sync"
)

// RingTracer keeps the most recent events in a fixed-size circular buffer
// so they can be dumped after a scenario fails.
type RingTracer struct {
	mu    sync.RWMutex
	buf   []Event
	next  int // slot for the next event
	count int // stored events, at most len(buf)
	level Level
}

// NewRingTracer creates a RingTracer holding up to capacity events
// (4096 when capacity <= 0).
func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = 4096
	}
	return &RingTracer{buf: make([]Event, capacity), level: level}
}

// Emit stores a copy of ev, overwriting the oldest event when full.
func (t *RingTracer) Emit(ev *Event) {
	if !t.level.ShouldEmit(ev) {
		return
	}
	if ev.Seq == 0 {
		ev.Seq = NextSeq()
	}

	t.mu.Lock()
	t.buf[t.next] = *ev
	t.next = (t.next + 1) % len(t.buf)
	t.count = min(t.count+1, len(t.buf))
	t.mu.Unlock()
}

// Len returns the number of stored events.
func (t *RingTracer) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.count
}

// Snapshot returns the stored events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Event, 0, t.count)
	start := (t.next - t.count + len(t.buf)) % len(t.buf)
	for i := range t.count {
		out = append(out, t.buf[(start+i)%len(t.buf)])
	}
	return out
}

// Dump writes the stored events to w, oldest first.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	bw := bufio.NewWriter(w)
	events := t.Snapshot()
	for i := range events {
		if _, err := bw.Write(FormatEvent(&events[i], format)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func (t *RingTracer) Flush() error  { return nil }
func (t *RingTracer) Close() error  { return nil }
func (t *RingTracer) Level() Level  { return t.level }
func (t *RingTracer) Enabled() bool { return t.level > LevelOff }
