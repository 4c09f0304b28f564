package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	// KindBegin marks a frame being pushed.
	KindBegin Kind = iota + 1
	// KindEnd marks a frame being popped.
	KindEnd
	KindPoint     // instant event
	KindHeartbeat // periodic liveness signal
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindBegin:
		return "begin"
	case KindEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindHeartbeat:
		return "heartbeat"
	default:
		return "unknown"
	}
}

// Event represents a single trace event.
type Event struct {
	Time     time.Time         `msgpack:"time"`
	Seq      uint64            `msgpack:"seq"`     // global sequence number (monotonic)
	Kind     Kind              `msgpack:"kind"`    // event kind
	FrameID  uint64            `msgpack:"frame"`   // id assigned by the owning stack
	ParentID uint64            `msgpack:"parent"`  // enclosing frame (0 if outermost)
	Depth    int               `msgpack:"depth"`   // nesting level, 0 for outermost
	GID      uint64            `msgpack:"gid"`     // goroutine owning the stack
	Name     string            `msgpack:"name"`    // rendered frame element
	Detail   string            `msgpack:"detail"`  // rendered value on end events
	Elapsed  time.Duration     `msgpack:"elapsed"` // end events only
	Span     int64             `msgpack:"span"`    // end events only
	Err      string            `msgpack:"err"`     // failure of the closed scope
	Extra    map[string]string `msgpack:"extra"`   // extensible key-value pairs
}

// Failed reports whether ev is an end event of a failed scope.
func (ev *Event) Failed() bool {
	return ev.Kind == KindEnd && ev.Err != ""
}
