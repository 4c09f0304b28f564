package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	// LevelOff disables tracing.
	LevelOff    Level = iota // no tracing
	LevelError               // only frames that closed with a failure
	LevelFrames              // every push and pop
	LevelDebug               // everything including point events
)

// String returns the string representation of Level.
func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelError:
		return "error"
	case LevelFrames:
		return "frames"
	case LevelDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "":
		return LevelOff, nil
	case "error":
		return LevelError, nil
	case "frames":
		return LevelFrames, nil
	case "debug":
		return LevelDebug, nil
	default:
		return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|error|frames|debug)", s)
	}
}

// ShouldEmit returns true if ev should be recorded at this level.
// Heartbeats pass at every level but off.
func (l Level) ShouldEmit(ev *Event) bool {
	if ev == nil || l == LevelOff {
		return false
	}
	if ev.Kind == KindHeartbeat {
		return true
	}
	switch l {
	case LevelError:
		return ev.Failed()
	case LevelFrames:
		return ev.Kind == KindBegin || ev.Kind == KindEnd
	case LevelDebug:
		return true
	}
	return false
}
