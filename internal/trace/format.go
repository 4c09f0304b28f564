package trace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Format represents the output format for trace events.
type Format uint8

const (
	FormatAuto    Format = iota // pick by output file extension
	FormatText                  // human-readable text
	FormatNDJSON                // newline-delimited JSON
	FormatMsgpack               // concatenated MessagePack records
)

// String returns the string representation of Format.
func (f Format) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case FormatText:
		return "text"
	case FormatNDJSON:
		return "ndjson"
	case FormatMsgpack:
		return "msgpack"
	default:
		return "unknown"
	}
}

// ParseFormat converts a string to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "text":
		return FormatText, nil
	case "ndjson", "json":
		return FormatNDJSON, nil
	case "msgpack", "mp":
		return FormatMsgpack, nil
	default:
		return FormatAuto, fmt.Errorf("invalid trace format: %q (expected: auto|text|ndjson|msgpack)", s)
	}
}

// DetectFormat picks a format from an output path. Stderr ("" or "-")
// always gets text.
func DetectFormat(path string) Format {
	switch {
	case path == "" || path == "-":
		return FormatText
	case strings.HasSuffix(path, ".ndjson"), strings.HasSuffix(path, ".json"):
		return FormatNDJSON
	case strings.HasSuffix(path, ".mp"), strings.HasSuffix(path, ".msgpack"):
		return FormatMsgpack
	default:
		return FormatText
	}
}

// FormatEvent formats an event according to the specified format.
func FormatEvent(ev *Event, format Format) []byte {
	switch format {
	case FormatNDJSON:
		return formatNDJSON(ev)
	case FormatMsgpack:
		return formatMsgpack(ev)
	default:
		return formatText(ev)
	}
}

// formatNDJSON formats an event as newline-delimited JSON.
func formatNDJSON(ev *Event) []byte {
	type jsonEvent struct {
		Time      string            `json:"time"`
		Seq       uint64            `json:"seq"`
		Kind      string            `json:"kind"`
		FrameID   uint64            `json:"frame_id,omitempty"`
		ParentID  uint64            `json:"parent_id,omitempty"`
		Depth     int               `json:"depth"`
		GID       uint64            `json:"gid,omitempty"`
		Name      string            `json:"name"`
		Detail    string            `json:"detail,omitempty"`
		ElapsedMS float64           `json:"elapsed_ms,omitempty"`
		Span      int64             `json:"span,omitempty"`
		Err       string            `json:"error,omitempty"`
		Extra     map[string]string `json:"extra,omitempty"`
	}

	j := jsonEvent{
		Time:      ev.Time.Format("2006-01-02T15:04:05.000000Z07:00"),
		Seq:       ev.Seq,
		Kind:      ev.Kind.String(),
		FrameID:   ev.FrameID,
		ParentID:  ev.ParentID,
		Depth:     ev.Depth,
		GID:       ev.GID,
		Name:      ev.Name,
		Detail:    ev.Detail,
		ElapsedMS: durationToMillis(ev.Elapsed),
		Span:      ev.Span,
		Err:       ev.Err,
		Extra:     ev.Extra,
	}

	data, _ := json.Marshal(j)
	data = append(data, '\n')
	return data
}

func formatMsgpack(ev *Event) []byte {
	data, err := msgpack.Marshal(ev)
	if err != nil {
		// Event only holds msgpack-native field types.
		panic(fmt.Errorf("trace: msgpack encode: %w", err))
	}
	return data
}

// DecodeMsgpack reads every event of a MessagePack trace.
func DecodeMsgpack(r io.Reader) ([]Event, error) {
	dec := msgpack.NewDecoder(r)
	var events []Event
	for {
		var ev Event
		if err := dec.Decode(&ev); err != nil {
			if errors.Is(err, io.EOF) {
				return events, nil
			}
			return events, fmt.Errorf("decode event %d: %w", len(events)+1, err)
		}
		events = append(events, ev)
	}
}

// formatText formats an event as human-readable text.
// Format: [seq] [indent]→/← name #id (details)
func formatText(ev *Event) []byte {
	var sb strings.Builder

	fmt.Fprintf(&sb, "[%6d] ", ev.Seq)
	sb.WriteString(strings.Repeat("  ", max(ev.Depth, 0)))

	switch ev.Kind {
	case KindBegin:
		sb.WriteString("\u2192 ") // →
	case KindEnd:
		sb.WriteString("\u2190 ") // ←
	case KindPoint:
		sb.WriteString("\u2022 ") // •
	case KindHeartbeat:
		sb.WriteString("\u2661 ") // ♡
	}

	sb.WriteString(ev.Name)
	if ev.FrameID > 0 {
		fmt.Fprintf(&sb, " #%d", ev.FrameID)
	}
	if ev.Kind == KindEnd {
		fmt.Fprintf(&sb, " %.3fms span=%d", durationToMillis(ev.Elapsed), ev.Span)
	}
	if ev.Err != "" {
		sb.WriteString(" error=")
		sb.WriteString(ev.Err)
	}
	if ev.Detail != "" {
		sb.WriteString(" (")
		sb.WriteString(ev.Detail)
		sb.WriteString(")")
	}

	if len(ev.Extra) > 0 {
		keys := make([]string, 0, len(ev.Extra))
		for k := range ev.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteString("=")
			sb.WriteString(ev.Extra[k])
		}
		sb.WriteString("}")
	}

	sb.WriteString("\n")
	return []byte(sb.String())
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
