package trace_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"trackstack/internal/stack"
	"trackstack/internal/trace"
)

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want trace.Level
	}{
		{"off", trace.LevelOff},
		{"", trace.LevelOff},
		{"ERROR", trace.LevelError},
		{"frames", trace.LevelFrames},
		{" debug ", trace.LevelDebug},
	}
	for _, tc := range cases {
		got, err := trace.ParseLevel(tc.in)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
	if _, err := trace.ParseLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestLevel_ShouldEmit(t *testing.T) {
	begin := &trace.Event{Kind: trace.KindBegin}
	end := &trace.Event{Kind: trace.KindEnd}
	failed := &trace.Event{Kind: trace.KindEnd, Err: "boom"}
	point := &trace.Event{Kind: trace.KindPoint}
	beat := &trace.Event{Kind: trace.KindHeartbeat}

	cases := []struct {
		level trace.Level
		ev    *trace.Event
		want  bool
	}{
		{trace.LevelOff, failed, false},
		{trace.LevelOff, beat, false},
		{trace.LevelError, begin, false},
		{trace.LevelError, end, false},
		{trace.LevelError, failed, true},
		{trace.LevelError, beat, true},
		{trace.LevelFrames, begin, true},
		{trace.LevelFrames, end, true},
		{trace.LevelFrames, point, false},
		{trace.LevelDebug, point, true},
	}
	for i, tc := range cases {
		if got := tc.level.ShouldEmit(tc.ev); got != tc.want {
			t.Fatalf("case %d: %v.ShouldEmit(%v) = %v, want %v", i, tc.level, tc.ev.Kind, got, tc.want)
		}
	}
}

func TestFormatText(t *testing.T) {
	ev := &trace.Event{
		Seq:     12,
		Kind:    trace.KindEnd,
		FrameID: 3,
		Depth:   1,
		Name:    "parse",
		Detail:  "ok",
		Elapsed: 2 * time.Millisecond,
		Span:    1,
		Extra:   map[string]string{"b": "2", "a": "1"},
	}
	got := string(trace.FormatEvent(ev, trace.FormatText))
	want := "[    12]   ← parse #3 2.000ms span=1 (ok) {a=1, b=2}\n"
	if got != want {
		t.Fatalf("text = %q\nwant   %q", got, want)
	}
}

func TestFormatNDJSON(t *testing.T) {
	ev := &trace.Event{Seq: 1, Kind: trace.KindBegin, FrameID: 1, Name: "x", Time: time.Unix(0, 0).UTC()}
	line := trace.FormatEvent(ev, trace.FormatNDJSON)
	if !bytes.HasSuffix(line, []byte("\n")) {
		t.Fatalf("ndjson line lacks newline: %q", line)
	}
	var decoded map[string]any
	if err := json.Unmarshal(line, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["kind"] != "begin" || decoded["name"] != "x" {
		t.Fatalf("decoded = %v", decoded)
	}
}

func TestMsgpack_DecodeStream(t *testing.T) {
	var buf bytes.Buffer
	st := trace.NewStreamTracer(&buf, trace.LevelDebug, trace.FormatMsgpack)
	st.Emit(&trace.Event{Kind: trace.KindBegin, FrameID: 1, Name: "a"})
	st.Emit(&trace.Event{Kind: trace.KindEnd, FrameID: 1, Name: "a", Err: "boom", Elapsed: time.Second, Span: 2})

	events, err := trace.DecodeMsgpack(&buf)
	if err != nil {
		t.Fatalf("DecodeMsgpack: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("decoded %d events, want 2", len(events))
	}
	end := events[1]
	if end.Kind != trace.KindEnd || end.Err != "boom" || end.Elapsed != time.Second || end.Span != 2 {
		t.Fatalf("end event = %+v", end)
	}
	if events[0].Seq == 0 || events[1].Seq <= events[0].Seq {
		t.Fatalf("sequence numbers not increasing: %d, %d", events[0].Seq, events[1].Seq)
	}
}

func TestMsgpack_TruncatedInput(t *testing.T) {
	data := trace.FormatEvent(&trace.Event{Kind: trace.KindBegin, Name: "a"}, trace.FormatMsgpack)
	if _, err := trace.DecodeMsgpack(bytes.NewReader(data[:len(data)-2])); err == nil {
		t.Fatal("expected error for truncated record")
	}
}

func TestRingTracer_Wraps(t *testing.T) {
	r := trace.NewRingTracer(3, trace.LevelDebug)
	for i := 1; i <= 5; i++ {
		r.Emit(&trace.Event{Kind: trace.KindPoint, FrameID: uint64(i)})
	}
	snap := r.Snapshot()
	if len(snap) != 3 || r.Len() != 3 {
		t.Fatalf("len = %d, want 3", len(snap))
	}
	for i, want := range []uint64{3, 4, 5} {
		if snap[i].FrameID != want {
			t.Fatalf("snap[%d].FrameID = %d, want %d", i, snap[i].FrameID, want)
		}
	}
	var buf bytes.Buffer
	if err := r.Dump(&buf, trace.FormatText); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if n := strings.Count(buf.String(), "\n"); n != 3 {
		t.Fatalf("dumped %d lines, want 3", n)
	}
}

func TestStreamTracer_WriteErrorReportedByFlush(t *testing.T) {
	st := trace.NewStreamTracer(brokenWriter{}, trace.LevelFrames, trace.FormatText)
	st.Emit(&trace.Event{Kind: trace.KindBegin, Name: "a"})
	if err := st.Flush(); err == nil || err.Error() != "closed" {
		t.Fatalf("Flush = %v, want closed", err)
	}
}

func TestMultiTracer_SharesSequence(t *testing.T) {
	a := trace.NewRingTracer(8, trace.LevelFrames)
	b := trace.NewRingTracer(8, trace.LevelFrames)
	m := trace.NewMultiTracer(trace.LevelFrames, a, b)
	m.Emit(&trace.Event{Kind: trace.KindBegin, Name: "x"})
	m.Emit(&trace.Event{Kind: trace.KindPoint, Name: "filtered"})
	sa, sb := a.Snapshot(), b.Snapshot()
	if len(sa) != 1 || len(sb) != 1 {
		t.Fatalf("lens = %d, %d; want 1, 1", len(sa), len(sb))
	}
	if sa[0].Seq != sb[0].Seq {
		t.Fatalf("seq differs: %d vs %d", sa[0].Seq, sb[0].Seq)
	}
	if r, ok := trace.Ring(m); !ok || r != a {
		t.Fatalf("Ring(multi) = %p, %v; want first ring", r, ok)
	}
}

func TestNew_Modes(t *testing.T) {
	tr, err := trace.New(trace.Config{Level: trace.LevelOff, Mode: trace.ModeStream})
	if err != nil || tr.Enabled() {
		t.Fatalf("LevelOff tracer = %v, %v; want disabled", tr, err)
	}

	path := filepath.Join(t.TempDir(), "out.ndjson")
	tr, err = trace.New(trace.Config{Level: trace.LevelFrames, Mode: trace.ModeBoth, OutputPath: path, RingSize: 4})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tr.Emit(&trace.Event{Kind: trace.KindBegin, Name: "a"})
	if err := tr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read trace: %v", err)
	}
	if !strings.Contains(string(data), `"name":"a"`) {
		t.Fatalf("trace file = %q, want ndjson", data)
	}
	if _, ok := trace.Ring(tr); !ok {
		t.Fatal("ModeBoth tracer has no ring")
	}

	if _, err := trace.New(trace.Config{Level: trace.LevelFrames, Mode: 99}); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestParseModeAndFormat(t *testing.T) {
	if m, err := trace.ParseMode("BOTH"); err != nil || m != trace.ModeBoth {
		t.Fatalf("ParseMode = %v, %v", m, err)
	}
	if _, err := trace.ParseMode("disk"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
	if f, err := trace.ParseFormat("msgpack"); err != nil || f != trace.FormatMsgpack {
		t.Fatalf("ParseFormat = %v, %v", f, err)
	}
	cases := map[string]trace.Format{
		"-":           trace.FormatText,
		"t.ndjson":    trace.FormatNDJSON,
		"t.mp":        trace.FormatMsgpack,
		"t.log":       trace.FormatText,
		"a/b.msgpack": trace.FormatMsgpack,
	}
	for path, want := range cases {
		if got := trace.DetectFormat(path); got != want {
			t.Fatalf("DetectFormat(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestObserver_EmitsNestedEvents(t *testing.T) {
	ring := trace.NewRingTracer(16, trace.LevelFrames)
	obs := trace.NewObserver[string](ring)
	s := stack.New[string]()

	boom := errors.New("boom")
	_, err := stack.Run(s, "outer", obs, func() (int, error) {
		_, err := stack.Run(s, "inner", obs, func() (string, error) { return "", boom })
		return 0, err
	})
	if err != boom {
		t.Fatalf("Run err = %v", err)
	}

	events := ring.Snapshot()
	if len(events) != 4 {
		t.Fatalf("events = %d, want 4", len(events))
	}
	type row struct {
		kind   trace.Kind
		name   string
		parent uint64
		depth  int
		failed bool
	}
	want := []row{
		{trace.KindBegin, "outer", 0, 0, false},
		{trace.KindBegin, "inner", 1, 1, false},
		{trace.KindEnd, "inner", 1, 1, true},
		{trace.KindEnd, "outer", 0, 0, true},
	}
	for i, w := range want {
		ev := events[i]
		got := row{ev.Kind, ev.Name, ev.ParentID, ev.Depth, ev.Failed()}
		if got != w {
			t.Fatalf("event %d = %+v, want %+v", i, got, w)
		}
	}
	if events[3].Span != 1 {
		t.Fatalf("outer span = %d, want 1", events[3].Span)
	}
}

func TestObserver_DisabledTracer(t *testing.T) {
	obs := trace.NewObserver[string](nil)
	s := stack.New[string]()
	if _, err := stack.Run(s, "x", obs, func() (int, error) { return 1, nil }); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestContext_PointAndTracer(t *testing.T) {
	if trace.FromContext(context.Background()) != trace.Nop {
		t.Fatal("bare context should yield Nop")
	}
	ring := trace.NewRingTracer(4, trace.LevelDebug)
	ctx := trace.WithTracer(context.Background(), ring)
	trace.Point(ctx, "scenario", "build")
	snap := ring.Snapshot()
	if len(snap) != 1 || snap[0].Kind != trace.KindPoint || snap[0].Detail != "build" {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestHeartbeat_EmitsUntilStopped(t *testing.T) {
	ring := trace.NewRingTracer(64, trace.LevelError)
	h := trace.StartHeartbeat(context.Background(), ring, time.Millisecond)
	if h == nil {
		t.Fatal("StartHeartbeat returned nil")
	}
	deadline := time.Now().Add(2 * time.Second)
	for ring.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	h.Stop()
	h.Stop()
	if ring.Len() == 0 {
		t.Fatal("no heartbeat emitted")
	}
	n := ring.Len()
	time.Sleep(5 * time.Millisecond)
	if ring.Len() != n {
		t.Fatal("heartbeat kept emitting after Stop")
	}
	if trace.StartHeartbeat(context.Background(), trace.Nop, time.Millisecond) != nil {
		t.Fatal("heartbeat started on disabled tracer")
	}
}
