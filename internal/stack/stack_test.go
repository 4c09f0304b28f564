package stack_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"trackstack/internal/stack"
)

// fakeClock advances by step on every call.
type fakeClock struct {
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

func TestPush_AssignsSequentialIDs(t *testing.T) {
	s := stack.New[string]()
	for i := 1; i <= 5; i++ {
		if got := s.Push("x"); got != uint64(i) {
			t.Fatalf("push %d: id = %d, want %d", i, got, i)
		}
	}
	if s.Depth() != 5 {
		t.Fatalf("Depth = %d, want 5", s.Depth())
	}
}

func TestPush_IDsNotReusedAcrossPops(t *testing.T) {
	s := stack.New[int]()
	seen := make(map[uint64]bool)
	var want uint64
	for round := 0; round < 4; round++ {
		a := s.Push(round)
		b := s.Push(round)
		for _, id := range []uint64{a, b} {
			want++
			if id != want {
				t.Fatalf("id = %d, want %d", id, want)
			}
			if seen[id] {
				t.Fatalf("id %d reused", id)
			}
			seen[id] = true
		}
		if _, err := s.Pop(b); err != nil {
			t.Fatalf("Pop(%d): %v", b, err)
		}
		if _, err := s.Pop(a); err != nil {
			t.Fatalf("Pop(%d): %v", a, err)
		}
	}
	if got := s.NextID(); got != 9 {
		t.Fatalf("NextID = %d, want 9", got)
	}
}

func TestPop_LIFOAndSpan(t *testing.T) {
	s := stack.New[string]()
	a := s.Push("A")
	b := s.Push("B")
	if a != 1 || b != 2 {
		t.Fatalf("ids = %d,%d, want 1,2", a, b)
	}

	res, err := s.Pop(2)
	if err != nil {
		t.Fatalf("Pop(2): %v", err)
	}
	if res.Frame.Element != "B" || res.Span != 0 {
		t.Fatalf("first pop = %+v, want B with span 0", res)
	}
	if s.Depth() != 1 {
		t.Fatalf("Depth = %d, want 1", s.Depth())
	}

	res, err = s.Pop(1)
	if err != nil {
		t.Fatalf("Pop(1): %v", err)
	}
	if res.Frame.Element != "A" || res.Span != 1 {
		t.Fatalf("second pop = %+v, want A with span 1", res)
	}
	if s.Depth() != 0 {
		t.Fatalf("Depth = %d, want 0", s.Depth())
	}
}

func TestPop_SpanCountsNestedPushes(t *testing.T) {
	s := stack.New[string]()
	outer := s.Push("outer")
	const k = 4
	for i := 0; i < k; i++ {
		id := s.Push("inner")
		if _, err := s.Pop(id); err != nil {
			t.Fatalf("Pop(%d): %v", id, err)
		}
	}
	res, err := s.Pop(outer)
	if err != nil {
		t.Fatalf("Pop(outer): %v", err)
	}
	if res.Span != k {
		t.Fatalf("Span = %d, want %d", res.Span, k)
	}
}

func TestPop_MismatchLeavesStackUnchanged(t *testing.T) {
	s := stack.New[string]()
	s.Push("A")
	top := s.Push("B")

	_, err := s.Pop(1)
	if !errors.Is(err, stack.ErrStackMismatch) {
		t.Fatalf("Pop(1) err = %v, want ErrStackMismatch", err)
	}
	var mm *stack.MismatchError
	if !errors.As(err, &mm) {
		t.Fatalf("Pop(1) err = %T, want *MismatchError", err)
	}
	if mm.Expected != 1 || mm.Actual != top {
		t.Fatalf("mismatch = %+v, want expected 1 actual %d", mm, top)
	}
	if s.Depth() != 2 {
		t.Fatalf("Depth = %d, want 2", s.Depth())
	}
	f, err := s.Peek()
	if err != nil || f.ID != top {
		t.Fatalf("Peek = %v, %v; want #%d", f, err, top)
	}
}

func TestEmptyStack(t *testing.T) {
	s := stack.New[string]()
	if _, err := s.Pop(1); !errors.Is(err, stack.ErrEmptyStack) {
		t.Fatalf("Pop err = %v, want ErrEmptyStack", err)
	}
	if _, err := s.Peek(); !errors.Is(err, stack.ErrEmptyStack) {
		t.Fatalf("Peek err = %v, want ErrEmptyStack", err)
	}
	if s.Depth() != 0 || s.NextID() != 1 {
		t.Fatalf("empty stack mutated: depth=%d next=%d", s.Depth(), s.NextID())
	}
}

func TestDepth_TracksPushesMinusPops(t *testing.T) {
	s := stack.New[int]()
	ops := "pppoppoopppooo"
	var ids []uint64
	pushes, pops := 0, 0
	for i, op := range ops {
		if op == 'p' {
			ids = append(ids, s.Push(i))
			pushes++
			continue
		}
		id := ids[len(ids)-1]
		ids = ids[:len(ids)-1]
		if _, err := s.Pop(id); err != nil {
			t.Fatalf("step %d: Pop(%d): %v", i, id, err)
		}
		pops++
		if s.Depth() != pushes-pops {
			t.Fatalf("step %d: Depth = %d, want %d", i, s.Depth(), pushes-pops)
		}
	}
}

func TestElapsed_UsesClock(t *testing.T) {
	clock := &fakeClock{now: time.Unix(100, 0), step: 5 * time.Millisecond}
	s := stack.New[string](stack.WithClock(clock.Now))
	id := s.Push("timed")
	res, err := s.Pop(id)
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if res.Elapsed != 5*time.Millisecond {
		t.Fatalf("Elapsed = %v, want 5ms", res.Elapsed)
	}
}

func TestElapsed_NeverNegative(t *testing.T) {
	clock := &fakeClock{now: time.Unix(100, 0), step: -time.Second}
	s := stack.New[string](stack.WithClock(clock.Now))
	id := s.Push("backwards")
	res, err := s.Pop(id)
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if res.Elapsed != 0 {
		t.Fatalf("Elapsed = %v, want 0", res.Elapsed)
	}
}

func TestSnapshot_TopFirst(t *testing.T) {
	s := stack.New[string]()
	s.Push("a")
	s.Push("b")
	s.Push("c")
	snap := s.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("len = %d, want 3", len(snap))
	}
	for i, want := range []string{"c", "b", "a"} {
		if snap[i].Element != want {
			t.Fatalf("snap[%d] = %q, want %q", i, snap[i].Element, want)
		}
	}
	for i := 1; i < len(snap); i++ {
		if snap[i-1].ID <= snap[i].ID {
			t.Fatalf("ids not decreasing from top: %v", snap)
		}
	}
	snap[0].Element = "mutated"
	if f, _ := s.Peek(); f.Element != "c" {
		t.Fatalf("Snapshot aliases stack storage")
	}
}

func TestString_IndentsOutermostFirst(t *testing.T) {
	s := stack.New[string]()
	s.Push("main")
	s.Push("parse")
	s.Push("lex")
	want := "#1 main\n  #2 parse\n    #3 lex\n"
	if got := s.String(); got != want {
		t.Fatalf("String() =\n%s\nwant\n%s", got, want)
	}
	if got := stack.New[string]().String(); got != "" {
		t.Fatalf("empty String() = %q", got)
	}
}

func TestResult_String(t *testing.T) {
	r := stack.Result[string]{Value: 42, Elapsed: 1500 * time.Microsecond, Span: 3}
	if got := r.String(); got != "42 (1.500 ms, 3 frames)" {
		t.Fatalf("String() = %q", got)
	}
	r.Err = errors.New("boom")
	if got := r.String(); !strings.HasPrefix(got, "error: boom") {
		t.Fatalf("String() = %q", got)
	}
}

func TestContext_RoundTrip(t *testing.T) {
	s := stack.New[string]()
	ctx := stack.WithStack(context.Background(), s)
	got, ok := stack.FromContext[string](ctx)
	if !ok || got != s {
		t.Fatalf("FromContext = %p, %v; want %p", got, ok, s)
	}
	if _, ok := stack.FromContext[int](ctx); ok {
		t.Fatalf("FromContext[int] found a string stack")
	}
	if _, ok := stack.FromContext[string](context.Background()); ok {
		t.Fatalf("FromContext on bare context reported a stack")
	}
}
