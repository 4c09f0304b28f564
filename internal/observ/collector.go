package observ

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"trackstack/internal/stack"
)

// Phase aggregates every closed frame that rendered to the same label.
type Phase struct {
	Name     string
	Count    int
	Failures int
	Total    time.Duration
	Max      time.Duration
	MaxSpan  int64
	first    int // order of first appearance
}

// Collector is a stack.Observer that aggregates Results by element label.
// It ignores push events. Like the stack it observes, it is not safe for
// concurrent use; give each goroutine its own collector and Merge them.
type Collector[T any] struct {
	phases map[string]*Phase
	label  func(T) string
}

// NewCollector creates an empty Collector. Elements are labelled with
// fmt.Sprint unless label is given.
func NewCollector[T any](label func(T) string) *Collector[T] {
	if label == nil {
		label = func(v T) string { return fmt.Sprint(v) }
	}
	return &Collector[T]{phases: make(map[string]*Phase), label: label}
}

// OnPushed does nothing.
func (c *Collector[T]) OnPushed(stack.Frame[T]) {}

// OnPopped records result under its element label.
func (c *Collector[T]) OnPopped(result stack.Result[T]) {
	p := c.phase(c.label(result.Frame.Element))
	p.Count++
	if result.Failed() {
		p.Failures++
	}
	p.Total += result.Elapsed
	p.Max = max(p.Max, result.Elapsed)
	p.MaxSpan = max(p.MaxSpan, result.Span)
}

// Merge adds other's phases into c.
func (c *Collector[T]) Merge(other *Collector[T]) {
	if other == nil {
		return
	}
	for _, op := range other.ordered() {
		p := c.phase(op.Name)
		p.Count += op.Count
		p.Failures += op.Failures
		p.Total += op.Total
		p.Max = max(p.Max, op.Max)
		p.MaxSpan = max(p.MaxSpan, op.MaxSpan)
	}
}

func (c *Collector[T]) phase(name string) *Phase {
	p, ok := c.phases[name]
	if !ok {
		p = &Phase{Name: name, first: len(c.phases)}
		c.phases[name] = p
	}
	return p
}

func (c *Collector[T]) ordered() []*Phase {
	out := make([]*Phase, 0, len(c.phases))
	for _, p := range c.phases {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].first < out[j].first })
	return out
}

// PhaseReport is the serializable form of a Phase.
type PhaseReport struct {
	Name     string  `json:"name"`
	Count    int     `json:"count"`
	Failures int     `json:"failures,omitempty"`
	TotalMS  float64 `json:"total_ms"`
	MaxMS    float64 `json:"max_ms"`
	MaxSpan  int64   `json:"max_span"`
}

// Report aggregates all phases in order of first appearance.
type Report struct {
	Frames   int           `json:"frames"`
	Failures int           `json:"failures"`
	Phases   []PhaseReport `json:"phases"`
}

// Report builds the aggregated report.
func (c *Collector[T]) Report() Report {
	var report Report
	for _, p := range c.ordered() {
		report.Frames += p.Count
		report.Failures += p.Failures
		report.Phases = append(report.Phases, PhaseReport{
			Name:     p.Name,
			Count:    p.Count,
			Failures: p.Failures,
			TotalMS:  durationToMillis(p.Total),
			MaxMS:    durationToMillis(p.Max),
			MaxSpan:  p.MaxSpan,
		})
	}
	return report
}

// Summary returns a human-readable table of all phases.
func (c *Collector[T]) Summary() string {
	report := c.Report()
	var sb strings.Builder
	sb.WriteString("timings:\n")
	for _, p := range report.Phases {
		fmt.Fprintf(&sb, "  %-20s %4dx %9.2f ms  max %7.2f ms  span %d", p.Name, p.Count, p.TotalMS, p.MaxMS, p.MaxSpan)
		if p.Failures > 0 {
			fmt.Fprintf(&sb, "  // %d failed", p.Failures)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "  %-20s %4dx\n", "frames", report.Frames)
	return sb.String()
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
