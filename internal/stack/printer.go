package stack

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/unicode/norm"
)

// IndentUnit is the printer's indentation for one nesting level.
const IndentUnit = "|   "

// Printer is an Observer that renders push and pop events as an indented
// tree:
//
//	|-- parse
//	|   |-- lex
//	|   \-> 42
//	\-> ok
//
// Printer keeps its own nesting counter; it only sees events. It is not
// safe for concurrent use.
type Printer[T any] struct {
	w       io.Writer
	depth   int
	timings bool
	width   int
	push    *color.Color
	pop     *color.Color
	fail    *color.Color
	err     error
}

type printerConfig struct {
	color   bool
	timings bool
	width   int
}

// PrinterOption configures a Printer.
type PrinterOption func(*printerConfig)

// WithColor enables or disables ANSI colors.
func WithColor(enabled bool) PrinterOption {
	return func(c *printerConfig) { c.color = enabled }
}

// WithTimings appends elapsed time and span to every pop line.
func WithTimings() PrinterOption {
	return func(c *printerConfig) { c.timings = true }
}

// WithMaxWidth truncates element and value labels to n terminal cells.
// n <= 0 disables truncation.
func WithMaxWidth(n int) PrinterOption {
	return func(c *printerConfig) { c.width = n }
}

// NewPrinter creates a Printer writing to w, or to os.Stderr if w is nil.
func NewPrinter[T any](w io.Writer, opts ...PrinterOption) *Printer[T] {
	if w == nil {
		w = os.Stderr
	}
	var cfg printerConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	p := &Printer[T]{
		w:       w,
		timings: cfg.timings,
		width:   cfg.width,
		push:    color.New(color.FgCyan),
		pop:     color.New(color.FgGreen),
		fail:    color.New(color.FgRed, color.Bold),
	}
	for _, c := range []*color.Color{p.push, p.pop, p.fail} {
		if cfg.color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// OnPushed writes "<indent>|-- <element>" and increases the indentation.
func (p *Printer[T]) OnPushed(frame Frame[T]) {
	p.writeLine(p.indent() + p.push.Sprint("|-- ") + p.label(frame.Element))
	p.depth++
}

// OnPopped decreases the indentation and writes "<indent>\-> <value>".
func (p *Printer[T]) OnPopped(result Result[T]) {
	if p.depth > 0 {
		p.depth--
	}
	var line string
	if result.Err != nil {
		line = p.indent() + p.fail.Sprint(`\-> error: `) + p.label(result.Err.Error())
	} else {
		line = p.indent() + p.pop.Sprint(`\-> `) + p.label(result.Value)
	}
	if p.timings {
		line += fmt.Sprintf(" (%.3f ms, %d frames)", result.Millis(), result.Span)
	}
	p.writeLine(line)
}

// Err returns the first write error of the underlying writer, if any.
func (p *Printer[T]) Err() error {
	return p.err
}

func (p *Printer[T]) indent() string {
	return strings.Repeat(IndentUnit, p.depth)
}

func (p *Printer[T]) label(v any) string {
	s := norm.NFC.String(fmt.Sprint(v))
	if p.width > 0 && runewidth.StringWidth(s) > p.width {
		if p.width <= 3 {
			return runewidth.Truncate(s, p.width, "")
		}
		return runewidth.Truncate(s, p.width, "...")
	}
	return s
}

func (p *Printer[T]) writeLine(line string) {
	if _, err := io.WriteString(p.w, line+"\n"); err != nil && p.err == nil {
		p.err = err
	}
}
