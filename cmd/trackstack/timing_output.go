package main

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"trackstack/internal/scenario"
)

func printOutcome(out io.Writer, outcome scenario.Outcome, tree *bytes.Buffer, useColor bool) error {
	header := color.New(color.Bold)
	okColor := color.New(color.FgGreen)
	failColor := color.New(color.FgRed, color.Bold)
	for _, c := range []*color.Color{header, okColor, failColor} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	if _, err := fmt.Fprintf(out, "%s\n", header.Sprintf("== %s", outcome.Scenario)); err != nil {
		return err
	}
	if _, err := tree.WriteTo(out); err != nil {
		return err
	}
	status := okColor.Sprint("ok")
	if outcome.Err != nil {
		status = failColor.Sprint("FAILED")
	}
	_, err := fmt.Fprintf(out, "%s: %d frames in %.1f ms\n", status, outcome.Frames, toMillis(outcome.Elapsed))
	return err
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
