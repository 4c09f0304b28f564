package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"trackstack/internal/trace"
)

var traceCatCmd = &cobra.Command{
	Use:   "trace-cat [flags] <trace.mp>",
	Short: "Render a MessagePack trace file",
	Long:  `Decode a trace written with --trace-format=msgpack and print it as text or NDJSON`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTraceCat,
}

func init() {
	traceCatCmd.Flags().String("format", "text", "output format (text|ndjson)")
	traceCatCmd.Flags().Bool("failed", false, "only print frames that closed with a failure")
}

func runTraceCat(cmd *cobra.Command, args []string) error {
	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	onlyFailed, err := cmd.Flags().GetBool("failed")
	if err != nil {
		return fmt.Errorf("failed to get failed flag: %w", err)
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return err
	}
	if format != trace.FormatText && format != trace.FormatNDJSON {
		return fmt.Errorf("unsupported output format %q (must be text or ndjson)", formatStr)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open trace: %w", err)
	}
	defer f.Close()

	events, err := trace.DecodeMsgpack(bufio.NewReader(f))
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	w := bufio.NewWriter(cmd.OutOrStdout())
	for i := range events {
		if onlyFailed && !events[i].Failed() {
			continue
		}
		if _, err := w.Write(trace.FormatEvent(&events[i], format)); err != nil {
			return err
		}
	}
	return w.Flush()
}
