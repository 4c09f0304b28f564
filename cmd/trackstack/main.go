package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"trackstack/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "trackstack",
	Short: "Scoped execution-trace stack toolkit",
	Long:  `trackstack runs nested task scenarios on a scoped trace stack and renders, times and records every frame`,
}

func init() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(traceCatCmd)
	rootCmd.AddCommand(versionCmd)

	// Global flags
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug|info|warn|error)")

	// Tracing flags
	rootCmd.PersistentFlags().String("trace", "", "trace output file (- for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|frames|debug)")
	rootCmd.PersistentFlags().String("trace-mode", "stream", "trace storage (stream|ring|both)")
	rootCmd.PersistentFlags().String("trace-format", "auto", "trace format (auto|text|ndjson|msgpack)")
	rootCmd.PersistentFlags().Int("trace-ring-size", 4096, "events kept in ring mode")
	rootCmd.PersistentFlags().Duration("trace-heartbeat", 0, "heartbeat interval (0 disables)")

	// Span export flags
	rootCmd.PersistentFlags().String("otlp-endpoint", "", "export frames as OpenTelemetry spans to this OTLP/HTTP collector (host:port)")
	rootCmd.PersistentFlags().Bool("otlp-insecure", false, "use plain HTTP for --otlp-endpoint")

	// Profiling flags
	rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to file on exit")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to file")
}

// main executes the root command.
// If command execution returns an error, the process exits with status code 1.
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether f is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// useColor resolves the --color flag for output written to f.
func useColor(cmd *cobra.Command, f *os.File) (bool, error) {
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, err
	}
	return resolveColor(colorFlag, func() bool { return isTerminal(f) })
}
