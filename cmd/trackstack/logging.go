package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newLogger builds the CLI logger from --log-level. Logs go to stderr so
// they never mix with rendered traces on stdout.
func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	levelStr, err := cmd.Root().PersistentFlags().GetString("log-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get log-level flag: %w", err)
	}
	level, err := zap.ParseAtomicLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = level
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}
