package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"trackstack/internal/spans"
	"trackstack/internal/version"
)

const otlpShutdownTimeout = 5 * time.Second

// setupSpans creates an OTLP span exporter when --otlp-endpoint is set.
// The returned tracer is nil when exporting is disabled.
func setupSpans(cmd *cobra.Command, logger *zap.Logger) (oteltrace.Tracer, func(), error) {
	root := cmd.Root()
	endpoint, err := root.PersistentFlags().GetString("otlp-endpoint")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get otlp-endpoint flag: %w", err)
	}
	insecure, err := root.PersistentFlags().GetBool("otlp-insecure")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get otlp-insecure flag: %w", err)
	}
	if endpoint == "" {
		return nil, func() {}, nil
	}

	tp, err := spans.NewProvider(cmd.Context(), spans.Config{
		Endpoint:    endpoint,
		Insecure:    insecure,
		ServiceName: "trackstack",
		Version:     version.Version,
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), otlpShutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("failed to flush spans", zap.String("endpoint", endpoint), zap.Error(err))
		}
	}
	return tp.Tracer("trackstack"), cleanup, nil
}
