package main

import (
	"bytes"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"trackstack/internal/observ"
	"trackstack/internal/scenario"
	"trackstack/internal/spans"
	"trackstack/internal/stack"
	"trackstack/internal/trace"
)

var runCmd = &cobra.Command{
	Use:          "run [flags] <scenario.toml>...",
	Short:        "Execute task scenarios on a trace stack",
	Long:         `Load TOML task scenarios, execute each one on its own trace stack and render it as an indented push/pop tree`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runScenarios,
}

func init() {
	runCmd.Flags().Int("jobs", runtime.NumCPU(), "scenarios to run concurrently (0 = unlimited)")
	runCmd.Flags().Bool("fail-fast", false, "cancel remaining scenarios after the first failure")
	runCmd.Flags().Bool("frame-timings", false, "append elapsed time and span to every closed frame")
	runCmd.Flags().Int("max-width", 0, "truncate frame labels to this many columns (0 = no limit)")
	runCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
}

type runOptions struct {
	jobs         int
	failFast     bool
	frameTimings bool
	maxWidth     int
	quiet        bool
	timings      bool
	color        bool
	ui           uiMode
}

func readRunOptions(cmd *cobra.Command) (runOptions, error) {
	var (
		opts runOptions
		err  error
	)
	if opts.jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
		return opts, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if opts.failFast, err = cmd.Flags().GetBool("fail-fast"); err != nil {
		return opts, fmt.Errorf("failed to get fail-fast flag: %w", err)
	}
	if opts.frameTimings, err = cmd.Flags().GetBool("frame-timings"); err != nil {
		return opts, fmt.Errorf("failed to get frame-timings flag: %w", err)
	}
	if opts.maxWidth, err = cmd.Flags().GetInt("max-width"); err != nil {
		return opts, fmt.Errorf("failed to get max-width flag: %w", err)
	}
	if opts.quiet, err = cmd.Root().PersistentFlags().GetBool("quiet"); err != nil {
		return opts, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if opts.timings, err = cmd.Root().PersistentFlags().GetBool("timings"); err != nil {
		return opts, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if opts.color, err = useColor(cmd, os.Stdout); err != nil {
		return opts, err
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return opts, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if opts.ui, err = readUIMode(uiFlag); err != nil {
		return opts, err
	}
	return opts, nil
}

func runScenarios(cmd *cobra.Command, args []string) error {
	opts, err := readRunOptions(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	stopProfiling, err := setupProfiling(cmd, logger)
	if err != nil {
		return err
	}
	defer stopProfiling()

	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	spanTracer, stopSpans, err := setupSpans(cmd, logger)
	if err != nil {
		return err
	}
	defer stopSpans()

	scenarios := make([]*scenario.Scenario, 0, len(args))
	for _, path := range args {
		sc, err := scenario.Load(path)
		if err != nil {
			return err
		}
		scenarios = append(scenarios, sc)
	}

	ctx := cmd.Context()
	tracer := trace.FromContext(ctx)

	printerOpts := []stack.PrinterOption{stack.WithColor(opts.color), stack.WithMaxWidth(opts.maxWidth)}
	if opts.frameTimings {
		printerOpts = append(printerOpts, stack.WithTimings())
	}

	// Each scenario renders into its own buffer so concurrent runs do not
	// interleave; buffers are printed in argument order afterwards.
	buffers := make([]bytes.Buffer, len(scenarios))
	printers := make([]*stack.Printer[string], len(scenarios))
	collectors := make([]*observ.Collector[string], len(scenarios))
	observerFor := func(i int, sc *scenario.Scenario) stack.Observer[string] {
		trace.Point(ctx, "scenario", sc.Name)
		collectors[i] = observ.NewCollector[string](nil)
		observers := []stack.Observer[string]{collectors[i], trace.NewObserver[string](tracer)}
		if spanTracer != nil {
			observers = append(observers, spans.NewObserver[string](ctx, spanTracer, nil,
				attribute.String("trackstack.scenario", sc.Name)))
		}
		if !opts.quiet {
			printers[i] = stack.NewPrinter[string](&buffers[i], printerOpts...)
			observers = append(observers, printers[i])
		}
		return stack.Multi(observers...)
	}

	out := cmd.OutOrStdout()
	execOpts := []scenario.Option{
		scenario.WithLogger(logger),
		scenario.WithFailFast(opts.failFast),
	}
	var (
		outcomes []scenario.Outcome
		runErr   error
	)
	if shouldUseTUI(opts.ui, opts.quiet) {
		outcomes, runErr = executeWithUI(ctx, out, scenarios, opts.jobs, observerFor, execOpts...)
	} else {
		outcomes, runErr = scenario.ExecuteAll(ctx, scenarios, opts.jobs, observerFor, execOpts...)
	}

	total := observ.NewCollector[string](nil)
	for i, outcome := range outcomes {
		if !opts.quiet {
			if err := printOutcome(out, outcome, &buffers[i], opts.color); err != nil {
				return err
			}
		}
		if p := printers[i]; p != nil && p.Err() != nil {
			return fmt.Errorf("scenario %s: render trace: %w", outcome.Scenario, p.Err())
		}
		total.Merge(collectors[i])
	}

	if opts.timings {
		if _, err := fmt.Fprint(out, total.Summary()); err != nil {
			return err
		}
	}

	if runErr != nil {
		if ring, ok := trace.Ring(tracer); ok && ring.Len() > 0 {
			errOut := cmd.ErrOrStderr()
			fmt.Fprintf(errOut, "trace: last %d events:\n", ring.Len())
			if err := ring.Dump(errOut, trace.FormatText); err != nil {
				logger.Warn("dump trace ring failed", zap.Error(err))
			}
		}
		return runErr
	}
	return nil
}
