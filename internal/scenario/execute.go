package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"trackstack/internal/stack"
)

// TaskError is the failure a task declares with its fail key.
type TaskError struct {
	Task string
	Msg  string
}

func (e *TaskError) Error() string {
	return e.Msg
}

var errNoStack = errors.New("scenario: no stack in context")

// Outcome describes one executed scenario.
type Outcome struct {
	Scenario string
	Frames   int           // frames closed
	Depth    int           // live frames after execution, 0 unless a scope leaked
	Elapsed  time.Duration // wall time of the whole scenario
	Err      error
}

type config struct {
	logger   *zap.Logger
	sleep    func(context.Context, time.Duration) error
	failFast bool
	onDone   func(int, Outcome)
}

// Option configures execution.
type Option func(*config)

// WithLogger sets the logger for the scenario and its stacks.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSleeper replaces the context-aware sleep used for task delays.
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(c *config) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// WithFailFast makes ExecuteAll cancel the remaining scenarios after the
// first failure.
func WithFailFast(enabled bool) Option {
	return func(c *config) { c.failFast = enabled }
}

// WithOnDone registers a callback ExecuteAll invokes from the scenario's
// goroutine as soon as scenario i finishes.
func WithOnDone(fn func(i int, out Outcome)) Option {
	return func(c *config) { c.onDone = fn }
}

func newConfig(opts []Option) config {
	cfg := config{
		logger: zap.NewNop(),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Execute runs every top-level task of sc in order on a fresh stack,
// stopping at the first failure. obs may be nil.
func Execute(ctx context.Context, sc *Scenario, obs stack.Observer[string], opts ...Option) (Outcome, error) {
	cfg := newConfig(opts)
	return execute(ctx, sc, obs, cfg)
}

func execute(ctx context.Context, sc *Scenario, obs stack.Observer[string], cfg config) (Outcome, error) {
	s := stack.New[string](stack.WithLogger(cfg.logger))
	ctx = stack.WithStack(ctx, s)

	out := Outcome{Scenario: sc.Name}
	counter := stack.Funcs[string]{
		Popped: func(stack.Result[string]) { out.Frames++ },
	}
	obs = stack.Multi(obs, counter)

	start := time.Now()
	for i := range sc.Tasks {
		if _, err := runTask(ctx, &sc.Tasks[i], obs, cfg); err != nil {
			out.Err = fmt.Errorf("%s: %w", sc.Tasks[i].Name, err)
			break
		}
	}
	out.Elapsed = time.Since(start)
	out.Depth = s.Depth()

	log := cfg.logger.With(zap.String("scenario", sc.Name))
	if out.Err != nil {
		log.Info("scenario failed", zap.Int("frames", out.Frames), zap.Duration("elapsed", out.Elapsed), zap.Error(out.Err))
	} else {
		log.Info("scenario finished", zap.Int("frames", out.Frames), zap.Duration("elapsed", out.Elapsed))
	}
	return out, out.Err
}

func runTask(ctx context.Context, t *Task, obs stack.Observer[string], cfg config) (string, error) {
	s, ok := stack.FromContext[string](ctx)
	if !ok {
		return "", errNoStack
	}
	return stack.RunContext(ctx, s, t.Name, obs, func(ctx context.Context) (string, error) {
		cfg.logger.Debug("task started", zap.String("task", t.Name), zap.Int("depth", s.Depth()))
		if d := t.Duration(); d > 0 {
			if err := cfg.sleep(ctx, d); err != nil {
				return "", err
			}
		}
		for i := range t.Tasks {
			child := &t.Tasks[i]
			if _, err := runTask(ctx, child, obs, cfg); err != nil {
				return "", fmt.Errorf("%s: %w", child.Name, err)
			}
		}
		if t.Fail != "" {
			return "", &TaskError{Task: t.Name, Msg: t.Fail}
		}
		if t.Result != "" {
			return t.Result, nil
		}
		return "ok", nil
	})
}

// ExecuteAll runs scenarios concurrently, at most jobs at a time (jobs <= 0
// means no limit). Each scenario gets its own goroutine and stack;
// observerFor supplies the observer for scenario i and may return nil.
// Outcomes are returned in input order together with the joined failures.
func ExecuteAll(ctx context.Context, scenarios []*Scenario, jobs int, observerFor func(i int, sc *Scenario) stack.Observer[string], opts ...Option) ([]Outcome, error) {
	cfg := newConfig(opts)
	outcomes := make([]Outcome, len(scenarios))

	g, gctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, sc := range scenarios {
		g.Go(func() error {
			var obs stack.Observer[string]
			if observerFor != nil {
				obs = observerFor(i, sc)
			}
			out, err := execute(gctx, sc, obs, cfg)
			outcomes[i] = out
			if cfg.onDone != nil {
				cfg.onDone(i, out)
			}
			if cfg.failFast {
				return err
			}
			return nil
		})
	}
	_ = g.Wait() // failures are carried by the outcomes

	var errs []error
	for _, out := range outcomes {
		if out.Err != nil {
			errs = append(errs, fmt.Errorf("scenario %s: %w", out.Scenario, out.Err))
		}
	}
	return outcomes, errors.Join(errs...)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}
