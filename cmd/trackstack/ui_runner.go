package main

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"trackstack/internal/scenario"
	"trackstack/internal/stack"
	"trackstack/internal/ui"
)

type executeOutcome struct {
	outcomes []scenario.Outcome
	err      error
}

// executeWithUI runs scenarios like scenario.ExecuteAll while a Bubble Tea
// progress view renders to out. Each scenario's observer is extended with a
// ui.Observer feeding the view.
func executeWithUI(ctx context.Context, out io.Writer, scenarios []*scenario.Scenario, jobs int,
	observerFor func(int, *scenario.Scenario) stack.Observer[string], opts ...scenario.Option,
) ([]scenario.Outcome, error) {
	events := make(chan ui.Event, 256)
	trackers := make([]*ui.Observer[string], len(scenarios))
	items := make([]ui.Item, len(scenarios))
	for i, sc := range scenarios {
		trackers[i] = ui.NewObserver[string](i, events, nil)
		items[i] = ui.Item{Name: sc.Name, Tasks: sc.Count()}
	}

	withTracker := func(i int, sc *scenario.Scenario) stack.Observer[string] {
		return stack.Multi(observerFor(i, sc), trackers[i])
	}
	opts = append(opts, scenario.WithOnDone(func(i int, out scenario.Outcome) {
		trackers[i].Finish(out.Err)
	}))

	outcomeCh := make(chan executeOutcome, 1)
	go func() {
		outcomes, err := scenario.ExecuteAll(ctx, scenarios, jobs, withTracker, opts...)
		close(events)
		outcomeCh <- executeOutcome{outcomes: outcomes, err: err}
	}()

	model := ui.NewProgressModel("scenarios", items, events)
	program := tea.NewProgram(model, tea.WithOutput(out), tea.WithInput(nil))
	_, uiErr := program.Run()
	if uiErr != nil {
		// Keep draining so blocked observers can finish.
		go func() {
			for range events {
			}
		}()
	}
	res := <-outcomeCh
	if uiErr != nil {
		return res.outcomes, uiErr
	}
	return res.outcomes, res.err
}
