// Package scenario loads nested task trees from TOML and executes them on a
// stack.Stack, one stack per goroutine.
package scenario

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Scenario is a named tree of tasks.
type Scenario struct {
	Name  string `toml:"name"`
	Tasks []Task `toml:"task"`

	Path string `toml:"-"` // file the scenario was loaded from
}

// Task is one traced operation. Children run inside their parent's frame.
type Task struct {
	Name   string `toml:"name"`
	Sleep  string `toml:"sleep"`  // time.ParseDuration syntax
	Result string `toml:"result"` // value reported on success
	Fail   string `toml:"fail"`   // non-empty: fail with this message after children
	Tasks  []Task `toml:"task"`

	sleep time.Duration
}

// Duration returns the parsed sleep duration. Valid after Load or Parse.
func (t *Task) Duration() time.Duration {
	return t.sleep
}

// Load reads and validates a scenario file. A missing name defaults to
// the file's base name.
func Load(path string) (*Scenario, error) {
	var sc Scenario
	meta, err := toml.DecodeFile(path, &sc)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("name") || strings.TrimSpace(sc.Name) == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	sc.Path = path
	if err := sc.validate(meta.Undecoded()); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &sc, nil
}

// Parse decodes a scenario from TOML text.
func Parse(data string) (*Scenario, error) {
	var sc Scenario
	meta, err := toml.Decode(data, &sc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if strings.TrimSpace(sc.Name) == "" {
		return nil, errors.New("missing name")
	}
	if err := sc.validate(meta.Undecoded()); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *Scenario) validate(undecoded []toml.Key) error {
	if len(undecoded) > 0 {
		return fmt.Errorf("unknown key %q", undecoded[0].String())
	}
	if len(sc.Tasks) == 0 {
		return errors.New("missing [[task]]")
	}
	for i := range sc.Tasks {
		if err := sc.Tasks[i].validate(fmt.Sprintf("task[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

func (t *Task) validate(where string) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%s: missing name", where)
	}
	where = fmt.Sprintf("%s (%s)", where, t.Name)
	if t.Sleep != "" {
		d, err := time.ParseDuration(t.Sleep)
		if err != nil {
			return fmt.Errorf("%s: invalid sleep: %w", where, err)
		}
		if d < 0 {
			return fmt.Errorf("%s: negative sleep %s", where, t.Sleep)
		}
		t.sleep = d
	}
	for i := range t.Tasks {
		if err := t.Tasks[i].validate(fmt.Sprintf("%s.task[%d]", where, i)); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of tasks in the scenario, nested ones included.
func (sc *Scenario) Count() int {
	return countTasks(sc.Tasks)
}

func countTasks(tasks []Task) int {
	n := len(tasks)
	for i := range tasks {
		n += countTasks(tasks[i].Tasks)
	}
	return n
}
