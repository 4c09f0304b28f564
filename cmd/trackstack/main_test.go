package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"trackstack/internal/scenario"
	"trackstack/internal/trace"
)

func TestResolveColor(t *testing.T) {
	tty := func() bool { return true }
	pipe := func() bool { return false }
	cases := []struct {
		value string
		term  func() bool
		want  bool
	}{
		{"auto", tty, true},
		{"", pipe, false},
		{"ON", pipe, true},
		{"off", tty, false},
	}
	for _, tc := range cases {
		got, err := resolveColor(tc.value, tc.term)
		if err != nil {
			t.Fatalf("resolveColor(%q): %v", tc.value, err)
		}
		if got != tc.want {
			t.Fatalf("resolveColor(%q) = %v, want %v", tc.value, got, tc.want)
		}
	}
	if _, err := resolveColor("rainbow", tty); err == nil {
		t.Fatal("expected error for invalid value")
	}
}

func TestRenderVersionJSON(t *testing.T) {
	var buf bytes.Buffer
	info := versionInfo{Version: "1.2.3", GitCommit: "abc123"}
	if err := renderVersionJSON(&buf, info, versionOptions{showHash: true, showDate: true}); err != nil {
		t.Fatalf("renderVersionJSON: %v", err)
	}
	var payload versionPayload
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Tool != "trackstack" || payload.GitCommit != "abc123" || payload.BuildDate != "unknown" {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestPrintOutcome(t *testing.T) {
	var out bytes.Buffer
	tree := bytes.NewBufferString("|-- a\n\\-> ok\n")
	outcome := scenario.Outcome{Scenario: "demo", Frames: 1}
	if err := printOutcome(&out, outcome, tree, false); err != nil {
		t.Fatalf("printOutcome: %v", err)
	}
	if !strings.HasPrefix(out.String(), "== demo\n|-- a\n\\-> ok\nok: 1 frames in ") {
		t.Fatalf("output = %q", out.String())
	}

	out.Reset()
	outcome.Err = errors.New("boom")
	if err := printOutcome(&out, outcome, &bytes.Buffer{}, false); err != nil {
		t.Fatalf("printOutcome: %v", err)
	}
	if !strings.Contains(out.String(), "FAILED: 1 frames") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestRunCommand_WritesMsgpackTrace(t *testing.T) {
	dir := t.TempDir()
	scenarioPath := filepath.Join(dir, "demo.toml")
	src := "name = \"demo\"\n[[task]]\nname = \"outer\"\n[[task.task]]\nname = \"inner\"\nresult = \"42\"\n"
	if err := os.WriteFile(scenarioPath, []byte(src), 0o600); err != nil {
		t.Fatalf("write scenario: %v", err)
	}
	tracePath := filepath.Join(dir, "out.mp")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"run", "--color=off", "--timings", "--trace", tracePath, scenarioPath})
	t.Cleanup(func() {
		_ = rootCmd.PersistentFlags().Set("trace", "")
		_ = rootCmd.PersistentFlags().Set("timings", "false")
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("run: %v\n%s", err, out.String())
	}

	want := "== demo\n|-- outer\n|   |-- inner\n|   \\-> 42\n\\-> ok\nok: 2 frames in "
	if !strings.HasPrefix(out.String(), want) {
		t.Fatalf("output =\n%s\nwant prefix\n%s", out.String(), want)
	}
	if !strings.Contains(out.String(), "timings:") {
		t.Fatalf("output lacks timing summary:\n%s", out.String())
	}

	f, err := os.Open(tracePath)
	if err != nil {
		t.Fatalf("open trace: %v", err)
	}
	defer f.Close()
	events, err := trace.DecodeMsgpack(f)
	if err != nil {
		t.Fatalf("DecodeMsgpack: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("trace has %d events, want 4", len(events))
	}
	if events[1].Name != "inner" || events[1].ParentID != events[0].FrameID {
		t.Fatalf("inner begin = %+v", events[1])
	}
}

func TestReadUIMode(t *testing.T) {
	for value, want := range map[string]uiMode{"": uiModeAuto, "Auto": uiModeAuto, "on": uiModeOn, " off ": uiModeOff} {
		got, err := readUIMode(value)
		if err != nil || got != want {
			t.Fatalf("readUIMode(%q) = %q, %v; want %q", value, got, err, want)
		}
	}
	if _, err := readUIMode("fancy"); err == nil {
		t.Fatal("expected error for invalid value")
	}
	if !shouldUseTUI(uiModeOn, true) || shouldUseTUI(uiModeOff, false) || shouldUseTUI(uiModeAuto, true) {
		t.Fatal("shouldUseTUI ignores explicit mode or quiet")
	}
}

func TestRunCommand_WritesProfiles(t *testing.T) {
	dir := t.TempDir()
	scenarioPath := filepath.Join(dir, "quick.toml")
	if err := os.WriteFile(scenarioPath, []byte("name = \"quick\"\n[[task]]\nname = \"only\"\n"), 0o600); err != nil {
		t.Fatalf("write scenario: %v", err)
	}
	cpu := filepath.Join(dir, "cpu.pprof")
	mem := filepath.Join(dir, "mem.pprof")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"run", "--ui=off", "--quiet", "--cpu-profile", cpu, "--mem-profile", mem, scenarioPath})
	t.Cleanup(func() {
		_ = rootCmd.PersistentFlags().Set("cpu-profile", "")
		_ = rootCmd.PersistentFlags().Set("mem-profile", "")
		_ = rootCmd.PersistentFlags().Set("quiet", "false")
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("run: %v\n%s", err, out.String())
	}
	for _, path := range []string{cpu, mem} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("profile %s: %v", path, err)
		}
	}
}
