// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/layergen/layergen/internal/clock"
	"github.com/layergen/layergen/internal/monitor"
)

const watchProject = `source: {
	kind: "table"
	path: "layers.toml"
}
monitor: {
	fs_events: false
}
`

func newWatchPipeline(t *testing.T, table string) (*pipeline, string) {
	t.Helper()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "layergen.cue"), watchProject)
	writeFile(t, filepath.Join(dir, "layers.toml"), table)

	app := NewApp(Dependencies{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})
	p, err := app.newPipeline(t.Context(), &rootFlagValues{projectDir: dir}, pipelineOptions{})
	if err != nil {
		t.Fatalf("newPipeline() error = %v", err)
	}
	return p, dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func waitForFile(t *testing.T, path, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if data, err := os.ReadFile(path); err == nil && strings.Contains(string(data), want) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("%s never contained %q", path, want)
}

func TestRunWatch_InitialThenChange(t *testing.T) {
	t.Parallel()

	p, dir := newWatchPipeline(t, "[layers]\n0 = \"Default\"\n")
	output := filepath.Join(dir, "Assets", "Scripts", "Layers.cs")

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	ready := make(chan *monitor.Monitor, 1)
	var stdout bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- runWatch(ctx, &stdout, p, watchOptions{
			initial: true,
			clock:   clock.NewFake(time.Time{}),
			ready:   func(m *monitor.Monitor) { ready <- m },
		})
	}()

	m := <-ready
	waitForFile(t, output, "Default = 0")

	writeFile(t, filepath.Join(dir, "layers.toml"), "[layers]\n0 = \"Default\"\n9 = \"Enemy Team\"\n")
	m.Nudge()
	waitForFile(t, output, "Enemy_Team = 9")

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("runWatch() error = %v", err)
	}
	if !strings.Contains(stdout.String(), "Watching") {
		t.Errorf("stdout = %q, want watch banner", stdout.String())
	}
	if got := m.Stats().Emissions; got != 2 {
		t.Errorf("Emissions = %d, want 2", got)
	}
}

func TestRunWatch_PollTimer(t *testing.T) {
	t.Parallel()

	p, dir := newWatchPipeline(t, "[layers]\n0 = \"Default\"\n")
	output := filepath.Join(dir, "Assets", "Scripts", "Layers.cs")
	clk := clock.NewFake(time.Time{})

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	ready := make(chan *monitor.Monitor, 1)
	done := make(chan error, 1)
	go func() {
		done <- runWatch(ctx, &bytes.Buffer{}, p, watchOptions{
			interval: 50 * time.Millisecond,
			clock:    clk,
			ready:    func(m *monitor.Monitor) { ready <- m },
		})
	}()
	m := <-ready

	// Without --initial nothing is written until the table changes.
	writeFile(t, filepath.Join(dir, "layers.toml"), "[layers]\n0 = \"Default\"\n3 = \"Water\"\n")
	deadline := time.Now().Add(5 * time.Second)
	for clk.Waiters() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("monitor never armed its poll timer")
		}
		time.Sleep(time.Millisecond)
	}
	clk.Advance(50 * time.Millisecond)
	waitForFile(t, output, "Water = 3")

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("runWatch() error = %v", err)
	}
	if got := m.Stats().Polls; got < 1 {
		t.Errorf("Polls = %d, want at least 1", got)
	}
}

func TestRunWatch_SourceMissing(t *testing.T) {
	t.Parallel()

	p, dir := newWatchPipeline(t, "[layers]\n")
	if err := os.Remove(filepath.Join(dir, "layers.toml")); err != nil {
		t.Fatal(err)
	}

	err := runWatch(t.Context(), &bytes.Buffer{}, p, watchOptions{clock: clock.NewFake(time.Time{})})
	if err == nil {
		t.Fatal("runWatch() error = nil, want missing source")
	}
	if !isSourceError(err) {
		t.Errorf("runWatch() error = %v, want a source error", err)
	}
}
