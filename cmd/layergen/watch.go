// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/layergen/layergen/internal/clock"
	"github.com/layergen/layergen/internal/monitor"
	"github.com/layergen/layergen/internal/watch"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// watchOptions holds the watch command's flags and test seams.
type watchOptions struct {
	initial  bool
	interval time.Duration
	// clock drives the poll timer; nil uses the system clock.
	clock clock.Clock
	// ready, when set, is called once the monitor holds its baseline.
	ready func(*monitor.Monitor)
}

func newWatchCommand(app *App, flags *rootFlagValues) *cobra.Command {
	opts := watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the layers enum in sync with the slot table",
		Long: `Monitor the project's physics layer slots and regenerate the layers
enum whenever a slot name changes.

The slot table is sampled every poll interval. When monitor.fs_events is
enabled, edits to the source file trigger an immediate sample as well.
Emission failures are logged and never stop the monitor. Press Ctrl+C
to stop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := app.newPipeline(cmd.Context(), flags, pipelineOptions{timestamps: true})
			if err != nil {
				return app.fail(cmd, flags, err)
			}
			if err := runWatch(cmd.Context(), cmd.OutOrStdout(), p, opts); err != nil {
				return app.fail(cmd, flags, err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.initial, "initial", false, "generate the enum once before monitoring")
	cmd.Flags().DurationVar(&opts.interval, "interval", 0, "poll interval (overrides monitor.poll_interval)")
	return cmd
}

// runWatch monitors p's source until ctx is cancelled. Only start-up
// failures are returned; everything after that is logged.
func runWatch(ctx context.Context, stdout io.Writer, p *pipeline, opts watchOptions) error {
	interval := p.cfg.Monitor.PollInterval
	if opts.interval > 0 {
		interval = opts.interval
	}
	clk := opts.clock
	if clk == nil {
		clk = clock.Real{}
	}

	m, err := monitor.New(monitor.Config{
		Namer:    p.source,
		Emitter:  p.emitter,
		Interval: interval,
		Clock:    clk,
		Logger:   p.logger,
	})
	if err != nil {
		return sourceError(err, p.sourcePath, p.cfg.Source.Kind)
	}

	if opts.initial {
		res, err := m.Regenerate(ctx)
		switch {
		case err == nil:
			p.logger.Info("layers enum updated", "path", res.Path, "members", len(res.Members))
		case isSourceError(err):
			return sourceError(err, p.sourcePath, p.cfg.Source.Kind)
		default:
			p.logger.Error("initial generation failed", "error", err)
		}
	}

	fmt.Fprintf(stdout, "%s Watching %s (every %s)\n",
		SuccessStyle.Render("●"), CmdStyle.Render(p.sourcePath), interval)

	g, gctx := errgroup.WithContext(ctx)
	if p.cfg.Monitor.FSEvents {
		w, err := watch.New(watch.Config{
			Dir:      filepath.Dir(p.sourcePath),
			Patterns: []string{filepath.Base(p.sourcePath)},
			OnChange: func(_ context.Context, changed []string) {
				p.logger.Debug("source changed", "files", changed)
				m.Nudge()
			},
			Logger: p.logger,
		})
		if err != nil {
			p.logger.Warn("file events unavailable; polling only", "error", err)
		} else {
			g.Go(func() error {
				if err := w.Run(gctx); err != nil {
					p.logger.Warn("file events stopped; polling only", "error", err)
				}
				return nil
			})
		}
	}

	if opts.ready != nil {
		opts.ready(m)
	}
	g.Go(func() error { return m.Run(gctx) })
	if err := g.Wait(); err != nil {
		return err
	}

	stats := m.Stats()
	p.logger.Info("monitor stopped",
		"polls", stats.Polls,
		"emissions", stats.Emissions,
		"emit_failures", stats.EmitFailures,
		"read_failures", stats.ReadFailures,
	)
	return nil
}
