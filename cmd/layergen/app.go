// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/layergen/layergen/internal/config"
	"github.com/layergen/layergen/internal/enumgen"
	"github.com/layergen/layergen/internal/host/table"
	"github.com/layergen/layergen/internal/host/unity"
	"github.com/layergen/layergen/internal/issue"
	"github.com/layergen/layergen/internal/notify"
	"github.com/layergen/layergen/internal/slot"

	"github.com/charmbracelet/log"
)

type (
	// App wires CLI services and shared dependencies. Cobra handlers receive
	// an App and build the generation pipeline through it.
	App struct {
		Config ConfigProvider
		stdout io.Writer
		stderr io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Stdout io.Writer
		Stderr io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (config.Loaded, error)
	}

	// pipeline is the generator assembled from one loaded configuration.
	// cfg is a private copy; nothing downstream observes later edits.
	pipeline struct {
		projectDir string
		configPath string
		cfg        config.Config
		logger     *log.Logger
		source     slot.Namer
		sourcePath string
		notifier   notify.Notifier
		emitter    *enumgen.Emitter
	}

	// pipelineOptions tunes how a pipeline is assembled.
	pipelineOptions struct {
		// timestamps enables logger timestamps for long-running commands.
		timestamps bool
	}
)

// NewApp creates an App from deps, filling production defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config: deps.Config,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// loadConfig resolves the project directory and loads the configuration
// the root flags point at.
func (a *App) loadConfig(ctx context.Context, flags *rootFlagValues) (projectDir string, loaded config.Loaded, err error) {
	projectDir, err = filepath.Abs(flags.projectDir)
	if err != nil {
		return "", config.Loaded{}, fmt.Errorf("resolve project directory: %w", err)
	}
	loaded, err = a.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: flags.configPath,
		ProjectDir:     projectDir,
	})
	if err != nil {
		return "", config.Loaded{}, withIssue(err, issueForConfigError(err))
	}
	return projectDir, loaded, nil
}

// newPipeline loads configuration and assembles the generator for it.
func (a *App) newPipeline(ctx context.Context, flags *rootFlagValues, opts pipelineOptions) (*pipeline, error) {
	projectDir, loaded, err := a.loadConfig(ctx, flags)
	if err != nil {
		return nil, err
	}
	cfg := *loaded.Config

	logger := a.newLogger(flags, cfg.Log.Level, opts.timestamps)

	p := &pipeline{
		projectDir: projectDir,
		configPath: loaded.Path,
		cfg:        cfg,
		logger:     logger,
		sourcePath: cfg.SourcePath(projectDir),
	}

	switch cfg.Source.Kind {
	case config.SourceTable:
		p.source = table.NewFile(p.sourcePath)
	default:
		p.source = unity.NewTagManager(p.sourcePath)
	}

	chain := notify.Chain{notify.NewLog(logger)}
	if cfg.Notify.Hook != "" {
		hook, err := notify.NewHook(cfg.Notify.Hook, projectDir, logger)
		if err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("prepare notify hook").
				WithResource(loaded.Path).
				WithSuggestion("Check the shell syntax of notify.hook").
				WithIssue(issue.NotifyHookFailedId).
				Wrap(err).
				BuildError()
		}
		chain = append(chain, hook)
	}
	p.notifier = chain

	emitter, err := enumgen.NewEmitter(cfg.Generator(projectDir), p.notifier)
	if err != nil {
		return nil, withIssue(err, issue.InvalidConfigId)
	}
	p.emitter = emitter

	logger.Debug("pipeline ready",
		"project", projectDir,
		"config", displayPath(loaded.Path),
		"source", p.sourcePath,
		"output", emitter.Config().OutputPath,
	)
	return p, nil
}

// newLogger builds the command logger. --verbose forces debug; --log-level
// overrides the configured level.
func (a *App) newLogger(flags *rootFlagValues, configured config.LogLevel, timestamps bool) *log.Logger {
	level := log.InfoLevel
	name := string(configured)
	if flags.logLevel != "" {
		name = flags.logLevel
	}
	if parsed, err := log.ParseLevel(name); err == nil {
		level = parsed
	}
	if flags.verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{
		Prefix:          "layergen",
		Level:           level,
		ReportTimestamp: timestamps,
	})
}

// readSnapshot samples the configured source once.
func (p *pipeline) readSnapshot() (slot.Snapshot, error) {
	s, err := slot.ReadSnapshot(p.source)
	if err != nil {
		return slot.Snapshot{}, sourceError(err, p.sourcePath, p.cfg.Source.Kind)
	}
	return s, nil
}

func displayPath(path string) string {
	if path == "" {
		return "(defaults)"
	}
	return path
}
