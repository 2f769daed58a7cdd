// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlagValues holds the persistent flags shared by every subcommand.
type rootFlagValues struct {
	projectDir string
	configPath string
	verbose    bool
	logLevel   string
}

// NewRootCommand builds the layergen command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlagValues{}

	root := &cobra.Command{
		Use:   "layergen",
		Short: "Generate a typed layers enum from a physics slot table",
		Long: TitleStyle.Render("layergen") + SubtitleStyle.Render(" - Generate a typed layers enum from a physics slot table") + `

layergen reads the 32 physics layer slots of a game project and writes
a C# enum whose members are the sanitized layer names. In watch mode it
keeps the enum in sync as layers are renamed.

` + SubtitleStyle.Render("Examples:") + `
  layergen generate             Write the enum once
  layergen watch --initial      Write the enum, then keep it current
  layergen layers               Show slots and derived identifiers
  layergen config init          Create layergen.cue in the project`,
		SilenceUsage: true,
	}
	root.SetOut(app.stdout)
	root.SetErr(app.stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.projectDir, "project", "C", ".", "project directory")
	pf.StringVar(&flags.configPath, "config", "", "config file (default is <project>/layergen.cue, then the user config)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newGenerateCommand(app, flags),
		newWatchCommand(app, flags),
		newLayersCommand(app, flags),
		newConfigCommand(app, flags),
	)
	return root
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with its status. It is called by main.main().
func Execute() {
	os.Exit(run(context.Background(), NewApp(Dependencies{}), os.Args[1:]))
}

// run executes the command tree with args and returns the process exit code.
func run(ctx context.Context, app *App, args []string) int {
	root := NewRootCommand(app)
	root.SetArgs(args)

	// fang overrides root.Version, so the version is passed explicitly.
	if err := fang.Execute(
		ctx,
		root,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}
		return 1
	}
	return 0
}

// fail reports err on stderr and returns the ExitError a RunE handler should
// propagate. Cobra's own error printing is silenced so the message appears once.
func (a *App) fail(cmd *cobra.Command, flags *rootFlagValues, err error) error {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	reportError(a.stderr, err, flags.verbose)
	return &ExitError{Code: 1}
}
