// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/layergen/layergen/internal/config"
	"github.com/layergen/layergen/internal/issue"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `layergen config` command tree.
func newConfigCommand(app *App, flags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage layergen configuration",
		Long: `Manage layergen configuration.

Configuration is read from the first file found:
  - the --config flag
  - layergen.cue in the project directory
  - config.cue in the user config directory
    (Linux: ~/.config/layergen, macOS: ~/Library/Application Support/layergen,
    Windows: %APPDATA%\layergen)

LAYERGEN_* environment variables override file values, for example
LAYERGEN_ENUM_NAME or LAYERGEN_SOURCE_KIND.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, loaded, err := app.loadConfig(cmd.Context(), flags)
			if err != nil {
				return app.fail(cmd, flags, err)
			}
			showConfig(cmd.OutOrStdout(), loaded)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, loaded, err := app.loadConfig(cmd.Context(), flags)
			if err != nil {
				return app.fail(cmd, flags, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), displayPath(loaded.Path))
			return nil
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a project configuration file with defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := initConfig(flags, force)
			if err != nil {
				return app.fail(cmd, flags, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Created %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(path))
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value and save it.

The value is written to the file the configuration was loaded from, or
to layergen.cue in the project directory when only defaults were in effect.`,
		Args: cobra.ExactArgs(2),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return config.Keys(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := app.setConfigValue(cmd, flags, args[0], args[1])
			if err != nil {
				return app.fail(cmd, flags, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Set %s = %s in %s\n",
				SuccessStyle.Render("✓"), CmdStyle.Render(args[0]), args[1], path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, loaded, err := app.loadConfig(cmd.Context(), flags)
			if err != nil {
				return app.fail(cmd, flags, err)
			}
			fmt.Fprint(cmd.OutOrStdout(), config.GenerateCUE(loaded.Config))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(w io.Writer, loaded config.Loaded) {
	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if loaded.Path == "" {
		fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	} else {
		fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("Config file"), loaded.Path)
	}
	fmt.Fprintln(w)

	for _, key := range config.Keys() {
		value, err := config.Value(loaded.Config, key)
		if err != nil {
			continue
		}
		if value == "" {
			value = SubtitleStyle.Render("(none)")
		} else {
			value = SuccessStyle.Render(value)
		}
		fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render(key), value)
	}
}

// initConfig writes a default configuration to --config or the project
// file and returns the path written.
func initConfig(flags *rootFlagValues, force bool) (string, error) {
	path, err := projectConfigPath(flags)
	if err != nil {
		return "", err
	}

	if _, statErr := os.Stat(path); statErr == nil && !force {
		return "", issue.NewErrorContext().
			WithOperation("create configuration").
			WithResource(path).
			WithSuggestion("Pass --force to overwrite it").
			WithSuggestion("Use 'layergen config set <key> <value>' to change single values").
			Wrap(fmt.Errorf("config file already exists: %w", os.ErrExist)).
			BuildError()
	}

	if err := config.Save(config.DefaultConfig(), path); err != nil {
		return "", issue.NewErrorContext().
			WithOperation("create configuration").
			WithResource(path).
			WithSuggestion("Check that the directory is writable").
			Wrap(err).
			BuildError()
	}
	return path, nil
}

// setConfigValue applies key=value to the loaded configuration, validates
// the result and saves it. It returns the path written.
func (a *App) setConfigValue(cmd *cobra.Command, flags *rootFlagValues, key, value string) (string, error) {
	_, loaded, err := a.loadConfig(cmd.Context(), flags)
	if err != nil {
		return "", err
	}
	cfg := *loaded.Config

	if err := config.Set(&cfg, key, value); err != nil {
		ctx := issue.NewErrorContext().
			WithOperation("set configuration value").
			WithResource(key).
			Wrap(err)
		if errors.Is(err, config.ErrUnknownKey) {
			ctx.WithSuggestion("Run 'layergen config show' to list the available keys")
		}
		return "", ctx.WithIssue(issue.InvalidConfigId).BuildError()
	}
	if valid, errs := cfg.IsValid(); !valid {
		return "", issue.NewErrorContext().
			WithOperation("set configuration value").
			WithResource(key).
			WithIssue(issue.InvalidConfigId).
			Wrap(errors.Join(errs...)).
			BuildError()
	}

	path := loaded.Path
	if path == "" {
		if path, err = projectConfigPath(flags); err != nil {
			return "", err
		}
	}
	if err := config.Save(&cfg, path); err != nil {
		return "", issue.NewErrorContext().
			WithOperation("save configuration").
			WithResource(path).
			Wrap(err).
			BuildError()
	}
	return path, nil
}

// projectConfigPath is --config when given, else layergen.cue in the
// project directory.
func projectConfigPath(flags *rootFlagValues) (string, error) {
	if flags.configPath != "" {
		return filepath.Abs(flags.configPath)
	}
	dir, err := filepath.Abs(flags.projectDir)
	if err != nil {
		return "", fmt.Errorf("resolve project directory: %w", err)
	}
	return filepath.Join(dir, config.ProjectFileName), nil
}
