// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/layergen/layergen/internal/issue"
	"github.com/layergen/layergen/pkg/cueutil"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "layergen"
	// ConfigFileName is the user-level config file name (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// ProjectFileName is the per-project config file, looked up in the project directory.
	ProjectFileName = "layergen.cue"
	// EnvPrefix prefixes environment overrides (LAYERGEN_ENUM_NAME, LAYERGEN_SOURCE_PATH, ...).
	EnvPrefix = "LAYERGEN"
)

// ErrUnknownKey is returned by Set and Value for keys outside Keys().
var ErrUnknownKey = errors.New("unknown config key")

//go:embed config_schema.cue
var configSchema string

// Keys lists every settable key in display order.
func Keys() []string {
	return []string{
		"output_path",
		"namespace_name",
		"enum_name",
		"source.kind",
		"source.path",
		"monitor.poll_interval",
		"monitor.fs_events",
		"notify.hook",
		"log.level",
	}
}

// ConfigDir returns the user-level configuration directory: %APPDATA% on
// Windows, ~/Library/Application Support on macOS, and $XDG_CONFIG_HOME
// (default ~/.config) elsewhere.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// resolvePath picks the config file to load: the explicit file, then the
// project file, then the user file. An empty result means defaults only.
func resolvePath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'layergen config init' to write a starter file").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	projectPath := filepath.Join(opts.ProjectDir, ProjectFileName)
	if fileExists(projectPath) {
		return projectPath, nil
	}

	cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", err
	}
	userPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	if fileExists(userPath) {
		return userPath, nil
	}
	return "", nil
}

// loadWithOptions performs option-driven config loading.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	defaults := DefaultConfig()
	v.SetDefault("output_path", defaults.OutputPath)
	v.SetDefault("namespace_name", defaults.NamespaceName)
	v.SetDefault("enum_name", defaults.EnumName)
	v.SetDefault("source.kind", string(defaults.Source.Kind))
	v.SetDefault("source.path", defaults.Source.Path)
	v.SetDefault("monitor.poll_interval", defaults.Monitor.PollInterval.String())
	v.SetDefault("monitor.fs_events", defaults.Monitor.FSEvents)
	v.SetDefault("notify.hook", defaults.Notify.Hook)
	v.SetDefault("log.level", string(defaults.Log.Level))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := resolvePath(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the values match the schema shown by 'layergen config dump'").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithSuggestion("Namespace and enum names must be C# identifiers").
			WithSuggestion("Use 'layergen config set <key> <value>' to fix a single key").
			Wrap(errors.Join(errs...)).
			BuildError()
	}

	return &cfg, path, nil
}

func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}
	return ConfigDir()
}

// loadCUEIntoViper validates a CUE file against #Config and merges it into v.
// Fields are optional, so validation is not concrete, and the result
// decodes to a map rather than a struct so env overrides still apply.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, ""); err != nil {
		return err
	}

	ctx := cuecontext.New()
	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return cueutil.FormatError(userValue.Err(), "")
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, "")
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, "")
	}
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Save writes cfg as CUE to path, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(cfg)), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateCUE renders cfg in the file format accepted by the loader.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// layergen configuration\n\n")
	fmt.Fprintf(&sb, "output_path:    %q\n", cfg.OutputPath)
	fmt.Fprintf(&sb, "namespace_name: %q\n", cfg.NamespaceName)
	fmt.Fprintf(&sb, "enum_name:      %q\n", cfg.EnumName)

	sb.WriteString("\nsource: {\n")
	fmt.Fprintf(&sb, "\tkind: %q\n", cfg.Source.Kind)
	fmt.Fprintf(&sb, "\tpath: %q\n", cfg.Source.Path)
	sb.WriteString("}\n")

	sb.WriteString("\nmonitor: {\n")
	fmt.Fprintf(&sb, "\tpoll_interval: %q\n", cfg.Monitor.PollInterval.String())
	fmt.Fprintf(&sb, "\tfs_events:     %v\n", cfg.Monitor.FSEvents)
	sb.WriteString("}\n")

	if cfg.Notify.Hook != "" {
		sb.WriteString("\nnotify: {\n")
		fmt.Fprintf(&sb, "\thook: %q\n", cfg.Notify.Hook)
		sb.WriteString("}\n")
	}

	sb.WriteString("\nlog: {\n")
	fmt.Fprintf(&sb, "\tlevel: %q\n", cfg.Log.Level)
	sb.WriteString("}\n")

	return sb.String()
}

// Set assigns value to key, parsing it for the key's type. The result is
// not validated; call IsValid before saving.
func Set(cfg *Config, key, value string) error {
	switch key {
	case "output_path":
		cfg.OutputPath = value
	case "namespace_name":
		cfg.NamespaceName = value
	case "enum_name":
		cfg.EnumName = value
	case "source.kind":
		cfg.Source.Kind = SourceKind(value)
	case "source.path":
		cfg.Source.Path = value
	case "monitor.poll_interval":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		cfg.Monitor.PollInterval = d
	case "monitor.fs_events":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		cfg.Monitor.FSEvents = b
	case "notify.hook":
		cfg.Notify.Hook = value
	case "log.level":
		cfg.Log.Level = LogLevel(value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return nil
}

// Value returns the display form of key.
func Value(cfg *Config, key string) (string, error) {
	switch key {
	case "output_path":
		return cfg.OutputPath, nil
	case "namespace_name":
		return cfg.NamespaceName, nil
	case "enum_name":
		return cfg.EnumName, nil
	case "source.kind":
		return cfg.Source.Kind.String(), nil
	case "source.path":
		return cfg.Source.Path, nil
	case "monitor.poll_interval":
		return cfg.Monitor.PollInterval.String(), nil
	case "monitor.fs_events":
		return strconv.FormatBool(cfg.Monitor.FSEvents), nil
	case "notify.hook":
		return cfg.Notify.Hook, nil
	case "log.level":
		return cfg.Log.Level.String(), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
}
