// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/layergen/layergen/internal/enumgen"
)

const (
	// SourceUnity reads layers from a Unity TagManager.asset.
	SourceUnity SourceKind = "unity"
	// SourceTable reads layers from a TOML slot table.
	SourceTable SourceKind = "table"

	// LogLevelDebug enables per-poll diagnostics.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo reports emissions and failures.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn reports only problems.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError reports only failures.
	LogLevelError LogLevel = "error"
)

var (
	// ErrInvalidSourceKind is returned when a SourceKind value is not recognized.
	ErrInvalidSourceKind = errors.New("invalid source kind")
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidPollInterval is returned for a non-positive poll interval.
	ErrInvalidPollInterval = errors.New("invalid poll interval")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// SourceKind selects the slot source implementation.
	SourceKind string

	// InvalidSourceKindError is returned when a SourceKind value is not recognized.
	// It wraps ErrInvalidSourceKind for errors.Is() compatibility.
	InvalidSourceKindError struct {
		Value SourceKind
	}

	// LogLevel is the configured logger threshold.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidConfigError aggregates field validation failures.
	// It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the generator configuration.
	Config struct {
		// OutputPath is the artifact path, relative to the project directory.
		OutputPath string `json:"output_path" mapstructure:"output_path"`
		// NamespaceName wraps the generated enum. Dotted names are allowed.
		NamespaceName string `json:"namespace_name" mapstructure:"namespace_name"`
		// EnumName is the generated enum identifier.
		EnumName string `json:"enum_name" mapstructure:"enum_name"`
		// Source selects where slot names are read from.
		Source SourceConfig `json:"source" mapstructure:"source"`
		// Monitor tunes the watch loop.
		Monitor MonitorConfig `json:"monitor" mapstructure:"monitor"`
		// Notify configures the post-emission hook.
		Notify NotifyConfig `json:"notify" mapstructure:"notify"`
		// Log configures diagnostics.
		Log LogConfig `json:"log" mapstructure:"log"`
	}

	// SourceConfig selects the slot source.
	SourceConfig struct {
		Kind SourceKind `json:"kind" mapstructure:"kind"`
		// Path is relative to the project directory.
		Path string `json:"path" mapstructure:"path"`
	}

	// MonitorConfig tunes the watch loop.
	MonitorConfig struct {
		PollInterval time.Duration `json:"poll_interval" mapstructure:"poll_interval"`
		// FSEvents nudges the monitor whenever the source file changes on disk.
		FSEvents bool `json:"fs_events" mapstructure:"fs_events"`
	}

	// NotifyConfig configures the post-emission hook.
	NotifyConfig struct {
		// Hook is a shell script run after each successful emission. Empty disables it.
		Hook string `json:"hook" mapstructure:"hook"`
	}

	// LogConfig configures diagnostics.
	LogConfig struct {
		Level LogLevel `json:"level" mapstructure:"level"`
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		OutputPath:    "Assets/Scripts/Layers.cs",
		NamespaceName: "GameNamespace",
		EnumName:      "Layers",
		Source: SourceConfig{
			Kind: SourceUnity,
			Path: "ProjectSettings/TagManager.asset",
		},
		Monitor: MonitorConfig{
			PollInterval: time.Second,
			FSEvents:     true,
		},
		Log: LogConfig{Level: LogLevelInfo},
	}
}

// IsValid returns whether the SourceKind is one of the defined kinds.
func (k SourceKind) IsValid() (bool, []error) {
	switch k {
	case SourceUnity, SourceTable:
		return true, nil
	default:
		return false, []error{&InvalidSourceKindError{Value: k}}
	}
}

// String returns the string representation of the SourceKind.
func (k SourceKind) String() string { return string(k) }

// Error implements the error interface for InvalidSourceKindError.
func (e *InvalidSourceKindError) Error() string {
	return fmt.Sprintf("invalid source kind %q (valid: unity, table)", e.Value)
}

// Unwrap returns ErrInvalidSourceKind for errors.Is() compatibility.
func (e *InvalidSourceKindError) Unwrap() error { return ErrInvalidSourceKind }

// IsValid returns whether the LogLevel is one of the defined levels.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// Error implements the error interface for InvalidLogLevelError.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// IsValid validates every field and collects all failures.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if err := c.Generator("").Validate(); err != nil {
		errs = append(errs, err)
	}
	if valid, fieldErrs := c.Source.Kind.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if strings.TrimSpace(c.Source.Path) == "" {
		errs = append(errs, errors.New("source.path: must not be empty"))
	}
	if c.Monitor.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("monitor.poll_interval %s: %w", c.Monitor.PollInterval, ErrInvalidPollInterval))
	}
	if valid, fieldErrs := c.Log.Level.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidConfig and every field error.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// Generator returns the emitter settings with the output path resolved
// against projectDir. The result is a value copy.
func (c Config) Generator(projectDir string) enumgen.Config {
	return enumgen.Config{
		OutputPath: c.resolve(projectDir, c.OutputPath),
		Namespace:  c.NamespaceName,
		EnumName:   c.EnumName,
	}
}

// SourcePath returns the slot source path resolved against projectDir.
func (c Config) SourcePath(projectDir string) string {
	return c.resolve(projectDir, c.Source.Path)
}

func (c Config) resolve(projectDir, p string) string {
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) || projectDir == "" {
		return p
	}
	return filepath.Join(projectDir, p)
}
