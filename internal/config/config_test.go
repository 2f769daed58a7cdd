// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/layergen/layergen/internal/issue"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func load(t *testing.T, opts LoadOptions) (Loaded, error) {
	t.Helper()
	if opts.ConfigDirPath == "" {
		opts.ConfigDirPath = t.TempDir()
	}
	return NewProvider().Load(t.Context(), opts)
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.OutputPath != "Assets/Scripts/Layers.cs" {
		t.Errorf("OutputPath = %q", cfg.OutputPath)
	}
	if cfg.NamespaceName != "GameNamespace" || cfg.EnumName != "Layers" {
		t.Errorf("names = %q, %q", cfg.NamespaceName, cfg.EnumName)
	}
	if cfg.Source.Kind != SourceUnity || cfg.Source.Path != "ProjectSettings/TagManager.asset" {
		t.Errorf("Source = %+v", cfg.Source)
	}
	if cfg.Monitor.PollInterval != time.Second || !cfg.Monitor.FSEvents {
		t.Errorf("Monitor = %+v", cfg.Monitor)
	}
	if valid, errs := cfg.IsValid(); !valid {
		t.Errorf("DefaultConfig().IsValid() = %v", errs)
	}
}

func TestLoad_DefaultsWithoutFiles(t *testing.T) {
	t.Parallel()

	loaded, err := load(t, LoadOptions{ProjectDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.Path != "" {
		t.Errorf("Path = %q, want empty", loaded.Path)
	}
	if !reflect.DeepEqual(loaded.Config, DefaultConfig()) {
		t.Errorf("Config = %+v, want defaults", loaded.Config)
	}
}

func TestLoad_LookupOrder(t *testing.T) {
	t.Parallel()

	project := t.TempDir()
	userDir := t.TempDir()
	userFile := filepath.Join(userDir, "config.cue")
	writeFile(t, userFile, `enum_name: "UserLayers"`)

	loaded, err := load(t, LoadOptions{ProjectDir: project, ConfigDirPath: userDir})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.Path != userFile || loaded.Config.EnumName != "UserLayers" {
		t.Errorf("user config not used: path=%q enum=%q", loaded.Path, loaded.Config.EnumName)
	}

	projectFile := filepath.Join(project, ProjectFileName)
	writeFile(t, projectFile, `enum_name: "ProjectLayers"`)
	loaded, err = load(t, LoadOptions{ProjectDir: project, ConfigDirPath: userDir})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.Path != projectFile || loaded.Config.EnumName != "ProjectLayers" {
		t.Errorf("project config should win: path=%q enum=%q", loaded.Path, loaded.Config.EnumName)
	}

	explicit := filepath.Join(t.TempDir(), "ci.cue")
	writeFile(t, explicit, `enum_name: "CILayers"`)
	loaded, err = load(t, LoadOptions{ConfigFilePath: explicit, ProjectDir: project, ConfigDirPath: userDir})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.Config.EnumName != "CILayers" {
		t.Errorf("explicit file should win, enum=%q", loaded.Config.EnumName)
	}
	// Unset keys keep their defaults.
	if loaded.Config.NamespaceName != "GameNamespace" {
		t.Errorf("NamespaceName = %q, want default", loaded.Config.NamespaceName)
	}
}

func TestLoad_FullFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "layergen.cue")
	writeFile(t, path, `
output_path:    "Scripts/Generated/PhysicsLayers.cs"
namespace_name: "Game.Physics"
enum_name:      "PhysicsLayers"
source: {
	kind: "table"
	path: "layers.toml"
}
monitor: {
	poll_interval: "250ms"
	fs_events:     false
}
notify: hook: "touch .reindex"
log: level: "debug"
`)

	loaded, err := load(t, LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	want := &Config{
		OutputPath:    "Scripts/Generated/PhysicsLayers.cs",
		NamespaceName: "Game.Physics",
		EnumName:      "PhysicsLayers",
		Source:        SourceConfig{Kind: SourceTable, Path: "layers.toml"},
		Monitor:       MonitorConfig{PollInterval: 250 * time.Millisecond, FSEvents: false},
		Notify:        NotifyConfig{Hook: "touch .reindex"},
		Log:           LogConfig{Level: LogLevelDebug},
	}
	if !reflect.DeepEqual(loaded.Config, want) {
		t.Errorf("Config = %+v\nwant %+v", loaded.Config, want)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	t.Run("explicit file missing", func(t *testing.T) {
		t.Parallel()
		_, err := load(t, LoadOptions{ConfigFilePath: filepath.Join(t.TempDir(), "missing.cue")})
		var ae *issue.ActionableError
		if !errors.As(err, &ae) {
			t.Fatalf("Load() error = %v, want *issue.ActionableError", err)
		}
		if ae.Operation != "load configuration" || !ae.HasSuggestions() {
			t.Errorf("ActionableError = %+v", ae)
		}
	})

	t.Run("schema violation", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "layergen.cue")
		writeFile(t, path, `source: kind: "godot"`)
		_, err := load(t, LoadOptions{ConfigFilePath: path})
		if err == nil || !strings.Contains(err.Error(), "source.kind") {
			t.Errorf("Load() error = %v, want source.kind path", err)
		}
	})

	t.Run("type mismatch names the file once", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "layergen.cue")
		writeFile(t, path, `monitor: fs_events: "yes"`)
		_, err := load(t, LoadOptions{ConfigFilePath: path})
		var ae *issue.ActionableError
		if !errors.As(err, &ae) {
			t.Fatalf("Load() error = %v, want *issue.ActionableError", err)
		}
		if ae.Resource != path {
			t.Errorf("Resource = %q, want %q", ae.Resource, path)
		}
		msg := err.Error()
		if got := strings.Count(msg, path); got != 1 {
			t.Errorf("Load() error names the file %d times: %q", got, msg)
		}
		if !strings.Contains(msg, "monitor.fs_events") || strings.Contains(msg, "#Config") {
			t.Errorf("Load() error = %q, want the JSON path without the definition", msg)
		}
	})

	t.Run("syntax error", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "layergen.cue")
		writeFile(t, path, `enum_name: "Layers`)
		if _, err := load(t, LoadOptions{ConfigFilePath: path}); err == nil {
			t.Error("Load() accepted invalid CUE")
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		if _, err := NewProvider().Load(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
			t.Errorf("Load() error = %v, want context.Canceled", err)
		}
	})
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LAYERGEN_ENUM_NAME", "EnvLayers")
	t.Setenv("LAYERGEN_MONITOR_POLL_INTERVAL", "3s")
	t.Setenv("LAYERGEN_MONITOR_FS_EVENTS", "false")

	project := t.TempDir()
	writeFile(t, filepath.Join(project, ProjectFileName), `enum_name: "FileLayers"`)

	loaded, err := load(t, LoadOptions{ProjectDir: project})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.Config.EnumName != "EnvLayers" {
		t.Errorf("EnumName = %q, want env override", loaded.Config.EnumName)
	}
	if loaded.Config.Monitor.PollInterval != 3*time.Second || loaded.Config.Monitor.FSEvents {
		t.Errorf("Monitor = %+v, want env overrides", loaded.Config.Monitor)
	}
}

func TestLoad_InvalidEnvValue(t *testing.T) {
	t.Setenv("LAYERGEN_NAMESPACE_NAME", "Game Namespace")

	_, err := load(t, LoadOptions{ProjectDir: t.TempDir()})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Load() error = %v, want ErrInvalidConfig", err)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.NamespaceName = "Studio.Game"
	cfg.Source = SourceConfig{Kind: SourceTable, Path: "design/layers.toml"}
	cfg.Monitor.PollInterval = 1500 * time.Millisecond
	cfg.Notify.Hook = "echo \"refreshed $LAYERGEN_OUTPUT\"\ntouch .reindex"
	cfg.Log.Level = LogLevelWarn

	path := filepath.Join(t.TempDir(), "nested", ProjectFileName)
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := load(t, LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load() after Save() error: %v\n%s", err, GenerateCUE(cfg))
	}
	if !reflect.DeepEqual(loaded.Config, cfg) {
		t.Errorf("round trip = %+v\nwant %+v", loaded.Config, cfg)
	}
}

func TestGenerateCUE_OmitsEmptyHook(t *testing.T) {
	t.Parallel()

	out := GenerateCUE(DefaultConfig())
	if strings.Contains(out, "notify") {
		t.Errorf("GenerateCUE() with no hook emitted a notify block:\n%s", out)
	}
	if !strings.Contains(out, `poll_interval: "1s"`) {
		t.Errorf("GenerateCUE() missing poll interval:\n%s", out)
	}
}

func TestSetAndValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key     string
		value   string
		want    string
		wantErr bool
	}{
		{key: "output_path", value: "Gen/L.cs", want: "Gen/L.cs"},
		{key: "namespace_name", value: "A.B", want: "A.B"},
		{key: "enum_name", value: "L", want: "L"},
		{key: "source.kind", value: "table", want: "table"},
		{key: "source.path", value: "l.toml", want: "l.toml"},
		{key: "monitor.poll_interval", value: "90s", want: "1m30s"},
		{key: "monitor.poll_interval", value: "soon", wantErr: true},
		{key: "monitor.fs_events", value: "false", want: "false"},
		{key: "monitor.fs_events", value: "maybe", wantErr: true},
		{key: "notify.hook", value: "true", want: "true"},
		{key: "log.level", value: "error", want: "error"},
		{key: "colour", value: "blue", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			err := Set(cfg, tt.key, tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Set() succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Set() error: %v", err)
			}
			got, err := Value(cfg, tt.key)
			if err != nil {
				t.Fatalf("Value() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Value() = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := Value(DefaultConfig(), "colour"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Value(unknown) error = %v, want ErrUnknownKey", err)
	}
}

func TestConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG lookup is Linux-specific")
	}

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error: %v", err)
	}
	if want := filepath.Join(xdg, AppName); dir != want {
		t.Errorf("ConfigDir() = %q, want %q", dir, want)
	}

	SetConfigDirOverride("/override")
	t.Cleanup(Reset)
	if dir, _ := ConfigDir(); dir != "/override" {
		t.Errorf("ConfigDir() with override = %q", dir)
	}
}
