// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"moon-dst-cli/internal/issue"
	"moon-dst-cli/internal/justfile"
	"moon-dst-cli/internal/testutil"
)

func load(t *testing.T, opts LoadOptions) (Loaded, error) {
	t.Helper()
	return NewProvider().Load(context.Background(), opts)
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	testutil.MustWriteFile(t, path, []byte(body))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Cleanup(testutil.MustChdir(t, t.TempDir()))

	got, err := load(t, LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Path != "" {
		t.Errorf("Path = %q, want none", got.Path)
	}
	cfg := got.Config
	if cfg.Jobs != 0 || cfg.Apply.Repeat != 1 || cfg.Justfile.Mode != justfile.ModeCreate {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.RespectGitignore || cfg.Verbose || cfg.NoDefaultIgnore || cfg.MoonBin != "" {
		t.Errorf("boolean/string defaults should be zero: %+v", cfg)
	}
}

func TestLoadConfigDirFile(t *testing.T) {
	t.Cleanup(testutil.MustChdir(t, t.TempDir()))

	dir := t.TempDir()
	path := writeConfig(t, dir, `
jobs: 3
ignore: ["fixtures", "third_party"]
respect_gitignore: true
apply: {
	repeat: 2
	fail_fast: true
}
justfile: mode: "skip"
`)

	got, err := load(t, LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Path != path {
		t.Errorf("Path = %q, want %q", got.Path, path)
	}
	cfg := got.Config
	if cfg.Jobs != 3 || cfg.Apply.Repeat != 2 || !cfg.Apply.FailFast || !cfg.RespectGitignore {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if !slices.Equal(cfg.Ignore, []string{"fixtures", "third_party"}) {
		t.Errorf("Ignore = %q", cfg.Ignore)
	}
	if cfg.Justfile.Mode != justfile.ModeSkip {
		t.Errorf("Justfile.Mode = %q", cfg.Justfile.Mode)
	}
	if cfg.Apply.SkipUpdate {
		t.Error("unset keys must keep defaults")
	}
}

func TestLoadLocalFallback(t *testing.T) {
	work := t.TempDir()
	t.Cleanup(testutil.MustChdir(t, work))
	testutil.MustWriteFile(t, filepath.Join(work, LocalConfigFileName), []byte("verbose: true\n"))

	got, err := load(t, LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Path != LocalConfigFileName || !got.Config.Verbose {
		t.Errorf("local config not used: path %q cfg %+v", got.Path, got.Config)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Cleanup(testutil.MustChdir(t, t.TempDir()))
	t.Cleanup(testutil.MustSetenv(t, "MOONDST_JOBS", "7"))
	t.Cleanup(testutil.MustSetenv(t, "MOONDST_APPLY_SKIP_UPDATE", "true"))
	t.Cleanup(testutil.MustSetenv(t, "MOONDST_IGNORE", "a,b"))

	dir := t.TempDir()
	writeConfig(t, dir, "jobs: 2\n")

	got, err := load(t, LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Config.Jobs != 7 {
		t.Errorf("Jobs = %d, want env value 7", got.Config.Jobs)
	}
	if !got.Config.Apply.SkipUpdate {
		t.Error("MOONDST_APPLY_SKIP_UPDATE not applied")
	}
	if !slices.Equal(got.Config.Ignore, []string{"a", "b"}) {
		t.Errorf("Ignore = %q, want [a b]", got.Config.Ignore)
	}
}

func TestLoadInvalidEnvValue(t *testing.T) {
	t.Cleanup(testutil.MustChdir(t, t.TempDir()))
	t.Cleanup(testutil.MustSetenv(t, "MOONDST_APPLY_REPEAT", "0"))

	_, err := load(t, LoadOptions{ConfigDirPath: t.TempDir()})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Load() = %v, want ErrInvalidConfig", err)
	}
	if !strings.Contains(err.Error(), "apply.repeat") {
		t.Errorf("error %q should name the field", err)
	}
}

func TestLoadSchemaViolations(t *testing.T) {
	t.Cleanup(testutil.MustChdir(t, t.TempDir()))

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"negative jobs", "jobs: -1\n", "jobs"},
		{"zero repeat", "apply: repeat: 0\n", "apply.repeat"},
		{"unknown mode", `justfile: mode: "replace"` + "\n", "justfile.mode"},
		{"unknown key", "colour: true\n", "colour"},
		{"syntax error", "jobs: [\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeConfig(t, dir, tt.body)

			_, err := load(t, LoadOptions{ConfigDirPath: dir})
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("Load() = %v, want *issue.ActionableError", err)
			}
			if ae.Resource != path {
				t.Errorf("Resource = %q, want %q", ae.Resource, path)
			}
			if tt.field != "" && !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q should mention %q", err, tt.field)
			}
		})
	}
}

func TestLoadExplicitFile(t *testing.T) {
	t.Cleanup(testutil.MustChdir(t, t.TempDir()))

	dir := t.TempDir()
	writeConfig(t, dir, "jobs: 2\n")
	explicit := filepath.Join(t.TempDir(), "custom.cue")
	testutil.MustWriteFile(t, explicit, []byte("jobs: 5\n"))

	got, err := load(t, LoadOptions{ConfigFilePath: explicit, ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Config.Jobs != 5 || got.Path != explicit {
		t.Errorf("explicit file not used exclusively: %+v from %q", got.Config, got.Path)
	}

	_, err = load(t, LoadOptions{ConfigFilePath: filepath.Join(dir, "missing.cue")})
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("missing explicit file error = %v", err)
	}
}

func TestLoadCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider().Load(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() = %v, want context.Canceled", err)
	}
}

func TestGenerateCUELoadsBack(t *testing.T) {
	t.Cleanup(testutil.MustChdir(t, t.TempDir()))

	cfg := DefaultConfig()
	cfg.Jobs = 4
	cfg.Ignore = []string{"fixtures"}
	cfg.MoonBin = "/opt/moon/bin/moon"
	cfg.Apply.NoJustfile = true
	cfg.Justfile.Mode = justfile.ModeMerge

	dir := t.TempDir()
	writeConfig(t, dir, GenerateCUE(cfg))

	got, err := load(t, LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("generated CUE failed to load: %v\n%s", err, GenerateCUE(cfg))
	}
	if got.Config.Jobs != 4 || got.Config.MoonBin != cfg.MoonBin || !got.Config.Apply.NoJustfile ||
		got.Config.Justfile.Mode != justfile.ModeMerge || !slices.Equal(got.Config.Ignore, cfg.Ignore) {
		t.Errorf("loaded %+v, want %+v", got.Config, cfg)
	}
}

func TestConfigDirOverride(t *testing.T) {
	t.Cleanup(Reset)
	SetConfigDirOverride("/tmp/moon-dst-test")

	dir, err := ConfigDir()
	if err != nil || dir != "/tmp/moon-dst-test" {
		t.Errorf("ConfigDir() = %q, %v", dir, err)
	}
}

func TestConfigDirXDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG lookup applies to Linux")
	}
	t.Cleanup(Reset)
	Reset()
	xdg := t.TempDir()
	t.Cleanup(testutil.MustSetenv(t, "XDG_CONFIG_HOME", xdg))

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error: %v", err)
	}
	if want := filepath.Join(xdg, AppName); dir != want {
		t.Errorf("ConfigDir() = %q, want %q", dir, want)
	}
}

func TestConfigDirFallsBackToHome(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG lookup applies to Linux")
	}
	t.Cleanup(Reset)
	Reset()
	home := t.TempDir()
	t.Cleanup(testutil.MustUnsetenv(t, "XDG_CONFIG_HOME"))
	t.Cleanup(testutil.SetHomeDir(t, home))

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error: %v", err)
	}
	if want := filepath.Join(home, ".config", AppName); dir != want {
		t.Errorf("ConfigDir() = %q, want %q", dir, want)
	}
}
