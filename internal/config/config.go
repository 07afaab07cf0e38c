// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"

	"moon-dst-cli/internal/issue"
	"moon-dst-cli/internal/justfile"
)

const (
	// AppName is the application name.
	AppName = "moon-dst"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// LocalConfigFileName is the working-directory fallback config file.
	LocalConfigFileName = AppName + "." + ConfigFileExt
	// EnvPrefix prefixes environment overrides (MOONDST_JOBS, MOONDST_APPLY_REPEAT, ...).
	EnvPrefix = "MOONDST"

	// maxConfigFileSize bounds the config file read before CUE parsing.
	maxConfigFileSize = 1 << 20
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the moon-dst configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
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

// loadWithOptions performs option-driven config loading without mutating
// package-level state. It returns the config and the file it was read from
// ("" when only defaults and environment applied).
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath, err := resolveConfigFile(opts)
	if err != nil {
		return nil, "", err
	}
	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Use 'moon-dst config show' to see the effective configuration").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if mode, err := justfile.ParseMode(string(cfg.Justfile.Mode)); err == nil {
		cfg.Justfile.Mode = mode
	}

	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Check " + EnvPrefix + "_* environment variables for invalid values").
			WithSuggestion("Run 'moon-dst config show' to see the default configuration").
			Wrap(errs[0]).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it during Unmarshal.
func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()
	v.SetDefault("jobs", defaults.Jobs)
	v.SetDefault("ignore", defaults.Ignore)
	v.SetDefault("no_default_ignore", defaults.NoDefaultIgnore)
	v.SetDefault("respect_gitignore", defaults.RespectGitignore)
	v.SetDefault("verbose", defaults.Verbose)
	v.SetDefault("moon_bin", defaults.MoonBin)
	v.SetDefault("apply.repeat", defaults.Apply.Repeat)
	v.SetDefault("apply.skip_update", defaults.Apply.SkipUpdate)
	v.SetDefault("apply.fail_fast", defaults.Apply.FailFast)
	v.SetDefault("apply.no_justfile", defaults.Apply.NoJustfile)
	v.SetDefault("justfile.mode", string(defaults.Justfile.Mode))
}

// resolveConfigFile picks the config file to load. An explicit path must
// exist; otherwise the config directory and then the working directory are
// tried, and "" means no file.
func resolveConfigFile(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", err
	}
	if cuePath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt); fileExists(cuePath) {
		return cuePath, nil
	}
	if fileExists(LocalConfigFileName) {
		return LocalConfigFileName, nil
	}
	return "", nil
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}
	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper. Concrete(false) is used because every
// config field is optional.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := checkFileSize(data, maxConfigFileSize, path); err != nil {
		return err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	// MergeConfigMap keeps defaults and env overrides in effect.
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// GenerateCUE generates a CUE representation of the configuration.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// moon-dst configuration\n\n")

	fmt.Fprintf(&sb, "jobs: %d\n", cfg.Jobs)
	if len(cfg.Ignore) == 0 {
		sb.WriteString("ignore: []\n")
	} else {
		sb.WriteString("ignore: [\n")
		for _, name := range cfg.Ignore {
			fmt.Fprintf(&sb, "\t%q,\n", name)
		}
		sb.WriteString("]\n")
	}
	fmt.Fprintf(&sb, "no_default_ignore: %v\n", cfg.NoDefaultIgnore)
	fmt.Fprintf(&sb, "respect_gitignore: %v\n", cfg.RespectGitignore)
	fmt.Fprintf(&sb, "verbose: %v\n", cfg.Verbose)
	if cfg.MoonBin != "" {
		fmt.Fprintf(&sb, "moon_bin: %q\n", cfg.MoonBin)
	}

	sb.WriteString("\napply: {\n")
	fmt.Fprintf(&sb, "\trepeat: %d\n", cfg.Apply.Repeat)
	fmt.Fprintf(&sb, "\tskip_update: %v\n", cfg.Apply.SkipUpdate)
	fmt.Fprintf(&sb, "\tfail_fast: %v\n", cfg.Apply.FailFast)
	fmt.Fprintf(&sb, "\tno_justfile: %v\n", cfg.Apply.NoJustfile)
	sb.WriteString("}\n")

	sb.WriteString("\njustfile: {\n")
	fmt.Fprintf(&sb, "\tmode: %q\n", cfg.Justfile.Mode.String())
	sb.WriteString("}\n")

	return sb.String()
}
