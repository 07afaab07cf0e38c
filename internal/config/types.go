// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"moon-dst-cli/internal/justfile"
)

// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
var ErrInvalidConfig = errors.New("invalid config")

type (
	// Config holds the application configuration.
	Config struct {
		// Jobs is the worker pool size for apply; 0 selects the automatic default.
		Jobs int `json:"jobs" mapstructure:"jobs"`
		// Ignore lists extra directory names skipped during discovery.
		Ignore []string `json:"ignore" mapstructure:"ignore"`
		// NoDefaultIgnore disables the built-in ignore names.
		NoDefaultIgnore bool `json:"no_default_ignore" mapstructure:"no_default_ignore"`
		// RespectGitignore also prunes entries matched by the root .gitignore.
		RespectGitignore bool `json:"respect_gitignore" mapstructure:"respect_gitignore"`
		// Verbose enables per-command progress output.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
		// MoonBin pins the moon binary path.
		MoonBin string `json:"moon_bin" mapstructure:"moon_bin"`
		// Apply holds defaults for the apply subcommand.
		Apply ApplyConfig `json:"apply" mapstructure:"apply"`
		// Justfile holds defaults for justfile installation.
		Justfile JustfileConfig `json:"justfile" mapstructure:"justfile"`
	}

	// ApplyConfig configures the apply subcommand.
	ApplyConfig struct {
		Repeat     int  `json:"repeat" mapstructure:"repeat"`
		SkipUpdate bool `json:"skip_update" mapstructure:"skip_update"`
		FailFast   bool `json:"fail_fast" mapstructure:"fail_fast"`
		NoJustfile bool `json:"no_justfile" mapstructure:"no_justfile"`
	}

	// JustfileConfig configures justfile installation.
	JustfileConfig struct {
		Mode justfile.Mode `json:"mode" mapstructure:"mode"`
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Jobs:   0,
		Ignore: []string{},
		Apply: ApplyConfig{
			Repeat: 1,
		},
		Justfile: JustfileConfig{
			Mode: justfile.ModeCreate,
		},
	}
}

// IsValid returns whether the Config has valid fields. Environment overrides
// bypass the CUE schema, so the same constraints are checked here.
func (c *Config) IsValid() (bool, []error) {
	var errs []error
	if c.Jobs < 0 {
		errs = append(errs, fmt.Errorf("jobs: must be >= 0, got %d", c.Jobs))
	}
	if c.Apply.Repeat < 1 {
		errs = append(errs, fmt.Errorf("apply.repeat: must be >= 1, got %d", c.Apply.Repeat))
	}
	if !c.Justfile.Mode.IsValid() {
		errs = append(errs, fmt.Errorf("justfile.mode: %w: %q", justfile.ErrInvalidMode, string(c.Justfile.Mode)))
	}
	if c.MoonBin != "" && strings.TrimSpace(c.MoonBin) == "" {
		errs = append(errs, errors.New("moon_bin: must not be whitespace-only"))
	}
	for i, name := range c.Ignore {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, fmt.Errorf("ignore[%d]: must not be empty", i))
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidConfig and the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}
