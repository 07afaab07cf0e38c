// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"

	"moon-dst-cli/internal/justfile"
)

func TestConfigIsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"defaults", func(*Config) {}, true},
		{"negative jobs", func(c *Config) { c.Jobs = -1 }, false},
		{"zero repeat", func(c *Config) { c.Apply.Repeat = 0 }, false},
		{"bad mode", func(c *Config) { c.Justfile.Mode = "nope" }, false},
		{"merge mode", func(c *Config) { c.Justfile.Mode = justfile.ModeMerge }, true},
		{"blank moon_bin", func(c *Config) { c.MoonBin = "  " }, false},
		{"empty ignore entry", func(c *Config) { c.Ignore = []string{"ok", ""} }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(cfg)
			valid, errs := cfg.IsValid()
			if valid != tt.valid {
				t.Fatalf("IsValid() = %v (%v), want %v", valid, errs, tt.valid)
			}
			if !valid && !errors.Is(errs[0], ErrInvalidConfig) {
				t.Errorf("error %v does not wrap ErrInvalidConfig", errs[0])
			}
		})
	}
}
