// SPDX-License-Identifier: MPL-2.0

package justfile

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ModeSkip never writes a justfile.
	ModeSkip Mode = "skip"
	// ModeCreate writes the template when no justfile exists.
	ModeCreate Mode = "create"
	// ModeMerge is reserved. It behaves like ModeSkip and logs a warning.
	ModeMerge Mode = "merge"
)

// ErrInvalidMode is returned when a mode string is not recognized.
var ErrInvalidMode = errors.New("invalid justfile mode")

// Mode selects how an existing or missing justfile is handled.
// The zero value is treated as ModeCreate.
type Mode string

// Modes returns every accepted mode in help-text order.
func Modes() []Mode {
	return []Mode{ModeSkip, ModeCreate, ModeMerge}
}

// ParseMode parses a case-insensitive mode name. An empty string yields ModeCreate.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if m == "" {
		return ModeCreate, nil
	}
	if !m.IsValid() {
		return "", fmt.Errorf("%w: %q (expected one of %s)", ErrInvalidMode, s, modeList())
	}
	return m, nil
}

// IsValid reports whether m is one of the known modes.
func (m Mode) IsValid() bool {
	switch m {
	case ModeSkip, ModeCreate, ModeMerge:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer and pflag.Value.
func (m Mode) String() string {
	if m == "" {
		return string(ModeCreate)
	}
	return string(m)
}

// Set implements pflag.Value.
func (m *Mode) Set(s string) error {
	parsed, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Type implements pflag.Value.
func (m *Mode) Type() string { return "mode" }

func modeList() string {
	names := make([]string, 0, len(Modes()))
	for _, m := range Modes() {
		names = append(names, string(m))
	}
	return strings.Join(names, ", ")
}
