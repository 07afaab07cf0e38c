// SPDX-License-Identifier: MPL-2.0

package moon

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// BinaryName is the bare name of the MoonBit CLI.
const BinaryName = "moon"

var (
	// ErrToolUnavailable is the sentinel error wrapped by ToolUnavailableError.
	ErrToolUnavailable = errors.New("moon CLI unavailable")
	// ErrToolFailed is the sentinel error wrapped by ToolFailedError.
	ErrToolFailed = errors.New("moon command failed")
)

type (
	// Runner runs a moon sub-command in a working directory and returns its stdout.
	Runner interface {
		Run(ctx context.Context, dir string, args ...string) (string, error)
	}

	// Tool is the process-wide handle on the moon binary. The binary path is
	// resolved lazily on first use and memoized.
	Tool struct {
		explicit string
		probe    func(ctx context.Context, bin string) error

		once sync.Once
		bin  string
	}

	// Option configures a Tool.
	Option func(*Tool)

	// ToolUnavailableError is returned by CheckAvailable when `moon version`
	// cannot be run successfully.
	ToolUnavailableError struct {
		Binary string
		Cause  error
	}

	// ToolFailedError is returned when a moon sub-command exits non-zero.
	// ExitCode is -1 when the process was terminated by a signal.
	ToolFailedError struct {
		Args     []string
		ExitCode int
		Stderr   string
	}
)

// Error implements the error interface.
func (e *ToolUnavailableError) Error() string {
	return "'moon' CLI not found. Checked PATH and ~/.moon/bin/moon. Please install MoonBit first."
}

// Unwrap returns ErrToolUnavailable and the probe failure.
func (e *ToolUnavailableError) Unwrap() []error { return []error{ErrToolUnavailable, e.Cause} }

// Error implements the error interface.
func (e *ToolFailedError) Error() string {
	return fmt.Sprintf("exit code %d: %s", e.ExitCode, strings.TrimSpace(e.Stderr))
}

// Unwrap returns ErrToolFailed so callers can use errors.Is for programmatic detection.
func (e *ToolFailedError) Unwrap() error { return ErrToolFailed }

// WithBinary pins the binary path and skips PATH/HOME resolution.
func WithBinary(path string) Option {
	return func(t *Tool) {
		t.explicit = path
	}
}

// NewTool creates a Tool.
func NewTool(opts ...Option) *Tool {
	t := &Tool{probe: probeVersion}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Binary returns the resolved binary, resolving it on first call.
func (t *Tool) Binary(ctx context.Context) string {
	t.once.Do(func() {
		t.bin = t.resolve(ctx)
	})
	return t.bin
}

func (t *Tool) resolve(ctx context.Context) string {
	if t.explicit != "" {
		return t.explicit
	}
	if t.probe(ctx, BinaryName) == nil {
		return BinaryName
	}
	if home := os.Getenv("HOME"); home != "" {
		candidate := HomeBinary(home)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return BinaryName
}

// HomeBinary returns the conventional MoonBit install location under home.
func HomeBinary(home string) string {
	return filepath.Join(home, ".moon", "bin", BinaryName)
}

// CheckAvailable runs `moon version` with the resolved binary.
func (t *Tool) CheckAvailable(ctx context.Context) error {
	bin := t.Binary(ctx)
	if err := t.probe(ctx, bin); err != nil {
		return &ToolUnavailableError{Binary: bin, Cause: err}
	}
	return nil
}

// Run executes the resolved binary with args in dir, capturing both streams.
// Stdout is returned on a zero exit; a non-zero exit yields *ToolFailedError.
// No timeout is imposed beyond ctx.
func (t *Tool) Run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, t.Binary(ctx), args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &ToolFailedError{
				Args:     args,
				ExitCode: exitErr.ExitCode(),
				Stderr:   lossy(stderr.Bytes()),
			}
		}
		return "", fmt.Errorf("failed to execute %s: %w", FormatCommand(args...), err)
	}

	return lossy(stdout.Bytes()), nil
}

func probeVersion(ctx context.Context, bin string) error {
	return exec.CommandContext(ctx, bin, "version").Run()
}

func lossy(b []byte) string {
	return strings.ToValidUTF8(string(b), "\uFFFD")
}
