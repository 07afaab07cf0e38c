// SPDX-License-Identifier: MPL-2.0

package justfile

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// FileName is the name of the task-runner file placed in each repository root.
const FileName = "justfile"

// ErrWriteFailed is the sentinel error wrapped by WriteFailedError.
var ErrWriteFailed = errors.New("justfile write failed")

//go:embed template.just
var template string

type (
	// Installer writes the built-in justfile into repository roots.
	Installer struct {
		// DryRun replaces every write with a log line.
		DryRun bool
		// Verbose prints a line for every decision, including skips.
		Verbose bool
		// Out receives progress lines. Nil discards them.
		Out io.Writer
		// Logger receives diagnostics. Nil uses slog.Default().
		Logger *slog.Logger
	}

	// WriteFailedError reports an I/O failure while creating a justfile.
	WriteFailedError struct {
		Path  string
		Cause error
	}
)

// Error implements the error interface.
func (e *WriteFailedError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Cause)
}

// Unwrap returns ErrWriteFailed and the underlying I/O error.
func (e *WriteFailedError) Unwrap() []error { return []error{ErrWriteFailed, e.Cause} }

// Template returns the embedded justfile body.
func Template() string { return template }

// Install handles the justfile for repoRoot under mode and reports whether a
// file was (or, in dry-run, would be) created.
func (i *Installer) Install(repoRoot string, mode Mode) (bool, error) {
	path := filepath.Join(repoRoot, FileName)

	switch mode {
	case ModeSkip:
		i.verbosef("[%s] Skipping justfile (skip mode)", repoRoot)
		return false, nil
	case ModeMerge:
		i.logger().Warn("justfile merge mode is not implemented, skipping", "repo", repoRoot)
		return false, nil
	case ModeCreate, "":
	default:
		return false, fmt.Errorf("%w: %q", ErrInvalidMode, string(mode))
	}

	if _, err := os.Lstat(path); err == nil {
		i.verbosef("[%s] justfile already exists, skipping", repoRoot)
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, &WriteFailedError{Path: path, Cause: err}
	}

	i.printf("[%s] Creating justfile", repoRoot)
	if i.DryRun {
		return true, nil
	}
	if err := writeAtomic(path, template); err != nil {
		return false, &WriteFailedError{Path: path, Cause: err}
	}
	return true, nil
}

// writeAtomic writes content to a sibling temp file and renames it over path.
func writeAtomic(path, content string) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+FileName+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// printf writes a progress line when running dry or verbose.
func (i *Installer) printf(format string, args ...any) {
	if i.DryRun || i.Verbose {
		i.write(format, args...)
	}
}

func (i *Installer) verbosef(format string, args ...any) {
	if i.Verbose {
		i.write(format, args...)
	}
}

func (i *Installer) write(format string, args ...any) {
	if i.Out == nil {
		return
	}
	fmt.Fprintf(i.Out, format+"\n", args...)
}

func (i *Installer) logger() *slog.Logger {
	if i.Logger != nil {
		return i.Logger
	}
	return slog.Default()
}
