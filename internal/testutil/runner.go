// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"context"
	"slices"
	"strings"
	"sync"
)

type (
	// FakeRunner records moon invocations instead of running a process.
	// It satisfies moon.Runner and is safe for concurrent use.
	FakeRunner struct {
		// Fail, when set, decides the error returned for an invocation.
		Fail func(dir string, args []string) error

		mu    sync.Mutex
		calls []FakeCall
	}

	// FakeCall is one recorded invocation.
	FakeCall struct {
		Dir  string
		Args []string
	}
)

// Run records the call and returns the result of Fail, if any.
func (f *FakeRunner) Run(_ context.Context, dir string, args ...string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, FakeCall{Dir: dir, Args: slices.Clone(args)})
	f.mu.Unlock()

	if f.Fail != nil {
		if err := f.Fail(dir, args); err != nil {
			return "", err
		}
	}
	return "", nil
}

// Calls returns a copy of every recorded invocation in call order.
func (f *FakeRunner) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// CommandsIn returns the space-joined argument lists run in dir, in order.
func (f *FakeRunner) CommandsIn(dir string) []string {
	var out []string
	for _, c := range f.Calls() {
		if c.Dir == dir {
			out = append(out, strings.Join(c.Args, " "))
		}
	}
	return out
}

// Dirs returns the distinct directories that saw at least one invocation.
func (f *FakeRunner) Dirs() []string {
	var out []string
	for _, c := range f.Calls() {
		if !slices.Contains(out, c.Dir) {
			out = append(out, c.Dir)
		}
	}
	return out
}
