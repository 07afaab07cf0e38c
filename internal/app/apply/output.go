// SPDX-License-Identifier: MPL-2.0

package apply

import (
	"fmt"
	"io"
	"sync"
)

// lockedWriter serializes writes from concurrent workers so progress lines
// never interleave mid-line.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func newLockedWriter(w io.Writer) *lockedWriter {
	if lw, ok := w.(*lockedWriter); ok {
		return lw
	}
	return &lockedWriter{w: w}
}

// Write implements io.Writer.
func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// Printf writes one formatted line.
func (l *lockedWriter) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(l, format+"\n", args...)
}
