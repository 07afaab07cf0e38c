// SPDX-License-Identifier: MPL-2.0

package apply

import (
	"runtime"
	"sync"
)

// defaultPool is the process-wide worker pool.
var defaultPool Pool

// Pool holds the worker slot count. It is sized once; later Init calls are
// tolerated and return the size chosen by the first call.
type Pool struct {
	once sync.Once
	size int
}

// DefaultPool returns the process-wide pool.
func DefaultPool() *Pool { return &defaultPool }

// Init sizes the pool from the configured job count on first call and returns
// the effective size.
func (p *Pool) Init(jobs int) int {
	p.once.Do(func() {
		p.size = Jobs(jobs)
	})
	return p.size
}

// Size returns the pool size, initializing it with the automatic default if
// Init was never called.
func (p *Pool) Size() int {
	return p.Init(0)
}

// Jobs resolves a configured job count. Zero or negative selects
// max(1, NumCPU/2).
func Jobs(configured int) int {
	if configured > 0 {
		return configured
	}
	return max(1, runtime.NumCPU()/2)
}
