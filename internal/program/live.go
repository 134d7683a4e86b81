package program

import (
	"sync"

	"patchc/internal/artifact"
	"patchc/internal/value"
)

// Live holds the program a player is currently running. A failed
// recompilation never replaces it: callers Swap only successful results.
type Live struct {
	mu  sync.Mutex
	cur *Program
	gen uint64
}

// NewLive starts with p, which may be nil.
func NewLive(p *Program) *Live {
	l := &Live{cur: p}
	if p != nil {
		l.gen = 1
	}
	return l
}

// Swap installs p and reports whether it did. A nil p keeps the previous
// program.
func (l *Live) Swap(p *Program) bool {
	if p == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cur = p
	l.gen++
	return true
}

// Current returns the running program and its generation; generation 0 means
// nothing was installed yet.
func (l *Live) Current() (*Program, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cur, l.gen
}

// Signal evaluates a frame of the running program. Without a program it
// returns the unit value.
func (l *Live) Signal(tMs float64, rc *artifact.RuntimeCtx) value.Value {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cur == nil {
		return value.Unit()
	}
	return l.cur.Signal(tMs, rc)
}
