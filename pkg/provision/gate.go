package provision

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrGateWaited is returned when Wait is called more than once.
var ErrGateWaited = errors.New("gate already waited on")

// Gate is a one-shot completion signal carrying the session outcome.
// The first Signal wins; later signals are counted and ignored.
type Gate struct {
	once    sync.Once
	done    chan struct{}
	outcome Outcome

	signals atomic.Int32
	waited  atomic.Bool
}

// NewGate creates an unsignaled gate.
func NewGate() *Gate {
	return &Gate{done: make(chan struct{})}
}

// Signal releases the gate with o. It reports whether this call was the
// one that released it.
func (g *Gate) Signal(o Outcome) bool {
	g.signals.Add(1)

	fired := false
	g.once.Do(func() {
		g.outcome = o
		close(g.done)
		fired = true
	})
	return fired
}

// Signaled reports whether the gate has been released.
func (g *Gate) Signaled() bool {
	select {
	case <-g.done:
		return true
	default:
		return false
	}
}

// SignalCount returns how many times Signal was called.
func (g *Gate) SignalCount() int {
	return int(g.signals.Load())
}

// Wait blocks until the gate is signaled or ctx is done. Only one caller may
// wait.
func (g *Gate) Wait(ctx context.Context) (Outcome, error) {
	if !g.waited.CompareAndSwap(false, true) {
		return OutcomePending, ErrGateWaited
	}

	select {
	case <-g.done:
		return g.outcome, nil
	case <-ctx.Done():
		// A signal racing the deadline still wins.
		select {
		case <-g.done:
			return g.outcome, nil
		default:
		}
		return OutcomePending, ctx.Err()
	}
}
