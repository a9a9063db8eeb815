package tasks

import (
	"context"
	"sync"
)

// RunState is the lifecycle state of a sync run.
type RunState int

const (
	StateIdle RunState = iota
	StateRunning
	StateSucceeded
	StateFailed
)

func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return ""
}

// RunStatus is the externally observable value of a run: its state, a
// completion fraction that only ever moves forward, and the terminal error
// when the run failed.
type RunStatus struct {
	State    RunState
	Fraction float64
	Err      error
}

// Tracker is a single-writer, multi-reader observable of run status. The
// engine advances it; any number of watchers subscribe. Watchers may miss
// intermediate values, but the terminal value is always delivered: the
// fraction reaches 1.0 on every exit path.
type Tracker struct {
	mu     sync.Mutex
	status RunStatus
	subs   []chan RunStatus
}

// NewTracker creates a tracker in the idle state.
func NewTracker() *Tracker {
	return &Tracker{status: RunStatus{State: StateIdle}}
}

// Status returns the current run status.
func (t *Tracker) Status() RunStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Watch subscribes to status changes until ctx is done. The returned channel
// carries the current status immediately, then every change the reader keeps
// up with; a pending value is replaced by a newer one rather than queued.
func (t *Tracker) Watch(ctx context.Context) <-chan RunStatus {
	ch := make(chan RunStatus, 1)

	t.mu.Lock()
	ch <- t.status
	t.subs = append(t.subs, ch)
	t.mu.Unlock()

	go func() {
		<-ctx.Done()
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, sub := range t.subs {
			if sub == ch {
				t.subs = append(t.subs[:i], t.subs[i+1:]...)
				break
			}
		}
	}()

	return ch
}

// begin moves the tracker to Running with a reset fraction.
func (t *Tracker) begin() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = RunStatus{State: StateRunning}
	t.notify()
}

// advance raises the fraction. A value at or below the current fraction is
// ignored so progress never moves backwards.
func (t *Tracker) advance(fraction float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status.State != StateRunning {
		return
	}
	if fraction > 1 {
		fraction = 1
	}
	if fraction <= t.status.Fraction {
		return
	}
	t.status.Fraction = fraction
	t.notify()
}

// finish moves the tracker to its terminal state with the fraction pinned
// at 1.0, succeeded when err is nil and failed otherwise.
func (t *Tracker) finish(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	state := StateSucceeded
	if err != nil {
		state = StateFailed
	}
	t.status = RunStatus{State: state, Fraction: 1, Err: err}
	t.notify()
}

// notify delivers the current status to every subscriber, replacing a
// pending value the reader has not consumed yet. Callers hold t.mu.
func (t *Tracker) notify() {
	for _, sub := range t.subs {
		select {
		case sub <- t.status:
		default:
			select {
			case <-sub:
			default:
			}
			sub <- t.status
		}
	}
}
