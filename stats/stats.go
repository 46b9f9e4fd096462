// Package stats accumulates per-method call counts and elapsed time.
package stats

import (
	"sync/atomic"
	"time"
)

// A Clock tells the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Stats is the counter block embedded in every interception record. All
// fields are updated atomically so that concurrent calls never lose updates.
type Stats struct {
	entered   atomic.Int64
	elapsed   atomic.Int64
	callCount atomic.Uint64
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	Entered   time.Time
	Elapsed   time.Duration
	CallCount uint64
}

// Average returns the mean elapsed time per call.
func (s Snapshot) Average() time.Duration {
	if s.CallCount == 0 {
		return 0
	}

	return s.Elapsed / time.Duration(s.CallCount)
}

// Snapshot copies the counters. Individual fields are read atomically; the
// copy as a whole is not taken under a lock.
func (s *Stats) Snapshot() Snapshot {
	snap := Snapshot{
		Elapsed:   time.Duration(s.elapsed.Load()),
		CallCount: s.callCount.Load(),
	}

	if entered := s.entered.Load(); entered != 0 {
		snap.Entered = time.Unix(0, entered)
	}

	return snap
}

// Tracker stamps entry and exit of calls.
type Tracker struct {
	clock Clock
}

// NewTracker creates a Tracker reading the given clock. A nil clock means
// the system clock.
func NewTracker(clock Clock) *Tracker {
	if clock == nil {
		clock = SystemClock{}
	}

	return &Tracker{clock: clock}
}

// OnEnter records the entry timestamp and counts the call. The returned time
// must be passed to OnExit of the same call.
func (t *Tracker) OnEnter(s *Stats) time.Time {
	now := t.clock.Now()

	s.entered.Store(now.UnixNano())
	s.callCount.Add(1)

	return now
}

// OnExit adds the time since entered to the cumulative elapsed time and
// returns it. A clock that went backwards counts as zero.
func (t *Tracker) OnExit(s *Stats, entered time.Time) time.Duration {
	elapsed := t.clock.Now().Sub(entered)
	if elapsed < 0 {
		elapsed = 0
	}

	s.elapsed.Add(int64(elapsed))

	return elapsed
}
