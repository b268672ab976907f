// Package cooldown throttles repeated invite attempts from one island to the
// same target player.
//
// Each (island, target) pair gets a token bucket with a single token that
// refills once per cooldown interval. An admitted attempt spends the token;
// a throttled attempt leaves the bucket untouched, so the wait is always
// measured from the last admitted attempt.
package cooldown

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type pairKey struct {
	islandID string
	targetID string
}

type entry struct {
	limiter  *rate.Limiter
	interval time.Duration
	admitted time.Time // last admitted attempt
}

// newEntry builds a bucket for interval, replaying the last admitted attempt
// so a changed interval is still measured from it.
func newEntry(interval time.Duration, admitted time.Time) *entry {
	e := &entry{
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
		admitted: admitted,
	}
	if !admitted.IsZero() {
		e.limiter.AllowN(admitted, 1)
	}
	return e
}

// Tracker records invite attempts per (island, target) pair.
type Tracker struct {
	mu      sync.Mutex
	entries map[pairKey]*entry
	now     func() time.Time

	sweepEvery time.Duration
	done       chan struct{}
	stopOnce   sync.Once
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// WithSweepInterval starts a background reaper that drops records whose
// cooldown has fully elapsed. Zero disables the reaper.
func WithSweepInterval(d time.Duration) Option {
	return func(t *Tracker) {
		t.sweepEvery = d
	}
}

// New creates a Tracker.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		entries: make(map[pairKey]*entry),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.sweepEvery > 0 {
		go t.reap()
	}

	return t
}

// IsThrottled reports whether an attempt from islandID to targetID must wait.
// A non-positive cooldown disables throttling and records nothing.
func (t *Tracker) IsThrottled(islandID, targetID string, cooldown time.Duration) bool {
	throttled, _ := t.Check(islandID, targetID, cooldown)
	return throttled
}

// Check is IsThrottled that also returns how long the caller must wait.
func (t *Tracker) Check(islandID, targetID string, cooldown time.Duration) (bool, time.Duration) {
	if cooldown <= 0 {
		return false, 0
	}

	now := t.now()
	k := pairKey{islandID: islandID, targetID: targetID}

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[k]
	switch {
	case !ok:
		e = newEntry(cooldown, time.Time{})
		t.entries[k] = e
	case e.interval != cooldown:
		// Operators may change the configured cooldown at runtime.
		e = newEntry(cooldown, e.admitted)
		t.entries[k] = e
	}

	if e.limiter.AllowN(now, 1) {
		e.admitted = now
		return false, 0
	}
	return true, remaining(e, now)
}

// Remaining returns the wait left for the pair without recording an attempt.
func (t *Tracker) Remaining(islandID, targetID string) time.Duration {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[pairKey{islandID: islandID, targetID: targetID}]
	if !ok {
		return 0
	}
	return remaining(e, now)
}

// Len returns the number of tracked pairs.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Sweep drops every record whose cooldown has elapsed at now and returns how
// many were removed.
func (t *Tracker) Sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for k, e := range t.entries {
		if e.limiter.TokensAt(now) >= 1 {
			delete(t.entries, k)
			removed++
		}
	}
	return removed
}

// Stop shuts down the reaper goroutine.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() {
		close(t.done)
	})
}

func (t *Tracker) reap() {
	ticker := time.NewTicker(t.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.Sweep(t.now())
		case <-t.done:
			return
		}
	}
}

// remaining converts the token deficit into a wait, rounded up to whole
// seconds so callers never report "0 seconds" while still throttled.
func remaining(e *entry, now time.Time) time.Duration {
	tokens := e.limiter.TokensAt(now)
	if tokens >= 1 {
		return 0
	}
	secs := (1 - tokens) * e.interval.Seconds()
	// Trim float noise from the token arithmetic before rounding up.
	return time.Duration(math.Ceil(secs-1e-6)) * time.Second
}
