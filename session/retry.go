package session

import (
	"math/rand"
	"time"
)

// DefaultRetries is the retry budget a session starts with.
const DefaultRetries = 3

// FiniteRetry is an immutable retry state machine bounding the attempts of
// one logical request. Each Sleep consumes one attempt and returns the
// successor state; the value itself is never mutated, which keeps the
// retry arithmetic testable without any I/O.
type FiniteRetry struct {
	remaining int
}

// NewFiniteRetry creates a strategy allowing retries attempts in total.
func NewFiniteRetry(retries int) FiniteRetry {
	if retries < 0 {
		retries = 0
	}
	return FiniteRetry{remaining: retries}
}

// Remaining returns the attempts left before exhaustion.
func (s FiniteRetry) Remaining() int {
	return s.remaining
}

// Sleep waits the strategy-computed duration for the current state, then
// consumes one attempt. It returns the successor state and whether a
// failed attempt may still be retried afterwards. The jitter source and
// the sleep function are injected so the machine stays deterministic
// under test.
func (s FiniteRetry) Sleep(rng *rand.Rand, sleep func(time.Duration)) (FiniteRetry, bool) {
	if d, ok := s.sleepDuration(rng); ok {
		sleep(d)
	}
	next := FiniteRetry{remaining: s.remaining - 1}
	if next.remaining < 0 {
		next.remaining = 0
	}
	return next, next.remaining > 0
}

// sleepDuration computes the wait before the next attempt from the current
// state. The first attempts run without delay; the last ones back off with
// uniform jitter so synchronized clients do not hammer a struggling API in
// lockstep.
func (s FiniteRetry) sleepDuration(rng *rand.Rand) (time.Duration, bool) {
	if s.remaining >= 3 || s.remaining <= 0 {
		return 0, false
	}
	base := 0.0
	if s.remaining == 2 {
		base = 2.0
	}
	seconds := base + 2*rng.Float64()
	return time.Duration(seconds * float64(time.Second)), true
}
