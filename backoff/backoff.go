// Package backoff provides retry delay strategies for failed scheduled
// invocations. Strategies are stateless and safe for concurrent use.
package backoff

import (
	"math/rand/v2"
	"time"
)

// delayCeiling saturates exponential growth so large attempt counts cannot
// overflow a Duration.
const delayCeiling = 24 * time.Hour

// Strategy computes the wait before retry attempt n. Attempts are
// 1-indexed: Delay(1) is the wait after the first failure.
type Strategy interface {
	Delay(attempt int) time.Duration
}

// Constant waits the same interval before every attempt.
type Constant struct {
	Interval time.Duration
}

// NewConstant creates a fixed-interval strategy.
func NewConstant(interval time.Duration) *Constant {
	return &Constant{Interval: interval}
}

func (c *Constant) Delay(int) time.Duration { return c.Interval }

// Linear grows the wait by Initial on every attempt, up to Max.
type Linear struct {
	Initial time.Duration
	Max     time.Duration
}

// NewLinear creates a linearly growing strategy.
func NewLinear(initial, maxDelay time.Duration) *Linear {
	return &Linear{Initial: initial, Max: maxDelay}
}

func (l *Linear) Delay(attempt int) time.Duration {
	return capDelay(l.Initial*time.Duration(attempt), l.Max)
}

// Exponential doubles the wait on every attempt, up to Max.
type Exponential struct {
	Initial time.Duration
	Max     time.Duration
}

// NewExponential creates a doubling strategy.
func NewExponential(initial, maxDelay time.Duration) *Exponential {
	return &Exponential{Initial: initial, Max: maxDelay}
}

func (e *Exponential) Delay(attempt int) time.Duration {
	return capDelay(doubled(e.Initial, attempt), e.Max)
}

// ExponentialWithJitter waits a uniform random duration in [0, d], where d
// is the doubled-and-capped base. The spread keeps simultaneous failures
// from retrying in lockstep.
type ExponentialWithJitter struct {
	Initial time.Duration
	Max     time.Duration
}

// NewExponentialWithJitter creates a full-jitter doubling strategy.
func NewExponentialWithJitter(initial, maxDelay time.Duration) *ExponentialWithJitter {
	return &ExponentialWithJitter{Initial: initial, Max: maxDelay}
}

func (e *ExponentialWithJitter) Delay(attempt int) time.Duration {
	base := capDelay(doubled(e.Initial, attempt), e.Max)
	if base <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(base) + 1)) //nolint:gosec // jitter does not need crypto rand
}

// DefaultStrategy is what the runner retries sweeps with: full jitter over
// a doubling base, 1s initial, capped at 30s so a retry chain finishes
// well inside the sweep cadence.
func DefaultStrategy() Strategy {
	return NewExponentialWithJitter(1*time.Second, 30*time.Second)
}

// doubled returns initial * 2^(attempt-1), saturating at delayCeiling.
func doubled(initial time.Duration, attempt int) time.Duration {
	d := initial
	for i := 1; i < attempt && d < delayCeiling; i++ {
		d *= 2
	}
	return capDelay(d, delayCeiling)
}

func capDelay(d, maxDelay time.Duration) time.Duration {
	if maxDelay > 0 && d > maxDelay {
		return maxDelay
	}
	return d
}
