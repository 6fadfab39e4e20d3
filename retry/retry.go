// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package retry implements the exponential-backoff-with-jitter helper of
// spec §4.5: backoff(base, attempt, jitter) = base·2^attempt +
// U(0, jitter·base·2^attempt), and a bounded-attempt call helper built on
// top of it.
//
// The jittered curve is expressed as a github.com/cenkalti/backoff/v4
// BackOff implementation so callers that already speak that interface
// (e.g. wrapping it with backoff.WithMaxRetries) can use it directly,
// while Call below gives the generic, typed-result retry loop spec.md
// describes.
package retry

import (
	"context"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"

	"code.hybscloud.com/serialfile/support"
)

// Policy implements backoff.BackOff with the jittered exponential curve
// of spec §4.5.
type Policy struct {
	base    time.Duration
	jitter  float64
	rng     support.RNG
	attempt int
}

var _ backoff.BackOff = (*Policy)(nil)

// NewPolicy returns a Policy with the given base delay and jitter
// fraction (spec's default jitter is 0.10).
func NewPolicy(base time.Duration, jitter float64, rng support.RNG) *Policy {
	return &Policy{base: base, jitter: jitter, rng: rng}
}

// NextBackOff returns base·2^attempt + U(0, jitter·base·2^attempt) and
// advances the internal attempt counter. It never returns backoff.Stop:
// spec.md's retry helper is bounded by attempt count, not by the backoff
// policy itself.
func (p *Policy) NextBackOff() time.Duration {
	scaled := float64(p.base) * math.Pow(2, float64(p.attempt))
	p.attempt++
	jittered := p.rng.Float64() * p.jitter * scaled
	return time.Duration(scaled + jittered)
}

// Reset zeroes the attempt counter, as required by the backoff.BackOff
// interface.
func (p *Policy) Reset() {
	p.attempt = 0
}

// Backoff computes a single jittered delay without mutating any state,
// for callers that just want the formula (Call below, the receiver
// engine's per-chunk retry loop, and tests asserting the formula
// directly).
func Backoff(base time.Duration, attempt int, jitter float64, rng support.RNG) time.Duration {
	scaled := float64(base) * math.Pow(2, float64(attempt))
	jittered := rng.Float64() * jitter * scaled
	return time.Duration(scaled + jittered)
}

// Func is a retryable operation. It reports success via ok; a non-nil err
// aborts the retry loop immediately ("raises", in spec.md's terms)
// instead of being treated as a retryable failure.
type Func[T any] func(attempt int) (result T, ok bool, err error)

// Call invokes f up to maxAttempts+1 times, sleeping by Backoff between
// attempts, and returns the first successful result. It never retries
// after the final attempt.
func Call[T any](ctx context.Context, clock support.Clock, rng support.RNG, base time.Duration, maxAttempts int, f Func[T]) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		result, ok, err := f(attempt)
		if err != nil {
			return zero, err
		}
		if ok {
			return result, nil
		}
		if attempt >= maxAttempts {
			return zero, context.DeadlineExceeded
		}
		if err := clock.Sleep(ctx, Backoff(base, attempt, 0.10, rng)); err != nil {
			return zero, err
		}
	}
}
