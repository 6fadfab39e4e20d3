// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package support

import (
	"context"
	"sync"
	"time"
)

// FakeClock is the deterministic double for Clock: Now() is manually
// advanced and Sleep() advances time itself (no wall-clock wait), so
// timeout- and backoff-driven tests run instantly and reproducibly.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock returns a FakeClock starting at the given instant.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
	return nil
}

// Advance moves the clock forward by d without going through Sleep.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// FakeRNG returns a scripted sequence of values, looping once exhausted,
// so tests can pin down exactly which device_id/session_id/jitter value a
// state machine observes.
type FakeRNG struct {
	mu       sync.Mutex
	uint32s  []uint32
	floats   []float64
	ui, fi   int
}

// NewFakeRNG returns a FakeRNG cycling through the given scripted values.
func NewFakeRNG(uint32s []uint32, floats []float64) *FakeRNG {
	if len(uint32s) == 0 {
		uint32s = []uint32{0x12345678}
	}
	if len(floats) == 0 {
		floats = []float64{0}
	}
	return &FakeRNG{uint32s: uint32s, floats: floats}
}

func (g *FakeRNG) Uint32() uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	v := g.uint32s[g.ui%len(g.uint32s)]
	g.ui++
	return v
}

func (g *FakeRNG) Float64() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	v := g.floats[g.fi%len(g.floats)]
	g.fi++
	return v
}
