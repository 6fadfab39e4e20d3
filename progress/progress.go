// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package progress implements chunk-advance accounting (spec §2, promoted
// to a full component by SPEC_FULL §4.14): a Sink records bytes
// transferred and reports a smoothed throughput estimate.
package progress

import "time"

// Sink is the narrow capability the transfer engines report progress
// through (spec §6.4). Advance is called once per confirmed chunk, with
// the chunk's byte count and the time it completed at.
type Sink interface {
	Advance(bytes int, at time.Time)
}

// EMA implements Sink with an exponential-moving-average rate estimate:
// rate = α·instant + (1-α)·rate_prev, default α = 0.2.
type EMA struct {
	alpha       float64
	transferred int64
	rate        float64
	last        time.Time
	haveLast    bool
}

const defaultAlpha = 0.2

// NewEMA returns an EMA sink with the default smoothing factor.
func NewEMA() *EMA {
	return &EMA{alpha: defaultAlpha}
}

func (e *EMA) Advance(bytes int, at time.Time) {
	e.transferred += int64(bytes)
	if !e.haveLast {
		e.last = at
		e.haveLast = true
		return
	}
	elapsed := at.Sub(e.last).Seconds()
	e.last = at
	if elapsed <= 0 {
		return
	}
	instant := float64(bytes) / elapsed
	e.rate = e.alpha*instant + (1-e.alpha)*e.rate
}

// TransferredBytes returns the cumulative byte count passed to Advance.
func (e *EMA) TransferredBytes() int64 { return e.transferred }

// RateBytesPerSec returns the current smoothed throughput estimate.
func (e *EMA) RateBytesPerSec() float64 { return e.rate }

// NopSink discards all progress notifications.
type NopSink struct{}

func (NopSink) Advance(int, time.Time) {}
