// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package session_test

import (
	"testing"

	"code.hybscloud.com/serialfile/session"
)

func TestRecommendedChunkTabulatedRates(t *testing.T) {
	cases := map[uint32]uint32{
		115200:  1024,
		460800:  1024,
		921600:  2048,
		1728000: 8192,
	}
	for rate, want := range cases {
		if got := session.RecommendedChunk(rate); got != want {
			t.Errorf("RecommendedChunk(%d) = %d, want %d", rate, got, want)
		}
	}
}

func TestRecommendedChunkAlwaysClamped(t *testing.T) {
	rates := []uint32{0, 300, 9600, 19200, 115200, 230400, 460800, 921600, 1728000, 2000000, 3000000, 4000000, 6000000}
	for _, rate := range rates {
		got := session.RecommendedChunk(rate)
		if got < session.MinChunkSize || got > session.MaxChunkSize {
			t.Errorf("RecommendedChunk(%d) = %d, out of [%d,%d]", rate, got, session.MinChunkSize, session.MaxChunkSize)
		}
	}
}

func TestRecommendedChunkDoublesAboveClosestTabulatedRate(t *testing.T) {
	// 6000000 is closer to 1728000 than to nothing else in the table,
	// and 6000000 > 1728000, so the suggestion should double (clamped).
	got := session.RecommendedChunk(6000000)
	if got != session.MaxChunkSize {
		t.Fatalf("RecommendedChunk(6000000) = %d, want %d (doubled 8192 clamped)", got, session.MaxChunkSize)
	}
}

func TestNegotiateMonotonicity(t *testing.T) {
	cases := []struct{ sender, receiver uint32 }{
		{1024, 2048},
		{2048, 1024},
		{16384, 16384},
		{100, 100},
		{20000, 20000},
	}
	for _, c := range cases {
		got := session.Negotiate(c.sender, c.receiver)
		min := c.sender
		if c.receiver < min {
			min = c.receiver
		}
		want := min
		if want < session.MinChunkSize {
			want = session.MinChunkSize
		}
		if want > session.MaxChunkSize {
			want = session.MaxChunkSize
		}
		if got != want {
			t.Errorf("Negotiate(%d,%d) = %d, want %d", c.sender, c.receiver, got, want)
		}
		// When min(sender, receiver) is below MinChunkSize the clamp raises
		// the result above both inputs (checked exactly above), so the
		// no-input-exceeded property only applies from MinChunkSize up.
		if min >= session.MinChunkSize && (got > c.sender || got > c.receiver) {
			t.Errorf("Negotiate(%d,%d) = %d, exceeds an input", c.sender, c.receiver, got)
		}
		if got < session.MinChunkSize {
			t.Errorf("Negotiate(%d,%d) = %d, below MinChunkSize", c.sender, c.receiver, got)
		}
	}
}
