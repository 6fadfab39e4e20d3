// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package session ties the probe handshake to the transfer engines: it
// holds the chunk-size policy table (spec §3, §4.13) and the
// Orchestrator that drives a full sender or receiver run end to end.
package session

// MinChunkSize and MaxChunkSize bound every negotiated or recommended
// chunk size (spec §3).
const (
	MinChunkSize = 512
	MaxChunkSize = 16384
)

// rateTable maps a baseline baudrate to a recommended chunk size,
// ordered ascending by rate (spec §3).
var rateTable = []struct {
	rate  uint32
	chunk uint32
}{
	{115200, 1024},
	{460800, 1024},
	{921600, 2048},
	{1728000, 8192},
}

// RecommendedChunk returns the recommended chunk size for rate. For a
// rate present in the table, that table entry's chunk is used. For a
// rate outside the table, the engine picks the closest tabulated rate;
// if the actual rate is strictly higher than that tabulated rate, the
// suggestion is doubled (still clamped to [MinChunkSize, MaxChunkSize]).
func RecommendedChunk(rate uint32) uint32 {
	closestIdx := 0
	closestDist := distance(rate, rateTable[0].rate)
	for i, entry := range rateTable {
		d := distance(rate, entry.rate)
		if d < closestDist {
			closestDist = d
			closestIdx = i
		}
	}
	closest := rateTable[closestIdx]
	chunk := closest.chunk
	if rate > closest.rate {
		chunk *= 2
	}
	return clamp(chunk)
}

// Negotiate returns the negotiated chunk size given the sender's
// recommendation and the receiver's maximum, per spec §3: min of the
// two, clamped to [MinChunkSize, MaxChunkSize].
func Negotiate(senderChunk, receiverMax uint32) uint32 {
	n := senderChunk
	if receiverMax < n {
		n = receiverMax
	}
	return clamp(n)
}

func clamp(n uint32) uint32 {
	if n < MinChunkSize {
		return MinChunkSize
	}
	if n > MaxChunkSize {
		return MaxChunkSize
	}
	return n
}

func distance(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}
