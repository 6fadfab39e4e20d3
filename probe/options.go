// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package probe

import "time"

// ProtocolVersion is the single version this module speaks. A receiver
// does not reject a mismatched version; the field exists on the wire
// for a future revision to use.
const ProtocolVersion uint8 = 1

// Options configures the timing of both probe roles, per spec §5's
// timeout table and §4.7's per-transition defaults.
type Options struct {
	ProbePeriod   time.Duration // sender: interval between PROBE_REQUEST retransmissions
	ProbeTotal    time.Duration // sender: overall bound on the discovery phase
	CapabilitySendTimeout    time.Duration // sender: wait for CAPABILITY_ACK
	CapabilityReceiveTimeout time.Duration // receiver: wait for CAPABILITY_NEGO
	SwitchSendTimeout    time.Duration // sender: wait for SWITCH_ACK
	SwitchReceiveTimeout time.Duration // receiver: wait for SWITCH_BAUDRATE
	SwitchDelayMs        uint16
	PollInterval         time.Duration // pacing between frame-decode polls
	ReceiverMaxChunk     uint32

	// NegotiateFunc resolves the sender's proposed chunk size and this
	// receiver's ceiling into the chunk size both sides use (spec §3,
	// testable property 5). Defaults to a local clamped-minimum so this
	// package has no dependency of its own; session.Negotiate implements
	// the same contract and is the one the orchestrator actually wires
	// in, to avoid an import cycle between probe and session.
	NegotiateFunc func(senderChunk, receiverMax uint32) uint32
}

var defaultOptions = Options{
	ProbePeriod:              3 * time.Second,
	ProbeTotal:               180 * time.Second,
	CapabilitySendTimeout:    5 * time.Second,
	CapabilityReceiveTimeout: 10 * time.Second,
	SwitchSendTimeout:        2 * time.Second,
	SwitchReceiveTimeout:     5 * time.Second,
	SwitchDelayMs:            100,
	PollInterval:             20 * time.Millisecond,
	ReceiverMaxChunk:         16384,
	NegotiateFunc:            defaultNegotiate,
}

// defaultNegotiate is Options.NegotiateFunc's zero-value behavior:
// clamp(min(senderChunk, receiverMax)).
func defaultNegotiate(senderChunk, receiverMax uint32) uint32 {
	return clampChunk(min32(senderChunk, receiverMax))
}

type Option func(*Options)

func WithProbeTiming(period, total time.Duration) Option {
	return func(o *Options) { o.ProbePeriod = period; o.ProbeTotal = total }
}

func WithSwitchDelayMs(ms uint16) Option {
	return func(o *Options) { o.SwitchDelayMs = ms }
}

func WithPollInterval(d time.Duration) Option {
	return func(o *Options) { o.PollInterval = d }
}

func WithReceiverMaxChunk(n uint32) Option {
	return func(o *Options) { o.ReceiverMaxChunk = n }
}

// WithNegotiateFunc overrides how a receiver resolves the sender's
// proposed chunk size against its own ceiling (spec §3).
func WithNegotiateFunc(fn func(senderChunk, receiverMax uint32) uint32) Option {
	return func(o *Options) { o.NegotiateFunc = fn }
}
