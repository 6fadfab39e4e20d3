// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wire

// Options configures a Decoder. Constructed the way the teacher's framer
// package configures Reader/Writer: a struct of defaults mutated by a chain
// of Option functions.
type Options struct {
	// BufferCap is the initial capacity of the decoder's receive buffer.
	// Zero selects a conservative default.
	BufferCap int

	// MaxPayload caps the accepted payload length. Zero means no limit
	// beyond what the transport can deliver; implementations must accept
	// payloads of at least 64 KiB (spec §4.2).
	MaxPayload int
}

var defaultOptions = Options{
	BufferCap:  4096,
	MaxPayload: 0,
}

// Option mutates Options. See WithBufferCap and WithMaxPayload.
type Option func(*Options)

// WithBufferCap sets the decoder's initial receive-buffer capacity.
func WithBufferCap(n int) Option {
	return func(o *Options) { o.BufferCap = n }
}

// WithMaxPayload caps the accepted payload length; during the streaming
// scan a header declaring a longer payload is treated as noise and the
// decoder drops one byte and keeps scanning.
func WithMaxPayload(n int) Option {
	return func(o *Options) { o.MaxPayload = n }
}
