// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package serialport

import "time"

// frameHeaderBytes mirrors wire.HeaderLen without importing the wire
// package: the adaptive timeout formula only needs the constant, and
// serialport must stay usable independent of the framing layer.
const frameHeaderBytes = 5

const minAdaptiveReadTimeout = 50 * time.Millisecond

// AdaptiveReadTimeout implements the read-timeout policy of spec §4.3:
// when the caller did not specify a non-default timeout, use
// max(50ms, 12·frame_header_bytes/baudrate); otherwise the caller's value
// is honored directly by Open.
func AdaptiveReadTimeout(baudRate uint32) time.Duration {
	if baudRate == 0 {
		return minAdaptiveReadTimeout
	}
	seconds := float64(12*frameHeaderBytes) / float64(baudRate)
	d := time.Duration(seconds * float64(time.Second))
	if d < minAdaptiveReadTimeout {
		return minAdaptiveReadTimeout
	}
	return d
}
