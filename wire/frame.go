// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wire

import "encoding/binary"

// headerLen is the fixed overhead of a frame: 1 command byte, 2 length
// bytes, 2 checksum bytes. A frame is never shorter than this.
const headerLen = 5

// Frame is the universal wire unit: a command, its payload, and the
// checksum that was (or will be) carried on the wire.
type Frame struct {
	Cmd     Command
	Payload []byte
	Csum    uint16
}

// Pack serializes cmd and payload into cmd(1) ∥ len(2, LE) ∥ payload ∥
// checksum(payload)(2, LE). The length field is 16 bits, so a payload may
// be at most 65535 bytes; for a longer payload the length is written
// modulo 2^16 and Unpack rejects the resulting frame.
func Pack(cmd Command, payload []byte) []byte {
	out := make([]byte, headerLen+len(payload))
	out[0] = byte(cmd)
	binary.LittleEndian.PutUint16(out[1:3], uint16(len(payload)))
	copy(out[3:3+len(payload)], payload)
	csum := Checksum(payload)
	binary.LittleEndian.PutUint16(out[3+len(payload):], csum)
	return out
}

// Unpack parses a single frame from a contiguous byte slice. It fails if
// the total length is less than headerLen, if the declared length does not
// equal len(data)-headerLen, or if the trailing checksum does not match the
// recomputed checksum over the payload. On failure it returns a zero Frame
// and does not consume input; the caller is responsible for any re-sync.
func Unpack(data []byte) (Frame, error) {
	if len(data) < headerLen {
		return Frame{}, ErrFrameTooShort
	}
	declared := int(binary.LittleEndian.Uint16(data[1:3]))
	if declared != len(data)-headerLen {
		return Frame{}, ErrLengthMismatch
	}
	payload := data[3 : 3+declared]
	trailer := binary.LittleEndian.Uint16(data[3+declared:])
	csum := Checksum(payload)
	if csum != trailer {
		return Frame{}, ErrChecksumMismatch
	}
	// Defensive copy: data may be a reused decoder buffer.
	out := make([]byte, declared)
	copy(out, payload)
	return Frame{Cmd: Command(data[0]), Payload: out, Csum: csum}, nil
}

// Len returns the number of bytes Pack(f.Cmd, f.Payload) would occupy.
func (f Frame) Len() int {
	return headerLen + len(f.Payload)
}
