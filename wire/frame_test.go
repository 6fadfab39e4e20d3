// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wire_test

import (
	"bytes"
	"testing"

	"code.hybscloud.com/serialfile/wire"
)

func TestChecksumEmpty(t *testing.T) {
	if got := wire.Checksum(nil); got != 0 {
		t.Fatalf("checksum(empty) = %d, want 0", got)
	}
}

func TestChecksumWraps(t *testing.T) {
	payload := bytes.Repeat([]byte{0xFF}, 1000)
	got := wire.Checksum(payload)
	want := uint16((1000 * 0xFF) & 0xFFFF)
	if got != want {
		t.Fatalf("checksum = %d, want %d", got, want)
	}
}

// TestFrameRoundTrip is testable property 1 from spec §8: for all (cmd,
// payload), Unpack(Pack(cmd, payload)) reproduces cmd, payload, and the
// checksum of payload.
func TestFrameRoundTrip(t *testing.T) {
	cases := [][]byte{
		nil,
		{},
		{0x00},
		bytes.Repeat([]byte{0xAB}, 253),
		bytes.Repeat([]byte{0x7E}, 1<<16-1),
		bytes.Repeat([]byte{0x01, 0x02, 0x03}, 21845), // 65535 bytes, the largest the 16-bit length carries
	}
	for _, payload := range cases {
		packed := wire.Pack(wire.SendData, payload)
		f, err := wire.Unpack(packed)
		if err != nil {
			t.Fatalf("Unpack failed for payload len %d: %v", len(payload), err)
		}
		if f.Cmd != wire.SendData {
			t.Fatalf("cmd = %v, want SEND_DATA", f.Cmd)
		}
		if !bytes.Equal(f.Payload, payload) {
			t.Fatalf("payload round-trip mismatch, len got=%d want=%d", len(f.Payload), len(payload))
		}
		if f.Csum != wire.Checksum(payload) {
			t.Fatalf("checksum mismatch: got %d want %d", f.Csum, wire.Checksum(payload))
		}
	}
}

// TestChecksumSensitivity is testable property 2: flipping any single byte
// in the payload or checksum region makes Unpack fail.
func TestChecksumSensitivity(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog")
	packed := wire.Pack(wire.Ack, payload)
	for i := 3; i < len(packed); i++ { // skip cmd/len header; flip payload+checksum bytes
		corrupt := append([]byte(nil), packed...)
		corrupt[i] ^= 0xFF
		if _, err := wire.Unpack(corrupt); err == nil {
			t.Fatalf("Unpack accepted a frame with byte %d flipped", i)
		}
	}
}

func TestUnpackFrameTooShort(t *testing.T) {
	if _, err := wire.Unpack([]byte{0x61, 0x00, 0x00}); err != wire.ErrFrameTooShort {
		t.Fatalf("err = %v, want ErrFrameTooShort", err)
	}
}

func TestUnpackLengthMismatch(t *testing.T) {
	packed := wire.Pack(wire.Ack, []byte{1, 2, 3, 4})
	// Truncate one payload byte without adjusting the declared length.
	corrupt := append(packed[:len(packed)-3], packed[len(packed)-2:]...)
	if _, err := wire.Unpack(corrupt); err != wire.ErrLengthMismatch {
		t.Fatalf("err = %v, want ErrLengthMismatch", err)
	}
}

func TestUnpackDoesNotConsumeOnFailure(t *testing.T) {
	// Unpack is a pure function over a slice; a failure must not mutate
	// the caller's input.
	packed := wire.Pack(wire.Ack, []byte{9, 9})
	packed[3] ^= 0xFF // corrupt a payload byte
	before := append([]byte(nil), packed...)
	_, _ = wire.Unpack(packed)
	if !bytes.Equal(packed, before) {
		t.Fatalf("Unpack mutated its input on failure")
	}
}
