// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wire_test

import (
	"bytes"
	"io"
	"math/rand/v2"
	"testing"

	"code.hybscloud.com/serialfile/wire"
)

// chunkedReader simulates a transport that hands back data in arbitrary
// chunk sizes, including sizes larger than a single frame — the condition
// spec §4.2 calls out as the reason the re-sync discipline is needed.
type chunkedReader struct {
	data  []byte
	off   int
	sizes []int
	si    int
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if r.off >= len(r.data) {
		return 0, io.EOF
	}
	n := len(p)
	if r.si < len(r.sizes) && r.sizes[r.si] < n {
		n = r.sizes[r.si]
	}
	r.si++
	if rem := len(r.data) - r.off; n > rem {
		n = rem
	}
	if n == 0 {
		n = 1
	}
	copy(p, r.data[r.off:r.off+n])
	r.off += n
	return n, nil
}

func TestDecoderNextBasic(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(wire.Pack(wire.Ack, []byte{1, 2}))
	buf.Write(wire.Pack(wire.Nack, []byte{3, 4, 5, 6}))

	dec := wire.NewDecoder(&buf)
	f1, err := dec.Next()
	if err != nil || f1.Cmd != wire.Ack || !bytes.Equal(f1.Payload, []byte{1, 2}) {
		t.Fatalf("first frame = %+v, err=%v", f1, err)
	}
	f2, err := dec.Next()
	if err != nil || f2.Cmd != wire.Nack || !bytes.Equal(f2.Payload, []byte{3, 4, 5, 6}) {
		t.Fatalf("second frame = %+v, err=%v", f2, err)
	}
	if _, err := dec.Next(); err != io.EOF {
		t.Fatalf("err = %v, want io.EOF", err)
	}
}

// TestDecoderResyncLiveness is testable property 3: for any byte stream
// that ends with a valid frame preceded by arbitrary garbage not longer
// than G bytes, the streaming decoder returns that frame after consuming
// at most G + frame_len bytes.
func TestDecoderResyncLiveness(t *testing.T) {
	garbage := bytes.Repeat([]byte{0xDE, 0xAD, 0xBE, 0xEF}, 37) // not frame-shaped
	good := wire.Pack(wire.RequestData, []byte{0x10, 0x20, 0x00, 0x08})

	stream := append(append([]byte(nil), garbage...), good...)
	dec := wire.NewDecoder(bytes.NewReader(stream), wire.WithBufferCap(8))
	f, err := dec.Next()
	if err != nil {
		t.Fatalf("Next() error after garbage prefix: %v", err)
	}
	if f.Cmd != wire.RequestData || !bytes.Equal(f.Payload, []byte{0x10, 0x20, 0x00, 0x08}) {
		t.Fatalf("recovered frame mismatch: %+v", f)
	}
}

func TestDecoderResyncOnSingleByteCorruption(t *testing.T) {
	var buf bytes.Buffer
	good1 := wire.Pack(wire.Ack, []byte{1})
	bad := wire.Pack(wire.Ack, []byte{2})
	bad[3] ^= 0xFF // corrupt payload -> checksum mismatch
	good2 := wire.Pack(wire.Ack, []byte{3})

	buf.Write(good1)
	buf.Write(bad)
	buf.Write(good2)

	dec := wire.NewDecoder(&buf)
	f1, err := dec.Next()
	if err != nil || !bytes.Equal(f1.Payload, []byte{1}) {
		t.Fatalf("frame1: %+v, err=%v", f1, err)
	}
	// The decoder must drop past the corrupted frame's bytes one at a
	// time and recover the next well-formed frame rather than getting
	// stuck or desynchronizing permanently.
	f2, err := dec.Next()
	if err != nil || !bytes.Equal(f2.Payload, []byte{3}) {
		t.Fatalf("frame2 (post-resync): %+v, err=%v", f2, err)
	}
}

func TestDecoderArbitraryChunking(t *testing.T) {
	var want [][]byte
	var stream bytes.Buffer
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 20; i++ {
		n := r.IntN(300)
		payload := make([]byte, n)
		for j := range payload {
			payload[j] = byte(r.IntN(256))
		}
		want = append(want, payload)
		stream.Write(wire.Pack(wire.SendData, payload))
	}
	cr := &chunkedReader{data: stream.Bytes(), sizes: []int{1, 3, 7, 64, 1000, 2}}
	dec := wire.NewDecoder(cr, wire.WithBufferCap(16))
	for i, w := range want {
		f, err := dec.Next()
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if !bytes.Equal(f.Payload, w) {
			t.Fatalf("frame %d payload mismatch", i)
		}
	}
}

func TestDecoderMaxPayload(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(wire.Pack(wire.SendData, bytes.Repeat([]byte{1}, 100)))
	dec := wire.NewDecoder(&buf, wire.WithMaxPayload(10))
	// The decoder treats an over-limit declared length as noise and keeps
	// scanning; since the stream is exhausted it should surface EOF rather
	// than hang.
	if _, err := dec.Next(); err == nil {
		t.Fatalf("expected an error for an over-limit frame, got none")
	}
}
