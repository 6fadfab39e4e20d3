// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/binary"
	"io"
)

// Decoder maintains a receive buffer and re-synchronizes on framing
// errors by dropping one leading byte at a time. This discipline is
// essential because a caller may choose read sizes larger than the
// current frame: a short read leaves a prefix of the next frame sitting
// in the buffer, and a corrupted byte anywhere must not wedge the stream.
type Decoder struct {
	r   io.Reader
	buf []byte

	maxPayload int
	scratch    []byte
}

// NewDecoder returns a Decoder reading framed messages from r.
func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	return &Decoder{
		r:          r,
		buf:        make([]byte, 0, o.BufferCap),
		maxPayload: o.MaxPayload,
		scratch:    make([]byte, o.BufferCap),
	}
}

// Next reads and returns the next well-formed frame, re-synchronizing past
// any garbage bytes that precede it. It returns the underlying reader's
// error (typically io.EOF) only when no further bytes are available and no
// frame is pending in the buffer, and io.ErrNoProgress when the reader
// returns no bytes and no error (a serial read timeout); the buffered
// bytes are kept for the next call.
func (d *Decoder) Next() (Frame, error) {
	for {
		// (a) wait for at least a header.
		if len(d.buf) < headerLen {
			if err := d.fill(headerLen); err != nil {
				return Frame{}, err
			}
			continue
		}

		declared := int(binary.LittleEndian.Uint16(d.buf[1:3]))
		if declared < 0 {
			d.dropOne()
			continue
		}
		if d.maxPayload > 0 && declared > d.maxPayload {
			// A declared length this large can't be a real frame at this
			// offset; drop one byte and keep scanning for a valid header.
			d.dropOne()
			continue
		}

		total := headerLen + declared
		if len(d.buf) < total {
			if err := d.fill(total); err != nil {
				if err == io.EOF {
					// No further bytes can complete a frame of this declared
					// length, so this header is noise: re-sync past it.
					d.dropOne()
					continue
				}
				return Frame{}, err
			}
			continue
		}

		f, err := Unpack(d.buf[:total])
		if err != nil {
			d.dropOne()
			continue
		}
		d.buf = d.buf[total:]
		return f, nil
	}
}

func (d *Decoder) dropOne() {
	d.buf = d.buf[1:]
}

// fill reads from the underlying reader until the buffer holds at least
// need bytes or an error occurs.
func (d *Decoder) fill(need int) error {
	for len(d.buf) < need {
		n, err := d.r.Read(d.scratch)
		// Guard against Readers that violate the io.Reader contract by
		// returning (0, nil) on a non-empty buffer; without this a stalled
		// transport can spin the re-sync loop indefinitely.
		if n == 0 && err == nil {
			return io.ErrNoProgress
		}
		if n > 0 {
			d.buf = append(d.buf, d.scratch[:n]...)
		}
		if err != nil {
			if len(d.buf) >= need {
				return nil
			}
			return err
		}
	}
	return nil
}
