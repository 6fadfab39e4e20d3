// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transfer

import "encoding/binary"

// sizeProbePayload is the fixed 2-byte magic carried by REQUEST_FILE_SIZE
// (spec §4.8 step 1, §4.9 step 1).
var sizeProbePayload = []byte{0x55, 0xAA}

func isSizeProbe(payload []byte) bool {
	return len(payload) == 2 && payload[0] == 0x55 && payload[1] == 0xAA
}

func packFileSize(size uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, size)
	return b
}

func unpackFileSize(b []byte) (uint32, bool) {
	if len(b) != 4 {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}

// requestData is the REQUEST_DATA payload: {addr u32, len u16}.
type requestData struct {
	Addr uint32
	Len  uint16
}

func (r requestData) marshal() []byte {
	b := make([]byte, 6)
	binary.LittleEndian.PutUint32(b[0:4], r.Addr)
	binary.LittleEndian.PutUint16(b[4:6], r.Len)
	return b
}

func unmarshalRequestData(b []byte) (requestData, bool) {
	if len(b) != 6 {
		return requestData{}, false
	}
	return requestData{
		Addr: binary.LittleEndian.Uint32(b[0:4]),
		Len:  binary.LittleEndian.Uint16(b[4:6]),
	}, true
}

// packSendData builds the SEND_DATA payload: {seq u16} ∥ data.
func packSendData(seq uint16, data []byte) []byte {
	b := make([]byte, 2+len(data))
	binary.LittleEndian.PutUint16(b[0:2], seq)
	copy(b[2:], data)
	return b
}

func unpackSendData(b []byte) (seq uint16, payload []byte, ok bool) {
	if len(b) < 2 {
		return 0, nil, false
	}
	return binary.LittleEndian.Uint16(b[0:2]), b[2:], true
}

// packAdvisoryNack builds the sender's NACK to an oversized REQUEST_DATA:
// {current_seq u16, effective_chunk_size u16} (spec §4.8, §4.10).
func packAdvisoryNack(seq, chunkSize uint16) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint16(b[0:2], seq)
	binary.LittleEndian.PutUint16(b[2:4], chunkSize)
	return b
}

func unpackAdvisoryNack(b []byte) (seq, chunkSize uint16, ok bool) {
	if len(b) != 4 {
		return 0, 0, false
	}
	return binary.LittleEndian.Uint16(b[0:2]), binary.LittleEndian.Uint16(b[2:4]), true
}

// packSeqOnly builds an ACK or a duplicate-detection NACK: {seq u16}.
func packSeqOnly(seq uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, seq)
	return b
}

func unpackSeqOnly(b []byte) (uint16, bool) {
	if len(b) != 2 {
		return 0, false
	}
	return binary.LittleEndian.Uint16(b), true
}

// packFileName builds REPLY_FILE_NAME: 2-byte length prefix ∥ up to 128
// UTF-8 bytes (spec §4.11). An empty name signals end-of-batch. truncated
// reports whether name exceeded maxBytes and was cut down, so the caller
// can warn about it (spec §4.11: over-long names are truncated with a
// warning, not silently).
func packFileName(name string, maxBytes int) (payload []byte, truncated bool) {
	nb := []byte(name)
	if len(nb) > maxBytes {
		nb = nb[:maxBytes]
		truncated = true
	}
	b := make([]byte, 2+len(nb))
	binary.LittleEndian.PutUint16(b[0:2], uint16(len(nb)))
	copy(b[2:], nb)
	return b, truncated
}

func unpackFileName(b []byte) (string, bool) {
	if len(b) < 2 {
		return "", false
	}
	n := binary.LittleEndian.Uint16(b[0:2])
	if len(b) != 2+int(n) {
		return "", false
	}
	return string(b[2 : 2+n]), true
}
