// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package probe

import "encoding/binary"

// Request is the PROBE_REQUEST body (9 bytes): device_id, protocol
// version, and a random seed the peer must echo back unmodified.
type Request struct {
	DeviceID        uint32
	ProtocolVersion uint8
	RandomSeed      uint32
}

func (r Request) Marshal() []byte {
	b := make([]byte, 9)
	binary.LittleEndian.PutUint32(b[0:4], r.DeviceID)
	b[4] = r.ProtocolVersion
	binary.LittleEndian.PutUint32(b[5:9], r.RandomSeed)
	return b
}

func UnmarshalRequest(b []byte) (Request, error) {
	if len(b) != 9 {
		return Request{}, ErrMessageTooShort
	}
	return Request{
		DeviceID:        binary.LittleEndian.Uint32(b[0:4]),
		ProtocolVersion: b[4],
		RandomSeed:      binary.LittleEndian.Uint32(b[5:9]),
	}, nil
}

// Response is the PROBE_RESPONSE body: an echo of the request's
// identifying fields plus the responder's supported baudrate list.
type Response struct {
	DeviceID        uint32
	ProtocolVersion uint8
	RandomSeed      uint32
	Baudrates       []uint32
}

func (r Response) Marshal() []byte {
	b := make([]byte, 11+4*len(r.Baudrates))
	binary.LittleEndian.PutUint32(b[0:4], r.DeviceID)
	b[4] = r.ProtocolVersion
	binary.LittleEndian.PutUint32(b[5:9], r.RandomSeed)
	binary.LittleEndian.PutUint16(b[9:11], uint16(len(r.Baudrates)))
	off := 11
	for _, rate := range r.Baudrates {
		binary.LittleEndian.PutUint32(b[off:off+4], rate)
		off += 4
	}
	return b
}

func UnmarshalResponse(b []byte) (Response, error) {
	if len(b) < 11 {
		return Response{}, ErrMessageTooShort
	}
	count := binary.LittleEndian.Uint16(b[9:11])
	want := 11 + 4*int(count)
	if len(b) != want {
		return Response{}, ErrLengthMismatch
	}
	rates := make([]uint32, count)
	off := 11
	for i := range rates {
		rates[i] = binary.LittleEndian.Uint32(b[off : off+4])
		off += 4
	}
	return Response{
		DeviceID:        binary.LittleEndian.Uint32(b[0:4]),
		ProtocolVersion: b[4],
		RandomSeed:      binary.LittleEndian.Uint32(b[5:9]),
		Baudrates:       rates,
	}, nil
}

// TransferMode distinguishes a single-file session from a batch
// (directory) session.
type TransferMode uint8

const (
	ModeSingle TransferMode = 1
	ModeBatch  TransferMode = 2
)

// CapabilityNego is the CAPABILITY_NEGO body: the sender's proposed
// session parameters.
type CapabilityNego struct {
	SessionID        uint32
	Mode             TransferMode
	FileCount        uint32
	TotalSize        uint64
	SelectedBaudrate uint32
	ChunkSize        uint32
	RootPath         string
}

func (c CapabilityNego) Marshal() []byte {
	root := []byte(c.RootPath)
	b := make([]byte, 27+len(root))
	binary.LittleEndian.PutUint32(b[0:4], c.SessionID)
	b[4] = byte(c.Mode)
	binary.LittleEndian.PutUint32(b[5:9], c.FileCount)
	binary.LittleEndian.PutUint64(b[9:17], c.TotalSize)
	binary.LittleEndian.PutUint32(b[17:21], c.SelectedBaudrate)
	binary.LittleEndian.PutUint32(b[21:25], c.ChunkSize)
	binary.LittleEndian.PutUint16(b[25:27], uint16(len(root)))
	copy(b[27:], root)
	return b
}

func UnmarshalCapabilityNego(b []byte) (CapabilityNego, error) {
	if len(b) < 27 {
		return CapabilityNego{}, ErrMessageTooShort
	}
	pathLen := binary.LittleEndian.Uint16(b[25:27])
	want := 27 + int(pathLen)
	if len(b) != want {
		return CapabilityNego{}, ErrLengthMismatch
	}
	return CapabilityNego{
		SessionID:        binary.LittleEndian.Uint32(b[0:4]),
		Mode:             TransferMode(b[4]),
		FileCount:        binary.LittleEndian.Uint32(b[5:9]),
		TotalSize:        binary.LittleEndian.Uint64(b[9:17]),
		SelectedBaudrate: binary.LittleEndian.Uint32(b[17:21]),
		ChunkSize:        binary.LittleEndian.Uint32(b[21:25]),
		RootPath:         string(b[27:want]),
	}, nil
}

// CapabilityAck is the CAPABILITY_ACK body (9 bytes).
type CapabilityAck struct {
	SessionID           uint32
	Accepted            bool
	NegotiatedChunkSize uint32
}

func (c CapabilityAck) Marshal() []byte {
	b := make([]byte, 9)
	binary.LittleEndian.PutUint32(b[0:4], c.SessionID)
	if c.Accepted {
		b[4] = 1
	}
	binary.LittleEndian.PutUint32(b[5:9], c.NegotiatedChunkSize)
	return b
}

func UnmarshalCapabilityAck(b []byte) (CapabilityAck, error) {
	if len(b) != 9 {
		return CapabilityAck{}, ErrMessageTooShort
	}
	return CapabilityAck{
		SessionID:           binary.LittleEndian.Uint32(b[0:4]),
		Accepted:            b[4] == 1,
		NegotiatedChunkSize: binary.LittleEndian.Uint32(b[5:9]),
	}, nil
}

// SwitchBaudrate is the SWITCH_BAUDRATE body (10 bytes).
type SwitchBaudrate struct {
	SessionID     uint32
	NewBaudrate   uint32
	SwitchDelayMs uint16
}

func (s SwitchBaudrate) Marshal() []byte {
	b := make([]byte, 10)
	binary.LittleEndian.PutUint32(b[0:4], s.SessionID)
	binary.LittleEndian.PutUint32(b[4:8], s.NewBaudrate)
	binary.LittleEndian.PutUint16(b[8:10], s.SwitchDelayMs)
	return b
}

func UnmarshalSwitchBaudrate(b []byte) (SwitchBaudrate, error) {
	if len(b) != 10 {
		return SwitchBaudrate{}, ErrMessageTooShort
	}
	return SwitchBaudrate{
		SessionID:     binary.LittleEndian.Uint32(b[0:4]),
		NewBaudrate:   binary.LittleEndian.Uint32(b[4:8]),
		SwitchDelayMs: binary.LittleEndian.Uint16(b[8:10]),
	}, nil
}

// SwitchAck is the SWITCH_ACK body (4 bytes).
type SwitchAck struct {
	SessionID uint32
}

func (s SwitchAck) Marshal() []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b[0:4], s.SessionID)
	return b
}

func UnmarshalSwitchAck(b []byte) (SwitchAck, error) {
	if len(b) != 4 {
		return SwitchAck{}, ErrMessageTooShort
	}
	return SwitchAck{SessionID: binary.LittleEndian.Uint32(b[0:4])}, nil
}
