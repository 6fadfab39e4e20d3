// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package probe

// State is a step in either role's handshake state machine (spec §4.7).
type State uint8

const (
	Idle State = iota
	Probing
	CapabilitySent
	Switching
	Ready
	Failed

	Listening
	Responded
	CapabilityApplied
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Probing:
		return "PROBING"
	case CapabilitySent:
		return "CAPABILITY_SENT"
	case Switching:
		return "SWITCHING"
	case Ready:
		return "READY"
	case Failed:
		return "FAILED"
	case Listening:
		return "LISTENING"
	case Responded:
		return "RESPONDED"
	case CapabilityApplied:
		return "CAPABILITY_APPLIED"
	default:
		return "UNKNOWN"
	}
}

// SessionParams are the orchestrator-supplied fields that seed a
// sender's CAPABILITY_NEGO (spec §4.7, §4.13).
type SessionParams struct {
	Mode      TransferMode
	FileCount uint32
	TotalSize uint64
	RootPath  string

	// ChunkSizeFunc maps a selected baudrate to a recommended chunk
	// size (session.RecommendedChunk); injected to avoid an import
	// cycle between probe and session.
	ChunkSizeFunc func(selectedBaudrate uint32) uint32
}

// Result is what a successful handshake, on either role, hands to the
// transfer engines.
type Result struct {
	SessionID           uint32
	SelectedBaudrate    uint32
	NegotiatedChunkSize uint32
	Mode                TransferMode
	FileCount           uint32
	TotalSize           uint64
	RootPath            string
}
