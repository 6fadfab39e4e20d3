// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package probe implements the discovery-and-negotiation handshake of
// spec §4.6-4.7: PROBE_REQUEST/RESPONSE, CAPABILITY_NEGO/ACK, and
// SWITCH_BAUDRATE/ACK, for both the active (sender) and passive
// (receiver) roles.
package probe

import "errors"

var (
	ErrMessageTooShort    = errors.New("probe: message too short")
	ErrLengthMismatch     = errors.New("probe: declared count does not match payload length")
	ErrNoCommonBaudrate   = errors.New("probe: no common baudrate between peers")
	ErrNegotiationRejected = errors.New("probe: capability negotiation rejected")
	ErrTimeout            = errors.New("probe: timed out waiting for peer")
	ErrMismatch           = errors.New("probe: reply does not match the outstanding request")
)
