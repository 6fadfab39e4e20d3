// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package probe

import (
	"context"
	"fmt"

	"code.hybscloud.com/serialfile/serialport"
	"code.hybscloud.com/serialfile/support"
	"code.hybscloud.com/serialfile/wire"
)

// Sender drives the active (discovering) side of the probe handshake:
// IDLE → PROBING → CAPABILITY_SENT → SWITCHING → READY | FAILED.
type Sender struct {
	port    serialport.Port
	clock   support.Clock
	rng     support.RNG
	logger  support.Logger
	opts    Options

	// Baudrates is this peer's supported rates, highest priority first
	// (spec §6.1).
	Baudrates []uint32

	state State
}

func NewSender(port serialport.Port, clock support.Clock, rng support.RNG, logger support.Logger, baudrates []uint32, opts ...Option) *Sender {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	return &Sender{port: port, clock: clock, rng: rng, logger: logger, opts: o, Baudrates: baudrates, state: Idle}
}

func (s *Sender) State() State { return s.state }

func (s *Sender) transition(to State, sessionID uint32, detail string) {
	s.state = to
	s.logger.Transition("probe", fmt.Sprintf("%08x", sessionID), fmt.Sprintf("%s: %s", to, detail))
}

func (s *Sender) writeFrame(cmd wire.Command, payload []byte) error {
	_, err := s.port.Write(wire.Pack(cmd, payload))
	return err
}

// Run executes the full sender-side handshake and returns the agreed
// session Result, or an error (ErrTimeout, ErrNoCommonBaudrate,
// ErrNegotiationRejected, or a port/context error) with the state left at
// Failed.
func (s *Sender) Run(ctx context.Context, params SessionParams) (Result, error) {
	dec := wire.NewDecoder(s.port)

	deviceID := s.rng.Uint32()
	randomSeed := s.rng.Uint32()
	req := Request{DeviceID: deviceID, ProtocolVersion: ProtocolVersion, RandomSeed: randomSeed}

	s.state = Probing
	resp, err := s.probe(ctx, dec, req)
	if err != nil {
		s.transition(Failed, 0, err.Error())
		return Result{}, err
	}

	selectedRate, ok := firstCommon(s.Baudrates, resp.Baudrates)
	if !ok {
		s.transition(Failed, 0, ErrNoCommonBaudrate.Error())
		return Result{}, ErrNoCommonBaudrate
	}
	s.transition(CapabilitySent, 0, fmt.Sprintf("selected rate %d", selectedRate))

	sessionID := s.rng.Uint32() | 0x10000000
	chunkSize := params.ChunkSizeFunc(selectedRate)
	nego := CapabilityNego{
		SessionID:        sessionID,
		Mode:             params.Mode,
		FileCount:        params.FileCount,
		TotalSize:        params.TotalSize,
		SelectedBaudrate: selectedRate,
		ChunkSize:        chunkSize,
		RootPath:         params.RootPath,
	}
	ack, err := s.negotiateCapability(ctx, dec, nego)
	if err != nil {
		s.transition(Failed, sessionID, err.Error())
		return Result{}, err
	}
	s.transition(Switching, sessionID, "capability accepted")

	if err := s.switchBaudrate(ctx, dec, sessionID, selectedRate); err != nil {
		s.transition(Failed, sessionID, err.Error())
		return Result{}, err
	}

	s.transition(Ready, sessionID, fmt.Sprintf("rate=%d chunk=%d", selectedRate, ack.NegotiatedChunkSize))
	return Result{
		SessionID:           sessionID,
		SelectedBaudrate:    selectedRate,
		NegotiatedChunkSize: ack.NegotiatedChunkSize,
		Mode:                params.Mode,
		FileCount:           params.FileCount,
		TotalSize:           params.TotalSize,
		RootPath:            params.RootPath,
	}, nil
}

func (s *Sender) probe(ctx context.Context, dec *wire.Decoder, req Request) (Response, error) {
	payload := req.Marshal()
	overallDeadline := s.clock.Now().Add(s.opts.ProbeTotal)
	for s.clock.Now().Before(overallDeadline) {
		if err := s.writeFrame(wire.ProbeRequest, payload); err != nil {
			return Response{}, err
		}
		periodDeadline := s.clock.Now().Add(s.opts.ProbePeriod)
		for s.clock.Now().Before(periodDeadline) {
			f, err := dec.Next()
			if err != nil {
				if sleepErr := s.clock.Sleep(ctx, s.opts.PollInterval); sleepErr != nil {
					return Response{}, sleepErr
				}
				continue
			}
			if f.Cmd != wire.ProbeResponse {
				continue
			}
			resp, err := UnmarshalResponse(f.Payload)
			if err != nil {
				continue
			}
			if resp.DeviceID == req.DeviceID && resp.ProtocolVersion == req.ProtocolVersion && resp.RandomSeed == req.RandomSeed {
				return resp, nil
			}
		}
	}
	return Response{}, ErrTimeout
}

func (s *Sender) negotiateCapability(ctx context.Context, dec *wire.Decoder, nego CapabilityNego) (CapabilityAck, error) {
	if err := s.writeFrame(wire.CapabilityNego, nego.Marshal()); err != nil {
		return CapabilityAck{}, err
	}
	deadline := s.clock.Now().Add(s.opts.CapabilitySendTimeout)
	for s.clock.Now().Before(deadline) {
		f, err := dec.Next()
		if err != nil {
			if sleepErr := s.clock.Sleep(ctx, s.opts.PollInterval); sleepErr != nil {
				return CapabilityAck{}, sleepErr
			}
			continue
		}
		if f.Cmd != wire.CapabilityAck {
			continue
		}
		ack, err := UnmarshalCapabilityAck(f.Payload)
		if err != nil || ack.SessionID != nego.SessionID {
			continue
		}
		if !ack.Accepted {
			return CapabilityAck{}, ErrNegotiationRejected
		}
		return ack, nil
	}
	return CapabilityAck{}, ErrTimeout
}

func (s *Sender) switchBaudrate(ctx context.Context, dec *wire.Decoder, sessionID, selectedRate uint32) error {
	sw := SwitchBaudrate{SessionID: sessionID, NewBaudrate: selectedRate, SwitchDelayMs: s.opts.SwitchDelayMs}
	if err := s.writeFrame(wire.SwitchBaudrate, sw.Marshal()); err != nil {
		return err
	}
	deadline := s.clock.Now().Add(s.opts.SwitchSendTimeout)
	matched := false
	for s.clock.Now().Before(deadline) {
		f, err := dec.Next()
		if err != nil {
			if sleepErr := s.clock.Sleep(ctx, s.opts.PollInterval); sleepErr != nil {
				return sleepErr
			}
			continue
		}
		if f.Cmd != wire.SwitchAck {
			continue
		}
		ack, err := UnmarshalSwitchAck(f.Payload)
		if err != nil || ack.SessionID != sessionID {
			continue
		}
		matched = true
		break
	}
	if !matched {
		return ErrTimeout
	}
	if err := s.clock.Sleep(ctx, msToDuration(sw.SwitchDelayMs)); err != nil {
		return err
	}
	return s.port.SetBaudRate(selectedRate)
}

// firstCommon returns the first rate in mine (priority order) that also
// appears anywhere in theirs.
func firstCommon(mine, theirs []uint32) (uint32, bool) {
	set := make(map[uint32]struct{}, len(theirs))
	for _, r := range theirs {
		set[r] = struct{}{}
	}
	for _, r := range mine {
		if _, ok := set[r]; ok {
			return r, true
		}
	}
	return 0, false
}
