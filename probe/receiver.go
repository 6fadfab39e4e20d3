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

// Receiver drives the passive (listening) side of the probe handshake:
// LISTENING → RESPONDED → CAPABILITY_APPLIED → SWITCHING → READY | FAILED.
type Receiver struct {
	port   serialport.Port
	clock  support.Clock
	logger support.Logger
	opts   Options

	Baudrates []uint32

	state State

	// cachedSeed/cachedPayload implement the idempotent-replay rule
	// for a duplicate PROBE_REQUEST observed after RESPONDED: the same
	// random_seed gets byte-identical bytes back without recomputing or
	// re-logging a transition.
	haveCached    bool
	cachedSeed    uint32
	cachedPayload []byte
}

func NewReceiver(port serialport.Port, clock support.Clock, logger support.Logger, baudrates []uint32, opts ...Option) *Receiver {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	return &Receiver{port: port, clock: clock, logger: logger, opts: o, Baudrates: baudrates, state: Listening}
}

func (r *Receiver) State() State { return r.state }

func (r *Receiver) transition(to State, sessionID uint32, detail string) {
	r.state = to
	r.logger.Transition("probe", fmt.Sprintf("%08x", sessionID), fmt.Sprintf("%s: %s", to, detail))
}

func (r *Receiver) writeFrame(cmd wire.Command, payload []byte) error {
	_, err := r.port.Write(wire.Pack(cmd, payload))
	return err
}

// Run executes the full receiver-side handshake and returns the agreed
// session Result, or an error with the state left at Failed.
func (r *Receiver) Run(ctx context.Context) (Result, error) {
	dec := wire.NewDecoder(r.port)

	if err := r.listen(ctx, dec); err != nil {
		r.transition(Failed, 0, err.Error())
		return Result{}, err
	}

	nego, err := r.awaitCapability(ctx, dec)
	if err != nil {
		r.transition(Failed, 0, err.Error())
		return Result{}, err
	}

	if !contains(r.Baudrates, nego.SelectedBaudrate) {
		ack := CapabilityAck{SessionID: nego.SessionID, Accepted: false, NegotiatedChunkSize: minChunkSize}
		_ = r.writeFrame(wire.CapabilityAck, ack.Marshal())
		r.transition(Failed, nego.SessionID, ErrNoCommonBaudrate.Error())
		return Result{}, ErrNoCommonBaudrate
	}

	negotiated := r.opts.NegotiateFunc(nego.ChunkSize, r.opts.ReceiverMaxChunk)
	ack := CapabilityAck{SessionID: nego.SessionID, Accepted: true, NegotiatedChunkSize: negotiated}
	if err := r.writeFrame(wire.CapabilityAck, ack.Marshal()); err != nil {
		r.transition(Failed, nego.SessionID, err.Error())
		return Result{}, err
	}
	r.transition(CapabilityApplied, nego.SessionID, fmt.Sprintf("chunk=%d", negotiated))

	if err := r.awaitSwitch(ctx, dec, nego.SessionID, nego.SelectedBaudrate); err != nil {
		r.transition(Failed, nego.SessionID, err.Error())
		return Result{}, err
	}

	r.transition(Ready, nego.SessionID, fmt.Sprintf("rate=%d", nego.SelectedBaudrate))
	return Result{
		SessionID:           nego.SessionID,
		SelectedBaudrate:    nego.SelectedBaudrate,
		NegotiatedChunkSize: negotiated,
		Mode:                nego.Mode,
		FileCount:           nego.FileCount,
		TotalSize:           nego.TotalSize,
		RootPath:            nego.RootPath,
	}, nil
}

func (r *Receiver) listen(ctx context.Context, dec *wire.Decoder) error {
	deadline := r.clock.Now().Add(r.opts.ProbeTotal)
	for r.clock.Now().Before(deadline) {
		f, err := dec.Next()
		if err != nil {
			if sleepErr := r.clock.Sleep(ctx, r.opts.PollInterval); sleepErr != nil {
				return sleepErr
			}
			continue
		}
		if f.Cmd != wire.ProbeRequest {
			continue
		}
		req, err := UnmarshalRequest(f.Payload)
		if err != nil {
			continue
		}
		if r.haveCached && req.RandomSeed == r.cachedSeed {
			if err := r.writeFrame(wire.ProbeResponse, r.cachedPayload); err != nil {
				return err
			}
			continue
		}
		resp := Response{
			DeviceID:        req.DeviceID,
			ProtocolVersion: req.ProtocolVersion,
			RandomSeed:      req.RandomSeed,
			Baudrates:       r.Baudrates,
		}
		payload := resp.Marshal()
		if err := r.writeFrame(wire.ProbeResponse, payload); err != nil {
			return err
		}
		r.haveCached = true
		r.cachedSeed = req.RandomSeed
		r.cachedPayload = payload
		if r.state == Listening {
			r.transition(Responded, 0, fmt.Sprintf("device %08x", req.DeviceID))
		}
		return nil
	}
	return ErrTimeout
}

func (r *Receiver) awaitCapability(ctx context.Context, dec *wire.Decoder) (CapabilityNego, error) {
	deadline := r.clock.Now().Add(r.opts.CapabilityReceiveTimeout)
	for r.clock.Now().Before(deadline) {
		f, err := dec.Next()
		if err != nil {
			if sleepErr := r.clock.Sleep(ctx, r.opts.PollInterval); sleepErr != nil {
				return CapabilityNego{}, sleepErr
			}
			continue
		}
		if f.Cmd == wire.ProbeRequest {
			// A repeated PROBE_REQUEST with the already-answered seed means the
			// peer missed our response: replay the cached bytes unchanged.
			if req, err := UnmarshalRequest(f.Payload); err == nil && r.haveCached && req.RandomSeed == r.cachedSeed {
				if err := r.writeFrame(wire.ProbeResponse, r.cachedPayload); err != nil {
					return CapabilityNego{}, err
				}
			}
			continue
		}
		if f.Cmd != wire.CapabilityNego {
			continue
		}
		nego, err := UnmarshalCapabilityNego(f.Payload)
		if err != nil {
			continue
		}
		return nego, nil
	}
	return CapabilityNego{}, ErrTimeout
}

func (r *Receiver) awaitSwitch(ctx context.Context, dec *wire.Decoder, sessionID, selectedRate uint32) error {
	deadline := r.clock.Now().Add(r.opts.SwitchReceiveTimeout)
	for r.clock.Now().Before(deadline) {
		f, err := dec.Next()
		if err != nil {
			if sleepErr := r.clock.Sleep(ctx, r.opts.PollInterval); sleepErr != nil {
				return sleepErr
			}
			continue
		}
		if f.Cmd != wire.SwitchBaudrate {
			continue
		}
		sw, err := UnmarshalSwitchBaudrate(f.Payload)
		if err != nil {
			continue
		}
		if sw.SessionID != sessionID || sw.NewBaudrate != selectedRate {
			return ErrMismatch
		}
		ack := SwitchAck{SessionID: sessionID}
		if err := r.writeFrame(wire.SwitchAck, ack.Marshal()); err != nil {
			return err
		}
		if err := r.clock.Sleep(ctx, msToDuration(sw.SwitchDelayMs)); err != nil {
			return err
		}
		return r.port.SetBaudRate(selectedRate)
	}
	return ErrTimeout
}

func contains(haystack []uint32, v uint32) bool {
	for _, x := range haystack {
		if x == v {
			return true
		}
	}
	return false
}

func min32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

const (
	minChunkSize = 512
	maxChunkSize = 16384
)

func clampChunk(n uint32) uint32 {
	if n < minChunkSize {
		return minChunkSize
	}
	if n > maxChunkSize {
		return maxChunkSize
	}
	return n
}
