// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transfer

import (
	"context"
	"fmt"

	"code.hybscloud.com/serialfile/progress"
	"code.hybscloud.com/serialfile/retry"
	"code.hybscloud.com/serialfile/serialport"
	"code.hybscloud.com/serialfile/support"
	"code.hybscloud.com/serialfile/wire"
)

// Sender is the per-file sender engine of spec §4.8: it waits for the
// receiver's size probe, then serves REQUEST_DATA frames until the
// whole file has been confirmed transferred.
type Sender struct {
	port   serialport.Port
	clock  support.Clock
	rng    support.RNG
	logger support.Logger
	opts   Options

	SessionID     string
	ChunkSize     uint32 // effective chunk size for this session
}

func NewSender(port serialport.Port, clock support.Clock, rng support.RNG, logger support.Logger, sessionID string, chunkSize uint32, opts ...Option) *Sender {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	return &Sender{port: port, clock: clock, rng: rng, logger: logger, opts: o, SessionID: sessionID, ChunkSize: chunkSize}
}

func (s *Sender) writeFrame(cmd wire.Command, payload []byte) error {
	_, err := s.port.Write(wire.Pack(cmd, payload))
	return err
}

// SendFile serves data to the peer until fully acknowledged. sink may be
// progress.NopSink{} if the caller does not want advance notifications.
// dec must be the single decoder shared by every engine reading this
// session's port: a frame decoder buffers bytes internally, so two
// decoders racing over the same stream would each silently lose
// whatever the other already buffered.
func (s *Sender) SendFile(ctx context.Context, dec *wire.Decoder, data fileData, sink progress.Sink) error {
	fileSize := data.Size()

	if err := s.awaitSizeProbe(ctx, dec); err != nil {
		s.logger.Fatal("size", s.SessionID, err)
		return err
	}
	if err := s.writeFrame(wire.ReplyFileSize, packFileSize(fileSize)); err != nil {
		s.logger.Fatal("size", s.SessionID, err)
		return err
	}

	var cursor uint32
	var seq uint16
	for cursor < fileSize {
		f, err := s.nextFrame(ctx, dec)
		if err != nil {
			s.logger.Fatal("data", s.SessionID, err)
			return err
		}
		if f.Cmd != wire.RequestData {
			s.logger.Transition("data", s.SessionID, fmt.Sprintf("ignored %s", f.Cmd))
			continue
		}
		req, ok := unmarshalRequestData(f.Payload)
		if !ok {
			continue
		}
		if req.Addr > fileSize {
			err := ErrAddrOutOfRange
			s.logger.Fatal("data", s.SessionID, err)
			return err
		}
		length := req.Len
		if uint32(length) > fileSize-req.Addr {
			length = uint16(fileSize - req.Addr)
		}
		if uint32(length) > s.ChunkSize {
			if err := s.writeFrame(wire.Nack, packAdvisoryNack(seq, uint16(s.ChunkSize))); err != nil {
				s.logger.Fatal("data", s.SessionID, err)
				return err
			}
			continue
		}

		chunk, err := data.ReadAt(req.Addr, length)
		if err != nil {
			s.logger.Fatal("data", s.SessionID, err)
			return err
		}

		confirmed, err := s.sendChunkWithRetry(ctx, dec, seq, chunk)
		if err != nil {
			s.logger.Fatal("ack", s.SessionID, err)
			return err
		}
		if !confirmed {
			err := ErrTransferFailed
			s.logger.Fatal("ack", s.SessionID, err)
			return err
		}

		cursor = req.Addr + uint32(length)
		seq++
		sink.Advance(len(chunk), s.clock.Now())
	}
	return nil
}

func (s *Sender) awaitSizeProbe(ctx context.Context, dec *wire.Decoder) error {
	deadline := s.clock.Now().Add(s.opts.RequestTimeout)
	_, ok, err := awaitFrame(ctx, dec, s.clock, s.opts.PollInterval, deadline, func(f wire.Frame) bool {
		return f.Cmd == wire.RequestFileSize && isSizeProbe(f.Payload)
	})
	if err != nil {
		return err
	}
	if !ok {
		return ErrTimeout
	}
	return nil
}

// nextFrame polls indefinitely (bounded only by ctx) for any well-formed
// frame, honoring spec §5's unbounded whole-session wall clock.
func (s *Sender) nextFrame(ctx context.Context, dec *wire.Decoder) (wire.Frame, error) {
	for {
		f, err := dec.Next()
		if err == nil {
			return f, nil
		}
		if sleepErr := s.clock.Sleep(ctx, s.opts.PollInterval); sleepErr != nil {
			return wire.Frame{}, sleepErr
		}
	}
}

func (s *Sender) sendChunkWithRetry(ctx context.Context, dec *wire.Decoder, seq uint16, chunk []byte) (bool, error) {
	result, err := retry.Call(ctx, s.clock, s.rng, s.opts.RetryBase, s.opts.RetryCount, func(int) (bool, bool, error) {
		if err := s.writeFrame(wire.SendData, packSendData(seq, chunk)); err != nil {
			return false, false, err
		}
		deadline := s.clock.Now().Add(s.opts.RequestTimeout)
		f, ok, err := awaitFrame(ctx, dec, s.clock, s.opts.PollInterval, deadline, func(f wire.Frame) bool {
			if f.Cmd != wire.Ack && f.Cmd != wire.Nack {
				return false
			}
			gotSeq, ok := unpackSeqOnly(f.Payload)
			return ok && gotSeq == seq
		})
		if err != nil {
			return false, false, err
		}
		if !ok {
			return false, false, nil // timeout: retry
		}
		if f.Cmd == wire.Ack {
			return true, true, nil
		}
		return false, false, nil // NACK: retry
	})
	if err != nil {
		if err == context.DeadlineExceeded {
			return false, nil // retries exhausted; caller reports ErrTransferFailed
		}
		return false, err
	}
	return result, nil
}
