// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transfer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"code.hybscloud.com/serialfile/pathutil"
	"code.hybscloud.com/serialfile/progress"
	"code.hybscloud.com/serialfile/retry"
	"code.hybscloud.com/serialfile/serialport"
	"code.hybscloud.com/serialfile/support"
	"code.hybscloud.com/serialfile/wire"
)

// Receiver is the per-file receiver engine of spec §4.9: it pulls a file
// one chunk at a time via REQUEST_DATA, validating sequence numbers and
// adopting the sender's chunk-size suggestions.
type Receiver struct {
	port   serialport.Port
	clock  support.Clock
	rng    support.RNG
	logger support.Logger
	opts   Options

	SessionID string
	ChunkSize uint32 // effective chunk size, may shrink via NACK (spec §4.10)
}

func NewReceiver(port serialport.Port, clock support.Clock, rng support.RNG, logger support.Logger, sessionID string, chunkSize uint32, opts ...Option) *Receiver {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	return &Receiver{port: port, clock: clock, rng: rng, logger: logger, opts: o, SessionID: sessionID, ChunkSize: chunkSize}
}

func (r *Receiver) writeFrame(cmd wire.Command, payload []byte) error {
	_, err := r.port.Write(wire.Pack(cmd, payload))
	return err
}

// ReceiveFile pulls path's remote contents into destPath. A zero-length
// remote file is not supported in this revision (spec.md Open Question
// §9.3): the size-handshake loop never accepts a zero REPLY_FILE_SIZE
// and eventually times out, matching the source system's existing
// behavior rather than silently fabricating an empty file.
// dec must be the single decoder shared by every engine reading this
// session's port (see Sender.SendFile's doc for why).
func (r *Receiver) ReceiveFile(ctx context.Context, dec *wire.Decoder, destPath string, sink progress.Sink) error {
	fileSize, err := r.requestFileSize(ctx, dec)
	if err != nil {
		r.logger.Fatal("size", r.SessionID, err)
		return err
	}

	if err := pathutil.EnsureDir(filepath.Dir(destPath)); err != nil {
		r.logger.Fatal("write", r.SessionID, err)
		return err
	}
	f, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		r.logger.Fatal("write", r.SessionID, err)
		return err
	}

	var received uint32
	var expectedSeq uint16
	for received < fileSize {
		reqLen := r.ChunkSize
		if fileSize-received < reqLen {
			reqLen = fileSize - received
		}
		n, err := r.receiveOneChunk(ctx, dec, f, received, uint16(reqLen), expectedSeq)
		if err != nil {
			_ = f.Close()
			_ = os.Remove(destPath)
			r.logger.Fatal("data", r.SessionID, err)
			return err
		}
		received += uint32(n)
		expectedSeq++
		sink.Advance(n, r.clock.Now())
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(destPath)
		r.logger.Fatal("write", r.SessionID, err)
		return err
	}
	info, err := os.Stat(destPath)
	if err != nil {
		return err
	}
	if uint32(info.Size()) != fileSize {
		r.logger.Fatal("size", r.SessionID, ErrSizeMismatch)
		return ErrSizeMismatch
	}
	return nil
}

func (r *Receiver) requestFileSize(ctx context.Context, dec *wire.Decoder) (uint32, error) {
	size, err := retry.Call(ctx, r.clock, r.rng, r.opts.RetryBase, r.opts.RetryCount, func(int) (uint32, bool, error) {
		if err := r.writeFrame(wire.RequestFileSize, sizeProbePayload); err != nil {
			return 0, false, err
		}
		deadline := r.clock.Now().Add(r.opts.RequestTimeout)
		f, ok, err := awaitFrame(ctx, dec, r.clock, r.opts.PollInterval, deadline, func(f wire.Frame) bool {
			return f.Cmd == wire.ReplyFileSize
		})
		if err != nil {
			return 0, false, err
		}
		if !ok {
			return 0, false, nil
		}
		sz, ok := unpackFileSize(f.Payload)
		if !ok || sz == 0 {
			// A zero size is not a valid terminal condition this revision
			// (spec.md Open Question §9.3): keep retrying as if no reply
			// had arrived.
			return 0, false, nil
		}
		return sz, true, nil
	})
	if err != nil {
		if err == context.DeadlineExceeded {
			return 0, ErrTimeout
		}
		return 0, err
	}
	return size, nil
}

// receiveOneChunk drives exactly one REQUEST_DATA/SEND_DATA exchange to
// completion, absorbing duplicate frames (emitting a NACK without
// advancing, per testable property 7) and chunk-size shrink NACKs (spec
// §4.10) without counting either toward the retry budget.
func (r *Receiver) receiveOneChunk(ctx context.Context, dec *wire.Decoder, f *os.File, addr uint32, length uint16, expectedSeq uint16) (int, error) {
	attempts := 0
	for {
		if err := r.writeFrame(wire.RequestData, requestData{Addr: addr, Len: length}.marshal()); err != nil {
			return 0, err
		}
		deadline := r.clock.Now().Add(r.opts.RequestTimeout)

	inner:
		for r.clock.Now().Before(deadline) {
			frame, err := dec.Next()
			if err != nil {
				if sleepErr := r.clock.Sleep(ctx, r.opts.PollInterval); sleepErr != nil {
					return 0, sleepErr
				}
				continue
			}
			switch frame.Cmd {
			case wire.SendData:
				seq, payload, ok := unpackSendData(frame.Payload)
				if !ok {
					continue
				}
				if seq != expectedSeq {
					if err := r.writeFrame(wire.Nack, packSeqOnly(seq)); err != nil {
						return 0, err
					}
					continue
				}
				if _, err := f.WriteAt(payload, int64(addr)); err != nil {
					return 0, err
				}
				if err := r.writeFrame(wire.Ack, packSeqOnly(seq)); err != nil {
					return 0, err
				}
				return len(payload), nil
			case wire.Nack:
				seq, suggested, ok := unpackAdvisoryNack(frame.Payload)
				if !ok {
					continue
				}
				r.logger.Transition("data", r.SessionID, fmt.Sprintf("shrinking chunk to %d (was advised at seq %d)", suggested, seq))
				r.ChunkSize = uint32(suggested)
				if length > suggested {
					length = suggested
				}
				break inner // reissue REQUEST_DATA immediately with the smaller size
			default:
				continue
			}
		}

		if r.clock.Now().Before(deadline) {
			continue // the NACK-shrink path broke out before the deadline elapsed
		}

		attempts++
		if attempts > r.opts.RetryCount {
			return 0, ErrTransferFailed
		}
		if err := r.clock.Sleep(ctx, retry.Backoff(r.opts.RetryBase, attempts-1, 0.10, r.rng)); err != nil {
			return 0, err
		}
	}
}
