// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transfer

import (
	"context"
	"path/filepath"

	"code.hybscloud.com/serialfile/pathutil"
	"code.hybscloud.com/serialfile/progress"
	"code.hybscloud.com/serialfile/serialport"
	"code.hybscloud.com/serialfile/support"
	"code.hybscloud.com/serialfile/wire"
)

// BatchReceiver requests one name at a time and runs the single-file
// Receiver against a collision-safe destination path for each, per spec
// §4.12.
type BatchReceiver struct {
	port   serialport.Port
	clock  support.Clock
	rng    support.RNG
	logger support.Logger
	opts   Options

	SessionID string
	ChunkSize uint32
}

func NewBatchReceiver(port serialport.Port, clock support.Clock, rng support.RNG, logger support.Logger, sessionID string, chunkSize uint32, opts ...Option) *BatchReceiver {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	return &BatchReceiver{port: port, clock: clock, rng: rng, logger: logger, opts: o, SessionID: sessionID, ChunkSize: chunkSize}
}

func (b *BatchReceiver) writeFrame(cmd wire.Command, payload []byte) error {
	_, err := b.port.Write(wire.Pack(cmd, payload))
	return err
}

// ReceiveDir requests names in a loop until the sender signals
// end-of-batch with an empty name, creating each destination under
// baseDir via pathutil's collision-safe path resolution.
func (b *BatchReceiver) ReceiveDir(ctx context.Context, dec *wire.Decoder, baseDir string, sink progress.Sink) error {
	if err := pathutil.EnsureDir(baseDir); err != nil {
		b.logger.Fatal("write", b.SessionID, err)
		return err
	}

	for {
		name, err := b.requestName(ctx, dec)
		if err != nil {
			b.logger.Fatal("probe", b.SessionID, err)
			return err
		}
		if name == "" {
			return nil
		}

		destPath, err := pathutil.CreateSafePath(baseDir, filepath.Base(name))
		if err != nil {
			b.logger.Fatal("write", b.SessionID, err)
			return err
		}

		receiver := NewReceiver(b.port, b.clock, b.rng, b.logger, b.SessionID, b.ChunkSize, optionsAsOverrides(b.opts)...)
		if err := receiver.ReceiveFile(ctx, dec, destPath, sink); err != nil {
			return err
		}
		b.ChunkSize = receiver.ChunkSize // carry any mid-stream shrink into the next file
	}
}

func (b *BatchReceiver) requestName(ctx context.Context, dec *wire.Decoder) (string, error) {
	if err := b.writeFrame(wire.RequestFileName, nil); err != nil {
		return "", err
	}
	deadline := b.clock.Now().Add(b.opts.RequestTimeout)
	f, ok, err := awaitFrame(ctx, dec, b.clock, b.opts.PollInterval, deadline, func(f wire.Frame) bool {
		return f.Cmd == wire.ReplyFileName
	})
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrTimeout
	}
	name, ok := unpackFileName(f.Payload)
	if !ok {
		return "", ErrTransferFailed
	}
	return name, nil
}
