// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transfer

import (
	"context"
	"os"
	"path/filepath"

	"code.hybscloud.com/serialfile/progress"
	"code.hybscloud.com/serialfile/serialport"
	"code.hybscloud.com/serialfile/support"
	"code.hybscloud.com/serialfile/wire"
)

// BatchSender walks a source directory once (non-recursively, per
// spec.md Open Question §9.1) and runs the single-file name handshake
// and Sender for each entry, per spec §4.11.
type BatchSender struct {
	port   serialport.Port
	clock  support.Clock
	rng    support.RNG
	logger support.Logger
	opts   Options

	SessionID string
	ChunkSize uint32
}

func NewBatchSender(port serialport.Port, clock support.Clock, rng support.RNG, logger support.Logger, sessionID string, chunkSize uint32, opts ...Option) *BatchSender {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	return &BatchSender{port: port, clock: clock, rng: rng, logger: logger, opts: o, SessionID: sessionID, ChunkSize: chunkSize}
}

func (b *BatchSender) writeFrame(cmd wire.Command, payload []byte) error {
	_, err := b.port.Write(wire.Pack(cmd, payload))
	return err
}

// SendDir enumerates dir's top-level files (directories within it are
// skipped: non-recursive enumeration, spec.md Open Question §9.1) and
// transfers each through a name handshake followed by the single-file
// protocol, then signals end-of-batch with an empty REPLY_FILE_NAME.
func (b *BatchSender) SendDir(ctx context.Context, dec *wire.Decoder, dir string, sink progress.Sink) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		b.logger.Fatal("write", b.SessionID, err)
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := b.awaitNameRequest(ctx, dec); err != nil {
			b.logger.Fatal("probe", b.SessionID, err)
			return err
		}
		namePayload, truncated := packFileName(entry.Name(), b.opts.NameMaxBytes)
		if truncated {
			b.logger.Transition("probe", b.SessionID, "file name exceeds wire limit, truncated: "+entry.Name())
		}
		if err := b.writeFrame(wire.ReplyFileName, namePayload); err != nil {
			b.logger.Fatal("probe", b.SessionID, err)
			return err
		}

		path := filepath.Join(dir, entry.Name())
		data, err := openFileData(path, b.opts.MaxCacheSize)
		if err != nil {
			b.logger.Fatal("write", b.SessionID, err)
			return err
		}
		sender := NewSender(b.port, b.clock, b.rng, b.logger, b.SessionID, b.ChunkSize, optionsAsOverrides(b.opts)...)
		err = sender.SendFile(ctx, dec, data, sink)
		_ = data.Close()
		if err != nil {
			return err
		}
	}

	if err := b.awaitNameRequest(ctx, dec); err != nil {
		b.logger.Fatal("probe", b.SessionID, err)
		return err
	}
	endPayload, _ := packFileName("", b.opts.NameMaxBytes)
	return b.writeFrame(wire.ReplyFileName, endPayload)
}

func (b *BatchSender) awaitNameRequest(ctx context.Context, dec *wire.Decoder) error {
	deadline := b.clock.Now().Add(b.opts.RequestTimeout)
	_, ok, err := awaitFrame(ctx, dec, b.clock, b.opts.PollInterval, deadline, func(f wire.Frame) bool {
		return f.Cmd == wire.RequestFileName
	})
	if err != nil {
		return err
	}
	if !ok {
		return ErrTimeout
	}
	return nil
}

// optionsAsOverrides re-expresses an already-resolved Options value as a
// slice of Option so a sub-engine (the per-file Sender/Receiver spawned
// by the batch engines) can be constructed with the same configuration
// without re-parsing defaults.
func optionsAsOverrides(o Options) []Option {
	return []Option{
		WithRequestTimeout(o.RequestTimeout),
		WithRetry(o.RetryCount, o.RetryBase),
		WithPollInterval(o.PollInterval),
		WithMaxCacheSize(o.MaxCacheSize),
	}
}
