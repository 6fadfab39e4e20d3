// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package serialport abstracts the physical serial link: open/close,
// read/write/flush, and a dynamic baud-rate change, per spec §4.3. Real
// implementations configure the line via termios (golang.org/x/sys/unix);
// Fake is the deterministic double used by tests and described in spec
// §6.4.
package serialport

import (
	"errors"
	"time"
)

// Errors surfaced by Port operations. They are recoverable only by
// re-opening the port (spec §4.3).
var (
	ErrPortUnavailable = errors.New("serialport: port unavailable")
	ErrWriteShort      = errors.New("serialport: short write")
	ErrReadError       = errors.New("serialport: read error")
)

// Config describes how to open a serial device.
type Config struct {
	Device      string
	BaudRate    uint32
	ReadTimeout time.Duration // zero selects the adaptive default (see AdaptiveReadTimeout)
}

// Port is the operational surface the protocol engines use. All methods
// block the calling goroutine for at most one adaptive-timeout period
// except Close.
type Port interface {
	// Write sends bytes and flushes the transmit buffer before returning,
	// to minimize latency at high rates.
	Write(p []byte) (n int, err error)

	// Read returns available bytes, or an empty slice (n==0, err==nil) on
	// timeout; it never blocks longer than the configured read timeout.
	Read(p []byte) (n int, err error)

	FlushTX() error

	// SetBaudRate changes the line rate of an already-open port.
	SetBaudRate(rate uint32) error

	Close() error
}

// Factory opens a Port for a given Config. Production code uses Open;
// tests inject a factory that returns a *Fake.
type Factory interface {
	Open(cfg Config) (Port, error)
}

// OpenFunc adapts a function to Factory.
type OpenFunc func(cfg Config) (Port, error)

func (f OpenFunc) Open(cfg Config) (Port, error) { return f(cfg) }
