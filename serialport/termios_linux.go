//go:build linux

// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package serialport

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// realPort is the Linux termios2-backed implementation of Port. Arbitrary
// (non-standard) baud rates — required by spec §6.1's baudrate table,
// which includes rates like 1728000 that have no fixed Bnnn constant —
// are set via BOTHER and the Ispeed/Ospeed fields of unix.Termios2, the
// technique Daedaluz/goserial uses for the same purpose.
type realPort struct {
	f           *os.File
	fd          int
	readTimeout time.Duration
}

// Open configures an 8N1, no-flow-control line at cfg.BaudRate and
// applies the adaptive read timeout of spec §4.3.
func Open(cfg Config) (Port, error) {
	f, err := os.OpenFile(cfg.Device, os.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return nil, ErrPortUnavailable
	}
	fd := int(f.Fd())

	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = AdaptiveReadTimeout(cfg.BaudRate)
	}

	p := &realPort{f: f, fd: fd, readTimeout: timeout}
	if err := p.configure(cfg.BaudRate); err != nil {
		_ = f.Close()
		return nil, ErrPortUnavailable
	}
	return p, nil
}

func (p *realPort) configure(baudRate uint32) error {
	t2, err := unix.IoctlGetTermios2(p.fd, unix.TCGETS2)
	if err != nil {
		return err
	}

	t2.Cflag &^= unix.CSIZE | unix.PARENB | unix.CSTOPB | unix.CRTSCTS
	t2.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL
	t2.Iflag &^= unix.IXON | unix.IXOFF | unix.IXANY | unix.ICRNL
	t2.Oflag &^= unix.OPOST
	t2.Lflag &^= unix.ICANON | unix.ECHO | unix.ECHOE | unix.ISIG

	t2.Cflag &^= unix.CBAUD
	t2.Cflag |= unix.BOTHER
	t2.Ispeed = baudRate
	t2.Ospeed = baudRate

	// Non-canonical, fully polled reads: VMIN=0, VTIME=0; timeout is
	// enforced by this package via a polling deadline loop in Read (one
	// read attempt per millisecond), not by the line discipline, so it can be adjusted at runtime
	// without reconfiguring the device.
	t2.Cc[unix.VMIN] = 0
	t2.Cc[unix.VTIME] = 0

	return unix.IoctlSetTermios2(p.fd, unix.TCSETS2, t2)
}

func (p *realPort) Write(data []byte) (int, error) {
	n, err := unix.Write(p.fd, data)
	if err != nil {
		return n, err
	}
	if ferr := p.FlushTX(); ferr != nil {
		return n, ferr
	}
	if n < len(data) {
		return n, ErrWriteShort
	}
	return n, nil
}

func (p *realPort) Read(data []byte) (int, error) {
	deadline := time.Now().Add(p.readTimeout)
	for {
		n, err := unix.Read(p.fd, data)
		if n > 0 {
			return n, nil
		}
		if err != nil && err != unix.EAGAIN && err != unix.EINTR {
			return 0, ErrReadError
		}
		if time.Now().After(deadline) {
			return 0, nil // timeout: empty read, no error (spec §4.3)
		}
		time.Sleep(time.Millisecond)
	}
}

// FlushTX waits until the kernel has written everything queued for this
// port out to the line (tcdrain(3): ioctl(fd, TCSBRK, 1)), so Write's
// caller knows the bytes actually left before returning. This must not
// be TCFLSH/TCOFLUSH, which discards the queued-but-untransmitted bytes
// instead of waiting for them.
func (p *realPort) FlushTX() error {
	return unix.IoctlSetInt(p.fd, unix.TCSBRK, 1)
}

func (p *realPort) SetBaudRate(rate uint32) error {
	t2, err := unix.IoctlGetTermios2(p.fd, unix.TCGETS2)
	if err != nil {
		return ErrPortUnavailable
	}
	t2.Cflag &^= unix.CBAUD
	t2.Cflag |= unix.BOTHER
	t2.Ispeed = rate
	t2.Ospeed = rate
	if err := unix.IoctlSetTermios2(p.fd, unix.TCSETS2, t2); err != nil {
		return ErrPortUnavailable
	}
	p.readTimeout = AdaptiveReadTimeout(rate)
	return nil
}

func (p *realPort) Close() error {
	return p.f.Close()
}
