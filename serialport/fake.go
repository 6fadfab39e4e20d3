// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package serialport

import (
	"sync"
)

// Fake is a deterministic, in-memory Port double. Two Fakes can be
// wired together with Pipe to simulate a full-duplex link without a
// real device, for use by package tests and the examples package
// (spec §6.4).
type Fake struct {
	mu       sync.Mutex
	rx       [][]byte // pending inbound chunks, consumed in order by Read
	baudRate uint32
	closed   bool
	onWrite  func(p []byte) // delivers written bytes to the peer, set by Pipe

	flushed int // FlushTX call count
}

// NewFake returns a Fake with no peer wired in; Write calls succeed and
// are discarded until Pipe connects it to another Fake.
func NewFake(baudRate uint32) *Fake {
	return &Fake{baudRate: baudRate}
}

// Pipe connects two Fakes so that bytes written to one appear, in the
// same chunking, on a subsequent Read of the other.
func Pipe(a, b *Fake) {
	a.onWrite = func(p []byte) { b.deliver(p) }
	b.onWrite = func(p []byte) { a.deliver(p) }
}

func (f *Fake) deliver(p []byte) {
	cp := make([]byte, len(p))
	copy(cp, p)
	f.mu.Lock()
	f.rx = append(f.rx, cp)
	f.mu.Unlock()
}

func (f *Fake) Write(p []byte) (int, error) {
	f.mu.Lock()
	closed := f.closed
	onWrite := f.onWrite
	f.mu.Unlock()
	if closed {
		return 0, ErrPortUnavailable
	}
	if onWrite != nil {
		onWrite(p)
	}
	return len(p), nil
}

// Read returns the next pending chunk delivered by the peer, or (0, nil)
// if none is queued, matching the real Port's non-blocking timeout
// contract precisely enough for single-threaded scripted tests.
func (f *Fake) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, ErrPortUnavailable
	}
	if len(f.rx) == 0 {
		return 0, nil
	}
	chunk := f.rx[0]
	f.rx = f.rx[1:]
	n := copy(p, chunk)
	return n, nil
}

func (f *Fake) FlushTX() error {
	f.mu.Lock()
	f.flushed++
	f.mu.Unlock()
	return nil
}

func (f *Fake) SetBaudRate(rate uint32) error {
	f.mu.Lock()
	f.baudRate = rate
	f.mu.Unlock()
	return nil
}

func (f *Fake) BaudRate() uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.baudRate
}

func (f *Fake) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// FakeFactory is a Factory whose Open returns Err when it is set and
// otherwise hands back the pre-wired Port, for tests that need Open to
// return a specific instance rather than a fresh device.
type FakeFactory struct {
	Port *Fake
	Err  error
}

func (f FakeFactory) Open(Config) (Port, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Port, nil
}
