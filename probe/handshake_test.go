// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package probe

import (
	"context"
	"testing"
	"time"

	"code.hybscloud.com/serialfile/serialport"
	"code.hybscloud.com/serialfile/support"
	"code.hybscloud.com/serialfile/wire"
)

func newHandshakePorts() (sender, receiver *serialport.Fake) {
	sender = serialport.NewFake(115200)
	receiver = serialport.NewFake(115200)
	serialport.Pipe(sender, receiver)
	return sender, receiver
}

func fastOptions() []Option {
	return []Option{
		WithProbeTiming(5*time.Millisecond, 200*time.Millisecond),
		WithPollInterval(time.Millisecond),
	}
}

// TestHandshakeReachesReadyOnBothSides drives a full sender/receiver
// negotiation concurrently and asserts both sides converge on the same
// session, rate, and chunk size (spec §4.7).
func TestHandshakeReachesReadyOnBothSides(t *testing.T) {
	senderPort, receiverPort := newHandshakePorts()

	sender := NewSender(senderPort, support.RealClock{}, support.NewFakeRNG([]uint32{1, 2, 3}, nil), support.NopLogger{},
		[]uint32{921600, 460800}, fastOptions()...)
	receiver := NewReceiver(receiverPort, support.RealClock{}, support.NopLogger{}, []uint32{460800, 921600}, fastOptions()...)

	type recvResult struct {
		res Result
		err error
	}
	recvCh := make(chan recvResult, 1)
	go func() {
		res, err := receiver.Run(context.Background())
		recvCh <- recvResult{res, err}
	}()

	params := SessionParams{
		Mode:          ModeSingle,
		FileCount:     1,
		TotalSize:     1024,
		RootPath:      "report.csv",
		ChunkSizeFunc: func(uint32) uint32 { return 2048 },
	}
	sendRes, sendErr := sender.Run(context.Background(), params)
	if sendErr != nil {
		t.Fatalf("Sender.Run: %v", sendErr)
	}

	recv := <-recvCh
	if recv.err != nil {
		t.Fatalf("Receiver.Run: %v", recv.err)
	}

	if sendRes.SessionID != recv.res.SessionID {
		t.Fatalf("session id mismatch: sender=%08x receiver=%08x", sendRes.SessionID, recv.res.SessionID)
	}
	if sendRes.SelectedBaudrate != 921600 {
		t.Fatalf("selected rate = %d, want 921600 (sender's first priority present in receiver's list)", sendRes.SelectedBaudrate)
	}
	if recv.res.SelectedBaudrate != sendRes.SelectedBaudrate {
		t.Fatalf("rate mismatch: sender=%d receiver=%d", sendRes.SelectedBaudrate, recv.res.SelectedBaudrate)
	}
	if sendRes.NegotiatedChunkSize != recv.res.NegotiatedChunkSize {
		t.Fatalf("chunk size mismatch: sender=%d receiver=%d", sendRes.NegotiatedChunkSize, recv.res.NegotiatedChunkSize)
	}
	if sender.State() != Ready || receiver.State() != Ready {
		t.Fatalf("states = sender=%v receiver=%v, want both Ready", sender.State(), receiver.State())
	}
	if senderPort.BaudRate() != 921600 || receiverPort.BaudRate() != 921600 {
		t.Fatalf("ports did not switch baud rate: sender=%d receiver=%d", senderPort.BaudRate(), receiverPort.BaudRate())
	}
}

// TestHandshakeFailsWithNoCommonBaudrate covers the case where the two
// peers' supported-rate lists share nothing in common.
func TestHandshakeFailsWithNoCommonBaudrate(t *testing.T) {
	senderPort, receiverPort := newHandshakePorts()

	sender := NewSender(senderPort, support.RealClock{}, support.NewFakeRNG([]uint32{1, 2, 3}, nil), support.NopLogger{},
		[]uint32{115200}, fastOptions()...)
	receiver := NewReceiver(receiverPort, support.RealClock{}, support.NopLogger{}, []uint32{921600}, fastOptions()...)

	go func() { _, _ = receiver.Run(context.Background()) }()

	params := SessionParams{Mode: ModeSingle, ChunkSizeFunc: func(uint32) uint32 { return 1024 }}
	_, err := sender.Run(context.Background(), params)
	if err != ErrNoCommonBaudrate {
		t.Fatalf("Sender.Run err = %v, want ErrNoCommonBaudrate", err)
	}
	if sender.State() != Failed {
		t.Fatalf("sender state = %v, want Failed", sender.State())
	}
}

// TestReceiverRejectsUnsupportedSelectedBaudrate drives the receiver
// alone against a scripted CAPABILITY_NEGO naming a rate it does not
// support.
func TestReceiverRejectsUnsupportedSelectedBaudrate(t *testing.T) {
	sutPort, driver := newHandshakePorts()
	receiver := NewReceiver(sutPort, support.RealClock{}, support.NopLogger{}, []uint32{115200}, fastOptions()...)

	req := Request{DeviceID: 1, ProtocolVersion: ProtocolVersion, RandomSeed: 7}
	_, _ = driver.Write(wire.Pack(wire.ProbeRequest, req.Marshal()))

	nego := CapabilityNego{SessionID: 0x10000001, Mode: ModeSingle, SelectedBaudrate: 921600, ChunkSize: 1024, RootPath: "f"}
	go func() {
		time.Sleep(2 * time.Millisecond)
		_, _ = driver.Write(wire.Pack(wire.CapabilityNego, nego.Marshal()))
	}()

	_, err := receiver.Run(context.Background())
	if err != ErrNoCommonBaudrate {
		t.Fatalf("Receiver.Run err = %v, want ErrNoCommonBaudrate", err)
	}
}

// TestReceiverReplaysCachedResponseForDuplicateProbeRequest covers the
// idempotent-replay rule (spec.md Open Question §9.4): a PROBE_REQUEST
// carrying a previously answered random_seed gets back the exact cached
// bytes without a second state transition.
func TestReceiverReplaysCachedResponseForDuplicateProbeRequest(t *testing.T) {
	sutPort, driver := newHandshakePorts()
	receiver := NewReceiver(sutPort, support.RealClock{}, support.NopLogger{}, []uint32{115200}, fastOptions()...)
	dec := wire.NewDecoder(driver)

	req := Request{DeviceID: 1, ProtocolVersion: ProtocolVersion, RandomSeed: 42}
	done := make(chan struct{})
	go func() {
		_, _ = receiver.Run(context.Background())
		close(done)
	}()

	_, _ = driver.Write(wire.Pack(wire.ProbeRequest, req.Marshal()))
	first, err := dec.Next()
	if err != nil {
		t.Fatalf("decode first response: %v", err)
	}
	if receiver.State() != Responded {
		t.Fatalf("state after first PROBE_REQUEST = %v, want Responded", receiver.State())
	}

	// Replay the exact same request: must get byte-identical bytes back,
	// and the state machine must not re-transition.
	_, _ = driver.Write(wire.Pack(wire.ProbeRequest, req.Marshal()))
	second, err := dec.Next()
	if err != nil {
		t.Fatalf("decode replayed response: %v", err)
	}
	if string(first.Payload) != string(second.Payload) {
		t.Fatalf("replayed response payload differs from the cached one")
	}

	// Unblock Run so the goroutine exits cleanly: supply a capability
	// negotiation the receiver accepts, then a switch.
	nego := CapabilityNego{SessionID: 0x10000002, Mode: ModeSingle, SelectedBaudrate: 115200, ChunkSize: 1024, RootPath: "f"}
	_, _ = driver.Write(wire.Pack(wire.CapabilityNego, nego.Marshal()))
	ackFrame, err := dec.Next()
	if err != nil || ackFrame.Cmd != wire.CapabilityAck {
		t.Fatalf("capability ack: %v %v", ackFrame.Cmd, err)
	}
	sw := SwitchBaudrate{SessionID: nego.SessionID, NewBaudrate: nego.SelectedBaudrate}
	_, _ = driver.Write(wire.Pack(wire.SwitchBaudrate, sw.Marshal()))
	<-done
}
