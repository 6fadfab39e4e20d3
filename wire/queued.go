// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wire

import "sync/atomic"

// QueuedDecoder runs a dedicated goroutine that parses frames from the
// byte stream into a bounded queue, per spec §5's optional I/O helper. At
// most one QueuedDecoder may read a given source at a time. On queue
// overflow the oldest undelivered frame is dropped and Dropped is
// incremented; the protocol goroutine must read exclusively from Frames.
type QueuedDecoder struct {
	dec *Decoder

	Frames chan Frame
	Errs   chan error

	dropped atomic.Int64
	done    chan struct{}
}

// NewQueuedDecoder starts reading frames from dec in a background
// goroutine, buffering up to capacity frames.
func NewQueuedDecoder(dec *Decoder, capacity int) *QueuedDecoder {
	if capacity <= 0 {
		capacity = 100
	}
	q := &QueuedDecoder{
		dec:    dec,
		Frames: make(chan Frame, capacity),
		Errs:   make(chan error, 1),
		done:   make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *QueuedDecoder) run() {
	for {
		f, err := q.dec.Next()
		if err != nil {
			select {
			case q.Errs <- err:
			default:
			}
			close(q.Frames)
			return
		}
		select {
		case q.Frames <- f:
		default:
			// Queue full: drop the oldest queued frame to make room, per
			// the overflow policy in spec §5.
			select {
			case <-q.Frames:
				q.dropped.Add(1)
			default:
			}
			select {
			case q.Frames <- f:
			default:
				q.dropped.Add(1)
			}
		}
		select {
		case <-q.done:
			close(q.Frames)
			return
		default:
		}
	}
}

// Dropped returns the number of frames discarded due to queue overflow.
func (q *QueuedDecoder) Dropped() int64 {
	return q.dropped.Load()
}

// Stop signals the reader goroutine to exit after its next frame (or
// error) and closes the frame queue. The protocol thread should stop
// reading from Frames once it observes the channel closed.
func (q *QueuedDecoder) Stop() {
	close(q.done)
}
