// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transfer

import (
	"context"
	"time"

	"code.hybscloud.com/serialfile/support"
	"code.hybscloud.com/serialfile/wire"
)

// awaitFrame polls dec until match returns true for a decoded frame or
// the deadline elapses. Framing errors (checksum mismatch, re-sync) are
// transient and simply retried; only a Sleep/context error aborts early.
func awaitFrame(ctx context.Context, dec *wire.Decoder, clock support.Clock, pollInterval time.Duration, deadline time.Time, match func(wire.Frame) bool) (wire.Frame, bool, error) {
	for clock.Now().Before(deadline) {
		f, err := dec.Next()
		if err != nil {
			if sleepErr := clock.Sleep(ctx, pollInterval); sleepErr != nil {
				return wire.Frame{}, false, sleepErr
			}
			continue
		}
		if match(f) {
			return f, true, nil
		}
	}
	return wire.Frame{}, false, nil
}
