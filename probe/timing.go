// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package probe

import "time"

func msToDuration(ms uint16) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
