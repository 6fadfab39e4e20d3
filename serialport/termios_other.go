//go:build !linux

// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package serialport

// Open is unavailable outside Linux: this revision grounds its custom
// baud-rate support entirely on the termios2/BOTHER technique, which is
// a Linux-specific ioctl extension. Other platforms must inject a
// Factory backed by Fake or a platform-specific implementation of their
// own; they are outside this revision's scope.
func Open(cfg Config) (Port, error) {
	return nil, ErrPortUnavailable
}
