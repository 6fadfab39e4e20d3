// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package transfer implements the per-file sender/receiver engines and
// the batch (directory) wrappers around them, per spec §4.8-§4.12.
package transfer

import "errors"

var (
	ErrSizeMismatch   = errors.New("transfer: final size does not match declared size")
	ErrTransferFailed = errors.New("transfer: transfer failed")
	ErrTimeout        = errors.New("transfer: timed out waiting for peer")
	ErrAddrOutOfRange = errors.New("transfer: requested address beyond file size")
)
