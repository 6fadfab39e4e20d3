// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package wire implements the frame codec of the serial file-transfer
// protocol: a command byte, a little-endian length, a payload of exactly
// that length, and a little-endian checksum trailer.
package wire

import "errors"

var (
	// ErrFrameTooShort reports that a byte slice is too short to hold even
	// an empty frame (5 bytes: cmd + len + checksum).
	ErrFrameTooShort = errors.New("wire: frame too short")

	// ErrLengthMismatch reports that the declared payload length does not
	// match the number of bytes actually available.
	ErrLengthMismatch = errors.New("wire: length mismatch")

	// ErrChecksumMismatch reports that the recomputed checksum does not
	// equal the trailing checksum.
	ErrChecksumMismatch = errors.New("wire: checksum mismatch")

	// ErrTooLong reports that a payload exceeds the configured read limit.
	ErrTooLong = errors.New("wire: payload too long")

	// ErrUnknownCommand reports a command byte outside the defined tag space.
	ErrUnknownCommand = errors.New("wire: unknown command")
)
