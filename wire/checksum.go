// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wire

// Checksum computes the 16-bit unsigned additive checksum of payload: the
// sum of all byte values taken mod 2^16. The checksum of an empty slice is
// zero. This is the only integrity primitive in the wire protocol.
func Checksum(payload []byte) uint16 {
	var sum uint32
	for _, b := range payload {
		sum += uint32(b)
	}
	return uint16(sum & 0xFFFF)
}
