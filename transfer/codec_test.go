// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transfer

import "testing"

func TestFileSizeRoundTrip(t *testing.T) {
	b := packFileSize(123456)
	got, ok := unpackFileSize(b)
	if !ok || got != 123456 {
		t.Fatalf("unpackFileSize = %d, %v", got, ok)
	}
	if _, ok := unpackFileSize([]byte{1, 2, 3}); ok {
		t.Fatalf("unpackFileSize should reject a short payload")
	}
}

func TestRequestDataRoundTrip(t *testing.T) {
	r := requestData{Addr: 0xdeadbeef, Len: 512}
	got, ok := unmarshalRequestData(r.marshal())
	if !ok || got != r {
		t.Fatalf("unmarshalRequestData = %+v, %v, want %+v", got, ok, r)
	}
	if _, ok := unmarshalRequestData([]byte{1, 2, 3}); ok {
		t.Fatalf("unmarshalRequestData should reject a short payload")
	}
}

func TestSendDataRoundTrip(t *testing.T) {
	seq, payload, ok := unpackSendData(packSendData(7, []byte("payload")))
	if !ok || seq != 7 || string(payload) != "payload" {
		t.Fatalf("unpackSendData = %d %q %v", seq, payload, ok)
	}
	if _, _, ok := unpackSendData([]byte{1}); ok {
		t.Fatalf("unpackSendData should reject a payload shorter than the seq field")
	}
}

func TestSendDataRoundTripEmptyPayload(t *testing.T) {
	seq, payload, ok := unpackSendData(packSendData(3, nil))
	if !ok || seq != 3 || len(payload) != 0 {
		t.Fatalf("unpackSendData(empty) = %d %q %v", seq, payload, ok)
	}
}

func TestAdvisoryNackRoundTrip(t *testing.T) {
	seq, chunkSize, ok := unpackAdvisoryNack(packAdvisoryNack(9, 2048))
	if !ok || seq != 9 || chunkSize != 2048 {
		t.Fatalf("unpackAdvisoryNack = %d %d %v", seq, chunkSize, ok)
	}
	if _, _, ok := unpackAdvisoryNack(packSeqOnly(9)); ok {
		t.Fatalf("unpackAdvisoryNack should reject a 2-byte seq-only payload")
	}
}

func TestSeqOnlyRoundTrip(t *testing.T) {
	seq, ok := unpackSeqOnly(packSeqOnly(65535))
	if !ok || seq != 65535 {
		t.Fatalf("unpackSeqOnly = %d %v", seq, ok)
	}
	if _, ok := unpackSeqOnly(packAdvisoryNack(1, 2)); ok {
		t.Fatalf("unpackSeqOnly should reject a 4-byte advisory payload")
	}
}

func TestFileNameRoundTrip(t *testing.T) {
	payload, truncated := packFileName("report.csv", 128)
	if truncated {
		t.Fatalf("packFileName reported truncation for a name within the limit")
	}
	name, ok := unpackFileName(payload)
	if !ok || name != "report.csv" {
		t.Fatalf("unpackFileName = %q %v", name, ok)
	}
}

func TestFileNameRoundTripEmptySignalsEndOfBatch(t *testing.T) {
	payload, truncated := packFileName("", 128)
	if truncated {
		t.Fatalf("packFileName reported truncation for an empty name")
	}
	name, ok := unpackFileName(payload)
	if !ok || name != "" {
		t.Fatalf("unpackFileName(empty) = %q %v", name, ok)
	}
}

func TestFileNameTruncatesToMaxBytes(t *testing.T) {
	payload, truncated := packFileName("this-name-is-much-too-long-for-the-limit", 8)
	if !truncated {
		t.Fatalf("packFileName should report truncation when the name exceeds maxBytes")
	}
	name, ok := unpackFileName(payload)
	if !ok || len(name) != 8 {
		t.Fatalf("unpackFileName truncated = %q (len %d), want len 8", name, len(name))
	}
}

func TestIsSizeProbe(t *testing.T) {
	if !isSizeProbe(sizeProbePayload) {
		t.Fatalf("isSizeProbe(sizeProbePayload) = false")
	}
	if isSizeProbe([]byte{0x55}) {
		t.Fatalf("isSizeProbe should reject a short payload")
	}
	if isSizeProbe([]byte{0xAA, 0x55}) {
		t.Fatalf("isSizeProbe should reject the wrong magic")
	}
}
