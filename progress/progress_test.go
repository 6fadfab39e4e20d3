// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package progress_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"code.hybscloud.com/serialfile/progress"
)

func TestEMATracksTransferredBytes(t *testing.T) {
	e := progress.NewEMA()
	start := time.Unix(0, 0)
	e.Advance(100, start)
	e.Advance(200, start.Add(time.Second))
	if got := e.TransferredBytes(); got != 300 {
		t.Fatalf("TransferredBytes() = %d, want 300", got)
	}
}

func TestEMARateConverges(t *testing.T) {
	e := progress.NewEMA()
	start := time.Unix(0, 0)
	e.Advance(0, start)
	for i := 1; i <= 50; i++ {
		e.Advance(1000, start.Add(time.Duration(i)*time.Second))
	}
	rate := e.RateBytesPerSec()
	if rate < 900 || rate > 1100 {
		t.Fatalf("RateBytesPerSec() = %v, want close to 1000", rate)
	}
}

func TestEMAFirstAdvanceHasNoRate(t *testing.T) {
	e := progress.NewEMA()
	e.Advance(500, time.Unix(0, 0))
	if got := e.RateBytesPerSec(); got != 0 {
		t.Fatalf("RateBytesPerSec() after first Advance = %v, want 0", got)
	}
}

func TestPrometheusSinkCollectsBothMetrics(t *testing.T) {
	s := progress.NewPrometheusSink("0x10000001", progress.DirectionSend)
	s.Advance(100, time.Unix(0, 0))
	s.Advance(100, time.Unix(1, 0))

	descs := make(chan *prometheus.Desc, 2)
	s.Describe(descs)
	close(descs)
	var descCount int
	for range descs {
		descCount++
	}
	if descCount != 2 {
		t.Fatalf("Describe emitted %d descs, want 2", descCount)
	}

	metrics := make(chan prometheus.Metric, 2)
	s.Collect(metrics)
	close(metrics)
	var metricCount int
	for range metrics {
		metricCount++
	}
	if metricCount != 2 {
		t.Fatalf("Collect emitted %d metrics, want 2", metricCount)
	}
}
