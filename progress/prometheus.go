// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package progress

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Direction labels a PrometheusSink's metrics by which way bytes moved.
type Direction string

const (
	DirectionSend    Direction = "send"
	DirectionReceive Direction = "receive"
)

// PrometheusSink implements Sink and prometheus.Collector, exposing a
// transferred-bytes counter and an EMA-smoothed rate gauge labeled by
// session id and direction (spec §4.14).
type PrometheusSink struct {
	mu        sync.Mutex
	sessionID string
	direction Direction
	ema       *EMA

	transferredDesc *prometheus.Desc
	rateDesc        *prometheus.Desc
}

var _ prometheus.Collector = (*PrometheusSink)(nil)
var _ Sink = (*PrometheusSink)(nil)

// NewPrometheusSink returns a PrometheusSink for one session/direction
// pair. Register it with a prometheus.Registry to expose it.
func NewPrometheusSink(sessionID string, direction Direction) *PrometheusSink {
	return &PrometheusSink{
		sessionID: sessionID,
		direction: direction,
		ema:       NewEMA(),
		transferredDesc: prometheus.NewDesc(
			"serialfile_transferred_bytes_total",
			"Cumulative bytes transferred for a session.",
			nil, prometheus.Labels{"session_id": sessionID, "direction": string(direction)},
		),
		rateDesc: prometheus.NewDesc(
			"serialfile_transfer_rate_bytes_per_second",
			"EMA-smoothed transfer rate in bytes per second.",
			nil, prometheus.Labels{"session_id": sessionID, "direction": string(direction)},
		),
	}
}

func (p *PrometheusSink) Advance(bytes int, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ema.Advance(bytes, at)
}

func (p *PrometheusSink) Describe(descs chan<- *prometheus.Desc) {
	descs <- p.transferredDesc
	descs <- p.rateDesc
}

func (p *PrometheusSink) Collect(metrics chan<- prometheus.Metric) {
	p.mu.Lock()
	transferred := p.ema.TransferredBytes()
	rate := p.ema.RateBytesPerSec()
	p.mu.Unlock()

	metrics <- prometheus.MustNewConstMetric(p.transferredDesc, prometheus.CounterValue, float64(transferred))
	metrics <- prometheus.MustNewConstMetric(p.rateDesc, prometheus.GaugeValue, rate)
}
