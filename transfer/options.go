// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transfer

import "time"

// Options configures the timing and retry behavior of the sender and
// receiver engines (spec §4.8, §4.9, §5).
type Options struct {
	RequestTimeout time.Duration
	RetryCount     int
	RetryBase      time.Duration
	PollInterval   time.Duration
	MaxCacheSize   int64
	NameMaxBytes   int
}

// DefaultMaxCacheSize is the in-memory caching ceiling used when a
// caller has no opinion of its own (spec §4.8's memory policy).
const DefaultMaxCacheSize = 4 * 1024 * 1024

var defaultOptions = Options{
	RequestTimeout: 300 * time.Second,
	RetryCount:     5,
	RetryBase:      200 * time.Millisecond,
	PollInterval:   20 * time.Millisecond,
	MaxCacheSize:   DefaultMaxCacheSize,
	NameMaxBytes:   128,
}

type Option func(*Options)

func WithRequestTimeout(d time.Duration) Option {
	return func(o *Options) { o.RequestTimeout = d }
}

func WithRetry(count int, base time.Duration) Option {
	return func(o *Options) { o.RetryCount = count; o.RetryBase = base }
}

func WithPollInterval(d time.Duration) Option {
	return func(o *Options) { o.PollInterval = d }
}

func WithMaxCacheSize(n int64) Option {
	return func(o *Options) { o.MaxCacheSize = n }
}
