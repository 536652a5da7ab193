package repository

import (
	"errors"
	"time"

	"github.com/okian/askdesk/pkg/metrics"
)

// Default store configuration constants.
const (
	defaultBusyTimeout = 5 * time.Second
	defaultOpenTimeout = time.Second
)

// settings is shared by every store implementation.
type settings struct {
	now         func() time.Time
	busyTimeout time.Duration
	openTimeout time.Duration
}

func newSettings(opts []Option) settings {
	s := settings{
		now:         func() time.Time { return time.Now().UTC() },
		busyTimeout: defaultBusyTimeout,
		openTimeout: defaultOpenTimeout,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Option applies a configuration option to a store.
type Option func(*settings)

// WithClock overrides the clock used for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithBusyTimeout sets how long SQLite waits on a locked database.
func WithBusyTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.busyTimeout = d
		}
	}
}

// WithOpenTimeout sets how long bolt waits for its file lock.
func WithOpenTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.openTimeout = d
		}
	}
}

// observe records latency and failures for a store operation.
func observe(op string, start time.Time, err error) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Milliseconds()))
	if err != nil && !errors.Is(err, ErrNotFound) {
		metrics.RecordStoreError(op)
	}
}
