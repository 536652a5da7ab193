package service

import (
	"time"

	"github.com/okian/askdesk/internal/domain/model"
	"github.com/okian/askdesk/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithScoringWorkers bounds the goroutines used to score one snapshot.
func WithScoringWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.scoringWorkers = n
		}
	}
}

// WithParallelThreshold sets the snapshot size at which scoring fans out.
func WithParallelThreshold(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.parallelThreshold = n
		}
	}
}

// WithTokenCacheSize sets the capacity of the entry token cache.
func WithTokenCacheSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.tokenCacheSize = n
		}
	}
}

// WithLogQueueSize sets the capacity of the interaction log queue.
func WithLogQueueSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.logQueueSize = n
		}
	}
}

// WithLogWorkers sets the number of interaction log writers.
func WithLogWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.logWorkers = n
		}
	}
}

// WithLogWriteTimeout bounds each detached interaction write.
func WithLogWriteTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.logWriteTimeout = d
		}
	}
}

// WithDrainTimeout bounds how long Stop waits for pending log writes.
func WithDrainTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.drainTimeout = d
		}
	}
}

// WithMaxQuestionLength caps accepted questions, in runes.
func WithMaxQuestionLength(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxQuestionLength = n
		}
	}
}

// WithAnalyticsLimits sets the sizes of the recent and top-entry lists.
func WithAnalyticsLimits(recent, top int) Option {
	return func(s *Service) {
		if recent > 0 {
			s.recentLimit = recent
		}
		if top > 0 {
			s.topLimit = top
		}
	}
}

// WithSeed sets the entries created by Start when the store is empty.
// Passing nil disables seeding.
func WithSeed(entries []model.EntryInput) Option {
	return func(s *Service) {
		s.seed = entries
	}
}

// WithClock overrides the clock used for interaction timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
