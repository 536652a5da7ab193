// Package probe drives concurrent load against a running askdesk server's
// ask endpoint and reports outcome counts and latency percentiles.
package probe

import (
	"errors"
	"time"
)

// Defaults used when a Config field is zero.
const (
	DefaultBaseURL   = "http://localhost:9080"
	DefaultQuestions = 1000
	DefaultWorkers   = 8
	DefaultTimeout   = 10 * time.Second
)

// ErrInvalidConfig is returned for unusable probe settings.
var ErrInvalidConfig = errors.New("invalid probe config")

// Config holds configuration for a probe run.
type Config struct {
	BaseURL   string        // Base URL of the service
	Questions int           // Number of questions to send
	Workers   int           // Number of concurrent senders
	Timeout   time.Duration // Per-request timeout
	Corpus    []string      // Questions to cycle through; empty uses DefaultCorpus
	Verbose   bool          // Log every failed request
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Questions == 0 {
		c.Questions = DefaultQuestions
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if len(c.Corpus) == 0 {
		c.Corpus = DefaultCorpus
	}
	return c
}

func (c Config) validate() error {
	switch {
	case c.Questions < 0:
		return errors.Join(ErrInvalidConfig, errors.New("questions must be positive"))
	case c.Workers < 0:
		return errors.Join(ErrInvalidConfig, errors.New("workers must be positive"))
	case c.Timeout < 0:
		return errors.Join(ErrInvalidConfig, errors.New("timeout must be positive"))
	}
	return nil
}

// Report holds the outcome of a probe run.
type Report struct {
	Sent     int           `json:"sent"`
	Found    int           `json:"found"`
	NotFound int           `json:"notFound"`
	Failed   int           `json:"failed"`
	P50      time.Duration `json:"p50"`
	P90      time.Duration `json:"p90"`
	P99      time.Duration `json:"p99"`
	Max      time.Duration `json:"max"`
	Duration time.Duration `json:"duration"`
}

// Rate is the number of requests completed per second.
func (r Report) Rate() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Sent) / r.Duration.Seconds()
}
