// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	logqueue "github.com/okian/askdesk/internal/adapters/mq/queue"
	logworker "github.com/okian/askdesk/internal/adapters/mq/worker"
	"github.com/okian/askdesk/internal/adapters/repository"
	"github.com/okian/askdesk/internal/domain/analytics"
	"github.com/okian/askdesk/internal/domain/autocomplete"
	"github.com/okian/askdesk/internal/domain/matching"
	"github.com/okian/askdesk/internal/domain/model"
	"github.com/okian/askdesk/internal/domain/scoring"
	"github.com/okian/askdesk/internal/seed"
	"github.com/okian/askdesk/pkg/logger"
	"github.com/okian/askdesk/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultParallelThreshold = 64
	defaultTokenCacheSize    = 4096
	defaultLogQueueSize      = 10_000
	defaultLogWorkers        = 2
	defaultLogWriteTimeout   = 2 * time.Second
	defaultDrainTimeout      = 10 * time.Second
	defaultMaxQuestionLength = 1000
)

// Service answers questions and manages the knowledge base.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	scorer  *scoring.Scorer
	matcher *matching.Matcher
	index   *autocomplete.Index

	// Interaction log pipeline, created by Start
	logQueue *logqueue.InMemoryQueue
	logPool  *logworker.Pool

	// Configuration
	scoringWorkers    int
	parallelThreshold int
	tokenCacheSize    int
	logQueueSize      int
	logWorkers        int
	logWriteTimeout   time.Duration
	drainTimeout      time.Duration
	maxQuestionLength int
	recentLimit       int
	topLimit          int
	seed              []model.EntryInput
	now               func() time.Time

	// State
	started   bool
	runCancel context.CancelFunc

	// Logging
	logger logger.Logger
}

// New constructs a Service over store.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:             store,
		index:             autocomplete.New(),
		scoringWorkers:    runtime.NumCPU(),
		parallelThreshold: defaultParallelThreshold,
		tokenCacheSize:    defaultTokenCacheSize,
		logQueueSize:      defaultLogQueueSize,
		logWorkers:        defaultLogWorkers,
		logWriteTimeout:   defaultLogWriteTimeout,
		drainTimeout:      defaultDrainTimeout,
		maxQuestionLength: defaultMaxQuestionLength,
		recentLimit:       analytics.DefaultRecentLimit,
		topLimit:          analytics.DefaultTopLimit,
		now:               func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.scorer = scoring.NewScorer(
		scoring.WithWorkers(s.scoringWorkers),
		scoring.WithParallelThreshold(s.parallelThreshold),
		scoring.WithCacheSize(s.tokenCacheSize),
	)
	s.matcher = matching.New(s.scorer)
	return s
}

// Start seeds an empty store when configured, builds the autocomplete
// index and starts the interaction log writers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting askdesk service...")

	entries, err := s.store.Entries(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if len(entries) == 0 && len(s.seed) > 0 {
		n, err := seed.Apply(ctx, s.store, s.seed)
		if err != nil {
			return fmt.Errorf("seed store: %w", err)
		}
		s.logger.Info(ctx, "seeded empty store", logger.Int("entries", n))
		if entries, err = s.store.Entries(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
	}
	s.index.Rebuild(entries)
	metrics.UpdateEntriesTotal(len(entries))

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.runCancel = cancel
	s.logQueue = logqueue.NewInMemoryQueue(logqueue.WithCapacity(s.logQueueSize))
	s.logPool = logworker.NewPool(s.logWorkers, s.logQueue, s.store,
		logworker.WithWriteTimeout(s.logWriteTimeout),
	)
	s.logPool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "askdesk service started",
		logger.Int("entries", len(entries)),
		logger.Int("logWorkers", s.logWorkers),
		logger.Int("logQueueSize", s.logQueueSize),
		logger.Int("scoringWorkers", s.scoringWorkers),
	)
	return nil
}

// Stop drains pending interaction writes and stops the log writers. The
// store stays open; its owner closes it. Asks arriving during the drain
// are answered and their interactions dropped.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	pool, cancelRun := s.logPool, s.runCancel
	s.logQueue = nil
	s.started = false
	s.mu.Unlock()

	ctx := context.Background()
	s.logger.Info(ctx, "stopping askdesk service...")

	drainCtx, cancel := context.WithTimeout(ctx, s.drainTimeout)
	defer cancel()
	if err := pool.Shutdown(drainCtx); err != nil {
		s.logger.Warn(ctx, "interaction log not fully drained", logger.Error(err))
	}
	cancelRun()

	s.logger.Info(ctx, "askdesk service stopped",
		logger.Int64("interactionsWritten", pool.Written()),
		logger.Int64("interactionsFailed", pool.Failed()),
	)
}

// Ask matches question against the current knowledge base. Validation
// failures and store read failures are returned as errors; a missing
// match is a normal outcome. The interaction is logged without waiting.
func (s *Service) Ask(ctx context.Context, question string) (matching.Outcome, error) {
	start := time.Now()
	defer func() {
		metrics.RecordAskLatency(float64(time.Since(start).Milliseconds()))
	}()

	question = strings.TrimSpace(question)
	if question == "" {
		metrics.RecordAsk(metrics.OutcomeRejected)
		return matching.Outcome{}, ErrEmptyQuestion
	}
	if utf8.RuneCountInString(question) > s.maxQuestionLength {
		metrics.RecordAsk(metrics.OutcomeRejected)
		return matching.Outcome{}, fmt.Errorf("%w: limit is %d characters", ErrQuestionTooLong, s.maxQuestionLength)
	}

	entries, err := s.store.Entries(ctx)
	if err != nil {
		metrics.RecordErrorByComponent("service", "store_read")
		s.logger.Error(ctx, "failed to read entries", logger.Error(err))
		return matching.Outcome{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	out, err := s.matcher.Match(ctx, question, entries)
	if err != nil {
		return matching.Outcome{}, fmt.Errorf("match question: %w", err)
	}

	metrics.RecordCandidatesScored(len(out.Candidates))
	switch out.Status {
	case matching.StatusMatched:
		metrics.RecordAsk(metrics.OutcomeMatched)
		metrics.RecordBestConfidence(out.Best.Score)
	case matching.StatusNoMatch:
		metrics.RecordAsk(metrics.OutcomeNoMatch)
		metrics.RecordBestConfidence(out.Best.Score)
	default:
		metrics.RecordAsk(metrics.OutcomeEmpty)
	}

	if rec, ok := out.Interaction(question, s.now()); ok {
		s.logInteraction(ctx, rec)
	}

	s.logger.Debug(ctx, "answered question",
		logger.String("status", out.Status.String()),
		logger.Float64("score", out.Best.Score),
		logger.Int("candidates", len(out.Candidates)),
	)
	return out, nil
}

// logInteraction hands rec to the log writers without blocking. Drops are
// counted by the queue and logged here.
func (s *Service) logInteraction(ctx context.Context, rec model.InteractionRecord) {
	s.mu.RLock()
	q := s.logQueue
	s.mu.RUnlock()

	if q == nil {
		metrics.RecordInteractionDropped()
		s.logger.Warn(ctx, "interaction dropped: service not started")
		return
	}
	if err := q.Enqueue(ctx, rec); err != nil {
		s.logger.Warn(ctx, "interaction dropped", logger.Error(err))
	}
}

// Analytics summarizes logged interactions.
func (s *Service) Analytics(ctx context.Context) (analytics.Summary, error) {
	start := time.Now()
	defer func() {
		metrics.RecordAnalyticsLatency(float64(time.Since(start).Milliseconds()))
	}()

	sum, err := analytics.Summarize(ctx, s.store, s.recentLimit, s.topLimit)
	if err != nil {
		metrics.RecordErrorByComponent("service", "analytics")
		s.logger.Error(ctx, "failed to summarize interactions", logger.Error(err))
		return analytics.Summary{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return sum, nil
}

// ListEntries lists entries newest first, optionally filtered by category.
func (s *Service) ListEntries(ctx context.Context, category string) ([]model.Entry, error) {
	return s.store.ListEntries(ctx, strings.TrimSpace(category))
}

// Categories returns the distinct entry categories.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.store.Categories(ctx)
}

// Entry returns one entry.
func (s *Service) Entry(ctx context.Context, id int64) (model.Entry, error) {
	return s.store.Entry(ctx, id)
}

// CreateEntry validates and stores a new entry.
func (s *Service) CreateEntry(ctx context.Context, in model.EntryInput) (model.Entry, error) {
	e, err := s.store.CreateEntry(ctx, in)
	if err != nil {
		return model.Entry{}, err
	}
	s.refreshIndex(ctx)
	s.logger.Info(ctx, "entry created", logger.Int64("id", e.ID))
	return e, nil
}

// UpdateEntry replaces the writable fields of an entry.
func (s *Service) UpdateEntry(ctx context.Context, id int64, in model.EntryInput) (model.Entry, error) {
	e, err := s.store.UpdateEntry(ctx, id, in)
	if err != nil {
		return model.Entry{}, err
	}
	s.refreshIndex(ctx)
	s.logger.Info(ctx, "entry updated", logger.Int64("id", id))
	return e, nil
}

// DeleteEntry removes an entry. Logged interactions are kept.
func (s *Service) DeleteEntry(ctx context.Context, id int64) error {
	if err := s.store.DeleteEntry(ctx, id); err != nil {
		return err
	}
	s.refreshIndex(ctx)
	s.logger.Info(ctx, "entry deleted", logger.Int64("id", id))
	return nil
}

// refreshIndex rebuilds the autocomplete index after a mutation. A failed
// read leaves the previous index in place.
func (s *Service) refreshIndex(ctx context.Context) {
	entries, err := s.store.Entries(ctx)
	if err != nil {
		s.logger.Warn(ctx, "autocomplete index not refreshed", logger.Error(err))
		return
	}
	s.index.Rebuild(entries)
	metrics.UpdateEntriesTotal(len(entries))
}

// Suggest completes a partially typed question.
func (s *Service) Suggest(ctx context.Context, prefix string, limit int) []autocomplete.Completion {
	return s.index.Complete(prefix, limit)
}

// Seed creates inputs in the store. Unless force is set, nothing is
// created when the store already holds entries.
func (s *Service) Seed(ctx context.Context, inputs []model.EntryInput, force bool) (int, error) {
	if !force {
		entries, err := s.store.Entries(ctx)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		if len(entries) > 0 {
			return 0, nil
		}
	}
	n, err := seed.Apply(ctx, s.store, inputs)
	s.refreshIndex(ctx)
	return n, err
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":        s.started,
		"logWorkers":     s.logWorkers,
		"logQueueSize":   s.logQueueSize,
		"scoringWorkers": s.scoringWorkers,
		"entries":        s.index.Len(),
		"tokenCacheLen":  s.scorer.CacheLen(),
	}

	if s.started {
		queueLen := s.logQueue.Len(ctx)
		stats["logQueueLength"] = queueLen
		stats["interactionsWritten"] = s.logPool.Written()
		stats["interactionsFailed"] = s.logPool.Failed()

		metrics.UpdateLogQueueSize(queueLen)
		metrics.UpdateEntriesTotal(s.index.Len())
	}

	return stats
}
