package probe

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/askdesk/pkg/logger"
)

// workerChannelMultiplier sizes the job channel relative to the workers.
const workerChannelMultiplier = 2

// Run executes a probe against cfg.BaseURL.
func Run(ctx context.Context, cfg Config) (Report, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return Report{}, err
	}
	log := logger.Get().Named("probe")

	log.Info(ctx, "starting askdesk probe",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("questions", cfg.Questions),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout))

	c := newClient(cfg.BaseURL, cfg.Timeout)
	if err := c.health(ctx); err != nil {
		return Report{}, fmt.Errorf("service health check failed: %w", err)
	}

	var (
		found, notFound, failed atomic.Int64
		mu                      sync.Mutex
		latencies               = make([]time.Duration, 0, cfg.Questions)
	)

	jobs := make(chan string, cfg.Workers*workerChannelMultiplier)
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for q := range jobs {
				t0 := time.Now()
				res, err := c.ask(ctx, q)
				elapsed := time.Since(t0)

				switch res {
				case resultFound:
					found.Add(1)
				case resultNotFound:
					notFound.Add(1)
				default:
					failed.Add(1)
					if cfg.Verbose {
						log.Warn(ctx, "ask failed", logger.String("question", q), logger.Error(err))
					}
					continue
				}
				mu.Lock()
				latencies = append(latencies, elapsed)
				mu.Unlock()
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := 0; i < cfg.Questions; i++ {
			select {
			case <-ctx.Done():
				return
			case jobs <- question(cfg.Corpus, i):
			}
		}
	}()

	wg.Wait()

	rep := Report{
		Found:    int(found.Load()),
		NotFound: int(notFound.Load()),
		Failed:   int(failed.Load()),
		Duration: time.Since(start),
	}
	rep.Sent = rep.Found + rep.NotFound + rep.Failed
	summarizeLatencies(&rep, latencies)

	log.Info(ctx, "probe completed",
		logger.Int("sent", rep.Sent),
		logger.Int("found", rep.Found),
		logger.Int("notFound", rep.NotFound),
		logger.Int("failed", rep.Failed),
		logger.Duration("p50", rep.P50),
		logger.Duration("p99", rep.P99),
		logger.Float64("requestsPerSecond", rep.Rate()))

	if err := ctx.Err(); err != nil {
		return rep, fmt.Errorf("probe interrupted: %w", err)
	}
	return rep, nil
}

func summarizeLatencies(rep *Report, latencies []time.Duration) {
	if len(latencies) == 0 {
		return
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	rep.P50 = percentile(latencies, 50)
	rep.P90 = percentile(latencies, 90)
	rep.P99 = percentile(latencies, 99)
	rep.Max = latencies[len(latencies)-1]
}

// percentile uses the nearest-rank method on sorted samples.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}
