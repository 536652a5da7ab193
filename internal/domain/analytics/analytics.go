// Package analytics aggregates logged interactions into a summary.
package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/okian/askdesk/internal/domain/model"
)

// Default list sizes for a summary.
const (
	DefaultRecentLimit = 10
	DefaultTopLimit    = 10
)

// Source is the read side a summary is computed from. The five reads are
// independent of each other.
type Source interface {
	CountInteractions(ctx context.Context) (int, error)
	CountMatchedInteractions(ctx context.Context) (int, error)
	AverageMatchedConfidence(ctx context.Context) (float64, bool, error)
	RecentInteractions(ctx context.Context, n int) ([]model.InteractionRecord, error)
	TopEntries(ctx context.Context, n int) ([]model.EntryHits, error)
}

// Summary is the analytics view returned to administrators.
type Summary struct {
	TotalInteractions   int                       `json:"totalInteractions"`
	MatchedInteractions int                       `json:"matchedInteractions"`
	MatchRatePercent    int                       `json:"matchRatePercent"`
	AverageConfidence   int                       `json:"averageConfidence"`
	Recent              []model.InteractionRecord `json:"recentInteractions"`
	TopEntries          []model.EntryHits         `json:"topEntries"`
}

// Summarize runs the five reads concurrently and joins them. Any failed
// read fails the whole summary.
func Summarize(ctx context.Context, src Source, recentLimit, topLimit int) (Summary, error) {
	if recentLimit <= 0 {
		recentLimit = DefaultRecentLimit
	}
	if topLimit <= 0 {
		topLimit = DefaultTopLimit
	}

	var (
		total, matched int
		avg            float64
		hasAvg         bool
		recent         []model.InteractionRecord
		top            []model.EntryHits
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		total, err = src.CountInteractions(gctx)
		return wrap("count interactions", err)
	})
	g.Go(func() (err error) {
		matched, err = src.CountMatchedInteractions(gctx)
		return wrap("count matched interactions", err)
	})
	g.Go(func() (err error) {
		avg, hasAvg, err = src.AverageMatchedConfidence(gctx)
		return wrap("average confidence", err)
	})
	g.Go(func() (err error) {
		recent, err = src.RecentInteractions(gctx, recentLimit)
		return wrap("recent interactions", err)
	})
	g.Go(func() (err error) {
		top, err = src.TopEntries(gctx, topLimit)
		return wrap("top entries", err)
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	s := Summary{
		TotalInteractions:   total,
		MatchedInteractions: matched,
		MatchRatePercent:    MatchRate(matched, total),
		Recent:              recent,
		TopEntries:          top,
	}
	if hasAvg {
		s.AverageConfidence = int(math.Round(avg))
	}
	if s.Recent == nil {
		s.Recent = []model.InteractionRecord{}
	}
	if s.TopEntries == nil {
		s.TopEntries = []model.EntryHits{}
	}
	return s, nil
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// MatchRate is matched/total as a rounded percentage, zero when total is 0.
func MatchRate(matched, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(matched) / float64(total) * 100))
}

// AverageMatched averages the confidence of matched records only. The bool
// is false when no record matched.
func AverageMatched(records []model.InteractionRecord) (float64, bool) {
	sum, n := 0.0, 0
	for _, r := range records {
		if r.Matched() {
			sum += r.ConfidenceScore
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// Recent returns the n newest records, newest first. Records with equal
// timestamps are ordered by descending id. The input is not modified.
func Recent(records []model.InteractionRecord, n int) []model.InteractionRecord {
	out := make([]model.InteractionRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID > out[j].ID
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// RankEntries counts matched interactions per entry and returns up to n
// entries by descending hits, then ascending id. Entries without hits are
// included with zero.
func RankEntries(entries []model.Entry, records []model.InteractionRecord, n int) []model.EntryHits {
	hits := make(map[int64]int, len(entries))
	for _, r := range records {
		if r.MatchedEntryID != nil {
			hits[*r.MatchedEntryID]++
		}
	}

	out := make([]model.EntryHits, 0, len(entries))
	for _, e := range entries {
		out = append(out, model.EntryHits{
			EntryID:  e.ID,
			Question: e.Question,
			Category: e.Category,
			Hits:     hits[e.ID],
		})
	}
	SortEntryHits(out)
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// SortEntryHits orders by descending hits, then ascending id.
func SortEntryHits(h []model.EntryHits) {
	sort.Slice(h, func(i, j int) bool {
		if h[i].Hits != h[j].Hits {
			return h[i].Hits > h[j].Hits
		}
		return h[i].EntryID < h[j].EntryID
	})
}
