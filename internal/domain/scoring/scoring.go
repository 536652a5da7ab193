// Package scoring computes lexical match scores between a question and
// knowledge-base entries.
package scoring

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/okian/askdesk/internal/domain/model"
	"github.com/okian/askdesk/internal/domain/tokenize"
)

// Points awarded per token pair.
const (
	ExactMatchPoints = 10
	CloseMatchPoints = 7
	LooseMatchPoints = 3

	// closeLengthDelta is the largest length difference for which a
	// substring match still counts as a matched word.
	closeLengthDelta = 2
)

// Default scorer configuration constants.
const (
	defaultCacheSize         = 4096
	defaultParallelThreshold = 64
)

// Result is the outcome of scoring one query against one entry.
// Score is normalized to a percentage of the query's maximum but is not
// clamped: a query token that matches several entry tokens adds up, so
// values above 100 are expected.
type Result struct {
	Score        float64
	MatchedWords int
}

// Candidate is an entry scored against a query. Index is the entry's
// position in the snapshot and drives tie-breaking.
type Candidate struct {
	Entry        model.Entry
	Score        float64
	MatchedWords int
	Index        int
}

// Tokens scores query tokens against entry tokens over the full cross
// product. It has no side effects.
func Tokens(query, fields []string) Result {
	if len(query) == 0 {
		return Result{}
	}

	raw, matched := 0, 0
	for _, u := range query {
		ul := utf8.RuneCountInString(u)
		for _, f := range fields {
			switch {
			case u == f:
				raw += ExactMatchPoints
				matched++
			case strings.Contains(u, f) || strings.Contains(f, u):
				delta := ul - utf8.RuneCountInString(f)
				if delta < 0 {
					delta = -delta
				}
				if delta <= closeLengthDelta {
					raw += CloseMatchPoints
					matched++
				} else {
					raw += LooseMatchPoints
				}
			}
		}
	}

	if raw == 0 {
		return Result{MatchedWords: matched}
	}
	maxPossible := float64(len(query) * ExactMatchPoints)
	return Result{
		Score:        float64(raw) / maxPossible * 100,
		MatchedWords: matched,
	}
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithWorkers bounds the goroutines used by ScoreAll.
func WithWorkers(n int) Option {
	return func(s *Scorer) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithParallelThreshold sets the snapshot size at which ScoreAll fans out.
func WithParallelThreshold(n int) Option {
	return func(s *Scorer) {
		if n > 0 {
			s.parallelThreshold = n
		}
	}
}

// WithCacheSize sets the capacity of the entry token cache.
func WithCacheSize(n int) Option {
	return func(s *Scorer) {
		if n > 0 {
			s.cacheSize = n
		}
	}
}

// Scorer scores questions against snapshots of entries. Entry tokens are
// cached by content, so edits to an entry never reuse stale tokens.
type Scorer struct {
	workers           int
	parallelThreshold int
	cacheSize         int
	cache             *lru.Cache[string, []string]
}

// NewScorer creates a scorer with configuration options.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{
		workers:           runtime.NumCPU(),
		parallelThreshold: defaultParallelThreshold,
		cacheSize:         defaultCacheSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	// lru.New only fails for non-positive sizes, which the options reject.
	s.cache, _ = lru.New[string, []string](s.cacheSize)
	return s
}

// EntryTokens returns the entry's question tokens followed by its keyword
// tokens. The returned slice is shared and must not be modified.
func (s *Scorer) EntryTokens(e model.Entry) []string {
	keywords := e.KeywordField()
	key := e.Question + "\x1f" + keywords
	if tokens, ok := s.cache.Get(key); ok {
		return tokens
	}
	tokens := append(tokenize.EntryQuestion(e.Question), tokenize.Keywords(keywords)...)
	s.cache.Add(key, tokens)
	return tokens
}

// Score scores a raw question against one entry.
func (s *Scorer) Score(question string, e model.Entry) Result {
	return Tokens(tokenize.Query(question), s.EntryTokens(e))
}

// CacheLen reports how many entries have cached tokens.
func (s *Scorer) CacheLen() int {
	return s.cache.Len()
}

// ScoreAll scores a question against every entry of a snapshot and returns
// one candidate per entry, in snapshot order.
func (s *Scorer) ScoreAll(ctx context.Context, question string, entries []model.Entry) ([]Candidate, error) {
	query := tokenize.Query(question)
	out := make([]Candidate, len(entries))

	scoreRange := func(lo, hi int) {
		for i := lo; i < hi; i++ {
			r := Tokens(query, s.EntryTokens(entries[i]))
			out[i] = Candidate{Entry: entries[i], Score: r.Score, MatchedWords: r.MatchedWords, Index: i}
		}
	}

	if len(entries) < s.parallelThreshold || s.workers < 2 {
		scoreRange(0, len(entries))
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	chunk := (len(entries) + s.workers - 1) / s.workers
	for lo := 0; lo < len(entries); lo += chunk {
		hi := min(lo+chunk, len(entries))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scoreRange(lo, hi)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("score snapshot: %w", err)
	}
	return out, nil
}
