package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/okian/askdesk/internal/domain/analytics"
	"github.com/okian/askdesk/internal/domain/model"
)

// MemoryStore keeps entries and interactions in process memory. It is used
// for tests and for throwaway deployments.
type MemoryStore struct {
	settings

	mu           sync.RWMutex
	entries      []model.Entry // ascending id
	interactions []model.InteractionRecord
	lastEntryID  int64
	lastRecordID int64
	closed       bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{settings: newSettings(opts)}
}

func cloneEntry(e model.Entry) model.Entry {
	e.Keywords = append([]string(nil), e.Keywords...)
	return e
}

func (s *MemoryStore) indexOf(id int64) int {
	i := sort.Search(len(s.entries), func(i int) bool { return s.entries[i].ID >= id })
	if i < len(s.entries) && s.entries[i].ID == id {
		return i
	}
	return -1
}

// Entries implements EntryReader.
func (s *MemoryStore) Entries(ctx context.Context) ([]model.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]model.Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = cloneEntry(e)
	}
	return out, nil
}

// Entry implements EntryWriter.
func (s *MemoryStore) Entry(ctx context.Context, id int64) (model.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return model.Entry{}, ErrClosed
	}
	i := s.indexOf(id)
	if i < 0 {
		return model.Entry{}, ErrNotFound
	}
	return cloneEntry(s.entries[i]), nil
}

// CreateEntry implements EntryWriter.
func (s *MemoryStore) CreateEntry(ctx context.Context, in model.EntryInput) (model.Entry, error) {
	in, err := in.Normalize()
	if err != nil {
		return model.Entry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.Entry{}, ErrClosed
	}
	s.lastEntryID++
	now := s.now()
	e := model.Entry{
		ID:        s.lastEntryID,
		Question:  in.Question,
		Answer:    in.Answer,
		Keywords:  in.Keywords,
		Category:  in.Category,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.entries = append(s.entries, e)
	return cloneEntry(e), nil
}

// UpdateEntry implements EntryWriter.
func (s *MemoryStore) UpdateEntry(ctx context.Context, id int64, in model.EntryInput) (model.Entry, error) {
	in, err := in.Normalize()
	if err != nil {
		return model.Entry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.Entry{}, ErrClosed
	}
	i := s.indexOf(id)
	if i < 0 {
		return model.Entry{}, ErrNotFound
	}
	e := &s.entries[i]
	e.Question = in.Question
	e.Answer = in.Answer
	e.Keywords = in.Keywords
	e.Category = in.Category
	e.UpdatedAt = s.now()
	return cloneEntry(*e), nil
}

// DeleteEntry implements EntryWriter. Interactions that reference the
// entry are kept.
func (s *MemoryStore) DeleteEntry(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	i := s.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	return nil
}

// ListEntries implements EntryLister.
func (s *MemoryStore) ListEntries(ctx context.Context, category string) ([]model.Entry, error) {
	all, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, e := range all {
		if category == "" || e.Category == category {
			out = append(out, e)
		}
	}
	SortNewestFirst(out)
	return out, nil
}

// Categories implements EntryLister.
func (s *MemoryStore) Categories(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	return distinctCategories(s.entries), nil
}

// AppendInteraction implements InteractionAppender.
func (s *MemoryStore) AppendInteraction(ctx context.Context, rec model.InteractionRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	s.lastRecordID++
	rec.ID = s.lastRecordID
	if rec.Timestamp.IsZero() {
		rec.Timestamp = s.now()
	}
	if rec.MatchedEntryID != nil {
		id := *rec.MatchedEntryID
		rec.MatchedEntryID = &id
	}
	s.interactions = append(s.interactions, rec)
	return rec.ID, nil
}

// CountInteractions implements AnalyticsReader.
func (s *MemoryStore) CountInteractions(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}
	return len(s.interactions), nil
}

// CountMatchedInteractions implements AnalyticsReader.
func (s *MemoryStore) CountMatchedInteractions(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}
	n := 0
	for _, r := range s.interactions {
		if r.Matched() {
			n++
		}
	}
	return n, nil
}

// AverageMatchedConfidence implements AnalyticsReader.
func (s *MemoryStore) AverageMatchedConfidence(ctx context.Context) (float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, false, ErrClosed
	}
	avg, ok := analytics.AverageMatched(s.interactions)
	return avg, ok, nil
}

// RecentInteractions implements AnalyticsReader.
func (s *MemoryStore) RecentInteractions(ctx context.Context, n int) ([]model.InteractionRecord, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	return analytics.Recent(s.interactions, n), nil
}

// TopEntries implements AnalyticsReader.
func (s *MemoryStore) TopEntries(ctx context.Context, n int) ([]model.EntryHits, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	return analytics.RankEntries(s.entries, s.interactions, n), nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// SortNewestFirst orders entries by descending creation time, then
// descending id.
func SortNewestFirst(entries []model.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

func distinctCategories(entries []model.Entry) []string {
	seen := make(map[string]struct{}, len(entries))
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.Category]; ok {
			continue
		}
		seen[e.Category] = struct{}{}
		out = append(out, e.Category)
	}
	sort.Strings(out)
	return out
}
