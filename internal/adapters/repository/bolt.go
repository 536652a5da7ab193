package repository

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/okian/askdesk/internal/domain/analytics"
	"github.com/okian/askdesk/internal/domain/model"
)

// Bucket keys
var (
	bucketEntries      = []byte("faqs")
	bucketInteractions = []byte("chat_logs")
)

// BoltStore persists entries and interactions in a bbolt file. Keys are
// big-endian sequence ids so cursor order is id order; values are JSON.
type BoltStore struct {
	settings
	db *bolt.DB
}

// NewBoltStore opens (or creates) a bbolt database at path.
func NewBoltStore(path string, opts ...Option) (*BoltStore, error) {
	s := &BoltStore{settings: newSettings(opts)}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: s.openTimeout})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketEntries, bucketInteractions} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bbolt init buckets: %w", err)
	}
	s.db = db
	return s, nil
}

func itob(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

func (s *BoltStore) allEntries(tx *bolt.Tx) ([]model.Entry, error) {
	out := []model.Entry{}
	err := tx.Bucket(bucketEntries).ForEach(func(_, v []byte) error {
		var e model.Entry
		if err := json.Unmarshal(v, &e); err != nil {
			return fmt.Errorf("decode entry: %w", err)
		}
		out = append(out, e)
		return nil
	})
	return out, err
}

func (s *BoltStore) allInteractions(tx *bolt.Tx) ([]model.InteractionRecord, error) {
	out := []model.InteractionRecord{}
	err := tx.Bucket(bucketInteractions).ForEach(func(_, v []byte) error {
		var r model.InteractionRecord
		if err := json.Unmarshal(v, &r); err != nil {
			return fmt.Errorf("decode interaction: %w", err)
		}
		out = append(out, r)
		return nil
	})
	return out, err
}

// Entries implements EntryReader.
func (s *BoltStore) Entries(ctx context.Context) (out []model.Entry, err error) {
	defer func(start time.Time) { observe("entries", start, err) }(time.Now())
	err = s.db.View(func(tx *bolt.Tx) error {
		out, err = s.allEntries(tx)
		return err
	})
	return out, err
}

// Entry implements EntryWriter.
func (s *BoltStore) Entry(ctx context.Context, id int64) (e model.Entry, err error) {
	defer func(start time.Time) { observe("entry", start, err) }(time.Now())
	err = s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketEntries).Get(itob(id))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &e)
	})
	return e, err
}

func putJSON(b *bolt.Bucket, id int64, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return b.Put(itob(id), data)
}

// CreateEntry implements EntryWriter.
func (s *BoltStore) CreateEntry(ctx context.Context, in model.EntryInput) (e model.Entry, err error) {
	in, err = in.Normalize()
	if err != nil {
		return model.Entry{}, err
	}
	defer func(start time.Time) { observe("create_entry", start, err) }(time.Now())

	now := s.now()
	e = model.Entry{
		Question:  in.Question,
		Answer:    in.Answer,
		Keywords:  in.Keywords,
		Category:  in.Category,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEntries)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		e.ID = int64(seq)
		return putJSON(b, e.ID, e)
	})
	if err != nil {
		return model.Entry{}, fmt.Errorf("insert entry: %w", err)
	}
	return e, nil
}

// UpdateEntry implements EntryWriter.
func (s *BoltStore) UpdateEntry(ctx context.Context, id int64, in model.EntryInput) (e model.Entry, err error) {
	in, err = in.Normalize()
	if err != nil {
		return model.Entry{}, err
	}
	defer func(start time.Time) { observe("update_entry", start, err) }(time.Now())

	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEntries)
		v := b.Get(itob(id))
		if v == nil {
			return ErrNotFound
		}
		if err := json.Unmarshal(v, &e); err != nil {
			return err
		}
		e.Question = in.Question
		e.Answer = in.Answer
		e.Keywords = in.Keywords
		e.Category = in.Category
		e.UpdatedAt = s.now()
		return putJSON(b, id, e)
	})
	if err != nil {
		return model.Entry{}, err
	}
	return e, nil
}

// DeleteEntry implements EntryWriter. Interactions that reference the
// entry are kept.
func (s *BoltStore) DeleteEntry(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { observe("delete_entry", start, err) }(time.Now())
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEntries)
		if b.Get(itob(id)) == nil {
			return ErrNotFound
		}
		return b.Delete(itob(id))
	})
}

// ListEntries implements EntryLister.
func (s *BoltStore) ListEntries(ctx context.Context, category string) ([]model.Entry, error) {
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
func (s *BoltStore) Categories(ctx context.Context) ([]string, error) {
	all, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}
	return distinctCategories(all), nil
}

// AppendInteraction implements InteractionAppender.
func (s *BoltStore) AppendInteraction(ctx context.Context, rec model.InteractionRecord) (id int64, err error) {
	defer func(start time.Time) { observe("append_interaction", start, err) }(time.Now())
	if rec.Timestamp.IsZero() {
		rec.Timestamp = s.now()
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketInteractions)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		rec.ID = int64(seq)
		return putJSON(b, rec.ID, rec)
	})
	if err != nil {
		return 0, fmt.Errorf("insert interaction: %w", err)
	}
	return rec.ID, nil
}

func (s *BoltStore) interactions(ctx context.Context, op string) (out []model.InteractionRecord, err error) {
	defer func(start time.Time) { observe(op, start, err) }(time.Now())
	err = s.db.View(func(tx *bolt.Tx) error {
		out, err = s.allInteractions(tx)
		return err
	})
	return out, err
}

// CountInteractions implements AnalyticsReader.
func (s *BoltStore) CountInteractions(ctx context.Context) (n int, err error) {
	defer func(start time.Time) { observe("count_interactions", start, err) }(time.Now())
	err = s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketInteractions).Stats().KeyN
		return nil
	})
	return n, err
}

// CountMatchedInteractions implements AnalyticsReader.
func (s *BoltStore) CountMatchedInteractions(ctx context.Context) (int, error) {
	recs, err := s.interactions(ctx, "count_matched")
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range recs {
		if r.Matched() {
			n++
		}
	}
	return n, nil
}

// AverageMatchedConfidence implements AnalyticsReader.
func (s *BoltStore) AverageMatchedConfidence(ctx context.Context) (float64, bool, error) {
	recs, err := s.interactions(ctx, "average_confidence")
	if err != nil {
		return 0, false, err
	}
	avg, ok := analytics.AverageMatched(recs)
	return avg, ok, nil
}

// RecentInteractions implements AnalyticsReader.
func (s *BoltStore) RecentInteractions(ctx context.Context, n int) ([]model.InteractionRecord, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}
	recs, err := s.interactions(ctx, "recent_interactions")
	if err != nil {
		return nil, err
	}
	return analytics.Recent(recs, n), nil
}

// TopEntries implements AnalyticsReader.
func (s *BoltStore) TopEntries(ctx context.Context, n int) (out []model.EntryHits, err error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}
	defer func(start time.Time) { observe("top_entries", start, err) }(time.Now())
	err = s.db.View(func(tx *bolt.Tx) error {
		entries, err := s.allEntries(tx)
		if err != nil {
			return err
		}
		recs, err := s.allInteractions(tx)
		if err != nil {
			return err
		}
		out = analytics.RankEntries(entries, recs, n)
		return nil
	})
	return out, err
}

// Close implements Store.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
