package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure Go driver registered as "sqlite"

	"github.com/okian/askdesk/internal/domain/model"
)

// SQLiteStore persists entries and interactions in a SQLite database.
type SQLiteStore struct {
	settings
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and applies
// pending migrations. Use ":memory:" for a private in-memory database.
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	s := &SQLiteStore{settings: newSettings(opts)}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single connection serializes writers and keeps ":memory:" databases
	// shared across queries.
	db.SetMaxOpenConns(1)
	s.db = db

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", s.busyTimeout.Milliseconds()),
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply %q: %w", p, err)
		}
	}

	if err := s.runMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

const entryColumns = `id, question, answer, keywords, category, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(r rowScanner) (model.Entry, error) {
	var (
		e                model.Entry
		keywords         string
		created, updated string
	)
	if err := r.Scan(&e.ID, &e.Question, &e.Answer, &keywords, &e.Category, &created, &updated); err != nil {
		return model.Entry{}, err
	}
	e.Keywords = model.ParseKeywords(keywords)
	var err error
	if e.CreatedAt, err = parseTime(created); err != nil {
		return model.Entry{}, err
	}
	if e.UpdatedAt, err = parseTime(updated); err != nil {
		return model.Entry{}, err
	}
	return e, nil
}

func (s *SQLiteStore) queryEntries(ctx context.Context, op, query string, args ...any) (_ []model.Entry, err error) {
	defer func(start time.Time) { observe(op, start, err) }(time.Now())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := []model.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// Entries implements EntryReader.
func (s *SQLiteStore) Entries(ctx context.Context) ([]model.Entry, error) {
	return s.queryEntries(ctx, "entries", `SELECT `+entryColumns+` FROM faqs ORDER BY id`)
}

// Entry implements EntryWriter.
func (s *SQLiteStore) Entry(ctx context.Context, id int64) (_ model.Entry, err error) {
	defer func(start time.Time) { observe("entry", start, err) }(time.Now())

	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM faqs WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Entry{}, ErrNotFound
	}
	if err != nil {
		return model.Entry{}, fmt.Errorf("entry %d: %w", id, err)
	}
	return e, nil
}

// CreateEntry implements EntryWriter.
func (s *SQLiteStore) CreateEntry(ctx context.Context, in model.EntryInput) (_ model.Entry, err error) {
	in, err = in.Normalize()
	if err != nil {
		return model.Entry{}, err
	}
	defer func(start time.Time) { observe("create_entry", start, err) }(time.Now())

	now := s.now()
	e := model.Entry{
		Question:  in.Question,
		Answer:    in.Answer,
		Keywords:  in.Keywords,
		Category:  in.Category,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO faqs (question, answer, keywords, category, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.Question, e.Answer, e.KeywordField(), e.Category, formatTime(now), formatTime(now))
	if err != nil {
		return model.Entry{}, fmt.Errorf("insert entry: %w", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return model.Entry{}, fmt.Errorf("insert entry id: %w", err)
	}
	return e, nil
}

// UpdateEntry implements EntryWriter.
func (s *SQLiteStore) UpdateEntry(ctx context.Context, id int64, in model.EntryInput) (model.Entry, error) {
	in, err := in.Normalize()
	if err != nil {
		return model.Entry{}, err
	}

	err = func() (err error) {
		defer func(start time.Time) { observe("update_entry", start, err) }(time.Now())
		res, err := s.db.ExecContext(ctx,
			`UPDATE faqs SET question = ?, answer = ?, keywords = ?, category = ?, updated_at = ? WHERE id = ?`,
			in.Question, in.Answer, model.Entry{Keywords: in.Keywords}.KeywordField(), in.Category, formatTime(s.now()), id)
		if err != nil {
			return fmt.Errorf("update entry %d: %w", id, err)
		}
		return requireAffected(res)
	}()
	if err != nil {
		return model.Entry{}, err
	}
	return s.Entry(ctx, id)
}

// DeleteEntry implements EntryWriter. Interactions that reference the
// entry are kept.
func (s *SQLiteStore) DeleteEntry(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { observe("delete_entry", start, err) }(time.Now())

	res, err := s.db.ExecContext(ctx, `DELETE FROM faqs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry %d: %w", id, err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListEntries implements EntryLister.
func (s *SQLiteStore) ListEntries(ctx context.Context, category string) ([]model.Entry, error) {
	if category == "" {
		return s.queryEntries(ctx, "list_entries",
			`SELECT `+entryColumns+` FROM faqs ORDER BY created_at DESC, id DESC`)
	}
	return s.queryEntries(ctx, "list_entries",
		`SELECT `+entryColumns+` FROM faqs WHERE category = ? ORDER BY created_at DESC, id DESC`, category)
}

// Categories implements EntryLister.
func (s *SQLiteStore) Categories(ctx context.Context) (_ []string, err error) {
	defer func(start time.Time) { observe("categories", start, err) }(time.Now())

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT category FROM faqs ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("categories: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AppendInteraction implements InteractionAppender.
func (s *SQLiteStore) AppendInteraction(ctx context.Context, rec model.InteractionRecord) (_ int64, err error) {
	defer func(start time.Time) { observe("append_interaction", start, err) }(time.Now())

	if rec.Timestamp.IsZero() {
		rec.Timestamp = s.now()
	}
	var matched sql.NullInt64
	if rec.MatchedEntryID != nil {
		matched = sql.NullInt64{Int64: *rec.MatchedEntryID, Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_logs (user_question, matched_faq_id, confidence_score, timestamp) VALUES (?, ?, ?, ?)`,
		rec.UserQuestion, matched, rec.ConfidenceScore, formatTime(rec.Timestamp))
	if err != nil {
		return 0, fmt.Errorf("insert interaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert interaction id: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) count(ctx context.Context, op, query string) (n int, err error) {
	defer func(start time.Time) { observe(op, start, err) }(time.Now())

	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// CountInteractions implements AnalyticsReader.
func (s *SQLiteStore) CountInteractions(ctx context.Context) (int, error) {
	return s.count(ctx, "count_interactions", `SELECT COUNT(*) FROM chat_logs`)
}

// CountMatchedInteractions implements AnalyticsReader.
func (s *SQLiteStore) CountMatchedInteractions(ctx context.Context) (int, error) {
	return s.count(ctx, "count_matched", `SELECT COUNT(*) FROM chat_logs WHERE matched_faq_id IS NOT NULL`)
}

// AverageMatchedConfidence implements AnalyticsReader.
func (s *SQLiteStore) AverageMatchedConfidence(ctx context.Context) (_ float64, _ bool, err error) {
	defer func(start time.Time) { observe("average_confidence", start, err) }(time.Now())

	var avg sql.NullFloat64
	err = s.db.QueryRowContext(ctx,
		`SELECT AVG(confidence_score) FROM chat_logs WHERE matched_faq_id IS NOT NULL`).Scan(&avg)
	if err != nil {
		return 0, false, fmt.Errorf("average confidence: %w", err)
	}
	return avg.Float64, avg.Valid, nil
}

// RecentInteractions implements AnalyticsReader.
func (s *SQLiteStore) RecentInteractions(ctx context.Context, n int) (_ []model.InteractionRecord, err error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}
	defer func(start time.Time) { observe("recent_interactions", start, err) }(time.Now())

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_question, matched_faq_id, confidence_score, timestamp
		 FROM chat_logs ORDER BY timestamp DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("recent interactions: %w", err)
	}
	defer rows.Close()

	out := []model.InteractionRecord{}
	for rows.Next() {
		var (
			r       model.InteractionRecord
			matched sql.NullInt64
			ts      string
		)
		if err := rows.Scan(&r.ID, &r.UserQuestion, &matched, &r.ConfidenceScore, &ts); err != nil {
			return nil, fmt.Errorf("recent interactions: %w", err)
		}
		if matched.Valid {
			id := matched.Int64
			r.MatchedEntryID = &id
		}
		if r.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TopEntries implements AnalyticsReader.
func (s *SQLiteStore) TopEntries(ctx context.Context, n int) (_ []model.EntryHits, err error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}
	defer func(start time.Time) { observe("top_entries", start, err) }(time.Now())

	rows, err := s.db.QueryContext(ctx, `
		SELECT f.id, f.question, f.category, COUNT(cl.id) AS hits
		FROM faqs f
		LEFT JOIN chat_logs cl ON f.id = cl.matched_faq_id
		GROUP BY f.id
		ORDER BY hits DESC, f.id ASC
		LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("top entries: %w", err)
	}
	defer rows.Close()

	out := []model.EntryHits{}
	for rows.Next() {
		var h model.EntryHits
		if err := rows.Scan(&h.EntryID, &h.Question, &h.Category, &h.Hits); err != nil {
			return nil, fmt.Errorf("top entries: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// timeLayout is a fixed-width UTC layout so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
