// Package repository stores knowledge-base entries and logged interactions.
package repository

import (
	"context"

	"github.com/okian/askdesk/internal/domain/model"
)

// EntryReader fetches the snapshot scored on every ask.
type EntryReader interface {
	// Entries returns every entry ordered by ascending id.
	Entries(ctx context.Context) ([]model.Entry, error)
}

// EntryWriter manages individual entries.
// Unknown ids yield ErrNotFound.
type EntryWriter interface {
	Entry(ctx context.Context, id int64) (model.Entry, error)
	CreateEntry(ctx context.Context, in model.EntryInput) (model.Entry, error)
	UpdateEntry(ctx context.Context, id int64, in model.EntryInput) (model.Entry, error)
	DeleteEntry(ctx context.Context, id int64) error
}

// EntryLister serves the public browsing views.
type EntryLister interface {
	// ListEntries returns entries newest first, ties broken by descending
	// id. An empty category lists everything.
	ListEntries(ctx context.Context, category string) ([]model.Entry, error)
	// Categories returns the distinct categories in ascending order.
	Categories(ctx context.Context) ([]string, error)
}

// InteractionAppender persists ask outcomes.
type InteractionAppender interface {
	// AppendInteraction stores rec and returns its assigned id.
	AppendInteraction(ctx context.Context, rec model.InteractionRecord) (int64, error)
}

// AnalyticsReader serves the analytics summary reads.
type AnalyticsReader interface {
	CountInteractions(ctx context.Context) (int, error)
	CountMatchedInteractions(ctx context.Context) (int, error)
	// AverageMatchedConfidence averages matched records only; the bool is
	// false when there are none.
	AverageMatchedConfidence(ctx context.Context) (float64, bool, error)
	// RecentInteractions returns up to n records newest first.
	RecentInteractions(ctx context.Context, n int) ([]model.InteractionRecord, error)
	// TopEntries returns up to n entries by descending hit count.
	TopEntries(ctx context.Context, n int) ([]model.EntryHits, error)
}

// Store is the full persistence surface.
type Store interface {
	EntryReader
	EntryWriter
	EntryLister
	InteractionAppender
	AnalyticsReader
	Close() error
}
