// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// DefaultCategory is assigned to entries created without a category.
const DefaultCategory = "General"

// Entry is one question/answer record of the knowledge base.
type Entry struct {
	ID        int64     `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Keywords  []string  `json:"keywords"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// KeywordField renders Keywords in their comma-separated source form.
func (e Entry) KeywordField() string {
	return strings.Join(e.Keywords, ",")
}

// EntryInput carries the writable fields of an Entry.
type EntryInput struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Keywords []string `json:"keywords"`
	Category string   `json:"category"`
}

// InteractionRecord is the logged outcome of one ask request.
// MatchedEntryID is nil when the best candidate fell below the threshold.
type InteractionRecord struct {
	ID              int64     `json:"id"`
	UserQuestion    string    `json:"user_question"`
	MatchedEntryID  *int64    `json:"matched_entry_id"`
	ConfidenceScore float64   `json:"confidence_score"`
	Timestamp       time.Time `json:"timestamp"`
}

// Matched reports whether the record references an entry.
func (r InteractionRecord) Matched() bool {
	return r.MatchedEntryID != nil
}

// EntryHits is an entry together with the number of matched interactions
// that reference it.
type EntryHits struct {
	EntryID  int64  `json:"id"`
	Question string `json:"question"`
	Category string `json:"category"`
	Hits     int    `json:"hits"`
}
