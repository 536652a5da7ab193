// Package matching turns a question and a snapshot of entries into an
// answer outcome.
package matching

import (
	"context"
	"math"
	"time"

	"github.com/okian/askdesk/internal/domain/model"
	"github.com/okian/askdesk/internal/domain/ranking"
	"github.com/okian/askdesk/internal/domain/scoring"
)

// User-facing messages for outcomes without an answer.
const (
	NoMatchMessage = "I couldn't find a good match for your question. Here are some topics I can help with:"
	EmptyMessage   = "No FAQs available yet. Please contact support."
)

// Status classifies an outcome.
type Status int

const (
	// StatusEmpty means there were no entries to score.
	StatusEmpty Status = iota
	// StatusNoMatch means the best candidate fell below the threshold.
	StatusNoMatch
	// StatusMatched means the best candidate cleared the threshold.
	StatusMatched
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusMatched:
		return "matched"
	case StatusNoMatch:
		return "no_match"
	default:
		return "empty"
	}
}

// Outcome is the result of matching one question.
type Outcome struct {
	Status      Status
	Best        scoring.Candidate
	Candidates  []scoring.Candidate
	Suggestions []ranking.Suggestion
}

// Found reports whether the outcome carries an answer.
func (o Outcome) Found() bool {
	return o.Status == StatusMatched
}

// Confidence is the best score rounded to the nearest integer.
func (o Outcome) Confidence() int {
	return int(math.Round(o.Best.Score))
}

// Message is the text shown when there is no answer.
func (o Outcome) Message() string {
	switch o.Status {
	case StatusEmpty:
		return EmptyMessage
	case StatusNoMatch:
		return NoMatchMessage
	default:
		return ""
	}
}

// Interaction builds the record to log for this outcome. The second return
// is false for an empty outcome, which is never logged.
func (o Outcome) Interaction(question string, at time.Time) (model.InteractionRecord, bool) {
	if o.Status == StatusEmpty {
		return model.InteractionRecord{}, false
	}
	rec := model.InteractionRecord{
		UserQuestion:    question,
		ConfidenceScore: o.Best.Score,
		Timestamp:       at,
	}
	if o.Found() {
		id := o.Best.Entry.ID
		rec.MatchedEntryID = &id
	}
	return rec, true
}

// Matcher scores, ranks and classifies.
type Matcher struct {
	scorer *scoring.Scorer
}

// New creates a matcher backed by scorer.
func New(scorer *scoring.Scorer) *Matcher {
	if scorer == nil {
		scorer = scoring.NewScorer()
	}
	return &Matcher{scorer: scorer}
}

// Match evaluates question against a snapshot of entries.
func (m *Matcher) Match(ctx context.Context, question string, entries []model.Entry) (Outcome, error) {
	if len(entries) == 0 {
		return Outcome{Status: StatusEmpty}, nil
	}

	candidates, err := m.scorer.ScoreAll(ctx, question, entries)
	if err != nil {
		return Outcome{}, err
	}
	ranking.Rank(candidates)

	best := candidates[0]
	found := ranking.Found(best.Score)
	out := Outcome{
		Status:      StatusNoMatch,
		Best:        best,
		Candidates:  candidates,
		Suggestions: ranking.Suggestions(candidates, found),
	}
	if found {
		out.Status = StatusMatched
	}
	return out, nil
}
