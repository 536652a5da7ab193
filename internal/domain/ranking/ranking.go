// Package ranking orders scored candidates and derives the suggestion list
// shown alongside an answer.
package ranking

import (
	"sort"

	"github.com/okian/askdesk/internal/domain/scoring"
)

// Threshold is the inclusive minimum score for a confident answer.
const Threshold = 20.0

// Suggestion limits.
const (
	// MaxRelatedSuggestions is how many runners-up accompany a found answer.
	MaxRelatedSuggestions = 3
	// RelatedMinScore is the exclusive minimum score for a runner-up.
	RelatedMinScore = 15.0
	// MaxFallbackSuggestions is how many topics accompany a miss.
	MaxFallbackSuggestions = 5
)

// Suggestion is a reduced view of an entry offered to the user.
type Suggestion struct {
	Question string `json:"question"`
	Category string `json:"category"`
}

// Rank sorts candidates by descending score in place. Equal scores keep
// their snapshot order.
func Rank(candidates []scoring.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
}

// Found reports whether a score clears the confidence threshold.
func Found(score float64) bool {
	return score >= Threshold
}

// Suggestions builds the suggestion list from ranked candidates. When found
// is true the top candidate is the answer and up to three runners-up scoring
// above RelatedMinScore follow; otherwise the first five candidates are
// offered regardless of score.
func Suggestions(ranked []scoring.Candidate, found bool) []Suggestion {
	if found {
		out := make([]Suggestion, 0, MaxRelatedSuggestions)
		for i := 1; i < len(ranked) && i <= MaxRelatedSuggestions; i++ {
			if ranked[i].Score > RelatedMinScore {
				out = append(out, suggestionOf(ranked[i]))
			}
		}
		return out
	}

	n := min(len(ranked), MaxFallbackSuggestions)
	out := make([]Suggestion, 0, n)
	for _, c := range ranked[:n] {
		out = append(out, suggestionOf(c))
	}
	return out
}

func suggestionOf(c scoring.Candidate) Suggestion {
	return Suggestion{Question: c.Entry.Question, Category: c.Entry.Category}
}
