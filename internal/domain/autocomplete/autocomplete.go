// Package autocomplete suggests knowledge-base questions from a typed
// prefix.
package autocomplete

import (
	"sort"
	"strings"
	"sync"

	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/okian/askdesk/internal/domain/model"
)

// Limits applied by Complete.
const (
	DefaultLimit = 5
	MaxLimit     = 20
)

// Completion is one suggested question.
type Completion struct {
	ID       int64  `json:"id"`
	Question string `json:"question"`
	Category string `json:"category"`
}

// hit is the trie item stored under a key. whole marks keys that start at
// the first word of the question.
type hit struct {
	ids   []int64
	whole bool
}

// Index is a prefix index over entry questions. Every question is inserted
// once per word, starting at that word, so a prefix may match the start of
// the question or the start of any later word.
type Index struct {
	mu      sync.RWMutex
	trie    *patricia.Trie
	entries map[int64]Completion
}

// New creates an empty index.
func New() *Index {
	return &Index{trie: patricia.NewTrie(), entries: map[int64]Completion{}}
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Rebuild replaces the index contents with entries.
func (x *Index) Rebuild(entries []model.Entry) {
	trie := patricia.NewTrie()
	byID := make(map[int64]Completion, len(entries))

	for _, e := range entries {
		byID[e.ID] = Completion{ID: e.ID, Question: e.Question, Category: e.Category}
		words := strings.Fields(strings.ToLower(e.Question))
		for i := range words {
			key := patricia.Prefix(strings.Join(words[i:], " "))
			if item := trie.Get(key); item != nil {
				h := item.(*hit)
				h.ids = append(h.ids, e.ID)
				h.whole = h.whole || i == 0
				continue
			}
			trie.Insert(key, &hit{ids: []int64{e.ID}, whole: i == 0})
		}
	}

	x.mu.Lock()
	x.trie = trie
	x.entries = byID
	x.mu.Unlock()
}

// Len returns the number of indexed entries.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Complete returns up to limit entries whose question, or any word of it,
// starts with prefix. Whole-question matches come first; ties are ordered
// by question then id. limit is clamped to [1, MaxLimit], with 0 meaning
// DefaultLimit.
func (x *Index) Complete(prefix string, limit int) []Completion {
	switch {
	case limit == 0:
		limit = DefaultLimit
	case limit < 1:
		limit = 1
	case limit > MaxLimit:
		limit = MaxLimit
	}

	p := normalize(prefix)
	if p == "" {
		return []Completion{}
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	whole := map[int64]bool{}
	_ = x.trie.VisitSubtree(patricia.Prefix(p), func(_ patricia.Prefix, item patricia.Item) error {
		h := item.(*hit)
		for _, id := range h.ids {
			if _, ok := x.entries[id]; !ok {
				continue
			}
			isWhole := h.whole && strings.HasPrefix(normalize(x.entries[id].Question), p)
			whole[id] = whole[id] || isWhole
		}
		return nil
	})

	out := make([]Completion, 0, len(whole))
	for id := range whole {
		out = append(out, x.entries[id])
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if whole[a.ID] != whole[b.ID] {
			return whole[a.ID]
		}
		if a.Question != b.Question {
			return a.Question < b.Question
		}
		return a.ID < b.ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
