// Package tokenize splits text into the word tokens used for matching.
//
// Three modes exist and they are deliberately asymmetric: query tokens drop
// short words, entry-question tokens keep every word, keyword tokens come
// from a comma-separated field. Duplicates are preserved in every mode.
package tokenize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinQueryTokenLength is the shortest token kept in query mode.
const MinQueryTokenLength = 3

// normalize lowercases s and removes every rune that is not a letter,
// digit or whitespace.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Query tokenizes a user question, dropping tokens shorter than
// MinQueryTokenLength runes.
func Query(s string) []string {
	words := strings.Fields(normalize(s))
	out := words[:0]
	for _, w := range words {
		if utf8.RuneCountInString(w) >= MinQueryTokenLength {
			out = append(out, w)
		}
	}
	return out
}

// EntryQuestion tokenizes an entry's question, keeping every token.
func EntryQuestion(s string) []string {
	return strings.Fields(normalize(s))
}

// Keywords splits a comma-separated keyword field into trimmed, lowercased
// tokens. Empty pieces are skipped.
func Keywords(field string) []string {
	if strings.TrimSpace(field) == "" {
		return []string{}
	}
	parts := strings.Split(field, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
