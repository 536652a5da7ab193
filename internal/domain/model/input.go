package model

import (
	"errors"
	"strings"
)

// ErrInvalidEntry is returned when an EntryInput misses required fields.
var ErrInvalidEntry = errors.New("question and answer are required")

// ParseKeywords splits a comma-separated keyword field into trimmed,
// non-empty pieces. Case is preserved; tokenization lowercases later.
func ParseKeywords(field string) []string {
	if strings.TrimSpace(field) == "" {
		return []string{}
	}
	parts := strings.Split(field, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Normalize trims the input, drops empty keywords and applies the default
// category. It returns ErrInvalidEntry when question or answer is blank.
func (in EntryInput) Normalize() (EntryInput, error) {
	out := EntryInput{
		Question: strings.TrimSpace(in.Question),
		Answer:   strings.TrimSpace(in.Answer),
		Category: strings.TrimSpace(in.Category),
		Keywords: make([]string, 0, len(in.Keywords)),
	}
	if out.Question == "" || out.Answer == "" {
		return EntryInput{}, ErrInvalidEntry
	}
	if out.Category == "" {
		out.Category = DefaultCategory
	}
	for _, k := range in.Keywords {
		out.Keywords = append(out.Keywords, ParseKeywords(k)...)
	}
	return out, nil
}
