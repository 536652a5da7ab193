// Package seed loads starter knowledge-base entries from YAML.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/okian/askdesk/internal/domain/model"
)

//go:embed default.yaml
var defaultSeed []byte

// Keywords accepts either a YAML sequence or a comma-separated string.
type Keywords []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (k *Keywords) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*k = model.ParseKeywords(node.Value)
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*k = items
		return nil
	default:
		return fmt.Errorf("line %d: keywords must be a list or a comma-separated string", node.Line)
	}
}

type document struct {
	Question string   `yaml:"question"`
	Answer   string   `yaml:"answer"`
	Keywords Keywords `yaml:"keywords"`
	Category string   `yaml:"category"`
}

// Decode reads a YAML list of entries and normalizes each one.
func Decode(r io.Reader) ([]model.EntryInput, error) {
	var docs []document
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&docs); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrSeed, err)
	}

	out := make([]model.EntryInput, 0, len(docs))
	for i, d := range docs {
		in, err := model.EntryInput{
			Question: d.Question,
			Answer:   d.Answer,
			Keywords: d.Keywords,
			Category: d.Category,
		}.Normalize()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrSeed, i+1, err)
		}
		out = append(out, in)
	}
	return out, nil
}

// Default returns the embedded starter entries.
func Default() []model.EntryInput {
	out, err := Decode(bytes.NewReader(defaultSeed))
	if err != nil {
		panic(fmt.Sprintf("embedded seed: %v", err))
	}
	return out
}

// LoadFile decodes the seed file at path, or the embedded default when
// path is empty.
func LoadFile(path string) ([]model.EntryInput, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSeed, err)
	}
	defer f.Close()
	return Decode(f)
}

// Creator stores new entries.
type Creator interface {
	CreateEntry(ctx context.Context, in model.EntryInput) (model.Entry, error)
}

// Apply creates every input through c and returns how many were created.
func Apply(ctx context.Context, c Creator, inputs []model.EntryInput) (int, error) {
	for i, in := range inputs {
		if _, err := c.CreateEntry(ctx, in); err != nil {
			return i, fmt.Errorf("seed entry %d: %w", i+1, err)
		}
	}
	return len(inputs), nil
}
