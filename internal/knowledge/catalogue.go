package knowledge

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

//go:embed finance_concepts.json
var conceptsJSON []byte

// Concept is one entry of the cognitive-bias knowledge base.
type Concept struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Definition string   `json:"definition"`
	Examples   []string `json:"examples"`
}

// Catalogue is the static concept knowledge base. Loaded once at startup and
// read-only afterwards, so concurrent reads need no synchronization.
type Catalogue struct {
	concepts []Concept
	byID     map[string]*Concept
}

type catalogueFile struct {
	Concepts []Concept `json:"concepts"`
}

// Load parses the embedded catalogue. Concept ids are lowercased and ordered
// so Default() is deterministic.
func Load() (*Catalogue, error) {
	var file catalogueFile
	if err := json.Unmarshal(conceptsJSON, &file); err != nil {
		return nil, fmt.Errorf("parse concept catalogue: %w", err)
	}
	if len(file.Concepts) == 0 {
		return nil, fmt.Errorf("concept catalogue is empty")
	}
	concepts := make([]Concept, len(file.Concepts))
	copy(concepts, file.Concepts)
	for i := range concepts {
		concepts[i].ID = strings.ToLower(strings.TrimSpace(concepts[i].ID))
	}
	sort.Slice(concepts, func(i, j int) bool { return concepts[i].ID < concepts[j].ID })

	byID := make(map[string]*Concept, len(concepts))
	for i := range concepts {
		byID[concepts[i].ID] = &concepts[i]
	}
	return &Catalogue{concepts: concepts, byID: byID}, nil
}

// Get looks a concept up by id, case-insensitively.
func (c *Catalogue) Get(id string) (*Concept, bool) {
	concept, ok := c.byID[strings.ToLower(strings.TrimSpace(id))]
	return concept, ok
}

// Default returns the lowest-id concept, used when retrieval degrades.
func (c *Catalogue) Default() *Concept {
	return &c.concepts[0]
}

// All returns every concept in id order.
func (c *Catalogue) All() []Concept {
	return c.concepts
}

// EmbeddingContent is the text embedded for a concept: title, definition and
// examples joined, matching what the retrieval query is ranked against.
func EmbeddingContent(concept *Concept) string {
	var b strings.Builder
	b.WriteString(concept.Title)
	b.WriteString("\n")
	b.WriteString(concept.Definition)
	if len(concept.Examples) > 0 {
		b.WriteString("\nExamples: ")
		b.WriteString(strings.Join(concept.Examples, " "))
	}
	return b.String()
}
