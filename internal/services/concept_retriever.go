package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/budgelabs/budge-backend/internal/knowledge"
	"github.com/budgelabs/budge-backend/internal/pkg/logger"
	"github.com/budgelabs/budge-backend/internal/repos"
)

// ConceptRetriever maps a pattern's bias code to a knowledge-base concept.
// Direct id match wins; otherwise the synthesized query is embedded and
// ranked against stored concept embeddings. Every failure degrades to the
// catalogue default, so callers always receive a concept.
type ConceptRetriever interface {
	Resolve(ctx context.Context, biasMapping string, details map[string]any) *knowledge.Concept
	Explain(ctx context.Context, concept *knowledge.Concept, details map[string]any) string
}

type conceptRetriever struct {
	log             *logger.Logger
	catalogue       *knowledge.Catalogue
	embeddingRepo   repos.ConceptEmbeddingRepo
	client          GenerativeClient
	embedTimeout    time.Duration
	generateTimeout time.Duration
}

func NewConceptRetriever(log *logger.Logger, catalogue *knowledge.Catalogue, embeddingRepo repos.ConceptEmbeddingRepo, client GenerativeClient, embedTimeout, generateTimeout time.Duration) ConceptRetriever {
	return &conceptRetriever{
		log:             log.With("service", "ConceptRetriever"),
		catalogue:       catalogue,
		embeddingRepo:   embeddingRepo,
		client:          client,
		embedTimeout:    embedTimeout,
		generateTimeout: generateTimeout,
	}
}

func (cr *conceptRetriever) Resolve(ctx context.Context, biasMapping string, details map[string]any) *knowledge.Concept {
	if concept, ok := cr.catalogue.Get(biasMapping); ok {
		return concept
	}

	concept, err := cr.semanticLookup(ctx, biasMapping, details)
	if err != nil {
		cr.log.Warn("Semantic concept lookup failed, using default concept", "bias_mapping", biasMapping, "error", err)
		return cr.catalogue.Default()
	}
	return concept
}

func (cr *conceptRetriever) semanticLookup(ctx context.Context, biasMapping string, details map[string]any) (*knowledge.Concept, error) {
	if cr.client == nil {
		return nil, fmt.Errorf("no embedding backend configured")
	}

	detailsJSON, _ := json.Marshal(details)
	query := fmt.Sprintf("Spending pattern (%s): %s", biasMapping, string(detailsJSON))

	embedCtx, cancel := context.WithTimeout(ctx, cr.embedTimeout)
	defer cancel()
	queryVec, err := cr.client.Embed(embedCtx, query, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}

	stored, err := cr.embeddingRepo.ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("load concept embeddings: %w", err)
	}
	if len(stored) == 0 {
		return nil, fmt.Errorf("no concept embeddings initialized")
	}

	bestDistance := math.MaxFloat64
	bestConceptID := ""
	for _, row := range stored {
		d, ok := cosineDistance(queryVec, row.Vector())
		if !ok {
			continue
		}
		if d < bestDistance {
			bestDistance = d
			bestConceptID = row.ConceptID
		}
	}
	if bestConceptID == "" {
		return nil, fmt.Errorf("no comparable concept embeddings")
	}
	concept, ok := cr.catalogue.Get(bestConceptID)
	if !ok {
		return nil, fmt.Errorf("embedded concept %q missing from catalogue", bestConceptID)
	}
	return concept, nil
}

// Explain produces the short personalized explanation shown next to a
// question. Upstream failure falls back to the concept definition.
func (cr *conceptRetriever) Explain(ctx context.Context, concept *knowledge.Concept, details map[string]any) string {
	fallback := fmt.Sprintf("This pattern points to %s. %s", concept.Title, concept.Definition)
	if cr.client == nil {
		return fallback
	}

	detailsJSON, _ := json.Marshal(details)
	prompt := fmt.Sprintf(`You are a financial education assistant. Explain this concept to someone who just discovered this pattern in their spending.

Concept: %s
Definition: %s

User's Pattern: %s

Instructions:
- Use the specific numbers from their pattern
- Connect the concept to their actual behavior
- Be conversational and non-judgmental
- Keep it under 100 words
- Do NOT give advice like "you should stop" or "try to save"
- Instead, help them understand WHY this happens

Your explanation:`, concept.Title, concept.Definition, string(detailsJSON))

	genCtx, cancel := context.WithTimeout(ctx, cr.generateTimeout)
	defer cancel()
	text, err := cr.client.GenerateText(genCtx, prompt)
	if err != nil {
		cr.log.Warn("Explanation generation failed, using definition fallback", "concept_id", concept.ID, "error", err)
		return fallback
	}
	return text
}

// cosineDistance returns 1 - cosine similarity. ok is false when either
// vector is empty, zero, or of mismatched dimension.
func cosineDistance(a, b []float32) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB)), true
}
