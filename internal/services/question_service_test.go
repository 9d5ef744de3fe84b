package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/budgelabs/budge-backend/internal/knowledge"
	"github.com/budgelabs/budge-backend/internal/pkg/logger"
	"github.com/budgelabs/budge-backend/internal/types"
)

func testConcept(t *testing.T, id string) *knowledge.Concept {
	t.Helper()
	catalogue, err := knowledge.Load()
	if err != nil {
		t.Fatalf("load catalogue: %v", err)
	}
	concept, ok := catalogue.Get(id)
	if !ok {
		t.Fatalf("concept %q not in catalogue", id)
	}
	return concept
}

func TestGenerateReturnsModelQuestion(t *testing.T) {
	client := &fakeGenClient{
		generateText: func(ctx context.Context, prompt string) (string, error) {
			return `"What does spending $16.50 at Starbucks say about your mornings?"`, nil
		},
	}
	qg := NewQuestionGenerator(logger.NewNop(), client, 5*time.Second)

	result := qg.Generate(context.Background(), types.PatternLatteFactor, types.BiasPresentBias,
		map[string]any{"merchant": "Starbucks", "count": 3.0, "total_spent": 16.5, "avg_amount": 5.5},
		testConcept(t, "present_bias"))

	if result.Source != SourceModel {
		t.Fatalf("source = %q, want %q (reason %q)", result.Source, SourceModel, result.Reason)
	}
	if result.Text != "What does spending $16.50 at Starbucks say about your mornings?" {
		t.Errorf("unexpected question text: %q", result.Text)
	}
}

func TestGenerateGuardrailForcesTemplate(t *testing.T) {
	violations := []string{
		"You should make coffee at home instead.",
		"Maybe TRY TO skip a day each week?",
		"Have you ever stopped to Consider your morning routine?",
		"It would be better if the money went to savings.",
		"I recommend a weekly budget for coffee.",
		"Why don't you brew at home?",
	}

	for _, upstream := range violations {
		t.Run(upstream[:12], func(t *testing.T) {
			client := &fakeGenClient{
				generateText: func(ctx context.Context, prompt string) (string, error) {
					return upstream, nil
				},
			}
			qg := NewQuestionGenerator(logger.NewNop(), client, 5*time.Second)
			details := map[string]any{"merchant": "Starbucks", "count": 3.0, "total_spent": 16.5}

			result := qg.Generate(context.Background(), types.PatternLatteFactor, types.BiasPresentBias, details, testConcept(t, "present_bias"))

			if result.Source != SourceTemplate {
				t.Fatalf("source = %q, want template", result.Source)
			}
			if result.Reason != "guardrail_violation" {
				t.Errorf("reason = %q, want guardrail_violation", result.Reason)
			}
			assertNoForbiddenPhrase(t, result.Text)
		})
	}
}

func TestGenerateFailureFallsBackToTemplate(t *testing.T) {
	client := &fakeGenClient{
		generateText: func(ctx context.Context, prompt string) (string, error) {
			return "", fmt.Errorf("upstream timeout")
		},
	}
	qg := NewQuestionGenerator(logger.NewNop(), client, 5*time.Second)

	result := qg.Generate(context.Background(), types.PatternImpulseCluster, types.BiasEmotionalSpending,
		map[string]any{"date": "2025-03-10", "count": 4.0, "total_spent": 178.0},
		testConcept(t, "emotional_spending"))

	if result.Source != SourceTemplate || result.Reason != "generation_failed" {
		t.Fatalf("got source=%q reason=%q, want template/generation_failed", result.Source, result.Reason)
	}
	if !strings.Contains(result.Text, "2025-03-10") {
		t.Errorf("template should carry the cluster date, got %q", result.Text)
	}
	if !strings.Contains(result.Text, "$178") {
		t.Errorf("template should carry the total, got %q", result.Text)
	}
}

func TestGenerateWithoutClientUsesTemplate(t *testing.T) {
	qg := NewQuestionGenerator(logger.NewNop(), nil, 5*time.Second)

	result := qg.Generate(context.Background(), types.PatternSubscriptionTrap, types.BiasSunkCost,
		map[string]any{"merchant": "Netflix", "amount": 15.99, "frequency": "recurring"},
		testConcept(t, "sunk_cost"))

	if result.Source != SourceTemplate || result.Reason != "no_client" {
		t.Fatalf("got source=%q reason=%q, want template/no_client", result.Source, result.Reason)
	}
	if !strings.Contains(result.Text, "Netflix") {
		t.Errorf("template should name the merchant, got %q", result.Text)
	}
}

func TestTemplatesNeverContainForbiddenPhrases(t *testing.T) {
	cases := []struct {
		code    types.PatternCode
		details map[string]any
	}{
		{types.PatternLatteFactor, map[string]any{"merchant": "Starbucks", "count": 3.0, "total_spent": 16.5, "avg_amount": 5.5}},
		{types.PatternImpulseCluster, map[string]any{"date": "2025-03-10", "count": 4.0, "total_spent": 178.25}},
		{types.PatternBigSplurge, map[string]any{"merchant": "BigBox", "amount": 200.0, "date": "2025-04-01"}},
		{types.PatternSubscriptionTrap, map[string]any{"merchant": "Netflix", "amount": 15.99, "frequency": "recurring"}},
		{types.PatternCode("UNKNOWN_CODE"), map[string]any{}},
		{types.PatternLatteFactor, map[string]any{}},
	}

	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			text := templateFor(tc.code, tc.details)
			if text == "" {
				t.Fatal("template produced empty text")
			}
			assertNoForbiddenPhrase(t, text)
		})
	}
}

func TestLatteTemplateDerivesTotalFromAvgAndCount(t *testing.T) {
	text := templateFor(types.PatternLatteFactor, map[string]any{"merchant": "Dunkin", "count": 4.0, "avg_amount": 5.0})
	if !strings.Contains(text, "$20") {
		t.Errorf("expected derived total $20 in %q", text)
	}
}

func assertNoForbiddenPhrase(t *testing.T, text string) {
	t.Helper()
	lowered := strings.ToLower(text)
	for _, phrase := range forbiddenPhrases {
		if strings.Contains(lowered, phrase) {
			t.Errorf("output contains forbidden phrase %q: %q", phrase, text)
		}
	}
}
