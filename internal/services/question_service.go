package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/budgelabs/budge-backend/internal/knowledge"
	"github.com/budgelabs/budge-backend/internal/pkg/logger"
	"github.com/budgelabs/budge-backend/internal/types"
)

// QuestionSource says where a question's text came from, so fallback is a
// visible branch in the result rather than a swallowed exception.
type QuestionSource string

const (
	SourceModel    QuestionSource = "model"
	SourceTemplate QuestionSource = "template"
)

type QuestionResult struct {
	Text   string
	Source QuestionSource
	// Reason is set when Source is SourceTemplate: "guardrail_violation",
	// "generation_failed" or "no_client".
	Reason string
}

// forbiddenPhrases is the advice-language guardrail. Matching is a
// case-insensitive substring check over the generated text; any hit discards
// the model output entirely.
var forbiddenPhrases = []string{
	"you should",
	"try to",
	"consider",
	"it would be better",
	"i recommend",
	"why don't you",
}

// QuestionGenerator produces one Socratic reflection question per pattern.
// Advice-language never reaches a user: violating or failed generations are
// replaced by deterministic per-pattern templates.
type QuestionGenerator interface {
	Generate(ctx context.Context, code types.PatternCode, biasName string, details map[string]any, concept *knowledge.Concept) QuestionResult
}

type questionGenerator struct {
	log             *logger.Logger
	client          GenerativeClient
	generateTimeout time.Duration
}

func NewQuestionGenerator(log *logger.Logger, client GenerativeClient, generateTimeout time.Duration) QuestionGenerator {
	return &questionGenerator{
		log:             log.With("service", "QuestionGenerator"),
		client:          client,
		generateTimeout: generateTimeout,
	}
}

func (qg *questionGenerator) Generate(ctx context.Context, code types.PatternCode, biasName string, details map[string]any, concept *knowledge.Concept) QuestionResult {
	if qg.client == nil {
		return QuestionResult{Text: templateFor(code, details), Source: SourceTemplate, Reason: "no_client"}
	}

	prompt := buildQuestionPrompt(code, biasName, details, concept)

	genCtx, cancel := context.WithTimeout(ctx, qg.generateTimeout)
	defer cancel()
	text, err := qg.client.GenerateText(genCtx, prompt)
	if err != nil {
		qg.log.Warn("Question generation failed, using template", "pattern_code", code, "error", err)
		return QuestionResult{Text: templateFor(code, details), Source: SourceTemplate, Reason: "generation_failed"}
	}

	question := strings.Trim(strings.TrimSpace(text), `"`)
	if phrase, ok := violatesGuardrail(question); ok {
		qg.log.Warn("Generated question tripped the advice guardrail, using template", "pattern_code", code, "phrase", phrase)
		return QuestionResult{Text: templateFor(code, details), Source: SourceTemplate, Reason: "guardrail_violation"}
	}
	return QuestionResult{Text: question, Source: SourceModel}
}

func violatesGuardrail(question string) (string, bool) {
	lowered := strings.ToLower(question)
	for _, phrase := range forbiddenPhrases {
		if strings.Contains(lowered, phrase) {
			return phrase, true
		}
	}
	return "", false
}

func buildQuestionPrompt(code types.PatternCode, biasName string, details map[string]any, concept *knowledge.Concept) string {
	detailsJSON, _ := json.Marshal(details)
	return fmt.Sprintf(`You are a financial education coach using the Socratic method.

DETECTED PATTERN:
Type: %s
Cognitive Bias: %s
User's Data: %s

CONCEPT CONTEXT:
%s

YOUR TASK: Generate ONE powerful reflection question that:
1. Uses their specific numbers/merchants from the data above
2. Makes them THINK about their decision-making process
3. Has no obvious "right" answer
4. Is NOT advice in disguise

FORBIDDEN PHRASES (never use these):
- "Have you considered..."
- "Why don't you..."
- "You should think about..."
- "Would it be better if..."

GOOD QUESTION TYPES:
- Consequence exploration: "If you kept this pattern for 2 years, what would change?"
- Value clarification: "What does spending $X on Y say about your priorities right now?"
- Emotional awareness: "What feeling are you trying to create with these purchases?"
- Future self: "Would your future self thank you for this, or wish you'd chosen differently?"

EXAMPLE GOOD QUESTIONS:
- "You spent $450 at Starbucks in 3 months. If that money had gone to your travel fund instead, where would you be going right now?"
- "These 7 purchases happened on the same stressful day. What were you feeling, and did the spending actually help?"

EXAMPLE BAD QUESTIONS (too preachy):
- "Don't you think you should cut back on coffee?"
- "Have you considered making coffee at home?"

Generate ONE question (return ONLY the question, no preamble):`, code, biasName, string(detailsJSON), concept.Definition)
}

// templateFor is the deterministic fallback, one template per pattern code,
// filled from the raw details fields.
func templateFor(code types.PatternCode, details map[string]any) string {
	switch code {
	case types.PatternLatteFactor:
		total := detailFloat(details, "total_spent")
		if total == 0 {
			total = detailFloat(details, "avg_amount") * detailFloat(details, "count")
		}
		return fmt.Sprintf("You've spent $%.0f on small %s purchases recently. What would that money unlock if you redirected it for 6 months?",
			total, detailString(details, "merchant", "purchases"))
	case types.PatternImpulseCluster:
		return fmt.Sprintf("On %s, you made %.0f purchases totaling $%.0f. What was happening in your life that day?",
			detailString(details, "date", "that day"), detailFloat(details, "count"), detailFloat(details, "total_spent"))
	case types.PatternBigSplurge:
		return fmt.Sprintf("That $%.0f purchase at %s stands out from your usual spending. What made the price feel right in the moment?",
			detailFloat(details, "amount"), detailString(details, "merchant", "that store"))
	case types.PatternSubscriptionTrap:
		return fmt.Sprintf("The $%.2f charge from %s keeps recurring. What did it add to your life this month?",
			detailFloat(details, "amount"), detailString(details, "merchant", "that subscription"))
	default:
		return "What pattern do you notice in your spending, and what does it tell you?"
	}
}

func detailString(details map[string]any, key, fallback string) string {
	if v, ok := details[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func detailFloat(details map[string]any, key string) float64 {
	switch v := details[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	default:
		return 0
	}
}
