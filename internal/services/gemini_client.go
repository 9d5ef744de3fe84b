package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/budgelabs/budge-backend/internal/app"
	"github.com/budgelabs/budge-backend/internal/pkg/logger"
)

// GenerativeClient is the contract the pipeline needs from a generative-text
// provider: free-text generation for questions and explanations, schema-
// constrained JSON (optionally multimodal) for statement extraction, and
// embeddings for concept retrieval. One attempt per call; callers fall back
// locally on error.
type GenerativeClient interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateJSON(ctx context.Context, prompt string, image []byte, mimeType string, schema *genai.Schema) (map[string]any, error)
	Embed(ctx context.Context, text string, task string) ([]float32, error)
}

type geminiClient struct {
	log        *logger.Logger
	client     *genai.Client
	model      string
	embedModel string
}

func NewGeminiClient(log *logger.Logger, cfg app.Config) (GenerativeClient, error) {
	if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.GeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &geminiClient{
		log:        log.With("service", "GeminiClient"),
		client:     client,
		model:      cfg.GeminiModel,
		embedModel: cfg.GeminiEmbedModel,
	}, nil
}

func (gc *geminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := gc.client.Models.GenerateContent(ctx, gc.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini generate: empty response")
	}
	return text, nil
}

func (gc *geminiClient) GenerateJSON(ctx context.Context, prompt string, image []byte, mimeType string, schema *genai.Schema) (map[string]any, error) {
	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	if len(image) > 0 {
		parts = append(parts, genai.NewPartFromBytes(image, mimeType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
	resp, err := gc.client.Models.GenerateContent(ctx, gc.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini generate json: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(resp.Text()), &out); err != nil {
		return nil, fmt.Errorf("gemini generate json: decode: %w", err)
	}
	return out, nil
}

func (gc *geminiClient) Embed(ctx context.Context, text string, task string) ([]float32, error) {
	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	result, err := gc.client.Models.EmbedContent(ctx, gc.embedModel, contents, &genai.EmbedContentConfig{
		TaskType: task,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("gemini embed: no embeddings returned")
	}
	return result.Embeddings[0].Values, nil
}
