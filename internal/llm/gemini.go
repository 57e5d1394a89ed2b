package llm

import (
	"context"
	"fmt"

	"github.com/insightdelivered/statement-extractor/internal/common"
	"github.com/insightdelivered/statement-extractor/internal/config"
	"google.golang.org/genai"
)

// GeminiClient completes prompts with the Gemini API.
type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
}

func NewGeminiClient(ctx context.Context, cfg config.LLMConfig) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiClient{client: client, model: cfg.Model, temperature: cfg.Temperature}, nil
}

// Complete asks for a JSON response and returns the concatenated text parts.
func (g *GeminiClient) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(user), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr(g.temperature),
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini: empty response: %w", common.ErrSchemaViolation)
	}
	return text, nil
}
