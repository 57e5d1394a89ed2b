package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/insightdelivered/statement-extractor/internal/common"
	"github.com/insightdelivered/statement-extractor/internal/config"
	"github.com/insightdelivered/statement-extractor/internal/remote"
)

// ChatClient talks to an OpenAI-compatible chat/completions endpoint.
type ChatClient struct {
	cfg  config.LLMConfig
	http *http.Client
}

func NewChatClient(cfg config.LLMConfig) *ChatClient {
	return &ChatClient{cfg: cfg, http: remote.NewClient(cfg.Timeout)}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Temperature    float32           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
	Messages       []chatMessage     `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete returns the content of the first choice.
func (c *ChatClient) Complete(ctx context.Context, system, user string) (string, error) {
	body := chatRequest{
		Model:          c.cfg.Model,
		Temperature:    c.cfg.Temperature,
		ResponseFormat: map[string]string{"type": "json_object"},
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}

	var resp chatResponse
	if err := remote.PostJSON(ctx, c.http, "llm", endpoint, headers, body, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm: no choices in response: %w", common.ErrSchemaViolation)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
