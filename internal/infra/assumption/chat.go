package assumption

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/boddenberg/mortgage-estimator-go/internal/domain"
	"github.com/boddenberg/mortgage-estimator-go/internal/port"
)

// ChatConfig configures an OpenAI-compatible chat completions backend.
type ChatConfig struct {
	Name    string // "deepseek" or "openai"
	BaseURL string
	APIKey  string
	Model   string
}

// Chat calls POST {BaseURL}/chat/completions with a JSON-object response format.
type Chat struct {
	cfg        ChatConfig
	httpClient *http.Client
}

// NewChat creates a chat backend.
func NewChat(httpClient *http.Client, cfg ChatConfig) *Chat {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Chat{cfg: cfg, httpClient: httpClient}
}

func (c *Chat) Name() string { return c.cfg.Name }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Generate asks the model for assumptions.
func (c *Chat) Generate(ctx context.Context, in domain.UserInput) (*port.BackendResult, error) {
	ctx, span := tracer.Start(ctx, "Chat.Generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("backend", c.cfg.Name),
		attribute.String("model", c.cfg.Model),
	)

	if c.cfg.APIKey == "" {
		return nil, fail(c.cfg.Name, domain.FailureCredential, errors.New("api key is missing"))
	}

	body, err := json.Marshal(chatRequest{
		Model:          c.cfg.Model,
		Messages:       []chatMessage{{Role: "user", Content: ChatPrompt(in)}},
		ResponseFormat: map[string]string{"type": "json_object"},
	})
	if err != nil {
		return nil, fail(c.cfg.Name, domain.FailureParse, err)
	}

	url := fmt.Sprintf("%s/chat/completions", c.cfg.BaseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fail(c.cfg.Name, domain.FailureNetwork, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, transportFailure(c.cfg.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fail(c.cfg.Name, domain.FailureCredential, fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fail(c.cfg.Name, domain.FailureStatus, fmt.Errorf("status %d: %s", resp.StatusCode, snippet))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fail(c.cfg.Name, domain.FailureParse, fmt.Errorf("decoding completion: %w", err))
	}
	if len(cr.Choices) == 0 || strings.TrimSpace(cr.Choices[0].Message.Content) == "" {
		return nil, fail(c.cfg.Name, domain.FailureEmpty, errors.New("no response content"))
	}

	params, err := DecodeParams(cr.Choices[0].Message.Content, in)
	if err != nil {
		return nil, fail(c.cfg.Name, domain.FailureParse, err)
	}

	return &port.BackendResult{
		Params:           params,
		PromptTokens:     cr.Usage.PromptTokens,
		CompletionTokens: cr.Usage.CompletionTokens,
	}, nil
}
