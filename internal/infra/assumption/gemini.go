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

// GeminiConfig configures the Gemini generateContent backend.
type GeminiConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Gemini calls the Generative Language REST API with a response schema.
type Gemini struct {
	cfg        GeminiConfig
	httpClient *http.Client
}

// NewGemini creates a Gemini backend.
func NewGemini(httpClient *http.Client, cfg GeminiConfig) *Gemini {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Gemini{cfg: cfg, httpClient: httpClient}
}

func (g *Gemini) Name() string { return "gemini" }

type schemaField struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

type responseSchema struct {
	Type       string                 `json:"type"`
	Properties map[string]schemaField `json:"properties"`
	Required   []string               `json:"required"`
}

// paramsSchema constrains the reply to the AIMortgageParams shape.
var paramsSchema = responseSchema{
	Type: "OBJECT",
	Properties: map[string]schemaField{
		"interestRate":       {Type: "NUMBER", Description: "Annual commercial loan interest rate (%)."},
		"downPaymentRatio":   {Type: "NUMBER", Description: "Down payment ratio."},
		"loanTermYears":      {Type: "INTEGER", Description: "Loan term in years."},
		"netMonthlyIncome":   {Type: "NUMBER", Description: "Estimated monthly net income after tax."},
		"monthlyHousingFund": {Type: "NUMBER", Description: "Total monthly housing fund."},
		"monthlyLivingCost":  {Type: "NUMBER", Description: "Estimated monthly living costs."},
		"marketAnalysis":     {Type: "STRING", Description: "Explanation of rate and cost basis."},
		"cityTrend":          {Type: "STRING", Description: "Market trend."},
	},
	Required: []string{"interestRate", "downPaymentRatio", "loanTermYears", "marketAnalysis", "cityTrend"},
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		ResponseMimeType string         `json:"responseMimeType"`
		ResponseSchema   responseSchema `json:"responseSchema"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

func (r *geminiResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// Generate asks Gemini for assumptions.
func (g *Gemini) Generate(ctx context.Context, in domain.UserInput) (*port.BackendResult, error) {
	ctx, span := tracer.Start(ctx, "Gemini.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("model", g.cfg.Model))

	if g.cfg.APIKey == "" {
		return nil, fail(g.Name(), domain.FailureCredential, errors.New("api key is missing"))
	}

	var req geminiRequest
	req.Contents = []geminiContent{{Parts: []geminiPart{{Text: DetailedPrompt(in)}}}}
	req.GenerationConfig.ResponseMimeType = "application/json"
	req.GenerationConfig.ResponseSchema = paramsSchema

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fail(g.Name(), domain.FailureParse, err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.cfg.BaseURL, g.cfg.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fail(g.Name(), domain.FailureNetwork, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.cfg.APIKey)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, transportFailure(g.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fail(g.Name(), domain.FailureCredential, fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fail(g.Name(), domain.FailureStatus, fmt.Errorf("status %d: %s", resp.StatusCode, snippet))
	}

	var gr geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fail(g.Name(), domain.FailureParse, fmt.Errorf("decoding response: %w", err))
	}
	text := gr.text()
	if strings.TrimSpace(text) == "" {
		return nil, fail(g.Name(), domain.FailureEmpty, errors.New("no response text"))
	}

	params, err := DecodeParams(text, in)
	if err != nil {
		return nil, fail(g.Name(), domain.FailureParse, err)
	}

	return &port.BackendResult{
		Params:           params,
		PromptTokens:     gr.UsageMetadata.PromptTokenCount,
		CompletionTokens: gr.UsageMetadata.CandidatesTokenCount,
	}, nil
}
