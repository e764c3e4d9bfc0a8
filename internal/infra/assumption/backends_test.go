package assumption_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boddenberg/mortgage-estimator-go/internal/domain"
	"github.com/boddenberg/mortgage-estimator-go/internal/infra/assumption"
)

const replyJSON = `{"interestRate":3.1,"downPaymentRatio":0.3,"loanTermYears":30,"netMonthlyIncome":18750,"monthlyHousingFund":6000,"monthlyLivingCost":3000,"marketAnalysis":"首套利率 LPR-30bp","cityTrend":"平稳"}`

func failureKind(t *testing.T, err error) domain.ProviderFailureKind {
	t.Helper()
	var pe *domain.ErrProviderUnavailable
	require.True(t, errors.As(err, &pe), "expected ErrProviderUnavailable, got %v", err)
	return pe.Kind
}

func chatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body struct {
			Model          string            `json:"model"`
			ResponseFormat map[string]string `json:"response_format"`
			Messages       []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "deepseek-chat", body.Model)
		assert.Equal(t, "json_object", body.ResponseFormat["type"])
		require.Len(t, body.Messages, 1)

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		resp := map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": content}}},
			"usage":   map[string]any{"prompt_tokens": 120, "completion_tokens": 80},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newChat(url, key string) *assumption.Chat {
	return assumption.NewChat(http.DefaultClient, assumption.ChatConfig{
		Name: "deepseek", BaseURL: url + "/", APIKey: key, Model: "deepseek-chat",
	})
}

func TestChat_Success(t *testing.T) {
	srv := chatServer(t, http.StatusOK, replyJSON)

	res, err := newChat(srv.URL, "sk-test").Generate(context.Background(), domain.DefaultUserInput())
	require.NoError(t, err)
	assert.Equal(t, 3.1, res.Params.InterestRate)
	assert.Equal(t, 30, res.Params.LoanTermYears)
	assert.Equal(t, "平稳", res.Params.CityTrend)
	assert.Equal(t, 120, res.PromptTokens)
	assert.Equal(t, 80, res.CompletionTokens)
}

func TestChat_FailureKinds(t *testing.T) {
	in := domain.DefaultUserInput()

	_, err := newChat("http://unused", "").Generate(context.Background(), in)
	assert.Equal(t, domain.FailureCredential, failureKind(t, err))

	srv := chatServer(t, http.StatusBadGateway, "")
	_, err = newChat(srv.URL, "sk-test").Generate(context.Background(), in)
	assert.Equal(t, domain.FailureStatus, failureKind(t, err))

	srv = chatServer(t, http.StatusUnauthorized, "")
	_, err = newChat(srv.URL, "sk-test").Generate(context.Background(), in)
	assert.Equal(t, domain.FailureCredential, failureKind(t, err))

	srv = chatServer(t, http.StatusOK, "")
	_, err = newChat(srv.URL, "sk-test").Generate(context.Background(), in)
	assert.Equal(t, domain.FailureEmpty, failureKind(t, err))

	srv = chatServer(t, http.StatusOK, "当前无法回答")
	_, err = newChat(srv.URL, "sk-test").Generate(context.Background(), in)
	assert.Equal(t, domain.FailureParse, failureKind(t, err))

	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()
	_, err = newChat(dead.URL, "sk-test").Generate(context.Background(), in)
	assert.Equal(t, domain.FailureNetwork, failureKind(t, err))
}

func TestGemini_SendsSchemaAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.Header.Get("x-goog-api-key"))

		var body struct {
			GenerationConfig struct {
				ResponseMimeType string `json:"responseMimeType"`
				ResponseSchema   struct {
					Required []string `json:"required"`
				} `json:"responseSchema"`
			} `json:"generationConfig"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "application/json", body.GenerationConfig.ResponseMimeType)
		assert.ElementsMatch(t,
			[]string{"interestRate", "downPaymentRatio", "loanTermYears", "marketAnalysis", "cityTrend"},
			body.GenerationConfig.ResponseSchema.Required)

		resp := map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"parts": []any{map[string]any{"text": replyJSON}}},
			}},
			"usageMetadata": map[string]any{"promptTokenCount": 300, "candidatesTokenCount": 90},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	g := assumption.NewGemini(http.DefaultClient, assumption.GeminiConfig{
		BaseURL: srv.URL, APIKey: "g-key", Model: "gemini-2.5-flash",
	})
	res, err := g.Generate(context.Background(), domain.DefaultUserInput())
	require.NoError(t, err)
	assert.Equal(t, 18750.0, res.Params.NetMonthlyIncome)
	assert.Equal(t, 300, res.PromptTokens)
	assert.Equal(t, 90, res.CompletionTokens)
}

func TestGemini_NoCandidatesIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	g := assumption.NewGemini(http.DefaultClient, assumption.GeminiConfig{
		BaseURL: srv.URL, APIKey: "g-key", Model: "gemini-2.5-flash",
	})
	_, err := g.Generate(context.Background(), domain.DefaultUserInput())
	assert.Equal(t, domain.FailureEmpty, failureKind(t, err))
}

func TestStatic_UsesSalary(t *testing.T) {
	s := &assumption.Static{InterestRate: 3.2, LivingCost: 4000}
	in := domain.DefaultUserInput()
	in.AnnualSalary = 240_000

	res, err := s.Generate(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 3.2, res.Params.InterestRate)
	assert.Equal(t, 15_000.0, res.Params.NetMonthlyIncome)
	assert.Equal(t, 4_800.0, res.Params.MonthlyHousingFund)
	assert.Equal(t, 4_000.0, res.Params.MonthlyLivingCost)
	assert.Equal(t, 30, res.Params.LoanTermYears)
	assert.Contains(t, res.Params.MarketAnalysis, "一线城市")
}
