package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"qanoon-rag/internal/domain"
)

// Generator calls the Gemini generateContent endpoint.
type Generator struct {
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float64
	Client      *http.Client
	Logger      *slog.Logger
}

func NewGenerator(baseURL, model, apiKey string, client *http.Client, logger *slog.Logger) *Generator {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Generator{
		BaseURL:     baseURL,
		Model:       model,
		APIKey:      apiKey,
		Temperature: 0.1,
		Client:      client,
		Logger:      logger,
	}
}

type generateRequest struct {
	Contents         []generateContent `json:"contents"`
	GenerationConfig generationConfig  `json:"generationConfig"`
}

type generateContent struct {
	Parts []contentPart `json:"parts"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []contentPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
	Error *apiError `json:"error,omitempty"`
}

func (g *Generator) Generate(ctx context.Context, prompt string, _ domain.Language) (*domain.LLMResponse, error) {
	start := time.Now()

	reqBody := generateRequest{
		Contents:         []generateContent{{Parts: []contentPart{{Text: prompt}}}},
		GenerationConfig: generationConfig{Temperature: g.Temperature},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generate request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.BaseURL, g.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.APIKey)

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generate request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read generate response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generate request returned %d: %s", resp.StatusCode, truncateBody(body))
	}

	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode generate response: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("generate api error %d: %s", out.Error.Code, out.Error.Message)
	}
	if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("prompt blocked: %s", out.PromptFeedback.BlockReason)
	}
	if len(out.Candidates) == 0 {
		return nil, fmt.Errorf("generate response contained no candidates")
	}

	cand := out.Candidates[0]
	var text strings.Builder
	for _, part := range cand.Content.Parts {
		text.WriteString(part.Text)
	}

	done := cand.FinishReason == "" || cand.FinishReason == "STOP"
	if g.Logger != nil {
		g.Logger.Info("answer_generated",
			"model", g.Model,
			"finish_reason", cand.FinishReason,
			"response_chars", text.Len(),
			"duration_ms", time.Since(start).Milliseconds())
	}
	return &domain.LLMResponse{Text: text.String(), Done: done}, nil
}

func (g *Generator) Version() string {
	return g.Model
}
