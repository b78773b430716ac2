package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"qanoon-rag/internal/domain"
)

const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Embedder calls the Gemini embedContent endpoint and returns
// L2-normalized embeddings. TaskType defaults to RETRIEVAL_QUERY; the
// indexer switches it to RETRIEVAL_DOCUMENT for corpus loads.
type Embedder struct {
	BaseURL  string
	Model    string
	APIKey   string
	Dim      int
	TaskType string
	Client   *http.Client
	Logger   *slog.Logger
}

func NewEmbedder(baseURL, model, apiKey string, dim int, client *http.Client, logger *slog.Logger) *Embedder {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Embedder{
		BaseURL:  baseURL,
		Model:    model,
		APIKey:   apiKey,
		Dim:      dim,
		TaskType: "RETRIEVAL_QUERY",
		Client:   client,
		Logger:   logger,
	}
}

type embedRequest struct {
	Model                string       `json:"model"`
	Content              embedContent `json:"content"`
	TaskType             string       `json:"taskType"`
	OutputDimensionality int          `json:"outputDimensionality,omitempty"`
}

type embedContent struct {
	Parts []contentPart `json:"parts"`
}

type contentPart struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func (e *Embedder) Encode(ctx context.Context, text string, _ domain.Language) ([]float32, error) {
	start := time.Now()

	reqBody := embedRequest{
		Model:                "models/" + e.Model,
		Content:              embedContent{Parts: []contentPart{{Text: text}}},
		TaskType:             e.TaskType,
		OutputDimensionality: e.Dim,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embed request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:embedContent", e.BaseURL, e.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", e.APIKey)

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read embed response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embed request returned %d: %s", resp.StatusCode, truncateBody(body))
	}

	var out embedResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode embed response: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("embed api error %d: %s", out.Error.Code, out.Error.Message)
	}
	if len(out.Embedding.Values) == 0 {
		return nil, fmt.Errorf("embed response contained no values")
	}

	vec := l2Normalize(out.Embedding.Values)
	if e.Logger != nil {
		e.Logger.Debug("query_embedded",
			"model", e.Model,
			"dim", len(vec),
			"duration_ms", time.Since(start).Milliseconds())
	}
	return vec, nil
}

func (e *Embedder) Version() string {
	return e.Model
}

// l2Normalize scales the vector to unit length so cosine similarity
// can be computed as a dot product downstream.
func l2Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := 1 / math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

func truncateBody(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
