package gemini

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qanoon-rag/internal/domain"
)

func TestEmbedderEncode(t *testing.T) {
	var gotTaskType string
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotTaskType = req.TaskType

		resp := embedResponse{}
		resp.Embedding.Values = []float32{3, 4}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	e := NewEmbedder(server.URL, "gemini-embedding-001", "test-key", 768, server.Client(), nil)
	vec, err := e.Encode(context.Background(), "durée du travail", domain.LanguageFrench)
	require.NoError(t, err)

	assert.Equal(t, "RETRIEVAL_QUERY", gotTaskType)
	assert.Equal(t, "test-key", gotKey)
	require.Len(t, vec, 2)
	norm := math.Sqrt(float64(vec[0]*vec[0] + vec[1]*vec[1]))
	assert.InDelta(t, 1.0, norm, 1e-6)
}

func TestEmbedderEncodeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":500}}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	e := NewEmbedder(server.URL, "gemini-embedding-001", "k", 768, server.Client(), nil)
	_, err := e.Encode(context.Background(), "x", domain.LanguageFrench)
	assert.Error(t, err)
}

func TestGeneratorGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"candidates": [{
				"content": {"parts": [{"text": "La durée normale est de 44 heures.\n\nSources: Article 184 - Code du Travail"}]},
				"finishReason": "STOP"
			}]
		}`))
	}))
	defer server.Close()

	g := NewGenerator(server.URL, "gemini-2.0-flash", "k", server.Client(), nil)
	resp, err := g.Generate(context.Background(), "prompt", domain.LanguageFrench)
	require.NoError(t, err)
	assert.True(t, resp.Done)
	assert.Contains(t, resp.Text, "44 heures")
}

func TestGeneratorBlockedPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"promptFeedback": {"blockReason": "SAFETY"}}`))
	}))
	defer server.Close()

	g := NewGenerator(server.URL, "gemini-2.0-flash", "k", server.Client(), nil)
	_, err := g.Generate(context.Background(), "prompt", domain.LanguageFrench)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SAFETY")
}

func TestGeneratorTruncatedCandidate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"candidates": [{
				"content": {"parts": [{"text": "partial"}]},
				"finishReason": "MAX_TOKENS"
			}]
		}`))
	}))
	defer server.Close()

	g := NewGenerator(server.URL, "gemini-2.0-flash", "k", server.Client(), nil)
	resp, err := g.Generate(context.Background(), "prompt", domain.LanguageFrench)
	require.NoError(t, err)
	assert.False(t, resp.Done)
}

type countingEncoder struct {
	calls int
}

func (c *countingEncoder) Encode(_ context.Context, text string, _ domain.Language) ([]float32, error) {
	c.calls++
	return []float32{1, 0}, nil
}

func (c *countingEncoder) Version() string { return "counting" }

func TestCachedEncoder(t *testing.T) {
	inner := &countingEncoder{}
	cached, err := NewCachedEncoder(inner, 8, nil)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = cached.Encode(ctx, "salaire minimum", domain.LanguageFrench)
	require.NoError(t, err)
	_, err = cached.Encode(ctx, "salaire minimum", domain.LanguageFrench)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)

	// Same text in another language is a distinct key.
	_, err = cached.Encode(ctx, "salaire minimum", domain.LanguageArabic)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}
