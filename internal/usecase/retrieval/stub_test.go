package retrieval

import (
	"context"
	"io"
	"log/slog"

	"qanoon-rag/internal/domain"
)

type stubIndex struct {
	searchVector  func(ctx context.Context, vec []float32, topK int) ([]domain.IndexHit, error)
	searchLexical func(ctx context.Context, tokens []string, topK int) ([]domain.IndexHit, error)
	get           func(ctx context.Context, articleID string) (*domain.LegalArticle, error)
}

func (s *stubIndex) SearchVector(ctx context.Context, vec []float32, topK int) ([]domain.IndexHit, error) {
	return s.searchVector(ctx, vec, topK)
}

func (s *stubIndex) SearchLexical(ctx context.Context, tokens []string, topK int) ([]domain.IndexHit, error) {
	return s.searchLexical(ctx, tokens, topK)
}

func (s *stubIndex) Get(ctx context.Context, articleID string) (*domain.LegalArticle, error) {
	return s.get(ctx, articleID)
}

type stubEncoder struct {
	encode func(ctx context.Context, text string, lang domain.Language) ([]float32, error)
}

func (s *stubEncoder) Encode(ctx context.Context, text string, lang domain.Language) ([]float32, error) {
	if s.encode != nil {
		return s.encode(ctx, text, lang)
	}
	return []float32{1, 0, 0}, nil
}

func (s *stubEncoder) Version() string { return "stub" }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
