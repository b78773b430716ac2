package repository

import (
	"context"
	"errors"
	"fmt"

	"qanoon-rag/internal/domain"
	"qanoon-rag/internal/index"
)

// PgIndex is the Postgres-backed ArticleIndex. Vector search runs in
// the database through pgvector; lexical search runs against an
// in-process BM25 index hydrated from the corpus at startup, since the
// corpus is small enough to hold in memory and BM25 needs global
// term statistics anyway.
type PgIndex struct {
	repo  *ArticleRepository
	bm25  *index.BM25Index
	floor float64
}

// NewPgIndex loads the corpus once and builds the lexical index.
func NewPgIndex(ctx context.Context, repo *ArticleRepository, floor float64) (*PgIndex, error) {
	articles, err := repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to hydrate lexical index: %w", err)
	}
	for i := range articles {
		if len(articles[i].LexicalTerms) == 0 {
			articles[i].LexicalTerms = domain.Tokenize(articles[i].Text, articles[i].Language)
		}
	}
	return &PgIndex{
		repo:  repo,
		bm25:  index.NewBM25Index(articles),
		floor: floor,
	}, nil
}

func (idx *PgIndex) SearchVector(ctx context.Context, queryVector []float32, topK int) ([]domain.IndexHit, error) {
	hits, err := idx.repo.SearchVector(ctx, queryVector, topK, idx.floor)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
	}
	return hits, nil
}

func (idx *PgIndex) SearchLexical(ctx context.Context, tokens []string, topK int) ([]domain.IndexHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return idx.bm25.Search(tokens, topK, idx.floor), nil
}

func (idx *PgIndex) Get(ctx context.Context, articleID string) (*domain.LegalArticle, error) {
	a, err := idx.repo.GetByID(ctx, articleID)
	if err != nil {
		if errors.Is(err, domain.ErrArticleNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
	}
	return a, nil
}
