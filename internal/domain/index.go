package domain

import "context"

// IndexHit is one raw search result from a single stream.
type IndexHit struct {
	ArticleID     string
	ArticleNumber string
	Score         float64
}

// ArticleIndex is the read-side search surface over the article corpus.
// Both streams return hits ordered by descending raw score with
// article-number ascending as the tie-break, already filtered to hits
// above the index's minimum score floor. An empty result is not an
// error.
type ArticleIndex interface {
	SearchVector(ctx context.Context, queryVector []float32, topK int) ([]IndexHit, error)
	SearchLexical(ctx context.Context, tokens []string, topK int) ([]IndexHit, error)
	Get(ctx context.Context, articleID string) (*LegalArticle, error)
}
