package index

import (
	"context"
	"fmt"
	"math"

	"qanoon-rag/internal/domain"
)

// MemoryIndex is a self-contained ArticleIndex holding the whole
// corpus in process. It backs tests and small single-node deployments
// where running Postgres is not worth it.
type MemoryIndex struct {
	articles []domain.LegalArticle
	byID     map[string]*domain.LegalArticle
	vectors  [][]float32
	bm25     *BM25Index
	floor    float64
}

// NewMemoryIndex copies the corpus, L2-normalizes the stored
// embeddings and builds the lexical index. Articles without lexical
// terms get them derived from their text.
func NewMemoryIndex(articles []domain.LegalArticle, floor float64) *MemoryIndex {
	idx := &MemoryIndex{
		articles: make([]domain.LegalArticle, len(articles)),
		byID:     make(map[string]*domain.LegalArticle, len(articles)),
		vectors:  make([][]float32, len(articles)),
		floor:    floor,
	}
	copy(idx.articles, articles)
	for i := range idx.articles {
		a := &idx.articles[i]
		if len(a.LexicalTerms) == 0 {
			a.LexicalTerms = domain.Tokenize(a.Text, a.Language)
		}
		idx.byID[a.ArticleID] = a
		idx.vectors[i] = normalize(a.Embedding)
	}
	idx.bm25 = NewBM25Index(idx.articles)
	return idx
}

func (idx *MemoryIndex) SearchVector(ctx context.Context, queryVector []float32, topK int) ([]domain.IndexHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := normalize(queryVector)
	var hits []domain.IndexHit
	for i, v := range idx.vectors {
		if len(v) != len(q) {
			return nil, fmt.Errorf("embedding dimension mismatch: corpus %d, query %d", len(v), len(q))
		}
		score := float64(dot(q, v))
		if score <= idx.floor {
			continue
		}
		hits = append(hits, domain.IndexHit{
			ArticleID:     idx.articles[i].ArticleID,
			ArticleNumber: idx.articles[i].ArticleNumber,
			Score:         score,
		})
	}
	sortHits(hits)
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func (idx *MemoryIndex) SearchLexical(ctx context.Context, tokens []string, topK int) ([]domain.IndexHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return idx.bm25.Search(tokens, topK, idx.floor), nil
}

func (idx *MemoryIndex) Get(_ context.Context, articleID string) (*domain.LegalArticle, error) {
	a, ok := idx.byID[articleID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrArticleNotFound, articleID)
	}
	return a, nil
}

// Stats reports corpus counts for the info endpoint.
func (idx *MemoryIndex) Stats(_ context.Context) (*domain.CorpusStats, error) {
	byCode := make(map[string]int)
	dim := 0
	for _, a := range idx.articles {
		byCode[string(a.CodeSource)]++
		if dim == 0 {
			dim = len(a.Embedding)
		}
	}
	return &domain.CorpusStats{
		ArticleCount: len(idx.articles),
		CountByCode:  byCode,
		EmbeddingDim: dim,
	}, nil
}

func normalize(v []float32) []float32 {
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

func dot(a, b []float32) float32 {
	var s float32
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
