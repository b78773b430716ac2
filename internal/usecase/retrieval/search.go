package retrieval

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"qanoon-rag/internal/domain"
)

// SearchVariants fans out one vector and one lexical search per query
// variant. Each call runs under its own deadline; a call that misses
// it loses its contribution and marks the retrieval degraded, while a
// hard index failure aborts the whole stage.
func SearchVariants(ctx context.Context, sc *StageContext, idx domain.ArticleIndex, encoder domain.VectorEncoder, logger *slog.Logger) error {
	sc.VectorHits = make([][]domain.IndexHit, len(sc.Variants))
	sc.LexicalHits = make([][]domain.IndexHit, len(sc.Variants))

	var mu sync.Mutex
	markDegraded := func() {
		mu.Lock()
		sc.Degraded = true
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)

	for i, variant := range sc.Variants {
		i, variant := i, variant
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, sc.VariantSearchTimeout)
			defer cancel()

			vec, err := encoder.Encode(callCtx, variant.Text, variant.Language)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Warn("variant_embed_dropped",
					"retrieval_id", sc.RetrievalID,
					"variant_kind", variant.Kind,
					"error", err)
				markDegraded()
				return nil // non-fatal
			}

			hits, err := idx.SearchVector(callCtx, vec, sc.TopK)
			if err != nil {
				return handleSearchError(gctx, sc, "vector", variant, err, logger, markDegraded)
			}
			sc.VectorHits[i] = hits
			return nil
		})

		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, sc.VariantSearchTimeout)
			defer cancel()

			tokens := domain.Tokenize(variant.Text, variant.Language)
			hits, err := idx.SearchLexical(callCtx, tokens, sc.TopK)
			if err != nil {
				return handleSearchError(gctx, sc, "lexical", variant, err, logger, markDegraded)
			}
			sc.LexicalHits[i] = hits
			return nil
		})
	}

	return g.Wait()
}

func handleSearchError(gctx context.Context, sc *StageContext, stream string, variant domain.QueryVariant, err error, logger *slog.Logger, markDegraded func()) error {
	if gctx.Err() != nil {
		return gctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		logger.Warn("variant_search_timeout",
			"retrieval_id", sc.RetrievalID,
			"stream", stream,
			"variant_kind", variant.Kind,
			"error", err)
		markDegraded()
		return nil // non-fatal
	}
	return err
}
