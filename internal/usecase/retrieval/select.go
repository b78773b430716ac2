package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"qanoon-rag/internal/domain"
)

// SelectEvidence admits the best candidates into the answer context:
// candidates below minRelevance are dropped, at most maxArticles
// survive, and each survivor is resolved to its full article text.
// An empty result means the question cannot be answered from the
// corpus; that is a state, not an error.
func SelectEvidence(ctx context.Context, candidates []domain.RetrievedCandidate, idx domain.ArticleIndex, minRelevance float64, maxArticles int, logger *slog.Logger) ([]domain.Evidence, error) {
	var evidence []domain.Evidence
	for _, c := range candidates {
		if c.CombinedScore < minRelevance {
			// Candidates are sorted, everything after is weaker.
			break
		}
		if len(evidence) >= maxArticles {
			break
		}

		article, err := idx.Get(ctx, c.ArticleID)
		if err != nil {
			if errors.Is(err, domain.ErrArticleNotFound) {
				// The index returned an id it cannot resolve.
				return nil, fmt.Errorf("%w: candidate %s vanished from index", domain.ErrIndexUnavailable, c.ArticleID)
			}
			return nil, err
		}
		evidence = append(evidence, domain.Evidence{
			Article:        article,
			RelevanceScore: c.CombinedScore,
		})
	}

	if logger != nil {
		logger.Debug("evidence_selected",
			"candidate_count", len(candidates),
			"evidence_count", len(evidence))
	}
	return evidence, nil
}
