package retrieval

import (
	"log/slog"
	"sort"

	"qanoon-rag/internal/domain"
)

type streamScores struct {
	articleNumber string
	vector        float64
	lexical       float64
	hasVector     bool
	hasLexical    bool
}

// MergeCandidates deduplicates hits across variants by article,
// keeping the best raw score an article achieved in each stream, then
// rescales each stream to [0,1] and blends them. The result is ordered
// by blended score descending with article number as the tie-break, so
// the same hits always produce the same candidate list.
func MergeCandidates(sc *StageContext, logger *slog.Logger) {
	byID := make(map[string]*streamScores)
	var order []string

	absorb := func(hits []domain.IndexHit, lexical bool) {
		for _, h := range hits {
			s, ok := byID[h.ArticleID]
			if !ok {
				s = &streamScores{articleNumber: h.ArticleNumber}
				byID[h.ArticleID] = s
				order = append(order, h.ArticleID)
			}
			if lexical {
				if !s.hasLexical || h.Score > s.lexical {
					s.lexical = h.Score
					s.hasLexical = true
				}
			} else {
				if !s.hasVector || h.Score > s.vector {
					s.vector = h.Score
					s.hasVector = true
				}
			}
		}
	}
	for _, hits := range sc.VectorHits {
		absorb(hits, false)
	}
	for _, hits := range sc.LexicalHits {
		absorb(hits, true)
	}

	vecNorm := minMaxNormalize(byID, order, func(s *streamScores) (float64, bool) { return s.vector, s.hasVector })
	lexNorm := minMaxNormalize(byID, order, func(s *streamScores) (float64, bool) { return s.lexical, s.hasLexical })

	candidates := make([]domain.RetrievedCandidate, 0, len(order))
	for _, id := range order {
		s := byID[id]
		c := domain.RetrievedCandidate{
			ArticleID:     id,
			ArticleNumber: s.articleNumber,
			VectorScore:   vecNorm[id],
			LexicalScore:  lexNorm[id],
		}
		c.CombinedScore = sc.Alpha*c.VectorScore + (1-sc.Alpha)*c.LexicalScore
		candidates = append(candidates, c)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].CombinedScore != candidates[j].CombinedScore {
			return candidates[i].CombinedScore > candidates[j].CombinedScore
		}
		return domain.CompareArticleNumbers(candidates[i].ArticleNumber, candidates[j].ArticleNumber) < 0
	})

	sc.Candidates = candidates
	if logger != nil {
		logger.Debug("candidates_merged",
			"retrieval_id", sc.RetrievalID,
			"candidate_count", len(candidates),
			"degraded", sc.Degraded)
	}
}

// minMaxNormalize rescales one stream's raw scores to [0,1]. Articles
// missing from the stream score 0. When every present score is equal,
// positive scores map to 1 and the rest to 0, so a lone strong hit is
// not erased by the rescale.
func minMaxNormalize(byID map[string]*streamScores, order []string, get func(*streamScores) (float64, bool)) map[string]float64 {
	minScore, maxScore := 0.0, 0.0
	found := false
	for _, id := range order {
		raw, ok := get(byID[id])
		if !ok {
			continue
		}
		if !found || raw < minScore {
			minScore = raw
		}
		if !found || raw > maxScore {
			maxScore = raw
		}
		found = true
	}

	out := make(map[string]float64, len(order))
	for _, id := range order {
		raw, ok := get(byID[id])
		if !ok {
			out[id] = 0
			continue
		}
		if maxScore == minScore {
			if raw > 0 {
				out[id] = 1
			} else {
				out[id] = 0
			}
			continue
		}
		out[id] = (raw - minScore) / (maxScore - minScore)
	}
	return out
}
