package index

import (
	"math"
	"sort"

	"qanoon-rag/internal/domain"
)

const (
	defaultK1 = 1.5
	defaultB  = 0.75
)

type posting struct {
	doc int
	tf  float64
}

// BM25Index is an in-memory lexical index over the article corpus.
// It is built once at startup from the normalized lexical terms stored
// with each article and is safe for concurrent reads afterwards.
type BM25Index struct {
	k1        float64
	b         float64
	docs      []bm25Doc
	postings  map[string][]posting
	idf       map[string]float64
	avgDocLen float64
}

type bm25Doc struct {
	articleID     string
	articleNumber string
	length        float64
}

// NewBM25Index builds the postings and IDF tables from the corpus.
// Articles are indexed in the order given, which fixes the internal
// document ids and keeps scoring deterministic.
func NewBM25Index(articles []domain.LegalArticle) *BM25Index {
	idx := &BM25Index{
		k1:       defaultK1,
		b:        defaultB,
		postings: make(map[string][]posting),
		idf:      make(map[string]float64),
	}

	total := 0.0
	for i, a := range articles {
		tf := make(map[string]float64, len(a.LexicalTerms))
		for _, term := range a.LexicalTerms {
			tf[term]++
		}
		for term, n := range tf {
			idx.postings[term] = append(idx.postings[term], posting{doc: i, tf: n})
		}
		docLen := float64(len(a.LexicalTerms))
		total += docLen
		idx.docs = append(idx.docs, bm25Doc{
			articleID:     a.ArticleID,
			articleNumber: a.ArticleNumber,
			length:        docLen,
		})
	}
	if len(idx.docs) > 0 {
		idx.avgDocLen = total / float64(len(idx.docs))
	}

	n := float64(len(idx.docs))
	for term, plist := range idx.postings {
		df := float64(len(plist))
		idx.idf[term] = math.Log(1 + (n-df+0.5)/(df+0.5))
	}
	return idx
}

// Search scores the query terms against every matching document and
// returns up to topK hits with a raw score above floor, ordered by
// score descending then article number ascending.
func (idx *BM25Index) Search(tokens []string, topK int, floor float64) []domain.IndexHit {
	if len(tokens) == 0 || len(idx.docs) == 0 {
		return nil
	}

	scores := make(map[int]float64)
	for _, term := range tokens {
		plist, ok := idx.postings[term]
		if !ok {
			continue
		}
		termIDF := idx.idf[term]
		for _, p := range plist {
			d := idx.docs[p.doc]
			norm := 1 - idx.b + idx.b*(d.length/idx.avgDocLen)
			scores[p.doc] += termIDF * (p.tf * (idx.k1 + 1)) / (p.tf + idx.k1*norm)
		}
	}

	hits := make([]domain.IndexHit, 0, len(scores))
	for doc, score := range scores {
		if score <= floor {
			continue
		}
		hits = append(hits, domain.IndexHit{
			ArticleID:     idx.docs[doc].articleID,
			ArticleNumber: idx.docs[doc].articleNumber,
			Score:         score,
		})
	}
	sortHits(hits)
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}

func sortHits(hits []domain.IndexHit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return domain.CompareArticleNumbers(hits[i].ArticleNumber, hits[j].ArticleNumber) < 0
	})
}
