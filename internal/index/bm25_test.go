package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qanoon-rag/internal/domain"
)

func corpusFixture() []domain.LegalArticle {
	articles := []domain.LegalArticle{
		{
			ArticleID:     "ct-184",
			CodeSource:    domain.CodeTravail,
			ArticleNumber: "184",
			Language:      domain.LanguageFrench,
			Text:          "La durée normale de travail des salariés est fixée à 2288 heures par année ou 44 heures par semaine.",
		},
		{
			ArticleID:     "ct-9",
			CodeSource:    domain.CodeTravail,
			ArticleNumber: "9",
			Language:      domain.LanguageFrench,
			Text:          "Est interdite toute atteinte aux libertés et aux droits relatifs à l'exercice syndical au sein de l'entreprise.",
		},
		{
			ArticleID:     "cp-505",
			CodeSource:    domain.CodePenal,
			ArticleNumber: "505",
			Language:      domain.LanguageFrench,
			Text:          "Quiconque soustrait frauduleusement une chose appartenant à autrui est coupable de vol et puni de l'emprisonnement.",
		},
	}
	for i := range articles {
		articles[i].LexicalTerms = domain.Tokenize(articles[i].Text, articles[i].Language)
	}
	return articles
}

func TestBM25SearchRanksMatchingDocFirst(t *testing.T) {
	idx := NewBM25Index(corpusFixture())

	hits := idx.Search(domain.Tokenize("durée du travail par semaine", domain.LanguageFrench), 10, 0)
	require.NotEmpty(t, hits)
	assert.Equal(t, "ct-184", hits[0].ArticleID)
}

func TestBM25SearchNoMatchReturnsEmpty(t *testing.T) {
	idx := NewBM25Index(corpusFixture())

	hits := idx.Search([]string{"inexistant"}, 10, 0)
	assert.Empty(t, hits)
}

func TestBM25SearchEmptyQuery(t *testing.T) {
	idx := NewBM25Index(corpusFixture())
	assert.Empty(t, idx.Search(nil, 10, 0))
}

func TestBM25SearchRespectsTopK(t *testing.T) {
	idx := NewBM25Index(corpusFixture())

	hits := idx.Search(domain.Tokenize("travail vol entreprise", domain.LanguageFrench), 1, 0)
	assert.Len(t, hits, 1)
}

func TestBM25SearchFloorFiltersWeakHits(t *testing.T) {
	idx := NewBM25Index(corpusFixture())

	all := idx.Search(domain.Tokenize("vol", domain.LanguageFrench), 10, 0)
	require.NotEmpty(t, all)
	filtered := idx.Search(domain.Tokenize("vol", domain.LanguageFrench), 10, all[0].Score+1)
	assert.Empty(t, filtered)
}

func TestBM25EmptyCorpus(t *testing.T) {
	idx := NewBM25Index(nil)
	assert.Empty(t, idx.Search([]string{"travail"}, 10, 0))
}
