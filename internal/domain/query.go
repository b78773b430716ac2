package domain

import "time"

// VariantKind labels how a query variant was produced.
type VariantKind string

const (
	VariantOriginal     VariantKind = "original"
	VariantReformulated VariantKind = "reformulated_legal"
	// VariantTranslated marks cross-language variants. No reformulation
	// rule produces it yet.
	VariantTranslated VariantKind = "translated"
)

// QueryVariant is one query string sent to the hybrid searcher.
type QueryVariant struct {
	Text     string
	Language Language
	Kind     VariantKind
}

// RetrievedCandidate is a deduplicated article with its per-stream and
// blended scores, all in [0,1] after normalization.
type RetrievedCandidate struct {
	ArticleID     string
	ArticleNumber string
	VectorScore   float64
	LexicalScore  float64
	CombinedScore float64
}

// Evidence is a resolved article admitted into the answer context.
type Evidence struct {
	Article        *LegalArticle
	RelevanceScore float64
}

// SourceRef is the citation-facing view of one evidence article.
type SourceRef struct {
	ArticleNumber  string  `json:"article_number"`
	CodeSource     string  `json:"code_source"`
	CodeName       string  `json:"code_name"`
	RelevanceScore float64 `json:"relevance_score"`
	TextPreview    string  `json:"text_preview"`
}

// AnswerResult is the final outcome of one question, successful or
// degraded. Failed pipelines return an error instead.
type AnswerResult struct {
	AnswerText       string
	Citations        []string
	ArticlesUsed     []SourceRef
	LanguageDetected Language
	SourcesUsed      int
	Confidence       float64
	QueryTime        time.Duration
	Degraded         bool
	Note             string
}
