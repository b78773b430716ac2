package domain

// CodeSource identifies which legal code an article belongs to.
type CodeSource string

const (
	CodeTravail         CodeSource = "code_travail"
	CodePenal           CodeSource = "code_penal"
	CodeCommerce        CodeSource = "code_commerce"
	CodeRoute           CodeSource = "code_route"
	CodeProcedureCivile CodeSource = "code_procedure_civile"
)

// DisplayName returns the human-readable French name of the code.
func (c CodeSource) DisplayName() string {
	switch c {
	case CodeTravail:
		return "Code du Travail"
	case CodePenal:
		return "Code Pénal"
	case CodeCommerce:
		return "Code de Commerce"
	case CodeRoute:
		return "Code de la Route"
	case CodeProcedureCivile:
		return "Code de Procédure Civile"
	default:
		return string(c)
	}
}

// Language is the language of a question or article text.
type Language string

const (
	LanguageFrench Language = "fr"
	LanguageArabic Language = "ar"
	LanguageAuto   Language = "auto"
)

// LegalArticle is an immutable indexed chunk of a statute article.
// Records are created by the offline ingestion process; the query path
// only reads them.
type LegalArticle struct {
	ArticleID     string
	CodeSource    CodeSource
	ArticleNumber string
	Text          string
	Language      Language
	Embedding     []float32
	LexicalTerms  []string
}

// CorpusStats summarizes the indexed corpus for the info endpoint.
type CorpusStats struct {
	ArticleCount int            `json:"article_count"`
	CountByCode  map[string]int `json:"count_by_code"`
	EmbeddingDim int            `json:"embedding_dim"`
}
