package retrieval

import (
	"time"

	"qanoon-rag/internal/domain"
)

// StageContext carries data between pipeline stages.
type StageContext struct {
	// Input
	RetrievalID string
	Question    string
	Language    domain.Language
	Variants    []domain.QueryVariant

	// Search stage outputs, indexed like Variants. A variant whose
	// search was dropped leaves nil slices behind.
	VectorHits  [][]domain.IndexHit
	LexicalHits [][]domain.IndexHit

	// Degraded is set when at least one variant contribution was
	// dropped on timeout.
	Degraded bool

	// Merge stage output.
	Candidates []domain.RetrievedCandidate

	// Config values (set once at init)
	TopK                 int
	Alpha                float64
	VariantSearchTimeout time.Duration
}
