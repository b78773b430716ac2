package domain

import "context"

// VectorEncoder turns a query text into an L2-normalized embedding.
type VectorEncoder interface {
	Encode(ctx context.Context, text string, lang Language) ([]float32, error)
	Version() string
}

// LLMResponse is the raw generation output before citation
// reconciliation.
type LLMResponse struct {
	Text string
	Done bool
}

// LLMClient produces an answer draft from a fully built prompt.
type LLMClient interface {
	Generate(ctx context.Context, prompt string, lang Language) (*LLMResponse, error)
	Version() string
}

// TransactionManager runs a function inside a database transaction.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
