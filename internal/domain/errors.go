package domain

import "errors"

var (
	// ErrInvalidInput marks a question rejected before any retrieval.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIndexUnavailable marks a hard failure of the article index.
	ErrIndexUnavailable = errors.New("article index unavailable")

	// ErrGenerationUnavailable marks a generation failure that
	// persisted through the retry.
	ErrGenerationUnavailable = errors.New("generation unavailable")

	// ErrArticleNotFound is returned by ArticleIndex.Get for an
	// unknown article id.
	ErrArticleNotFound = errors.New("article not found")
)
