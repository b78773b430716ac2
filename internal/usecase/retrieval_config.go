package usecase

import (
	"fmt"
	"time"
)

// RetrievalConfig holds the tunable parameters of the question
// pipeline. Defaults match the documented behavior of the service;
// operators override them through the environment.
type RetrievalConfig struct {
	// TopK is the per-stream candidate count requested from the index.
	TopK int

	// Alpha is the vector weight in the hybrid blend. The lexical
	// stream gets 1-Alpha.
	Alpha float64

	// MinRelevance drops candidates whose blended score falls below
	// this value before evidence selection.
	MinRelevance float64

	// MaxArticles caps how many evidence articles reach the prompt.
	MaxArticles int

	// MaxQuestionLen rejects oversized questions before retrieval.
	MaxQuestionLen int

	// VariantSearchTimeout bounds each per-variant search call.
	// A variant that misses the deadline loses its contribution but
	// does not fail the question.
	VariantSearchTimeout time.Duration

	// GenerationTimeout bounds a single generation attempt.
	GenerationTimeout time.Duration
}

func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		TopK:                 20,
		Alpha:                0.6,
		MinRelevance:         0.15,
		MaxArticles:          5,
		MaxQuestionLen:       2000,
		VariantSearchTimeout: 3 * time.Second,
		GenerationTimeout:    30 * time.Second,
	}
}

// Validate checks if the configuration values are within acceptable ranges.
func (c RetrievalConfig) Validate() error {
	if c.Alpha < 0.0 || c.Alpha > 1.0 {
		return fmt.Errorf("alpha must be in [0.0, 1.0], got %f", c.Alpha)
	}
	if c.MinRelevance < 0.0 || c.MinRelevance > 1.0 {
		return fmt.Errorf("minRelevance must be in [0.0, 1.0], got %f", c.MinRelevance)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("topK must be positive, got %d", c.TopK)
	}
	if c.MaxArticles <= 0 {
		return fmt.Errorf("maxArticles must be positive, got %d", c.MaxArticles)
	}
	if c.MaxQuestionLen <= 0 {
		return fmt.Errorf("maxQuestionLen must be positive, got %d", c.MaxQuestionLen)
	}
	if c.VariantSearchTimeout <= 0 {
		return fmt.Errorf("variantSearchTimeout must be positive, got %v", c.VariantSearchTimeout)
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("generationTimeout must be positive, got %v", c.GenerationTimeout)
	}
	return nil
}
