package gemini

import (
	"context"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"qanoon-rag/internal/domain"
)

// CachedEncoder wraps a VectorEncoder with an LRU cache keyed by
// language and text. Query variants repeat across questions, so a
// small cache saves a noticeable share of embedding calls.
type CachedEncoder struct {
	inner  domain.VectorEncoder
	cache  *lru.Cache[string, []float32]
	logger *slog.Logger
}

func NewCachedEncoder(inner domain.VectorEncoder, size int, logger *slog.Logger) (*CachedEncoder, error) {
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &CachedEncoder{inner: inner, cache: cache, logger: logger}, nil
}

func (c *CachedEncoder) Encode(ctx context.Context, text string, lang domain.Language) ([]float32, error) {
	key := string(lang) + "\x00" + text
	if vec, ok := c.cache.Get(key); ok {
		if c.logger != nil {
			c.logger.Debug("embed_cache_hit", "lang", lang)
		}
		return vec, nil
	}

	vec, err := c.inner.Encode(ctx, text, lang)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, vec)
	return vec, nil
}

func (c *CachedEncoder) Version() string {
	return c.inner.Version()
}
