package di

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"qanoon-rag/internal/adapter/gemini"
	"qanoon-rag/internal/adapter/repository"
	"qanoon-rag/internal/domain"
	"qanoon-rag/internal/infra/config"
	"qanoon-rag/internal/infra/httpclient"
	"qanoon-rag/internal/infra/logger"
	"qanoon-rag/internal/usecase"
)

// ApplicationComponents holds all wired dependencies for the server.
type ApplicationComponents struct {
	ArticleRepo *repository.ArticleRepository
	Index       domain.ArticleIndex
	Encoder     domain.VectorEncoder
	Generator   domain.LLMClient

	AnswerUsecase usecase.AnswerUsecase
}

// NewApplicationComponents wires all dependencies from config and
// database pool. The lexical index hydrates from the corpus here, so
// construction fails fast when the database is unreachable.
func NewApplicationComponents(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, log *slog.Logger) (*ApplicationComponents, error) {
	articleRepo := repository.NewArticleRepository(pool)

	articleIndex, err := repository.NewPgIndex(ctx, articleRepo, cfg.MinScoreFloor)
	if err != nil {
		return nil, fmt.Errorf("failed to build article index: %w", err)
	}

	generateTimeout := time.Duration(cfg.GenerateTimeoutMS) * time.Millisecond
	embedHTTP := httpclient.NewPooledClient(time.Duration(cfg.VariantTimeoutMS) * time.Millisecond)
	generateHTTP := httpclient.NewPooledClient(generateTimeout)

	embedder := gemini.NewEmbedder(cfg.GeminiBaseURL, cfg.EmbeddingModel, cfg.GeminiAPIKey, cfg.EmbeddingDim, embedHTTP, log)
	encoder, err := gemini.NewCachedEncoder(embedder, cfg.EmbedCacheSize, log)
	if err != nil {
		return nil, fmt.Errorf("failed to build embedding cache: %w", err)
	}
	generator := gemini.NewGenerator(cfg.GeminiBaseURL, cfg.GenerationModel, cfg.GeminiAPIKey, generateHTTP, log)

	retrievalConfig := usecase.RetrievalConfig{
		TopK:                 cfg.TopK,
		Alpha:                cfg.Alpha,
		MinRelevance:         cfg.MinRelevance,
		MaxArticles:          cfg.MaxArticles,
		MaxQuestionLen:       cfg.MaxQuestionLen,
		VariantSearchTimeout: time.Duration(cfg.VariantTimeoutMS) * time.Millisecond,
		GenerationTimeout:    generateTimeout,
	}
	if err := retrievalConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retrieval config: %w", err)
	}

	composer := usecase.NewAnswerComposer(
		usecase.NewEvidencePromptBuilder(),
		generator,
		retrievalConfig.GenerationTimeout,
		log,
	)
	answerUsecase := usecase.NewAnswerUsecase(
		usecase.NewReformulator(),
		articleIndex,
		encoder,
		composer,
		retrievalConfig,
		logger.NewContextLogger(log),
	)

	return &ApplicationComponents{
		ArticleRepo:   articleRepo,
		Index:         articleIndex,
		Encoder:       encoder,
		Generator:     generator,
		AnswerUsecase: answerUsecase,
	}, nil
}
