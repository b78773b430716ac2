package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"qanoon-rag/internal/adapter/gemini"
	"qanoon-rag/internal/adapter/repository"
	"qanoon-rag/internal/domain"
	"qanoon-rag/internal/infra"
	"qanoon-rag/internal/infra/config"
	"qanoon-rag/internal/infra/httpclient"
	"qanoon-rag/internal/infra/logger"
)

// snapshotArticle is the on-disk form of one corpus article. Embedding
// is optional; missing embeddings are computed during the load when
// --embed-missing is set.
type snapshotArticle struct {
	ArticleID     string    `json:"article_id"`
	CodeSource    string    `json:"code_source"`
	ArticleNumber string    `json:"article_number"`
	Language      string    `json:"language"`
	Text          string    `json:"text"`
	Embedding     []float32 `json:"embedding,omitempty"`
}

var (
	snapshotPath string
	embedMissing bool
	replaceAll   bool
	batchSize    int
	embedRate    float64
)

func main() {
	log := logger.New()
	slog.SetDefault(log)

	rootCmd := &cobra.Command{
		Use:   "indexer",
		Short: "Corpus loading tool for the legal article index",
	}

	loadCmd := &cobra.Command{
		Use:   "load",
		Short: "Load a JSON article snapshot into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd.Context(), log)
		},
	}
	loadCmd.Flags().StringVar(&snapshotPath, "snapshot", "", "path to the JSON snapshot file")
	loadCmd.Flags().BoolVar(&embedMissing, "embed-missing", false, "embed articles that have no stored embedding")
	loadCmd.Flags().BoolVar(&replaceAll, "replace", false, "truncate the table before loading")
	loadCmd.Flags().IntVar(&batchSize, "batch-size", 100, "articles per insert batch")
	loadCmd.Flags().Float64Var(&embedRate, "rate", 5, "embedding requests per second")
	_ = loadCmd.MarkFlagRequired("snapshot")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Print corpus counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context())
		},
	}

	rootCmd.AddCommand(loadCmd, statsCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Error("indexer failed", "error", err)
		os.Exit(1)
	}
}

func runLoad(ctx context.Context, log *slog.Logger) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	raw, err := os.ReadFile(snapshotPath)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	var snapshot []snapshotArticle
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return fmt.Errorf("failed to parse snapshot: %w", err)
	}
	if len(snapshot) == 0 {
		return fmt.Errorf("snapshot %s contains no articles", snapshotPath)
	}

	pool, err := infra.NewPostgresDB(ctx, infra.BuildDSN(cfg))
	if err != nil {
		return fmt.Errorf("failed to connect to db: %w", err)
	}
	defer pool.Close()

	repo := repository.NewArticleRepository(pool)
	txManager := repository.NewPostgresTransactionManager(pool)

	if err := repo.EnsureSchema(ctx, cfg.EmbeddingDim); err != nil {
		return err
	}

	var embedder *gemini.Embedder
	var limiter *rate.Limiter
	if embedMissing {
		embedder = gemini.NewEmbedder(
			cfg.GeminiBaseURL, cfg.EmbeddingModel, cfg.GeminiAPIKey, cfg.EmbeddingDim,
			httpclient.NewPooledClient(30*time.Second), log,
		)
		embedder.TaskType = "RETRIEVAL_DOCUMENT"
		limiter = rate.NewLimiter(rate.Limit(embedRate), 1)
	}

	articles := make([]domain.LegalArticle, 0, len(snapshot))
	embedded := 0
	for _, s := range snapshot {
		a := domain.LegalArticle{
			ArticleID:     s.ArticleID,
			CodeSource:    domain.CodeSource(s.CodeSource),
			ArticleNumber: s.ArticleNumber,
			Language:      domain.Language(s.Language),
			Text:          s.Text,
			Embedding:     s.Embedding,
		}
		if a.ArticleID == "" || a.ArticleNumber == "" || a.Text == "" {
			return fmt.Errorf("snapshot entry missing required fields: %+v", s)
		}
		if a.Language == "" {
			a.Language = domain.DetectLanguage(a.Text)
		}
		a.LexicalTerms = domain.Tokenize(a.Text, a.Language)

		if len(a.Embedding) == 0 {
			if embedder == nil {
				return fmt.Errorf("article %s has no embedding; rerun with --embed-missing", a.ArticleID)
			}
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
			vec, err := embedder.Encode(ctx, a.Text, a.Language)
			if err != nil {
				return fmt.Errorf("failed to embed article %s: %w", a.ArticleID, err)
			}
			a.Embedding = vec
			embedded++
		}
		articles = append(articles, a)
	}

	err = txManager.RunInTx(ctx, func(ctx context.Context) error {
		if replaceAll {
			if err := repo.Truncate(ctx); err != nil {
				return err
			}
		}
		for start := 0; start < len(articles); start += batchSize {
			end := min(start+batchSize, len(articles))
			if err := repo.BulkInsert(ctx, articles[start:end]); err != nil {
				return err
			}
			log.Info("batch_inserted", "from", start, "to", end)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("snapshot_loaded",
		"articles", len(articles),
		"embedded", embedded,
		"replaced", replaceAll)
	return nil
}

func runStats(ctx context.Context) error {
	cfg := config.Load()

	pool, err := infra.NewPostgresDB(ctx, infra.BuildDSN(cfg))
	if err != nil {
		return fmt.Errorf("failed to connect to db: %w", err)
	}
	defer pool.Close()

	stats, err := repository.NewArticleRepository(pool).Stats(ctx)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
