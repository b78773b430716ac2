package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"qanoon-rag/internal/domain"
)

// ArticleRepository persists the legal article corpus in Postgres with
// pgvector embeddings.
type ArticleRepository struct {
	pool *pgxpool.Pool
}

func NewArticleRepository(pool *pgxpool.Pool) *ArticleRepository {
	return &ArticleRepository{pool: pool}
}

type dbExecutor interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *ArticleRepository) getExecutor(ctx context.Context) dbExecutor {
	tx := ExtractTx(ctx)
	if tx != nil {
		return tx
	}
	return r.pool
}

// EnsureSchema creates the extension, table and vector index if they
// do not exist yet. Called by the indexer before loading a snapshot.
func (r *ArticleRepository) EnsureSchema(ctx context.Context, embeddingDim int) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS legal_articles (
			article_id     TEXT PRIMARY KEY,
			code_source    TEXT NOT NULL,
			article_number TEXT NOT NULL,
			language       TEXT NOT NULL,
			content        TEXT NOT NULL,
			lexical_terms  TEXT[] NOT NULL DEFAULT '{}',
			embedding      vector(%d)
		)`, embeddingDim),
		`CREATE INDEX IF NOT EXISTS legal_articles_embedding_idx
			ON legal_articles USING hnsw (embedding vector_cosine_ops)`,
		`CREATE INDEX IF NOT EXISTS legal_articles_code_idx
			ON legal_articles (code_source)`,
	}
	for _, stmt := range stmts {
		if _, err := r.getExecutor(ctx).Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// Truncate removes every article. Used for full snapshot reloads.
func (r *ArticleRepository) Truncate(ctx context.Context) error {
	if _, err := r.getExecutor(ctx).Exec(ctx, `TRUNCATE legal_articles`); err != nil {
		return fmt.Errorf("failed to truncate articles: %w", err)
	}
	return nil
}

func (r *ArticleRepository) BulkInsert(ctx context.Context, articles []domain.LegalArticle) error {
	if len(articles) == 0 {
		return nil
	}

	rows := make([][]interface{}, len(articles))
	for i, a := range articles {
		rows[i] = []interface{}{
			a.ArticleID,
			string(a.CodeSource),
			a.ArticleNumber,
			string(a.Language),
			a.Text,
			a.LexicalTerms,
			pgvector.NewVector(a.Embedding),
		}
	}

	_, err := r.getExecutor(ctx).CopyFrom(
		ctx,
		pgx.Identifier{"legal_articles"},
		[]string{"article_id", "code_source", "article_number", "language", "content", "lexical_terms", "embedding"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to bulk insert articles: %w", err)
	}

	return nil
}

// ListAll streams the whole corpus in a stable order, used to hydrate
// the in-process lexical index at startup.
func (r *ArticleRepository) ListAll(ctx context.Context) ([]domain.LegalArticle, error) {
	query := `
		SELECT article_id, code_source, article_number, language, content, lexical_terms, embedding
		FROM legal_articles
		ORDER BY code_source, article_number
	`
	rows, err := r.getExecutor(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.LegalArticle
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return articles, nil
}

func (r *ArticleRepository) GetByID(ctx context.Context, articleID string) (*domain.LegalArticle, error) {
	query := `
		SELECT article_id, code_source, article_number, language, content, lexical_terms, embedding
		FROM legal_articles
		WHERE article_id = $1
	`
	row := r.getExecutor(ctx).QueryRow(ctx, query, articleID)
	a, err := scanArticle(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrArticleNotFound, articleID)
		}
		return nil, err
	}
	return a, nil
}

// SearchVector runs cosine similarity search against the stored
// embeddings and keeps hits above the raw score floor.
func (r *ArticleRepository) SearchVector(ctx context.Context, queryVector []float32, topK int, floor float64) ([]domain.IndexHit, error) {
	query := `
		SELECT article_id, article_number, 1 - (embedding <=> $1) AS score
		FROM legal_articles
		WHERE embedding IS NOT NULL
		  AND 1 - (embedding <=> $1) > $2
		ORDER BY score DESC, article_number ASC
		LIMIT $3
	`
	rows, err := r.getExecutor(ctx).Query(ctx, query, pgvector.NewVector(queryVector), floor, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to run vector search: %w", err)
	}
	defer rows.Close()

	var hits []domain.IndexHit
	for rows.Next() {
		var h domain.IndexHit
		if err := rows.Scan(&h.ArticleID, &h.ArticleNumber, &h.Score); err != nil {
			return nil, fmt.Errorf("failed to scan hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return hits, nil
}

func (r *ArticleRepository) Stats(ctx context.Context) (*domain.CorpusStats, error) {
	stats := &domain.CorpusStats{CountByCode: make(map[string]int)}

	rows, err := r.getExecutor(ctx).Query(ctx,
		`SELECT code_source, COUNT(*) FROM legal_articles GROUP BY code_source ORDER BY code_source`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var code string
		var n int
		if err := rows.Scan(&code, &n); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		stats.CountByCode[code] = n
		stats.ArticleCount += n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	row := r.getExecutor(ctx).QueryRow(ctx,
		`SELECT COALESCE(MAX(vector_dims(embedding)), 0) FROM legal_articles`)
	if err := row.Scan(&stats.EmbeddingDim); err != nil {
		return nil, fmt.Errorf("failed to scan embedding dim: %w", err)
	}
	return stats, nil
}

func scanArticle(row pgx.Row) (*domain.LegalArticle, error) {
	var a domain.LegalArticle
	var code, lang string
	var embedding pgvector.Vector
	if err := row.Scan(&a.ArticleID, &code, &a.ArticleNumber, &lang, &a.Text, &a.LexicalTerms, &embedding); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan article: %w", err)
	}
	a.CodeSource = domain.CodeSource(code)
	a.Language = domain.Language(lang)
	a.Embedding = embedding.Slice()
	return &a, nil
}
