package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"qanoon-rag/internal/domain"
	"qanoon-rag/internal/usecase"
)

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatsProvider exposes corpus counters for the info endpoint.
type StatsProvider interface {
	Stats(ctx context.Context) (*domain.CorpusStats, error)
}

// Handler wires the question pipeline into the HTTP surface.
type Handler struct {
	answer          usecase.AnswerUsecase
	pinger          Pinger
	stats           StatsProvider
	embeddingModel  string
	generationModel string
	logger          *slog.Logger
}

func NewHandler(answer usecase.AnswerUsecase, pinger Pinger, stats StatsProvider, embeddingModel, generationModel string, logger *slog.Logger) *Handler {
	return &Handler{
		answer:          answer,
		pinger:          pinger,
		stats:           stats,
		embeddingModel:  embeddingModel,
		generationModel: generationModel,
		logger:          logger,
	}
}

// Register mounts all routes on the echo instance.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)
	e.GET("/readyz", h.Readyz)
	e.GET("/v1/info", h.Info)
	e.POST("/v1/ask", h.Ask)
}

type askRequest struct {
	Question    string `json:"question"`
	Language    string `json:"language"`
	MaxArticles int    `json:"max_articles"`
}

type askResponse struct {
	Answer           string             `json:"answer"`
	Citations        []string           `json:"citations"`
	ArticlesUsed     []domain.SourceRef `json:"articles_used"`
	LanguageDetected string             `json:"language_detected"`
	SourcesUsed      int                `json:"sources_used"`
	Confidence       float64            `json:"confidence"`
	QueryTimeMS      int64              `json:"query_time_ms"`
	Degraded         bool               `json:"degraded"`
	Note             string             `json:"note,omitempty"`
	Timestamp        string             `json:"timestamp"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *Handler) Ask(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Code:    "INVALID_INPUT",
			Message: "malformed request body",
		})
	}

	lang := domain.Language(req.Language)
	if req.Language == "" {
		lang = domain.LanguageAuto
	}

	result, err := h.answer.Ask(c.Request().Context(), usecase.AskInput{
		Question:    req.Question,
		Language:    lang,
		MaxArticles: req.MaxArticles,
	})
	if err != nil {
		return h.askError(c, err)
	}

	return c.JSON(http.StatusOK, askResponse{
		Answer:           result.AnswerText,
		Citations:        emptyIfNil(result.Citations),
		ArticlesUsed:     result.ArticlesUsed,
		LanguageDetected: string(result.LanguageDetected),
		SourcesUsed:      result.SourcesUsed,
		Confidence:       result.Confidence,
		QueryTimeMS:      result.QueryTime.Milliseconds(),
		Degraded:         result.Degraded,
		Note:             result.Note,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) askError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, errorResponse{
			Code:    "INVALID_INPUT",
			Message: err.Error(),
		})
	case errors.Is(err, domain.ErrIndexUnavailable):
		return c.JSON(http.StatusServiceUnavailable, errorResponse{
			Code:    "INDEX_UNAVAILABLE",
			Message: "article index is unavailable, retry later",
		})
	case errors.Is(err, domain.ErrGenerationUnavailable):
		return c.JSON(http.StatusServiceUnavailable, errorResponse{
			Code:    "GENERATION_UNAVAILABLE",
			Message: "answer generation is unavailable, retry later",
		})
	default:
		h.logger.Error("ask_unexpected_error", "error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Code:    "INTERNAL",
			Message: "internal error",
		})
	}
}

func (h *Handler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Readyz(c echo.Context) error {
	if h.pinger != nil {
		if err := h.pinger.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"reason": err.Error(),
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}

type infoResponse struct {
	ArticleCount    int            `json:"article_count"`
	CountByCode     map[string]int `json:"count_by_code"`
	EmbeddingDim    int            `json:"embedding_dim"`
	EmbeddingModel  string         `json:"embedding_model"`
	GenerationModel string         `json:"generation_model"`
	Languages       []string       `json:"languages"`
}

func (h *Handler) Info(c echo.Context) error {
	stats, err := h.stats.Stats(c.Request().Context())
	if err != nil {
		h.logger.Error("info_stats_failed", "error", err)
		return c.JSON(http.StatusServiceUnavailable, errorResponse{
			Code:    "INDEX_UNAVAILABLE",
			Message: "corpus stats are unavailable",
		})
	}
	return c.JSON(http.StatusOK, infoResponse{
		ArticleCount:    stats.ArticleCount,
		CountByCode:     stats.CountByCode,
		EmbeddingDim:    stats.EmbeddingDim,
		EmbeddingModel:  h.embeddingModel,
		GenerationModel: h.generationModel,
		Languages:       []string{"fr", "ar"},
	})
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
