package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qanoon-rag/internal/domain"
	"qanoon-rag/internal/usecase"
)

type stubAnswerUsecase struct {
	result *domain.AnswerResult
	err    error
	got    usecase.AskInput
}

func (s *stubAnswerUsecase) Ask(_ context.Context, input usecase.AskInput) (*domain.AnswerResult, error) {
	s.got = input
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubPinger struct {
	err error
}

func (s *stubPinger) Ping(context.Context) error { return s.err }

type stubStats struct {
	stats *domain.CorpusStats
	err   error
}

func (s *stubStats) Stats(context.Context) (*domain.CorpusStats, error) {
	return s.stats, s.err
}

func newTestHandler(answer usecase.AnswerUsecase, pinger Pinger, stats StatsProvider) (*echo.Echo, *Handler) {
	h := NewHandler(answer, pinger, stats, "gemini-embedding-001", "gemini-2.0-flash", slog.New(slog.NewTextHandler(io.Discard, nil)))
	e := echo.New()
	h.Register(e)
	return e, h
}

func postAsk(e *echo.Echo, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAskSuccess(t *testing.T) {
	stub := &stubAnswerUsecase{
		result: &domain.AnswerResult{
			AnswerText: "La durée normale est de 44 heures.",
			Citations:  []string{"Article 184 - Code du Travail"},
			ArticlesUsed: []domain.SourceRef{{
				ArticleNumber:  "184",
				CodeSource:     "code_travail",
				CodeName:       "Code du Travail",
				RelevanceScore: 0.9,
				TextPreview:    "La durée normale de travail...",
			}},
			LanguageDetected: domain.LanguageFrench,
			SourcesUsed:      1,
			Confidence:       0.9,
			QueryTime:        120 * time.Millisecond,
		},
	}
	e, _ := newTestHandler(stub, &stubPinger{}, &stubStats{})

	rec := postAsk(e, `{"question":"Combien d'heures par semaine puis-je travailler ?"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp askResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "La durée normale est de 44 heures.", resp.Answer)
	assert.Equal(t, []string{"Article 184 - Code du Travail"}, resp.Citations)
	assert.Equal(t, "fr", resp.LanguageDetected)
	assert.Equal(t, 1, resp.SourcesUsed)
	assert.Equal(t, int64(120), resp.QueryTimeMS)
	assert.NotEmpty(t, resp.Timestamp)

	// Empty language defaults to auto-detect.
	assert.Equal(t, domain.LanguageAuto, stub.got.Language)
}

func TestAskInvalidInput(t *testing.T) {
	stub := &stubAnswerUsecase{err: domain.ErrInvalidInput}
	e, _ := newTestHandler(stub, &stubPinger{}, &stubStats{})

	rec := postAsk(e, `{"question":""}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_INPUT", resp.Code)
}

func TestAskIndexUnavailable(t *testing.T) {
	stub := &stubAnswerUsecase{err: domain.ErrIndexUnavailable}
	e, _ := newTestHandler(stub, &stubPinger{}, &stubStats{})

	rec := postAsk(e, `{"question":"q"}`)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "INDEX_UNAVAILABLE", resp.Code)
}

func TestAskGenerationUnavailable(t *testing.T) {
	stub := &stubAnswerUsecase{err: domain.ErrGenerationUnavailable}
	e, _ := newTestHandler(stub, &stubPinger{}, &stubStats{})

	rec := postAsk(e, `{"question":"q"}`)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "GENERATION_UNAVAILABLE", resp.Code)
}

func TestAskUnexpectedError(t *testing.T) {
	stub := &stubAnswerUsecase{err: errors.New("boom")}
	e, _ := newTestHandler(stub, &stubPinger{}, &stubStats{})

	rec := postAsk(e, `{"question":"q"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthz(t *testing.T) {
	e, _ := newTestHandler(&stubAnswerUsecase{}, &stubPinger{}, &stubStats{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzNotReady(t *testing.T) {
	e, _ := newTestHandler(&stubAnswerUsecase{}, &stubPinger{err: errors.New("db down")}, &stubStats{})

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestInfo(t *testing.T) {
	stats := &stubStats{stats: &domain.CorpusStats{
		ArticleCount: 713,
		CountByCode:  map[string]int{"code_travail": 585, "code_penal": 128},
		EmbeddingDim: 768,
	}}
	e, _ := newTestHandler(&stubAnswerUsecase{}, &stubPinger{}, stats)

	req := httptest.NewRequest(http.MethodGet, "/v1/info", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp infoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 713, resp.ArticleCount)
	assert.Equal(t, 585, resp.CountByCode["code_travail"])
	assert.Equal(t, []string{"fr", "ar"}, resp.Languages)
	assert.Equal(t, "gemini-embedding-001", resp.EmbeddingModel)
}
