package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"qanoon-rag/internal/domain"
)

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, lang domain.Language) (*domain.LLMResponse, error) {
	args := m.Called(ctx, prompt, lang)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LLMResponse), args.Error(1)
}

func (m *mockLLM) Version() string { return "mock" }

func newComposer(llm domain.LLMClient) *AnswerComposer {
	return NewAnswerComposer(
		NewEvidencePromptBuilder(),
		llm,
		5*time.Second,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func TestComposeVerifiedCitations(t *testing.T) {
	llm := new(mockLLM)
	llm.On("Generate", mock.Anything, mock.Anything, domain.LanguageFrench).Return(&domain.LLMResponse{
		Text: "La durée normale est de 44 heures.\n\nSources: Article 184 - Code du Travail",
		Done: true,
	}, nil).Once()

	out, err := newComposer(llm).Compose(context.Background(), ComposeInput{
		Question: "Combien d'heures par semaine ?",
		Language: domain.LanguageFrench,
		Evidence: evidenceFixture(),
	})
	require.NoError(t, err)

	assert.Equal(t, "La durée normale est de 44 heures.", out.AnswerText)
	assert.Equal(t, []string{"Article 184 - Code du Travail"}, out.Citations)
	assert.Empty(t, out.Note)
	assert.False(t, out.Insufficient)
	llm.AssertExpectations(t)
}

func TestComposeDropsInventedCitations(t *testing.T) {
	llm := new(mockLLM)
	llm.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(&domain.LLMResponse{
		Text: "Réponse.\n\nSources: Article 184 - Code du Travail, Article 777 - Code Pénal",
		Done: true,
	}, nil).Once()

	out, err := newComposer(llm).Compose(context.Background(), ComposeInput{
		Question: "q",
		Language: domain.LanguageFrench,
		Evidence: evidenceFixture(),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Article 184 - Code du Travail"}, out.Citations)
	assert.Contains(t, out.Note, "777")
}

func TestComposeEmptyEvidenceShortCircuits(t *testing.T) {
	llm := new(mockLLM)

	out, err := newComposer(llm).Compose(context.Background(), ComposeInput{
		Question: "q",
		Language: domain.LanguageFrench,
	})
	require.NoError(t, err)

	assert.True(t, out.Insufficient)
	assert.Empty(t, out.Citations)
	assert.Contains(t, out.AnswerText, "pas d'information suffisante")
	llm.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestComposeEmptyEvidenceArabic(t *testing.T) {
	llm := new(mockLLM)

	out, err := newComposer(llm).Compose(context.Background(), ComposeInput{
		Question: "سؤال",
		Language: domain.LanguageArabic,
	})
	require.NoError(t, err)
	assert.Contains(t, out.AnswerText, "لا تتوفر معلومات كافية")
}

func TestComposeRetriesOnceThenSucceeds(t *testing.T) {
	llm := new(mockLLM)
	llm.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("transient")).Once()
	llm.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.LLMResponse{Text: "Réponse.\n\nSources: Article 184 - Code du Travail", Done: true}, nil).Once()

	out, err := newComposer(llm).Compose(context.Background(), ComposeInput{
		Question: "q",
		Language: domain.LanguageFrench,
		Evidence: evidenceFixture(),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Citations)
	llm.AssertExpectations(t)
}

func TestComposeRetryExhaustion(t *testing.T) {
	llm := new(mockLLM)
	llm.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("backend down")).Twice()

	_, err := newComposer(llm).Compose(context.Background(), ComposeInput{
		Question: "q",
		Language: domain.LanguageFrench,
		Evidence: evidenceFixture(),
	})
	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
	llm.AssertExpectations(t)
}

func TestComposeCanceledContextPassesThrough(t *testing.T) {
	llm := new(mockLLM)
	llm.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, context.Canceled)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newComposer(llm).Compose(ctx, ComposeInput{
		Question: "q",
		Language: domain.LanguageFrench,
		Evidence: evidenceFixture(),
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrGenerationUnavailable)
}

func TestComposeEmptyTextCountsAsFailure(t *testing.T) {
	llm := new(mockLLM)
	llm.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.LLMResponse{Text: "   ", Done: true}, nil).Twice()

	_, err := newComposer(llm).Compose(context.Background(), ComposeInput{
		Question: "q",
		Language: domain.LanguageFrench,
		Evidence: evidenceFixture(),
	})
	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
}
