package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"qanoon-rag/internal/domain"
	"qanoon-rag/internal/infra/logger"
	"qanoon-rag/internal/usecase/retrieval"
)

type pipelineStage string

const (
	stageReformulating pipelineStage = "reformulating"
	stageRetrieving    pipelineStage = "retrieving"
	stageSelecting     pipelineStage = "selecting"
	stageComposing     pipelineStage = "composing"
	stageDone          pipelineStage = "done"
)

// AskInput is one question as received from the API layer.
type AskInput struct {
	Question    string
	Language    domain.Language
	MaxArticles int
}

// AnswerUsecase runs a question through the full pipeline.
type AnswerUsecase interface {
	Ask(ctx context.Context, input AskInput) (*domain.AnswerResult, error)
}

type answerUsecase struct {
	reformulator *Reformulator
	index        domain.ArticleIndex
	encoder      domain.VectorEncoder
	composer     *AnswerComposer
	cfg          RetrievalConfig
	logs         *logger.ContextLogger
}

func NewAnswerUsecase(reformulator *Reformulator, index domain.ArticleIndex, encoder domain.VectorEncoder, composer *AnswerComposer, cfg RetrievalConfig, logs *logger.ContextLogger) AnswerUsecase {
	return &answerUsecase{
		reformulator: reformulator,
		index:        index,
		encoder:      encoder,
		composer:     composer,
		cfg:          cfg,
		logs:         logs,
	}
}

// Ask advances the question through reformulation, hybrid retrieval,
// evidence selection and composition. The query id, current stage and
// detected language travel in ctx so every log line of the pipeline
// carries them. The wall clock starts before the first stage and the
// elapsed time is reported whether the pipeline ends in an answer or
// a failure.
func (u *answerUsecase) Ask(ctx context.Context, input AskInput) (*domain.AnswerResult, error) {
	start := time.Now()
	queryID := uuid.NewString()
	ctx = logger.WithQueryID(ctx, queryID)

	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}
	if len([]rune(question)) > u.cfg.MaxQuestionLen {
		return nil, fmt.Errorf("%w: question exceeds %d characters", domain.ErrInvalidInput, u.cfg.MaxQuestionLen)
	}
	lang := input.Language
	if lang != "" && lang != domain.LanguageAuto && lang != domain.LanguageFrench && lang != domain.LanguageArabic {
		return nil, fmt.Errorf("%w: unsupported language %q", domain.ErrInvalidInput, input.Language)
	}
	maxArticles := u.cfg.MaxArticles
	if input.MaxArticles > 0 && input.MaxArticles < maxArticles {
		maxArticles = input.MaxArticles
	}

	fail := func(ctx context.Context, err error) (*domain.AnswerResult, error) {
		u.logs.WithContext(ctx).Error("question_failed",
			"query_time_ms", time.Since(start).Milliseconds(),
			"error", err)
		return nil, err
	}

	ctx = logger.WithStage(ctx, string(stageReformulating))
	u.logs.WithContext(ctx).Info("stage_started")
	variants, detected := u.reformulator.Reformulate(question, lang)
	ctx = logger.WithLanguage(ctx, string(detected))

	ctx = logger.WithStage(ctx, string(stageRetrieving))
	log := u.logs.WithContext(ctx)
	log.Info("stage_started", "variant_count", len(variants))
	sc := &retrieval.StageContext{
		RetrievalID:          queryID,
		Question:             question,
		Language:             detected,
		Variants:             variants,
		TopK:                 u.cfg.TopK,
		Alpha:                u.cfg.Alpha,
		VariantSearchTimeout: u.cfg.VariantSearchTimeout,
	}
	if err := retrieval.SearchVariants(ctx, sc, u.index, u.encoder, log); err != nil {
		return fail(ctx, err)
	}
	retrieval.MergeCandidates(sc, log)

	ctx = logger.WithStage(ctx, string(stageSelecting))
	log = u.logs.WithContext(ctx)
	log.Info("stage_started", "candidate_count", len(sc.Candidates))
	evidence, err := retrieval.SelectEvidence(ctx, sc.Candidates, u.index, u.cfg.MinRelevance, maxArticles, log)
	if err != nil {
		return fail(ctx, err)
	}

	ctx = logger.WithStage(ctx, string(stageComposing))
	log = u.logs.WithContext(ctx)
	log.Info("stage_started", "evidence_count", len(evidence))
	composed, err := u.composer.Compose(ctx, ComposeInput{
		Question: question,
		Language: detected,
		Evidence: evidence,
	})
	if err != nil {
		return fail(ctx, err)
	}

	refs := sourceRefs(evidence)
	result := &domain.AnswerResult{
		AnswerText:       composed.AnswerText,
		Citations:        composed.Citations,
		ArticlesUsed:     refs,
		LanguageDetected: detected,
		SourcesUsed:      len(refs),
		Confidence:       confidence(evidence),
		QueryTime:        time.Since(start),
		Degraded:         sc.Degraded,
		Note:             composed.Note,
	}

	ctx = logger.WithStage(ctx, string(stageDone))
	u.logs.WithContext(ctx).Info("stage_started",
		"sources_used", result.SourcesUsed,
		"confidence", result.Confidence,
		"degraded", result.Degraded,
		"insufficient", composed.Insufficient,
		"query_time_ms", result.QueryTime.Milliseconds())
	return result, nil
}

// confidence is the relevance of the strongest evidence article,
// clamped to [0,1]. No evidence means no confidence.
func confidence(evidence []domain.Evidence) float64 {
	if len(evidence) == 0 {
		return 0
	}
	c := evidence[0].RelevanceScore
	for _, ev := range evidence[1:] {
		if ev.RelevanceScore > c {
			c = ev.RelevanceScore
		}
	}
	if c > 1 {
		c = 1
	}
	if c < 0 {
		c = 0
	}
	return c
}

const previewRunes = 150

// sourceRefs collapses evidence to one entry per article. Long
// articles are stored as several chunks under the same number; the
// strongest chunk represents the article.
func sourceRefs(evidence []domain.Evidence) []domain.SourceRef {
	refs := make([]domain.SourceRef, 0, len(evidence))
	seen := make(map[string]int, len(evidence))
	for _, ev := range evidence {
		key := string(ev.Article.CodeSource) + "/" + ev.Article.ArticleNumber
		if i, ok := seen[key]; ok {
			if ev.RelevanceScore > refs[i].RelevanceScore {
				refs[i].RelevanceScore = ev.RelevanceScore
				refs[i].TextPreview = preview(ev.Article.Text)
			}
			continue
		}
		seen[key] = len(refs)
		refs = append(refs, domain.SourceRef{
			ArticleNumber:  ev.Article.ArticleNumber,
			CodeSource:     string(ev.Article.CodeSource),
			CodeName:       ev.Article.CodeSource.DisplayName(),
			RelevanceScore: ev.RelevanceScore,
			TextPreview:    preview(ev.Article.Text),
		})
	}
	return refs
}

func preview(text string) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= previewRunes {
		return string(runes)
	}
	return string(runes[:previewRunes]) + "..."
}
