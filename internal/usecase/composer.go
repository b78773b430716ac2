package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"qanoon-rag/internal/domain"
)

// ComposeInput carries everything the composer needs for one answer.
type ComposeInput struct {
	Question string
	Language domain.Language
	Evidence []domain.Evidence
}

// ComposeOutput is the reconciled answer. Citations reference only
// evidence articles; labels the model invented end up in Note.
type ComposeOutput struct {
	AnswerText   string
	Citations    []string
	Note         string
	Insufficient bool
}

// AnswerComposer turns selected evidence into a grounded answer with
// verified citations. Generation gets one bounded retry; with no
// evidence at all it short-circuits to a fixed refusal.
type AnswerComposer struct {
	builder PromptBuilder
	llm     domain.LLMClient
	timeout time.Duration
	logger  *slog.Logger
}

func NewAnswerComposer(builder PromptBuilder, llm domain.LLMClient, timeout time.Duration, logger *slog.Logger) *AnswerComposer {
	return &AnswerComposer{
		builder: builder,
		llm:     llm,
		timeout: timeout,
		logger:  logger,
	}
}

func (c *AnswerComposer) Compose(ctx context.Context, input ComposeInput) (*ComposeOutput, error) {
	if len(input.Evidence) == 0 {
		return &ComposeOutput{
			AnswerText:   insufficientAnswer(input.Language),
			Insufficient: true,
		}, nil
	}

	prompt, err := c.builder.Build(PromptInput{
		Question: input.Question,
		Language: input.Language,
		Evidence: input.Evidence,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	resp, err := c.generateWithRetry(ctx, prompt, input.Language)
	if err != nil {
		// A caller-aborted context is not a backend outage.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrGenerationUnavailable, err)
	}

	body, block, _ := SplitAnswer(resp.Text, input.Language)
	checks := ReconcileCitations(ParseCitationLabels(block), input.Evidence)

	out := &ComposeOutput{AnswerText: body}
	var unverified []string
	for _, check := range checks {
		if check.Verified {
			out.Citations = append(out.Citations, formatCitation(check.ArticleNumber, input.Evidence))
		} else {
			unverified = append(unverified, check.Raw)
		}
	}
	if len(unverified) > 0 {
		out.Note = unverifiedNote(input.Language, unverified)
		c.logger.Warn("unverified_citations_dropped",
			"labels", unverified,
			"evidence_count", len(input.Evidence))
	}
	return out, nil
}

func (c *AnswerComposer) generateWithRetry(ctx context.Context, prompt string, lang domain.Language) (*domain.LLMResponse, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			c.logger.Warn("generation_retry", "attempt", attempt, "error", lastErr)
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := c.llm.Generate(callCtx, prompt, lang)
		cancel()

		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		if strings.TrimSpace(resp.Text) == "" {
			lastErr = fmt.Errorf("model returned empty text")
			continue
		}
		return resp, nil
	}
	return nil, lastErr
}

func formatCitation(articleNumber string, evidence []domain.Evidence) string {
	for _, ev := range evidence {
		if ev.Article.ArticleNumber == articleNumber {
			return fmt.Sprintf("Article %s - %s", articleNumber, ev.Article.CodeSource.DisplayName())
		}
	}
	return "Article " + articleNumber
}

func insufficientAnswer(lang domain.Language) string {
	if lang == domain.LanguageArabic {
		return "لا تتوفر معلومات كافية في النصوص القانونية المتاحة للإجابة على هذا السؤال."
	}
	return "Je ne trouve pas d'information suffisante dans les textes juridiques disponibles pour répondre à cette question."
}

func unverifiedNote(lang domain.Language, labels []string) string {
	joined := strings.Join(labels, ", ")
	if lang == domain.LanguageArabic {
		return "إحالات لم يتم التحقق منها: " + joined
	}
	return "Références non vérifiées : " + joined
}
