package usecase

import (
	"fmt"
	"strings"

	"qanoon-rag/internal/domain"
)

// PromptInput contains the pieces that feed into the prompt builder.
type PromptInput struct {
	Question string
	Language domain.Language
	Evidence []domain.Evidence
}

// PromptBuilder renders the generation prompt for one question.
type PromptBuilder interface {
	Build(input PromptInput) (string, error)
}

// EvidencePromptBuilder produces a prompt that pins the model to the
// supplied articles and asks for the citation block the reconciler
// parses afterwards.
type EvidencePromptBuilder struct {
	additionalInstructions []string
}

// NewEvidencePromptBuilder creates a prompt builder with optional
// extra instructions appended.
func NewEvidencePromptBuilder(additionalInstructions ...string) PromptBuilder {
	return &EvidencePromptBuilder{
		additionalInstructions: additionalInstructions,
	}
}

func (b *EvidencePromptBuilder) Build(input PromptInput) (string, error) {
	if len(input.Evidence) == 0 {
		return "", fmt.Errorf("prompt requires at least one evidence article")
	}

	var sb strings.Builder

	instructions := instructionsFor(input.Language)
	for _, inst := range append(instructions, b.additionalInstructions...) {
		sb.WriteString(inst)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	for _, ev := range input.Evidence {
		sb.WriteString(fmt.Sprintf("Article %s (%s):\n",
			ev.Article.ArticleNumber, ev.Article.CodeSource.DisplayName()))
		sb.WriteString(strings.TrimSpace(ev.Article.Text))
		sb.WriteString("\n\n")
	}

	switch input.Language {
	case domain.LanguageArabic:
		sb.WriteString("السؤال: ")
	default:
		sb.WriteString("Question : ")
	}
	sb.WriteString(strings.TrimSpace(input.Question))
	sb.WriteString("\n")

	return sb.String(), nil
}

func instructionsFor(lang domain.Language) []string {
	if lang == domain.LanguageArabic {
		return []string{
			"أنت مساعد قانوني يجيب على الأسئلة استنادا فقط إلى مواد القانون المغربي المدرجة أدناه.",
			"أجب بالعربية وبصيغة واضحة، ولا تستعمل أي معلومة من خارج المواد المقدمة.",
			"إذا كانت المواد لا تكفي للإجابة فقل ذلك صراحة.",
			"اختم جوابك بسطر يبدأ بعبارة \"" + CitationHeading(lang) + "\" يذكر أرقام المواد التي اعتمدت عليها،",
			"بهذه الصيغة: المصادر: المادة 184 - مدونة الشغل",
		}
	}
	return []string{
		"Tu es un assistant juridique qui répond aux questions en te fondant UNIQUEMENT sur les articles du droit marocain fournis ci-dessous.",
		"Réponds en français, de façon claire et directe, sans inventer de règle absente des articles.",
		"Si les articles fournis ne permettent pas de répondre, dis-le explicitement.",
		"Termine ta réponse par une ligne commençant par \"" + CitationHeading(lang) + "\" qui liste les articles utilisés,",
		"au format : Sources: Article 184 - Code du Travail",
	}
}

// CitationHeading returns the heading that introduces the citation
// block in a generated answer.
func CitationHeading(lang domain.Language) string {
	if lang == domain.LanguageArabic {
		return "المصادر:"
	}
	return "Sources:"
}
