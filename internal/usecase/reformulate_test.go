package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qanoon-rag/internal/domain"
)

func TestReformulateKeepsOriginalFirst(t *testing.T) {
	r := NewReformulator()

	variants, lang := r.Reformulate("Combien d'heures par semaine puis-je travailler ?", domain.LanguageAuto)

	assert.Equal(t, domain.LanguageFrench, lang)
	require.NotEmpty(t, variants)
	assert.Equal(t, domain.VariantOriginal, variants[0].Kind)
	assert.Equal(t, "Combien d'heures par semaine puis-je travailler ?", variants[0].Text)
}

func TestReformulateExpandsWorkHoursQuestion(t *testing.T) {
	r := NewReformulator()

	variants, _ := r.Reformulate("Combien d'heures par semaine puis-je travailler ?", domain.LanguageFrench)

	require.Len(t, variants, 3)
	texts := []string{variants[1].Text, variants[2].Text}
	assert.Contains(t, texts, "durée normale de travail hebdomadaire")
	assert.Contains(t, texts, "heures supplémentaires")
	for _, v := range variants[1:] {
		assert.Equal(t, domain.VariantReformulated, v.Kind)
	}
}

func TestReformulateCapsVariantCount(t *testing.T) {
	r := NewReformulator()

	// Touches the work-hours, dismissal and salary rules at once.
	variants, _ := r.Reformulate("licenciement, salaire et heures de travail", domain.LanguageFrench)

	assert.LessOrEqual(t, len(variants), 3)
}

func TestReformulateNoRuleMatch(t *testing.T) {
	r := NewReformulator()

	variants, _ := r.Reformulate("question sans vocabulaire juridique connu", domain.LanguageFrench)

	assert.Len(t, variants, 1)
	assert.Equal(t, domain.VariantOriginal, variants[0].Kind)
}

func TestReformulateArabic(t *testing.T) {
	r := NewReformulator()

	variants, lang := r.Reformulate("كم عدد ساعات العمل في الأسبوع؟", domain.LanguageAuto)

	assert.Equal(t, domain.LanguageArabic, lang)
	require.Len(t, variants, 3)
	assert.Equal(t, "المدة العادية للعمل", variants[1].Text)
}

func TestReformulateHonorsLanguageHint(t *testing.T) {
	r := NewReformulator()

	_, lang := r.Reformulate("texte en français", domain.LanguageArabic)
	assert.Equal(t, domain.LanguageArabic, lang)
}

func TestReformulateDeterministic(t *testing.T) {
	r := NewReformulator()

	first, _ := r.Reformulate("Puis-je être licencié sans préavis ?", domain.LanguageFrench)
	second, _ := r.Reformulate("Puis-je être licencié sans préavis ?", domain.LanguageFrench)

	assert.Equal(t, first, second)
}
