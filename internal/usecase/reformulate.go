package usecase

import (
	"strings"

	"qanoon-rag/internal/domain"
)

// reformulationRule maps colloquial vocabulary to the statutory
// phrasing the corpus is written in. Rules are applied in order and
// the table is fixed, so the variants for a given question never
// change between runs.
type reformulationRule struct {
	language   domain.Language
	keywords   []string
	expansions []string
}

var reformulationRules = []reformulationRule{
	{
		language:   domain.LanguageFrench,
		keywords:   []string{"heure", "travailler", "horaire"},
		expansions: []string{"durée normale de travail hebdomadaire", "heures supplémentaires"},
	},
	{
		language:   domain.LanguageFrench,
		keywords:   []string{"licenciement", "licencier", "licencie", "renvoyer", "renvoye", "preavi"},
		expansions: []string{"licenciement rupture du contrat de travail", "préavis de licenciement"},
	},
	{
		language:   domain.LanguageFrench,
		keywords:   []string{"salaire", "paye", "remuneration"},
		expansions: []string{"salaire minimum légal", "paiement du salaire"},
	},
	{
		language:   domain.LanguageFrench,
		keywords:   []string{"entreprise", "societe", "creer"},
		expansions: []string{"constitution de société", "immatriculation au registre du commerce"},
	},
	{
		language:   domain.LanguageFrench,
		keywords:   []string{"vol", "vole", "voler"},
		expansions: []string{"vol soustraction frauduleuse", "peine encourue pour vol"},
	},
	{
		language:   domain.LanguageFrench,
		keywords:   []string{"accident", "circulation", "voiture"},
		expansions: []string{"accident de la circulation responsabilité", "dommages et intérêts"},
	},
	{
		language:   domain.LanguageFrench,
		keywords:   []string{"amende", "vitesse", "contravention"},
		expansions: []string{"contravention excès de vitesse", "sanction des infractions routières"},
	},
	{
		language:   domain.LanguageFrench,
		keywords:   []string{"permi", "conduire"},
		expansions: []string{"permis de conduire", "validité du permis de conduire"},
	},
	{
		language:   domain.LanguageFrench,
		keywords:   []string{"plainte", "tribunal", "proce"},
		expansions: []string{"action en justice", "procédure devant le tribunal de première instance"},
	},
	{
		language:   domain.LanguageFrench,
		keywords:   []string{"heritage", "succession", "dece"},
		expansions: []string{"succession partage des biens", "droits des héritiers"},
	},
	{
		language:   domain.LanguageArabic,
		keywords:   []string{"ساعات", "عمل", "العمل", "الشغل"},
		expansions: []string{"المدة العادية للعمل", "الساعات الاضافية"},
	},
	{
		language:   domain.LanguageArabic,
		keywords:   []string{"طرد", "فصل"},
		expansions: []string{"الفصل من العمل", "اجل الاخطار"},
	},
	{
		language:   domain.LanguageArabic,
		keywords:   []string{"سرقه", "السرقه", "سرق"},
		expansions: []string{"عقوبه السرقه", "الاختلاس"},
	},
	{
		language:   domain.LanguageArabic,
		keywords:   []string{"اجر", "الاجر", "راتب", "الراتب"},
		expansions: []string{"الحد الادنى للاجر", "اداء الاجر"},
	},
}

// maxVariants bounds the searched set to the original question plus
// two reformulations.
const maxVariants = 3

// Reformulator turns one question into the set of query variants sent
// to the hybrid searcher. It is a fixed rule table, not a model call,
// so reformulation adds no latency and cannot fail.
type Reformulator struct{}

func NewReformulator() *Reformulator {
	return &Reformulator{}
}

// Reformulate resolves the question language and expands colloquial
// phrasing into statutory vocabulary. The original question is always
// the first variant.
func (r *Reformulator) Reformulate(question string, hint domain.Language) ([]domain.QueryVariant, domain.Language) {
	lang := hint
	if lang == "" || lang == domain.LanguageAuto {
		lang = domain.DetectLanguage(question)
	}

	variants := []domain.QueryVariant{
		{Text: question, Language: lang, Kind: domain.VariantOriginal},
	}

	tokens := make(map[string]bool)
	for _, tok := range domain.Tokenize(question, lang) {
		tokens[tok] = true
	}

	seen := map[string]bool{normalizeVariantKey(question): true}
	for _, rule := range reformulationRules {
		if len(variants) >= maxVariants {
			break
		}
		if rule.language != lang || !rule.matches(tokens) {
			continue
		}
		for _, expansion := range rule.expansions {
			if len(variants) >= maxVariants {
				break
			}
			key := normalizeVariantKey(expansion)
			if seen[key] {
				continue
			}
			seen[key] = true
			variants = append(variants, domain.QueryVariant{
				Text:     expansion,
				Language: lang,
				Kind:     domain.VariantReformulated,
			})
		}
	}

	return variants, lang
}

func (rule reformulationRule) matches(tokens map[string]bool) bool {
	for _, kw := range rule.keywords {
		if tokens[kw] {
			return true
		}
	}
	return false
}

func normalizeVariantKey(text string) string {
	return strings.Join(domain.Tokenize(text, domain.LanguageAuto), " ")
}
