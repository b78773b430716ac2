package domain

import (
	"strings"
	"unicode"
)

// DetectLanguage resolves the language of a question from its script.
// Text written entirely in Arabic script is Arabic; anything containing
// Latin letters, including mixed-script text, is treated as French.
func DetectLanguage(text string) Language {
	hasArabic := false
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Latin, r):
			return LanguageFrench
		case isArabicRune(r):
			hasArabic = true
		}
	}
	if hasArabic {
		return LanguageArabic
	}
	return LanguageFrench
}

func isArabicRune(r rune) bool {
	return (r >= 0x0600 && r <= 0x06FF) ||
		(r >= 0x0750 && r <= 0x077F) ||
		(r >= 0xFB50 && r <= 0xFDFF) ||
		(r >= 0xFE70 && r <= 0xFEFF)
}

// Tokenize normalizes text into lexical search terms for the given
// language: lowercasing, diacritic folding, stop-word removal and a
// light plural strip for French. Numeric tokens are always kept so
// that article and duration figures stay searchable.
func Tokenize(text string, lang Language) []string {
	if lang == LanguageAuto {
		lang = DetectLanguage(text)
	}

	var tokens []string
	var b strings.Builder
	flush := func() {
		if b.Len() == 0 {
			return
		}
		tok := b.String()
		b.Reset()
		if t, ok := normalizeToken(tok, lang); ok {
			tokens = append(tokens, t)
		}
	}

	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if f := foldRune(r, lang); f >= 0 {
				b.WriteRune(f)
			}
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

func normalizeToken(tok string, lang Language) (string, bool) {
	if isNumeric(tok) {
		return tok, true
	}
	if len([]rune(tok)) < 3 {
		return "", false
	}
	switch lang {
	case LanguageArabic:
		if arabicStopwords[tok] {
			return "", false
		}
	default:
		if frenchStopwords[tok] {
			return "", false
		}
		tok = stripFrenchPlural(tok)
	}
	return tok, true
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// stripFrenchPlural removes a trailing plural marker from longer
// tokens so "heures" and "heure" match the same postings.
func stripFrenchPlural(tok string) string {
	if s, ok := irregularFrenchPlural[tok]; ok {
		return s
	}
	r := []rune(tok)
	if len(r) > 4 && strings.HasSuffix(tok, "aux") {
		return string(r[:len(r)-3]) + "al"
	}
	if len(r) > 3 && (r[len(r)-1] == 's' || r[len(r)-1] == 'x') {
		return string(r[:len(r)-1])
	}
	return tok
}

// Plurals in -aux whose singular ends in -ail, not -al.
var irregularFrenchPlural = map[string]string{
	"travaux": "travail",
	"baux":    "bail",
}

func foldRune(r rune, lang Language) rune {
	if lang == LanguageArabic {
		return foldArabicRune(r)
	}
	if f, ok := frenchFold[r]; ok {
		return f
	}
	return r
}

var frenchFold = map[rune]rune{
	'à': 'a', 'â': 'a', 'ä': 'a',
	'ç': 'c',
	'é': 'e', 'è': 'e', 'ê': 'e', 'ë': 'e',
	'î': 'i', 'ï': 'i',
	'ô': 'o', 'ö': 'o',
	'ù': 'u', 'û': 'u', 'ü': 'u',
	'ÿ': 'y',
	'œ': 'o',
}

func foldArabicRune(r rune) rune {
	switch r {
	case 'أ', 'إ', 'آ', 'ٱ':
		return 'ا'
	case 'ى':
		return 'ي'
	case 'ؤ':
		return 'و'
	case 'ئ':
		return 'ي'
	case 'ة':
		return 'ه'
	}
	// Harakat and tatweel carry no lexical signal.
	if (r >= 0x064B && r <= 0x0652) || r == 0x0640 || r == 0x0670 {
		return -1
	}
	return r
}

var frenchStopwords = map[string]bool{
	"les": true, "des": true, "une": true, "est": true, "que": true,
	"qui": true, "quoi": true, "pour": true, "dans": true, "avec": true,
	"sur": true, "par": true, "pas": true, "mon": true, "mes": true,
	"ses": true, "son": true, "ces": true, "cette": true, "mais": true,
	"comme": true, "tout": true, "tous": true, "nous": true, "vous": true,
	"ils": true, "elle": true, "elles": true, "sont": true, "ont": true,
	"avoir": true, "etre": true, "fait": true, "faire": true, "peut": true,
	"puis": true, "combien": true, "comment": true, "pourquoi": true,
	"quand": true, "quel": true, "quelle": true, "quels": true,
	"quelles": true, "est-ce": true, "aux": true,
}

var arabicStopwords = map[string]bool{
	"في": true, "من": true, "الى": true, "على": true, "عن": true,
	"هذا": true, "هذه": true, "ذلك": true, "التي": true, "الذي": true,
	"هل": true, "ما": true, "ماذا": true, "كيف": true, "متى": true,
	"اين": true, "لماذا": true, "كم": true, "مع": true, "او": true,
	"ان": true, "كان": true, "يكون": true, "لا": true, "نعم": true,
}
