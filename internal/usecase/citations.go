package usecase

import (
	"regexp"
	"strings"

	"qanoon-rag/internal/domain"
)

// CitationCheck is the outcome of reconciling one cited label against
// the evidence set. Verified citations carry the canonical article
// number; unverifiable ones keep only the raw label.
type CitationCheck struct {
	Raw           string
	ArticleNumber string
	Verified      bool
}

var articleLabelPattern = regexp.MustCompile(`[0-9]+(?:[.-][0-9a-zA-Z]+)*`)

// SplitAnswer separates the generated text into the answer body and
// the citation block. The block is everything after the last citation
// heading; a missing heading leaves the whole text as the body.
func SplitAnswer(raw string, lang domain.Language) (body string, citationBlock string, found bool) {
	heading := CitationHeading(lang)
	i := strings.LastIndex(raw, heading)
	if i < 0 {
		return strings.TrimSpace(raw), "", false
	}
	return strings.TrimSpace(raw[:i]), strings.TrimSpace(raw[i+len(heading):]), true
}

// ParseCitationLabels extracts the article-number labels from a
// citation block. "Article 184 - Code du Travail, Article 9" yields
// ["184", "9"]; the heading itself has already been stripped.
func ParseCitationLabels(block string) []string {
	var labels []string
	seen := make(map[string]bool)
	for _, label := range articleLabelPattern.FindAllString(block, -1) {
		if seen[label] {
			continue
		}
		seen[label] = true
		labels = append(labels, label)
	}
	return labels
}

// ReconcileCitations checks each label against the evidence set. Only
// article numbers actually present in the evidence come back verified;
// numbers the model introduced on its own are tagged unverifiable and
// never surface as citations.
func ReconcileCitations(labels []string, evidence []domain.Evidence) []CitationCheck {
	allowed := make(map[string]bool, len(evidence))
	for _, ev := range evidence {
		allowed[ev.Article.ArticleNumber] = true
	}

	checks := make([]CitationCheck, 0, len(labels))
	for _, label := range labels {
		if allowed[label] {
			checks = append(checks, CitationCheck{Raw: label, ArticleNumber: label, Verified: true})
		} else {
			checks = append(checks, CitationCheck{Raw: label, Verified: false})
		}
	}
	return checks
}
