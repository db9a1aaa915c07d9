// Package scorer computes the advisory confidence score attached to every
// extraction result. The score is a pure heuristic over the extracted text
// and the populated record; it is a UI signal and the hybrid escalation
// threshold, never an accept/reject gate.
package scorer

import (
	"strings"

	"github.com/claimguru/extract-cli/internal/model"
)

// Base confidence per extractor variant. The text-layer path starts lower
// than a provider because an embedded text layer proves nothing about
// field coverage.
const (
	BaseClient   = 0.3
	BaseProvider = 0.4
)

// perFieldIncrement is added for each populated scored field.
const perFieldIncrement = 0.06

// keywordBonusCap limits the domain-keyword density bonus.
const keywordBonusCap = 0.1

// domainKeywords are terms whose presence suggests the text really is an
// insurance policy document.
var domainKeywords = []string{
	"policy", "coverage", "deductible", "dwelling", "premium",
	"insured", "insurance", "liability", "endorsement", "declarations",
}

// Score rates an extraction on [0,1]: a fixed base, an increment per
// populated canonical field, and a small bonus for domain keyword density
// in the text. Adding recognizable fields never lowers the result.
func Score(text string, rec model.PolicyRecord, base float64) float64 {
	score := base

	for _, v := range []string{
		rec.PolicyNumber, rec.InsuredName, rec.InsurerName,
		rec.PropertyAddress, rec.EffectiveDate, rec.ExpirationDate,
		rec.CoverageAmount, rec.Deductible,
	} {
		if v != "" {
			score += perFieldIncrement
		}
	}

	score += keywordBonus(text)

	if score > 1 {
		return 1
	}
	if score < 0 {
		return 0
	}
	return score
}

func keywordBonus(text string) float64 {
	if text == "" {
		return 0
	}
	lower := strings.ToLower(text)
	hits := 0
	for _, kw := range domainKeywords {
		if strings.Contains(lower, kw) {
			hits++
		}
	}
	bonus := float64(hits) * keywordBonusCap / float64(len(domainKeywords))
	if bonus > keywordBonusCap {
		return keywordBonusCap
	}
	return bonus
}
