// Package fields implements the regex-cascade parser that maps raw policy
// text to canonical PolicyRecord fields. Extraction is best-effort by
// design: each field has an ordered strategy list from explicit label to
// bare shape, the first matching pattern wins, and a field that matches
// nothing is simply absent.
package fields

import (
	"regexp"
	"strings"

	"github.com/claimguru/extract-cli/internal/model"
)

// Engine extracts canonical policy fields from unstructured text.
type Engine struct {
	cascades []cascade
}

type cascade struct {
	key       string
	patterns  []*regexp.Regexp
	normalize func(string) string
	assign    func(*model.PolicyRecord, string)
}

// NewEngine builds the engine with the default pattern cascades.
func NewEngine() *Engine {
	return &Engine{cascades: []cascade{
		{KeyPolicyNumber, policyNumberPatterns, cleanToken, func(r *model.PolicyRecord, v string) { r.PolicyNumber = v }},
		{KeyInsuredName, insuredNamePatterns, cleanText, func(r *model.PolicyRecord, v string) { r.InsuredName = v }},
		{KeyEffectiveDate, effectiveDatePatterns, cleanToken, func(r *model.PolicyRecord, v string) { r.EffectiveDate = v }},
		{KeyExpirationDate, expirationDatePatterns, cleanToken, func(r *model.PolicyRecord, v string) { r.ExpirationDate = v }},
		{KeyInsurerName, insurerNamePatterns, cleanText, func(r *model.PolicyRecord, v string) { r.InsurerName = v }},
		{KeyPropertyAddress, propertyAddressPatterns, cleanText, func(r *model.PolicyRecord, v string) { r.PropertyAddress = v }},
		{KeyCoverageAmount, coverageAmountPatterns, normalizeMoney, func(r *model.PolicyRecord, v string) { r.CoverageAmount = v }},
		{KeyDeductible, deductiblePatterns, normalizeMoney, func(r *model.PolicyRecord, v string) { r.Deductible = v }},
		{KeyAgentName, agentNamePatterns, cleanText, func(r *model.PolicyRecord, v string) { r.AgentName = v }},
		{KeyAgentPhone, agentPhonePatterns, cleanToken, func(r *model.PolicyRecord, v string) { r.AgentPhone = v }},
		{KeyAgentEmail, agentEmailPatterns, cleanToken, func(r *model.PolicyRecord, v string) { r.AgentEmail = v }},
		{KeyMortgagee, mortgageePatterns, cleanText, func(r *model.PolicyRecord, v string) { r.Mortgagee = v }},
		{KeyLoanNumber, loanNumberPatterns, cleanToken, func(r *model.PolicyRecord, v string) { r.LoanNumber = v }},
	}}
}

// Extract runs every cascade over text and returns the populated record.
// It never fails: unmatched fields stay empty.
func (e *Engine) Extract(text string) model.PolicyRecord {
	var rec model.PolicyRecord
	if text == "" {
		return rec
	}

	for _, c := range e.cascades {
		for _, p := range c.patterns {
			m := p.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			v := c.normalize(m[1])
			if v == "" {
				continue
			}
			c.assign(&rec, v)
			break
		}
	}

	e.fillDatesByOrder(text, &rec)
	return rec
}

// fillDatesByOrder backfills missing dates from a whole-document scan:
// when labeled patterns found neither date and the text contains two or
// more date-shaped tokens, the first in document order becomes the
// effective date and the second the expiration date. Known limitation:
// this misassigns when unrelated dates appear earlier in the document.
func (e *Engine) fillDatesByOrder(text string, rec *model.PolicyRecord) {
	if rec.EffectiveDate != "" && rec.ExpirationDate != "" {
		return
	}

	dates := dateShape.FindAllString(text, 3)
	if len(dates) < 2 {
		return
	}
	if rec.EffectiveDate == "" {
		rec.EffectiveDate = dates[0]
	}
	if rec.ExpirationDate == "" {
		rec.ExpirationDate = dates[1]
	}
}

// ApplyFormFields overlays provider form-recognition key/value pairs onto
// rec. Form values win over regex output for their mapped canonical field
// when non-empty, matching the original proxy behavior where form fields
// carry higher confidence than the text cascade.
func (e *Engine) ApplyFormFields(rec model.PolicyRecord, fields []model.FormField) model.PolicyRecord {
	for _, f := range fields {
		v := cleanText(f.Value)
		if v == "" {
			continue
		}
		switch normalizeFormKey(f.Key) {
		case "policynumber", "policyno", "policy":
			rec.PolicyNumber = cleanToken(f.Value)
		case "insured", "insuredname", "namedinsured", "policyholder":
			rec.InsuredName = v
		case "effectivedate", "policyfrom":
			rec.EffectiveDate = cleanToken(f.Value)
		case "expirationdate", "policyto":
			rec.ExpirationDate = cleanToken(f.Value)
		case "insurer", "carrier", "insurancecompany":
			rec.InsurerName = v
		case "propertyaddress", "location", "premises":
			rec.PropertyAddress = v
		case "coveragea", "dwelling", "coverageamount":
			if m := normalizeMoney(f.Value); m != "" {
				rec.CoverageAmount = m
			}
		case "deductible", "deductibleamount":
			if m := normalizeMoney(f.Value); m != "" {
				rec.Deductible = m
			}
		case "agent", "agentname", "producer":
			rec.AgentName = v
		case "agentphone", "phone":
			rec.AgentPhone = cleanToken(f.Value)
		case "agentemail", "email":
			rec.AgentEmail = cleanToken(f.Value)
		case "mortgagee", "lender", "losspayee":
			rec.Mortgagee = v
		case "loannumber", "loanno":
			rec.LoanNumber = cleanToken(f.Value)
		}
	}
	return rec
}

var formKeyStrip = regexp.MustCompile(`[^a-z0-9]`)

func normalizeFormKey(key string) string {
	return formKeyStrip.ReplaceAllString(strings.ToLower(key), "")
}

var moneyDigits = regexp.MustCompile(`[\d,]+`)

// normalizeMoney reduces a captured amount to the literal "$" plus the
// digits-and-commas as they appeared in the source. No numeric coercion:
// "$2,500" stays a string.
func normalizeMoney(v string) string {
	m := moneyDigits.FindString(v)
	m = strings.Trim(m, ",")
	if m == "" || !strings.ContainsAny(m, "0123456789") {
		return ""
	}
	return "$" + m
}

func cleanToken(v string) string {
	return strings.TrimSpace(v)
}

// cleanText trims, collapses runs of whitespace, and drops trailing
// punctuation a label match tends to drag along.
func cleanText(v string) string {
	v = strings.Join(strings.Fields(v), " ")
	return strings.TrimRight(v, " .,:;-")
}
