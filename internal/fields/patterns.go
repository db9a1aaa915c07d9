package fields

import "regexp"

// Canonical field keys. These match the JSON names on model.PolicyRecord
// and the normalized form-field keys cloud providers report.
const (
	KeyPolicyNumber    = "policy_number"
	KeyInsuredName     = "insured_name"
	KeyEffectiveDate   = "effective_date"
	KeyExpirationDate  = "expiration_date"
	KeyInsurerName     = "insurer_name"
	KeyPropertyAddress = "property_address"
	KeyCoverageAmount  = "coverage_amount"
	KeyDeductible      = "deductible"
	KeyAgentName       = "agent_name"
	KeyAgentPhone      = "agent_phone"
	KeyAgentEmail      = "agent_email"
	KeyMortgagee       = "mortgagee"
	KeyLoanNumber      = "loan_number"
)

// dateShape matches any date-like token (MM/DD/YYYY and friends). Used by
// the whole-document date scan when labeled date patterns find nothing.
var dateShape = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`)

// Each cascade is ordered most-specific first: an explicit label beats a
// bare shape, and the first matching pattern wins outright. No
// cross-pattern reconciliation is attempted.
var (
	policyNumberPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)policy\s*(?:number|no\.?|num|#)\s*[:.]?\s*([A-Z0-9][A-Z0-9-]{4,19})`),
		regexp.MustCompile(`(?i)\bpol\s*#\s*[:.]?\s*([A-Z0-9][A-Z0-9-]{4,19})`),
		regexp.MustCompile(`\b([A-Z]{2,4}-?\d{6,12})\b`),
	}

	insuredNamePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)named\s+insured\s*[:.]?\s*([A-Z][A-Za-z ,&.'-]{2,49})`),
		regexp.MustCompile(`(?i)\binsured(?:\s+name)?\s*[:.]?\s*([A-Z][A-Za-z ,&.'-]{2,49})`),
		regexp.MustCompile(`(?i)policyholder\s*[:.]?\s*([A-Z][A-Za-z ,&.'-]{2,49})`),
	}

	effectiveDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)effective\s*(?:date)?\s*[:.]?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`),
		regexp.MustCompile(`(?i)policy\s+period\s*[:.]?\s*(?:from\s*)?(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`),
		regexp.MustCompile(`(?i)\bfrom\s*[:.]?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`),
	}

	expirationDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)expiration\s*(?:date)?\s*[:.]?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`),
		regexp.MustCompile(`(?i)expires?\s*(?:on)?\s*[:.]?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`),
		regexp.MustCompile(`(?i)\bto\s*[:.]?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`),
	}

	insurerNamePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:insurer|carrier|underwritten\s+by|insurance\s+company)\s*[:.]?\s*([A-Z][A-Za-z &.,'-]{2,39})`),
		regexp.MustCompile(`\b([A-Z][A-Za-z&.,' -]{2,40}\sInsurance(?:\s+(?:Company|Co\.?|Group|Corp\.?))?)`),
	}

	propertyAddressPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:property|location|premises|risk)\s*(?:address)?\s*[:.]?\s*(\d+\s+[A-Za-z0-9 .,#-]{5,79})`),
		regexp.MustCompile(`(?i)insured\s+location\s*[:.]?\s*(\d+\s+[A-Za-z0-9 .,#-]{5,79})`),
	}

	coverageAmountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)coverage\s*a\b(?:\s*[-–]?\s*dwelling)?[^$\d]*\$?\s*([\d,]{3,15})`),
		regexp.MustCompile(`(?i)dwelling(?:\s+(?:limit|coverage))?[^$\d]*\$?\s*([\d,]{3,15})`),
		regexp.MustCompile(`(?i)coverage\s+amount[^$\d]*\$?\s*([\d,]{3,15})`),
	}

	deductiblePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)deductible\s*(?:amount)?[^$\d]*\$?\s*([\d,]{3,12})`),
		regexp.MustCompile(`(?i)all\s+(?:other\s+)?perils?[^$\d]*\$?\s*([\d,]{3,12})`),
	}

	agentNamePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)agent(?:\s+name)?\s*[:.]?\s*([A-Z][A-Za-z .'-]{2,39})`),
		regexp.MustCompile(`(?i)producer\s*[:.]?\s*([A-Z][A-Za-z .'-]{2,39})`),
	}

	agentPhonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:agent\s+)?(?:phone|tel(?:ephone)?)\s*(?:number|no\.?|#)?\s*[:.]?\s*(\(?\d{3}\)?[ .-]?\d{3}[ .-]?\d{4})`),
		regexp.MustCompile(`(\(\d{3}\)\s?\d{3}[-. ]\d{4})`),
	}

	agentEmailPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)e-?mail\s*[:.]?\s*([A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,})`),
		regexp.MustCompile(`([A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,})`),
	}

	mortgageePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)mortgagee(?:\s*/?\s*lender)?\s*[:.]?\s*([A-Z][A-Za-z0-9 .,&'-]{2,59})`),
		regexp.MustCompile(`(?i)\blender\s*[:.]?\s*([A-Z][A-Za-z0-9 .,&'-]{2,59})`),
		regexp.MustCompile(`(?i)loss\s+payee\s*[:.]?\s*([A-Z][A-Za-z0-9 .,&'-]{2,59})`),
	}

	loanNumberPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)loan\s*(?:number|no\.?|num|#)?\s*[:.]?\s*([A-Z0-9][A-Z0-9-]{3,19})`),
		regexp.MustCompile(`(?i)mortgage\s*(?:account|loan)\s*#?\s*[:.]?\s*([A-Z0-9][A-Z0-9-]{3,19})`),
	}
)
