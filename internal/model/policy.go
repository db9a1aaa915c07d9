package model

// PolicyRecord holds the canonical policy attributes the pipeline attempts
// to populate. Every field is independently optional: a field that could
// not be extracted is an empty string, never an error.
type PolicyRecord struct {
	PolicyNumber    string `json:"policy_number,omitempty"`
	InsuredName     string `json:"insured_name,omitempty"`
	EffectiveDate   string `json:"effective_date,omitempty"`
	ExpirationDate  string `json:"expiration_date,omitempty"`
	InsurerName     string `json:"insurer_name,omitempty"`
	PropertyAddress string `json:"property_address,omitempty"`
	CoverageAmount  string `json:"coverage_amount,omitempty"`
	Deductible      string `json:"deductible,omitempty"`
	AgentName       string `json:"agent_name,omitempty"`
	AgentPhone      string `json:"agent_phone,omitempty"`
	AgentEmail      string `json:"agent_email,omitempty"`
	Mortgagee       string `json:"mortgagee,omitempty"`
	LoanNumber      string `json:"loan_number,omitempty"`
}

// FieldCount returns the number of populated canonical fields.
func (r PolicyRecord) FieldCount() int {
	n := 0
	for _, v := range []string{
		r.PolicyNumber, r.InsuredName, r.EffectiveDate, r.ExpirationDate,
		r.InsurerName, r.PropertyAddress, r.CoverageAmount, r.Deductible,
		r.AgentName, r.AgentPhone, r.AgentEmail, r.Mortgagee, r.LoanNumber,
	} {
		if v != "" {
			n++
		}
	}
	return n
}

// IsEmpty reports whether no canonical field was populated.
func (r PolicyRecord) IsEmpty() bool {
	return r.FieldCount() == 0
}

// Merge returns a copy of r with every empty field filled from other.
// Populated fields in r always win.
func (r PolicyRecord) Merge(other PolicyRecord) PolicyRecord {
	pick := func(a, b string) string {
		if a != "" {
			return a
		}
		return b
	}
	return PolicyRecord{
		PolicyNumber:    pick(r.PolicyNumber, other.PolicyNumber),
		InsuredName:     pick(r.InsuredName, other.InsuredName),
		EffectiveDate:   pick(r.EffectiveDate, other.EffectiveDate),
		ExpirationDate:  pick(r.ExpirationDate, other.ExpirationDate),
		InsurerName:     pick(r.InsurerName, other.InsurerName),
		PropertyAddress: pick(r.PropertyAddress, other.PropertyAddress),
		CoverageAmount:  pick(r.CoverageAmount, other.CoverageAmount),
		Deductible:      pick(r.Deductible, other.Deductible),
		AgentName:       pick(r.AgentName, other.AgentName),
		AgentPhone:      pick(r.AgentPhone, other.AgentPhone),
		AgentEmail:      pick(r.AgentEmail, other.AgentEmail),
		Mortgagee:       pick(r.Mortgagee, other.Mortgagee),
		LoanNumber:      pick(r.LoanNumber, other.LoanNumber),
	}
}
