// Package cost holds the per-provider rate card and the cents-per-page
// cost math the usage ledger records.
package cost

import (
	"math"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// PageRate prices one processed page in US dollars.
type PageRate struct {
	PerPageUSD float64 `yaml:"per_page_usd" mapstructure:"per_page_usd"`
}

// Rates holds the per-provider pricing configuration.
type Rates struct {
	Textract PageRate `yaml:"textract" mapstructure:"textract"`
	Vision   PageRate `yaml:"vision" mapstructure:"vision"`
}

// Calculator computes billable costs for provider calls.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// PageCostCents returns the cost in whole cents for processing pages with
// the named provider. Unknown providers cost nothing.
func (c *Calculator) PageCostCents(provider string, pages int) int {
	if pages < 1 {
		pages = 1
	}
	var rate float64
	switch provider {
	case "textract":
		rate = c.rates.Textract.PerPageUSD
	case "vision":
		rate = c.rates.Vision.PerPageUSD
	default:
		return 0
	}
	return int(math.Round(rate * 100 * float64(pages)))
}

// DefaultRates returns the default provider pricing.
func DefaultRates() Rates {
	return Rates{
		Textract: PageRate{PerPageUSD: 0.06},
		Vision:   PageRate{PerPageUSD: 0.05},
	}
}

// LoadRates reads a rate card from a YAML file. The file has a top-level
// "rates" key; providers missing from the file keep their defaults.
func LoadRates(path string) (Rates, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rates{}, eris.Wrapf(err, "cost: read rate card %s", path)
	}

	wrapper := struct {
		Rates Rates `yaml:"rates"`
	}{Rates: DefaultRates()}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return Rates{}, eris.Wrap(err, "cost: parse rate card")
	}

	defaults := DefaultRates()
	if wrapper.Rates.Textract.PerPageUSD == 0 {
		wrapper.Rates.Textract = defaults.Textract
	}
	if wrapper.Rates.Vision.PerPageUSD == 0 {
		wrapper.Rates.Vision = defaults.Vision
	}

	return wrapper.Rates, nil
}
