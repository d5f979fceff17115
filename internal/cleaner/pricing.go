package cleaner

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var perThousand = decimal.NewFromInt(1000)

// Price is USD per 1K tokens.
type Price struct {
	Prompt     decimal.Decimal
	Completion decimal.Decimal
}

// Pricing maps a model name (or name prefix) to its token price.
type Pricing map[string]Price

func price(prompt, completion string) Price {
	return Price{Prompt: decimal.RequireFromString(prompt), Completion: decimal.RequireFromString(completion)}
}

func DefaultPricing() Pricing {
	return Pricing{
		"gpt-4":            price("0.03", "0.06"),
		"gpt-4-32k":        price("0.06", "0.12"),
		"gpt-4-turbo":      price("0.01", "0.03"),
		"gpt-4o":           price("0.0025", "0.01"),
		"gpt-4o-mini":      price("0.00015", "0.0006"),
		"gpt-3.5-turbo":    price("0.0015", "0.002"),
		"gemini-2.5-flash": price("0.0003", "0.0025"),
		"gemini-2.5-pro":   price("0.00125", "0.01"),
	}
}

// Lookup finds the price for model, falling back to the longest matching prefix
// so dated snapshots such as gpt-4-0613 resolve to their family.
func (p Pricing) Lookup(model string) (Price, bool) {
	if pr, ok := p[model]; ok {
		return pr, true
	}
	best, found := "", false
	for name := range p {
		if strings.HasPrefix(model, name) && len(name) > len(best) {
			best, found = name, true
		}
	}
	if !found {
		return Price{}, false
	}
	return p[best], true
}

// Cost prices one call. Unknown models cost zero; ok reports whether a price was found.
func (p Pricing) Cost(model string, promptTokens, completionTokens int) (cost decimal.Decimal, ok bool) {
	pr, ok := p.Lookup(model)
	if !ok {
		return decimal.Zero, false
	}
	in := pr.Prompt.Mul(decimal.NewFromInt(int64(promptTokens))).Div(perThousand)
	out := pr.Completion.Mul(decimal.NewFromInt(int64(completionTokens))).Div(perThousand)
	return in.Add(out), true
}

type pricingFile struct {
	Models map[string]struct {
		Prompt     string `yaml:"prompt"`
		Completion string `yaml:"completion"`
	} `yaml:"models"`
}

// LoadPricing merges a YAML pricing file over the defaults.
//
//	models:
//	  gpt-4:
//	    prompt: "0.03"
//	    completion: "0.06"
func LoadPricing(path string) (Pricing, error) {
	p := DefaultPricing()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pricing file: %w", err)
	}
	var f pricingFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse pricing file: %w", err)
	}

	for name, m := range f.Models {
		in, err := decimal.NewFromString(m.Prompt)
		if err != nil {
			return nil, fmt.Errorf("model %s prompt price: %w", name, err)
		}
		out, err := decimal.NewFromString(m.Completion)
		if err != nil {
			return nil, fmt.Errorf("model %s completion price: %w", name, err)
		}
		if in.IsNegative() || out.IsNegative() {
			return nil, fmt.Errorf("model %s has a negative price", name)
		}
		p[name] = Price{Prompt: in, Completion: out}
	}
	return p, nil
}
