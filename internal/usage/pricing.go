package usage

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"breathein/internal/config"
)

// CostPlaces is the precision every cost figure is rounded to.
const CostPlaces = 6

var thousand = decimal.NewFromInt(1000)

// Pricing is the USD rate per 1K tokens for one model.
type Pricing struct {
	InputPer1K  decimal.Decimal
	OutputPer1K decimal.Decimal
}

// PriceTable maps model names to their pricing.
type PriceTable map[string]Pricing

// PriceTableFromConfig converts the configured float rates.
func PriceTableFromConfig(prices map[string]config.Price) PriceTable {
	table := make(PriceTable, len(prices))
	for model, price := range prices {
		table[model] = Pricing{
			InputPer1K:  decimal.NewFromFloat(price.InputPer1K),
			OutputPer1K: decimal.NewFromFloat(price.OutputPer1K),
		}
	}
	return table
}

// Lookup returns the pricing for model. Dated snapshots such as
// "gpt-3.5-turbo-0125" resolve to the longest configured prefix.
func (t PriceTable) Lookup(model string) (Pricing, bool) {
	model = strings.TrimSpace(model)
	if p, ok := t[model]; ok {
		return p, true
	}
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })
	for _, name := range names {
		if name != "" && strings.HasPrefix(model, name) {
			return t[name], true
		}
	}
	return Pricing{}, false
}

// Cost is the price of one call split by direction.
type Cost struct {
	Input  decimal.Decimal
	Output decimal.Decimal
	Total  decimal.Decimal
}

// CalculateCost prices a call as P/1000*p_in + C/1000*p_out, each figure
// rounded to CostPlaces.
func CalculateCost(p Pricing, promptTokens, completionTokens int) Cost {
	input := decimal.NewFromInt(int64(promptTokens)).Div(thousand).Mul(p.InputPer1K)
	output := decimal.NewFromInt(int64(completionTokens)).Div(thousand).Mul(p.OutputPer1K)
	return Cost{
		Input:  input.Round(CostPlaces),
		Output: output.Round(CostPlaces),
		Total:  input.Add(output).Round(CostPlaces),
	}
}
