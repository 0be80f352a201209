package domain

import (
	"fmt"
	"math"
)

type SplitParty string

const (
	PartyProducer  SplitParty = "PRODUCER"
	PartyPlatform  SplitParty = "PLATFORM"
	PartyLogistics SplitParty = "LOGISTICS"
)

type SplitRule struct {
	Party SplitParty
	Share float64
}

const (
	TemplateMarketplace    = "MARKETPLACE"
	TemplateConsumerMarket = "CONSUMER_MARKET"
)

// Split templates are fixed; shares per template sum to 1.0.
var splitTemplates = map[string][]SplitRule{
	TemplateMarketplace: {
		{Party: PartyProducer, Share: 0.87},
		{Party: PartyPlatform, Share: 0.08},
		{Party: PartyLogistics, Share: 0.05},
	},
	TemplateConsumerMarket: {
		{Party: PartyProducer, Share: 0.86},
		{Party: PartyPlatform, Share: 0.09},
		{Party: PartyLogistics, Share: 0.05},
	},
}

// TemplateRules returns the split rules for a template code.
func TemplateRules(code string) ([]SplitRule, error) {
	rules, ok := splitTemplates[code]
	if !ok {
		return nil, fmt.Errorf("%w: unknown settlement template %q", ErrInvalidArgument, code)
	}
	out := make([]SplitRule, len(rules))
	copy(out, rules)
	return out, nil
}

// Round2 rounds to two decimal places. Split lines are rounded independently;
// the sum is not renormalized to match the total, so a one-cent drift is
// possible for some share/amount combinations.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeSplit applies the rules to a total amount, rounding each line.
func ComputeSplit(totalAmount float64, rules []SplitRule) []SplitItem {
	items := make([]SplitItem, 0, len(rules))
	for _, rule := range rules {
		items = append(items, SplitItem{
			Party:  rule.Party,
			Share:  rule.Share,
			Amount: Round2(totalAmount * rule.Share),
		})
	}
	return items
}
