// Package pricing implements the strategies that turn a sale's line items
// into the amount owed: per-product quantity discounts, buy-N-get-one
// discounts and the composite policies that pick the best total for the
// customer or for the store.
package pricing

import (
	"cmp"
	"slices"

	"github.com/xenking/checkout/internal/domain/discount"
	"github.com/xenking/checkout/internal/domain/promotion"
)

// lineRule is a valid promotion rule with its discount already parsed.
type lineRule struct {
	productID string
	threshold int
	value     discount.Value
}

// ruleSet indexes valid rules by product, largest threshold first.
type ruleSet map[string][]lineRule

// newRuleSet keeps the valid rules whose AppliedOnNextProduct flag equals
// nextProduct. Rules with equal thresholds keep catalog order.
func newRuleSet(rules []promotion.Rule, nextProduct bool) ruleSet {
	set := make(ruleSet)
	for _, r := range rules {
		if r.AppliedOnNextProduct != nextProduct || !r.Valid() {
			continue
		}
		v, err := r.Value()
		if err != nil {
			continue
		}
		set[r.ProductID] = append(set[r.ProductID], lineRule{
			productID: r.ProductID,
			threshold: r.ThresholdQuantity,
			value:     v,
		})
	}
	for _, rs := range set {
		slices.SortStableFunc(rs, func(a, b lineRule) int {
			return cmp.Compare(b.threshold, a.threshold)
		})
	}
	return set
}

// eligible returns the rules for productID whose threshold passes qualifies,
// in priority order.
func (s ruleSet) eligible(productID string, qualifies func(threshold int) bool) []lineRule {
	var out []lineRule
	for _, r := range s[productID] {
		if qualifies(r.threshold) {
			out = append(out, r)
		}
	}
	return out
}
