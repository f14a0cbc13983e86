package pricing

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/checkout/internal/domain/promotion"
	"github.com/xenking/checkout/internal/domain/sale"
)

var _ sale.Strategy = (*QuantityStrategy)(nil)

// QuantityStrategy applies "buy N, save X" promotions: every complete block
// of ThresholdQuantity units of a product is split into its own line item
// carrying the rule's discount.
type QuantityStrategy struct {
	rules ruleSet
}

// NewQuantityStrategy builds the strategy from the valid rules in rules that
// are not applied on the next product.
func NewQuantityStrategy(rules []promotion.Rule) *QuantityStrategy {
	return &QuantityStrategy{rules: newRuleSet(rules, false)}
}

// Total splits discounted blocks out of the sale's line items and returns the
// sum of all line item subtotals.
//
// Rules with the largest threshold are exhausted first, on the assumption
// that they carry the better deal. A rule may apply any number of times.
func (q *QuantityStrategy) Total(s *sale.Sale) (decimal.Decimal, error) {
	var discounted []*sale.LineItem

	for _, li := range s.LineItems() {
		qty := li.Quantity()
		rules := q.rules.eligible(li.ProductID(), func(threshold int) bool {
			return threshold <= qty
		})

		for _, r := range rules {
			for li.Quantity() >= r.threshold {
				block, err := sale.NewLineItem(li.Product(), r.threshold)
				if err != nil {
					return decimal.Zero, err
				}
				if err := block.ApplyDiscount(r.value); err != nil {
					return decimal.Zero, errors.Wrapf(err, "apply %s to %s", r.value, r.productID)
				}
				if err := li.AddQuantity(-r.threshold); err != nil {
					return decimal.Zero, err
				}
				discounted = append(discounted, block)
			}
		}
	}

	s.RemoveZeroQuantityLineItems()
	for _, li := range discounted {
		s.AddLineItem(li)
	}

	return s.Subtotal(), nil
}
