package pricing

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/checkout/internal/domain/promotion"
	"github.com/xenking/checkout/internal/domain/sale"
)

var _ sale.Strategy = (*BuyNGetOneStrategy)(nil)

// BuyNGetOneStrategy applies "buy N, get one" promotions: for every
// ThresholdQuantity units bought, the next unit receives the rule's discount.
type BuyNGetOneStrategy struct {
	rules ruleSet
}

// NewBuyNGetOneStrategy builds the strategy from the valid rules in rules that
// are applied on the next product.
func NewBuyNGetOneStrategy(rules []promotion.Rule) *BuyNGetOneStrategy {
	return &BuyNGetOneStrategy{rules: newRuleSet(rules, true)}
}

// Total returns the sum of all line item subtotals after splitting every
// promotional unit into its own discounted line item.
//
// The sale is rewritten in two phases. The first pass only consumes units
// from the existing line items and records pending changes: one discounted
// single-unit item per application and one paid block of ThresholdQuantity
// units, so paid units are not matched again by a lower-priority rule. The
// second phase drops emptied items, merges the paid blocks back into their
// product's line item and appends the discounted units.
//
// A unit is only discounted when it was actually bought: 8 units under a
// buy-2-get-1 rule yield 2 discounted units, not 3.
func (b *BuyNGetOneStrategy) Total(s *sale.Sale) (decimal.Decimal, error) {
	var discounted, paid []*sale.LineItem

	for _, li := range s.LineItems() {
		qty := li.Quantity()
		rules := b.rules.eligible(li.ProductID(), func(threshold int) bool {
			return qty > threshold
		})

		for _, r := range rules {
			for li.Quantity() > r.threshold {
				unit, err := sale.NewLineItem(li.Product(), 1)
				if err != nil {
					return decimal.Zero, err
				}
				if err := unit.ApplyDiscount(r.value); err != nil {
					return decimal.Zero, errors.Wrapf(err, "apply %s to %s", r.value, r.productID)
				}
				if err := li.AddQuantity(-(r.threshold + 1)); err != nil {
					return decimal.Zero, err
				}
				block, err := sale.NewLineItem(li.Product(), r.threshold)
				if err != nil {
					return decimal.Zero, err
				}
				discounted = append(discounted, unit)
				paid = append(paid, block)
			}
		}
	}

	s.RemoveZeroQuantityLineItems()
	for _, li := range paid {
		if err := s.MakeLineItem(li.Product(), li.Quantity()); err != nil {
			return decimal.Zero, errors.Wrapf(err, "merge %s", li.ProductID())
		}
	}
	for _, li := range discounted {
		s.AddLineItem(li)
	}

	return s.Subtotal(), nil
}
