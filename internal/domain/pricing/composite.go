package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/checkout/internal/domain/sale"
)

var _ sale.Strategy = (*Composite)(nil)

// CompositeOption configures a Composite.
type CompositeOption func(c *Composite)

// WithIsolation makes the composite price every strategy against its own
// deep copy of the sale and keep the line items of the winning copy. Use it
// when the strategies are alternatives to each other rather than steps of
// one chain.
func WithIsolation() CompositeOption {
	return func(c *Composite) {
		c.isolate = true
	}
}

// Composite runs a list of strategies and keeps the best total for its
// policy: the lowest for BestForCustomer, the highest for BestForStore.
//
// By default every strategy runs in order against the same sale, so later
// strategies see the line items already split by earlier ones. The line-item
// chain built by Factory relies on this.
type Composite struct {
	policy     Policy
	strategies []sale.Strategy
	isolate    bool
}

// NewComposite returns an empty composite for policy.
func NewComposite(policy Policy, opts ...CompositeOption) *Composite {
	c := &Composite{policy: policy}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the composite's selection policy.
func (c *Composite) Policy() Policy { return c.policy }

// Add appends strategy to the composite.
func (c *Composite) Add(strategy sale.Strategy) {
	c.strategies = append(c.strategies, strategy)
}

// Len returns the number of strategies.
func (c *Composite) Len() int { return len(c.strategies) }

// Total returns the best total among the composite's strategies. With no
// strategies the sale is priced at its undiscounted subtotal.
func (c *Composite) Total(s *sale.Sale) (decimal.Decimal, error) {
	if len(c.strategies) == 0 {
		return s.Subtotal(), nil
	}
	if c.isolate {
		return c.isolatedTotal(s)
	}

	var best decimal.Decimal
	for i, strategy := range c.strategies {
		total, err := strategy.Total(s)
		if err != nil {
			return decimal.Zero, err
		}
		if i == 0 || c.policy.prefers(total, best) {
			best = total
		}
	}
	return best, nil
}

func (c *Composite) isolatedTotal(s *sale.Sale) (decimal.Decimal, error) {
	var (
		best   decimal.Decimal
		winner *sale.Sale
	)
	for _, strategy := range c.strategies {
		candidate := s.Clone()
		total, err := strategy.Total(candidate)
		if err != nil {
			return decimal.Zero, err
		}
		if winner == nil || c.policy.prefers(total, best) {
			best, winner = total, candidate
		}
	}
	s.SetLineItems(winner.LineItems())
	return best, nil
}
