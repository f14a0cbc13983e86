// Package sale holds the line items a customer is purchasing and delegates
// their final price to a pricing strategy.
package sale

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/checkout/internal/domain/product"
)

// Strategy computes the amount owed for a sale. Implementations may split and
// merge the sale's line items while doing so.
type Strategy interface {
	Total(s *Sale) (decimal.Decimal, error)
}

// Sale is an ordered collection of line items bound to a pricing strategy.
// A Sale is not safe for concurrent use.
type Sale struct {
	id       uuid.UUID
	items    []*LineItem
	strategy Strategy
}

// New creates an empty sale priced by strategy. A nil strategy prices the
// sale at its undiscounted subtotal.
func New(strategy Strategy) *Sale {
	return &Sale{
		id:       uuid.New(),
		strategy: strategy,
	}
}

// ID returns the sale identifier.
func (s *Sale) ID() uuid.UUID { return s.id }

// LineItems returns the sale's line items in insertion order. The slice is a
// copy; the items are shared with the sale.
func (s *Sale) LineItems() []*LineItem {
	out := make([]*LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// AddLineItem appends li without merging it into an existing line item.
func (s *Sale) AddLineItem(li *LineItem) {
	if li == nil {
		return
	}
	s.items = append(s.items, li)
}

// MakeLineItem adds quantity units of p. The units are merged into the first
// undiscounted line item for the same product when there is one; otherwise a
// new line item is appended.
func (s *Sale) MakeLineItem(p product.Product, quantity int) error {
	for _, li := range s.items {
		if li.product.Same(p) && !li.Discounted() {
			return li.AddQuantity(quantity)
		}
	}

	li, err := NewLineItem(p, quantity)
	if err != nil {
		return err
	}
	s.items = append(s.items, li)
	return nil
}

// RemoveZeroQuantityLineItems drops every line item with no units.
func (s *Sale) RemoveZeroQuantityLineItems() {
	kept := s.items[:0]
	for _, li := range s.items {
		if li.quantity != 0 {
			kept = append(kept, li)
		}
	}
	clear(s.items[len(kept):])
	s.items = kept
}

// SetLineItems replaces the sale's line items.
func (s *Sale) SetLineItems(items []*LineItem) {
	s.items = append(s.items[:0:0], items...)
}

// Subtotal returns the sum of every line item's subtotal.
func (s *Sale) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, li := range s.items {
		sum = sum.Add(li.Subtotal())
	}
	return sum
}

// Total prices the sale with its strategy. Strategies apply discounts by
// rewriting the line items, so Total is meant to be called once per pricing
// run; the line items afterwards describe how the total was reached.
func (s *Sale) Total() (decimal.Decimal, error) {
	if s.strategy == nil {
		return s.Subtotal(), nil
	}
	return s.strategy.Total(s)
}

// Clone returns a sale with the same id and strategy and deep copies of the
// line items.
func (s *Sale) Clone() *Sale {
	c := &Sale{
		id:       s.id,
		items:    make([]*LineItem, len(s.items)),
		strategy: s.strategy,
	}
	for i, li := range s.items {
		c.items[i] = li.Clone()
	}
	return c
}
