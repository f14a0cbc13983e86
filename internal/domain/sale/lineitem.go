package sale

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/checkout/internal/domain/discount"
	"github.com/xenking/checkout/internal/domain/product"
)

var (
	// ErrNegativeQuantity is returned when a change would leave a line item
	// with fewer than zero units.
	ErrNegativeQuantity = errors.New("line item quantity would be negative")
	// ErrNonPositiveDiscount is returned when a line item discount is zero or
	// negative.
	ErrNonPositiveDiscount = errors.New("line item discount must be positive")
)

// LineItem is one row of a sale: a product, a quantity and the flat dollar
// discount already applied to it.
type LineItem struct {
	product  product.Product
	quantity int
	discount decimal.Decimal
}

// NewLineItem returns a line item for quantity units of p.
func NewLineItem(p product.Product, quantity int) (*LineItem, error) {
	if quantity < 0 {
		return nil, errors.Wrapf(ErrNegativeQuantity, "new line item for %s with quantity %d", p.ID, quantity)
	}
	return &LineItem{product: p, quantity: quantity}, nil
}

// Product returns the line item's product.
func (li *LineItem) Product() product.Product { return li.product }

// ProductID returns the ID of the line item's product.
func (li *LineItem) ProductID() string { return li.product.ID }

// UnitPrice returns the regular price of one unit.
func (li *LineItem) UnitPrice() decimal.Decimal { return li.product.Price }

// Quantity returns the number of units.
func (li *LineItem) Quantity() int { return li.quantity }

// Discount returns the flat dollar amount subtracted from the subtotal.
func (li *LineItem) Discount() decimal.Decimal { return li.discount }

// Discounted reports whether a discount has been applied.
func (li *LineItem) Discounted() bool { return li.discount.IsPositive() }

// AddQuantity changes the quantity by delta. The quantity is left unchanged
// when the result would be negative.
func (li *LineItem) AddQuantity(delta int) error {
	next := li.quantity + delta
	if next < 0 {
		return errors.Wrapf(ErrNegativeQuantity, "add %d to %s (quantity %d)", delta, li.product.ID, li.quantity)
	}
	li.quantity = next
	return nil
}

// SetDiscount replaces the discount with a flat dollar amount.
func (li *LineItem) SetDiscount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return errors.Wrapf(ErrNonPositiveDiscount, "discount %s on %s", amount, li.product.ID)
	}
	li.discount = amount
	return nil
}

// ApplyDiscount resolves v against the whole line item (unit price times
// quantity for percentages) and sets the resulting flat discount.
func (li *LineItem) ApplyDiscount(v discount.Value) error {
	return li.SetDiscount(v.Amount(li.product.Price, li.quantity))
}

// Subtotal returns price × quantity − discount.
func (li *LineItem) Subtotal() decimal.Decimal {
	return li.product.Price.Mul(decimal.NewFromInt(int64(li.quantity))).Sub(li.discount)
}

// Equal reports whether li and other are line items for the same product.
// Quantity and discount are state, not identity.
func (li *LineItem) Equal(other *LineItem) bool {
	if li == nil || other == nil {
		return li == other
	}
	return li.product.Same(other.product)
}

// Clone returns an independent copy of the line item.
func (li *LineItem) Clone() *LineItem {
	c := *li
	return &c
}

func (li *LineItem) String() string {
	if li.Discounted() {
		return fmt.Sprintf("%s @ $%s * %d - $%s",
			li.product.ID, li.product.Price.StringFixed(2), li.quantity, li.discount.StringFixed(2))
	}
	return fmt.Sprintf("%s @ $%s * %d", li.product.ID, li.product.Price.StringFixed(2), li.quantity)
}
