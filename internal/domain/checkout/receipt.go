package checkout

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/checkout/internal/domain/sale"
)

const ruleWidth = 80

// ReceiptLine is one priced line item of a sale.
type ReceiptLine struct {
	ProductID string
	UnitPrice decimal.Decimal
	Quantity  int
	// Saved is the discount applied to the whole line.
	Saved decimal.Decimal
	Total decimal.Decimal
}

// EffectivePrice returns the per-unit price after discount.
func (l ReceiptLine) EffectivePrice() decimal.Decimal {
	if l.Quantity == 0 {
		return decimal.Zero
	}
	return l.Total.Div(decimal.NewFromInt(int64(l.Quantity)))
}

// UnitSaved returns the per-unit discount.
func (l ReceiptLine) UnitSaved() decimal.Decimal {
	if l.Quantity == 0 {
		return decimal.Zero
	}
	return l.Saved.Div(decimal.NewFromInt(int64(l.Quantity)))
}

// Receipt is the priced result of a quote.
//
// Lines describe the sale after every strategy of the overall policy ran on
// it. Under BestForStore the chosen total can come from an earlier strategy
// than the last discount applied to the lines, so line savings may exceed
// Savings, which is always Subtotal minus Total.
type Receipt struct {
	SaleID uuid.UUID
	// Lines are ordered by product id.
	Lines []ReceiptLine
	// Skipped lists requested product ids that were not in the catalog.
	Skipped  []string
	Subtotal decimal.Decimal
	Savings  decimal.Decimal
	Total    decimal.Decimal
}

// NewReceipt summarizes a priced sale.
func NewReceipt(s *sale.Sale, total decimal.Decimal, skipped []string) *Receipt {
	items := s.LineItems()
	r := &Receipt{
		SaleID:   s.ID(),
		Lines:    make([]ReceiptLine, 0, len(items)),
		Skipped:  skipped,
		Subtotal: decimal.Zero,
		Total:    total,
	}
	for _, li := range items {
		line := ReceiptLine{
			ProductID: li.ProductID(),
			UnitPrice: li.UnitPrice(),
			Quantity:  li.Quantity(),
			Saved:     li.Discount(),
			Total:     li.Subtotal(),
		}
		r.Lines = append(r.Lines, line)
		r.Subtotal = r.Subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	r.Savings = r.Subtotal.Sub(total)
	slices.SortStableFunc(r.Lines, func(a, b ReceiptLine) int {
		return cmp.Compare(a.ProductID, b.ProductID)
	})
	return r
}

var _ io.WriterTo = (*Receipt)(nil)

// WriteTo renders the receipt as printed by the register: one row per unit,
// a "You saved" row under every discounted unit and the total.
func (r *Receipt) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	for _, id := range r.Skipped {
		fmt.Fprintf(&b, "Warning! '%s' was not found in the product catalog, skipping.\n", id)
	}
	for _, line := range r.Lines {
		unit := Money(line.EffectivePrice())
		for range line.Quantity {
			fmt.Fprintf(&b, "%-30s%-8s", line.ProductID, unit)
			if line.Saved.IsPositive() {
				fmt.Fprintf(&b, "%-8sR)\n", " ("+Money(line.UnitPrice))
				fmt.Fprintf(&b, "%-12s%s", " You saved", Money(line.UnitSaved()))
			}
			b.WriteByte('\n')
		}
	}
	b.WriteString(strings.Repeat("-", ruleWidth) + "\n")
	fmt.Fprintf(&b, "%-30s%s\n", "Your total is ", Money(r.Total))
	b.WriteString(strings.Repeat("-", ruleWidth) + "\n")

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// Money formats d as a dollar amount with two decimals.
func Money(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}
