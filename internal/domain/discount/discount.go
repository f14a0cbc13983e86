// Package discount parses and evaluates the discount strings
// used by promotion rules, such as "$1.10", "1.10" or "15%".
package discount

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Kind enumerates how a discount value is interpreted.
type Kind uint8

const (
	// Absolute is a flat dollar amount.
	Absolute Kind = iota
	// Percentage is a percentage of the discounted amount, in (0, 100].
	Percentage
)

func (k Kind) String() string {
	switch k {
	case Absolute:
		return "absolute"
	case Percentage:
		return "percentage"
	default:
		return "unknown"
	}
}

var (
	// ErrEmpty is returned when the discount text is empty.
	ErrEmpty = errors.New("discount is empty")
	// ErrFormat is returned when the discount text is not a number.
	ErrFormat = errors.New("unrecognized discount format")
	// ErrOutOfRange is returned for non-positive amounts and percentages
	// above 100.
	ErrOutOfRange = errors.New("discount out of range")
)

var hundred = decimal.NewFromInt(100)

// Value is a validated discount. The zero Value is not valid; obtain one
// with Parse or New.
type Value struct {
	kind   Kind
	amount decimal.Decimal
}

// New validates amount against kind and returns the discount value.
func New(kind Kind, amount decimal.Decimal) (Value, error) {
	switch kind {
	case Percentage:
		if !amount.IsPositive() || amount.GreaterThan(hundred) {
			return Value{}, errors.Wrapf(ErrOutOfRange,
				"percentage %s%% must be positive and at most 100", amount)
		}
	case Absolute:
		if !amount.IsPositive() {
			return Value{}, errors.Wrapf(ErrOutOfRange,
				"absolute discount %s must be positive", amount)
		}
	default:
		return Value{}, errors.Errorf("unsupported discount kind: %d", kind)
	}
	return Value{kind: kind, amount: amount}, nil
}

// Parse converts discount text into a Value.
//
// A trailing "%" selects a percentage; anything else is an absolute dollar
// amount with an optional leading "$". Plain numbers are dollars.
func Parse(s string) (Value, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Value{}, ErrEmpty
	}

	kind := Absolute
	num := s
	switch {
	case strings.HasSuffix(s, "%"):
		kind = Percentage
		num = strings.TrimSuffix(s, "%")
	case strings.HasPrefix(s, "$"):
		num = strings.TrimPrefix(s, "$")
	}

	num = strings.TrimSpace(num)
	if strings.ContainsAny(num, "eE") {
		return Value{}, errors.Wrapf(ErrFormat, "discount %q: exponent notation", s)
	}
	amount, err := decimal.NewFromString(num)
	if err != nil {
		return Value{}, errors.Wrapf(ErrFormat, "discount %q", s)
	}

	v, err := New(kind, amount)
	if err != nil {
		return Value{}, errors.Wrapf(err, "discount %q", s)
	}
	return v, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// static tables.
func MustParse(s string) Value {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Kind reports whether the value is absolute or a percentage.
func (v Value) Kind() Kind { return v.kind }

// Value returns the raw number: dollars for Absolute, percent for Percentage.
func (v Value) Value() decimal.Decimal { return v.amount }

// Amount returns the flat dollar discount for quantity units priced at
// unitPrice. Absolute values ignore the block size.
func (v Value) Amount(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	if v.kind == Percentage {
		return v.amount.Div(hundred).Mul(unitPrice).Mul(decimal.NewFromInt(int64(quantity)))
	}
	return v.amount
}

func (v Value) String() string {
	if v.kind == Percentage {
		return v.amount.String() + "%"
	}
	return "$" + v.amount.StringFixed(2)
}
