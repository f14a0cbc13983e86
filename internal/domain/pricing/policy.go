package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Policy selects which party a composite strategy favours.
type Policy uint8

const (
	// BestForCustomer keeps the lowest total.
	BestForCustomer Policy = iota + 1
	// BestForStore keeps the highest total.
	BestForStore
)

var policyNames = map[Policy]string{
	BestForCustomer: "BestForCustomer",
	BestForStore:    "BestForStore",
}

func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Policy(%d)", uint8(p))
}

// prefers reports whether total beats best under the policy.
func (p Policy) prefers(total, best decimal.Decimal) bool {
	if p == BestForStore {
		return total.GreaterThan(best)
	}
	return total.LessThan(best)
}

// UnknownPolicyError indicates the promotion catalog names an overall
// strategy that does not exist.
type UnknownPolicyError struct {
	Name string
}

func (e *UnknownPolicyError) Error() string {
	return fmt.Sprintf("%q is an unknown pricing strategy, supported values are %q or %q",
		e.Name, BestForCustomer.String(), BestForStore.String())
}

// ParsePolicy maps an overall strategy name to its Policy. Names are
// case-sensitive.
func ParsePolicy(name string) (Policy, error) {
	for p, n := range policyNames {
		if n == name {
			return p, nil
		}
	}
	return 0, &UnknownPolicyError{Name: name}
}

// composites maps each policy to the constructor of its overall strategy.
var composites = map[Policy]func() *Composite{
	BestForCustomer: func() *Composite { return NewComposite(BestForCustomer) },
	BestForStore:    func() *Composite { return NewComposite(BestForStore) },
}
