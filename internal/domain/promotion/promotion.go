// Package promotion models the line-item discount rules published by the
// marketing team and the catalog that carries them.
package promotion

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/checkout/internal/domain/discount"
)

// DefaultPolicy is the overall pricing policy used when a catalog does not
// name one.
const DefaultPolicy = "BestForCustomer"

// Rule validation failures reported by Rule.Validate.
var (
	ErrInvalidWindow    = errors.New("effective window ends before it starts")
	ErrMissingDiscount  = errors.New("discount is empty")
	ErrMissingProductID = errors.New("product id is empty")
	ErrInvalidThreshold = errors.New("threshold quantity must be greater than 0")
)

// Rule is a time-bounded, quantity-triggered discount on a single product.
//
// With AppliedOnNextProduct unset, every complete block of ThresholdQuantity
// units receives Discount. With it set, the unit following every
// ThresholdQuantity units receives Discount: a "buy one get one free" rule is
// ThresholdQuantity=1, AppliedOnNextProduct=true, Discount="100%".
type Rule struct {
	ProductID            string
	ThresholdQuantity    int
	Discount             string
	EffectiveFrom        time.Time
	EffectiveTo          time.Time
	AppliedOnNextProduct bool
}

// Validate reports why the rule is misconfigured, or nil.
func (r Rule) Validate() error {
	if r.EffectiveTo.Before(r.EffectiveFrom) {
		return ErrInvalidWindow
	}
	if r.Discount == "" {
		return ErrMissingDiscount
	}
	if r.ProductID == "" {
		return ErrMissingProductID
	}
	if r.ThresholdQuantity <= 0 {
		return ErrInvalidThreshold
	}
	if _, err := discount.Parse(r.Discount); err != nil {
		return err
	}
	return nil
}

// Valid reports whether the rule is well formed, independent of time.
func (r Rule) Valid() bool {
	return r.Validate() == nil
}

// Applicable reports whether now falls within the rule's effective window,
// inclusive at both ends.
func (r Rule) Applicable(now time.Time) bool {
	return !now.Before(r.EffectiveFrom) && !now.After(r.EffectiveTo)
}

// Value parses the rule's discount text.
func (r Rule) Value() (discount.Value, error) {
	return discount.Parse(r.Discount)
}

// Catalog is the set of promotions in effect for a pricing run.
type Catalog struct {
	// Policy names the overall composite strategy, e.g. "BestForCustomer".
	Policy string
	Rules  []Rule
}

// RemoveInapplicable drops rules whose window does not contain now and
// returns them.
func (c *Catalog) RemoveInapplicable(now time.Time) []Rule {
	return c.remove(func(r Rule) bool { return !r.Applicable(now) })
}

// RemoveInvalid drops misconfigured rules and returns them.
func (c *Catalog) RemoveInvalid() []Rule {
	return c.remove(func(r Rule) bool { return !r.Valid() })
}

func (c *Catalog) remove(drop func(Rule) bool) []Rule {
	var (
		kept    = make([]Rule, 0, len(c.Rules))
		dropped []Rule
	)
	for _, r := range c.Rules {
		if drop(r) {
			dropped = append(dropped, r)
			continue
		}
		kept = append(kept, r)
	}
	c.Rules = kept
	return dropped
}

// Repository loads the raw promotion catalog.
type Repository interface {
	Load(ctx context.Context) (*Catalog, error)
}

// LoadActive loads the catalog from repo and keeps only the rules that are
// applicable at now and valid. Dropped rules are logged at debug level and
// never fail the load.
func LoadActive(ctx context.Context, repo Repository, now time.Time) (*Catalog, error) {
	c, err := repo.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load promotions")
	}
	if c.Policy == "" {
		c.Policy = DefaultPolicy
	}

	lg := zctx.From(ctx)
	for _, r := range c.RemoveInapplicable(now) {
		lg.Debug("Promotion not in effect",
			zap.String("product_id", r.ProductID),
			zap.Time("effective_from", r.EffectiveFrom),
			zap.Time("effective_to", r.EffectiveTo),
		)
	}
	for _, r := range c.RemoveInvalid() {
		lg.Debug("Promotion misconfigured",
			zap.String("product_id", r.ProductID),
			zap.String("discount", r.Discount),
			zap.Error(r.Validate()),
		)
	}

	return c, nil
}
