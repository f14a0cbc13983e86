package pricing

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/checkout/internal/domain/promotion"
)

// Factory builds the overall pricing strategy for a sale from the promotion
// catalog in effect.
type Factory struct {
	promotions promotion.Repository
	now        func() time.Time
}

// NewFactory creates a Factory that reads promotions from repo.
func NewFactory(promotions promotion.Repository) *Factory {
	return &Factory{promotions: promotions, now: time.Now}
}

// Strategy reads the promotion catalog once and returns the composite
// strategy it describes. It fails with *UnknownPolicyError when the catalog
// names an unsupported overall strategy.
//
// Line-item strategies are always added first, buy-N-get-one before quantity,
// because they rewrite the sale's line items.
func (f *Factory) Strategy(ctx context.Context) (*Composite, error) {
	catalog, err := promotion.LoadActive(ctx, f.promotions, f.now())
	if err != nil {
		return nil, err
	}

	policy, err := ParsePolicy(catalog.Policy)
	if err != nil {
		return nil, errors.Wrap(err, "select overall strategy")
	}

	overall := composites[policy]()
	overall.Add(NewBuyNGetOneStrategy(catalog.Rules))
	overall.Add(NewQuantityStrategy(catalog.Rules))

	zctx.From(ctx).Debug("Pricing strategy ready",
		zap.Stringer("policy", policy),
		zap.Int("promotions", len(catalog.Rules)),
	)

	return overall, nil
}
