package main

import (
	"context"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/checkout/internal/domain/product"
	"github.com/xenking/checkout/internal/domain/promotion"
)

type productWriter interface {
	UpsertProduct(ctx context.Context, p product.Product) error
}

type promotionWriter interface {
	ReplaceRules(ctx context.Context, rules []promotion.Rule) error
	SetPolicy(ctx context.Context, policy string) error
}

type source struct {
	products   product.Repository
	promotions promotion.Repository
}

type target struct {
	products   productWriter
	promotions promotionWriter
}

// seed copies both catalogs from src to dst. Both are read and validated
// before anything is written.
func seed(ctx context.Context, lg *zap.Logger, src source, dst target) error {
	catalog, err := product.LoadCatalog(ctx, src.products)
	if err != nil {
		return errors.Wrap(err, "read products")
	}
	products := catalog.Products()
	promotions, err := src.promotions.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "read promotions")
	}

	for _, p := range products {
		if err := dst.products.UpsertProduct(ctx, p); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}
	}
	lg.Info("Seeded products", zap.Int("count", len(products)))

	if err := dst.promotions.ReplaceRules(ctx, promotions.Rules); err != nil {
		return errors.Wrap(err, "replace promotion rules")
	}
	if promotions.Policy != "" {
		if err := dst.promotions.SetPolicy(ctx, promotions.Policy); err != nil {
			return errors.Wrap(err, "set pricing policy")
		}
	}
	lg.Info("Seeded promotions",
		zap.Int("rules", len(promotions.Rules)),
		zap.String("policy", promotions.Policy),
	)
	return nil
}
