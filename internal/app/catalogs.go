package app

import (
	"context"
	"os"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/checkout/internal/domain/product"
	"github.com/xenking/checkout/internal/domain/promotion"
	"github.com/xenking/checkout/internal/storage/file"
	"github.com/xenking/checkout/internal/storage/postgres"
)

// Catalogs are the product and promotion repositories of the configured
// source.
type Catalogs struct {
	Products   product.Repository
	Promotions promotion.Repository

	close func()
}

// OpenCatalogs connects to the catalog source named by cfg. Postgres schemas
// are migrated on open.
func OpenCatalogs(ctx context.Context, cfg *Config) (*Catalogs, error) {
	lg := zctx.From(ctx)

	switch cfg.Catalog.Source {
	case SourcePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		lg.Info("Using postgres catalogs")
		return &Catalogs{
			Products:   postgres.NewProductRepository(pool),
			Promotions: postgres.NewPromotionRepository(pool),
			close:      pool.Close,
		}, nil

	case SourceFile:
		loc, err := cfg.Catalog.TimeLocation()
		if err != nil {
			return nil, err
		}
		fsys := os.DirFS(cfg.Catalog.Dir)
		lg.Info("Using file catalogs",
			zap.String("dir", cfg.Catalog.Dir),
			zap.String("products", cfg.Catalog.ProductsFile),
			zap.String("promotions", cfg.Catalog.PromotionsFile),
		)
		return &Catalogs{
			Products:   file.NewProductRepository(fsys, cfg.Catalog.ProductsFile),
			Promotions: file.NewPromotionRepository(fsys, cfg.Catalog.PromotionsFile, loc),
			close:      func() {},
		}, nil

	default:
		return nil, errors.Errorf("unknown catalog source %q", cfg.Catalog.Source)
	}
}

// Close releases the catalog source.
func (c *Catalogs) Close() {
	c.close()
}
