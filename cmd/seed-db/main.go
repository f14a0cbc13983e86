// Command seed-db copies file catalogs into the postgres catalog store.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/checkout/internal/storage/file"
	"github.com/xenking/checkout/internal/storage/postgres"
)

func main() {
	var (
		databaseURL    string
		dir            string
		productsFile   string
		promotionsFile string
		location       string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&dir, "dir", "db/seed", "directory containing the catalog files")
	flag.StringVar(&productsFile, "products-file", "ProductCatalog.json", "product catalog file name")
	flag.StringVar(&promotionsFile, "promotions-file", "PromotionCatalog.json", "promotion catalog file name")
	flag.StringVar(&location, "location", "Local", "time zone of promotion timestamps without offset")
	flag.Parse()

	lg, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		lg.Fatal("Database URL is required: set --database-url or DATABASE_URL")
	}
	loc, err := time.LoadLocation(location)
	if err != nil {
		lg.Fatal("Invalid location", zap.String("location", location), zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	fsys := os.DirFS(dir)
	src := source{
		products:   file.NewProductRepository(fsys, productsFile),
		promotions: file.NewPromotionRepository(fsys, promotionsFile, loc),
	}
	if err := run(ctx, lg, databaseURL, src); err != nil {
		lg.Error("Seed failed", zap.Error(err))
		_ = lg.Sync()
		os.Exit(1)
	}

	lg.Info("Seed completed")
}

func run(ctx context.Context, lg *zap.Logger, databaseURL string, src source) error {
	lg.Info("Connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "create pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return err
	}

	dst := target{
		products:   postgres.NewProductRepository(pool),
		promotions: postgres.NewPromotionRepository(pool),
	}
	return seed(ctx, lg, src, dst)
}
