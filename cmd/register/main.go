// Command register is the GroceryCo checkout register. It prices baskets
// read from files, one product id per line.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	appkg "github.com/xenking/checkout/internal/app"
)

type options struct {
	source         string
	dir            string
	productsFile   string
	promotionsFile string
	databaseURL    string
	verbose        bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		opts options
		reg  *register
		done func()
	)

	root := &cobra.Command{
		Use:   "register",
		Short: "GroceryCo checkout register",
		Long: `Prices sales read from basket files. Each line of a basket file holds one
product id; repeated ids add another unit of that product.

Without a subcommand the register asks for basket files interactively
until Q is entered.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			reg, done, err = setup(cmd, opts)
			return err
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if done != nil {
				done()
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return reg.interactive(cmd.Context(), cmd.InOrStdin())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.source, "source", "", "Catalog source: file or postgres")
	flags.StringVar(&opts.dir, "catalog-dir", "", "Directory containing the catalog files")
	flags.StringVar(&opts.productsFile, "products-file", "", "Product catalog file name")
	flags.StringVar(&opts.promotionsFile, "promotions-file", "", "Promotion catalog file name")
	flags.StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL connection URL")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log catalog diagnostics to stderr")

	root.AddCommand(&cobra.Command{
		Use:     "price FILE...",
		Short:   "Price basket files and exit",
		Example: "  register price basket1.txt basket2.txt",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var failed int
			for _, name := range args {
				if !reg.priceFile(cmd.Context(), name) {
					failed++
				}
			}
			if failed > 0 {
				return errors.Errorf("%d of %d sales could not be priced", failed, len(args))
			}
			return nil
		},
	})

	return root
}

// setup loads configuration, applies flag overrides and opens the catalogs.
func setup(cmd *cobra.Command, opts options) (*register, func(), error) {
	cfg, err := appkg.LoadConfig(appkg.LoadOptions{SkipFlags: true})
	if err != nil {
		return nil, nil, err
	}
	overrides := map[string]*string{
		"source":          &cfg.Catalog.Source,
		"catalog-dir":     &cfg.Catalog.Dir,
		"products-file":   &cfg.Catalog.ProductsFile,
		"promotions-file": &cfg.Catalog.PromotionsFile,
		"database-url":    &cfg.DatabaseURL,
	}
	values := map[string]string{
		"source":          opts.source,
		"catalog-dir":     opts.dir,
		"products-file":   opts.productsFile,
		"promotions-file": opts.promotionsFile,
		"database-url":    opts.databaseURL,
	}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if dst, ok := overrides[f.Name]; ok {
			*dst = values[f.Name]
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	lg, err := newLogger(opts.verbose)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create logger")
	}
	ctx := zctx.Base(cmd.Context(), lg)
	cmd.SetContext(ctx)

	catalogs, err := appkg.OpenCatalogs(ctx, cfg)
	if err != nil {
		_ = lg.Sync()
		return nil, nil, err
	}
	svc, err := appkg.NewCheckout(catalogs, otel.GetTracerProvider(), otel.GetMeterProvider())
	if err != nil {
		catalogs.Close()
		_ = lg.Sync()
		return nil, nil, err
	}

	done := func() {
		catalogs.Close()
		_ = lg.Sync()
	}
	return newRegister(svc, cmd.OutOrStdout()), done, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	cfg.DisableStacktrace = true
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
