package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Catalog sources.
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (CHECKOUT_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (CHECKOUT_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Catalog     CatalogConfig
	Graceful    GracefulConfig
}

// CatalogConfig selects where product and promotion catalogs are read from.
type CatalogConfig struct {
	Source         string `default:"file" usage:"Catalog source: file or postgres"`
	Dir            string `default:"." usage:"Directory containing the catalog files"`
	ProductsFile   string `default:"ProductCatalog.json" usage:"Product catalog file name, .gz for gzip" flag:"products-file"`
	PromotionsFile string `default:"PromotionCatalog.json" usage:"Promotion catalog file name, .gz for gzip" flag:"promotions-file"`
	Location       string `default:"Local" usage:"Time zone of promotion timestamps without an offset"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadOptions tunes LoadConfig.
type LoadOptions struct {
	// SkipFlags disables command line parsing, for callers that own their
	// flags such as the register CLI.
	SkipFlags bool
	// Files overrides the YAML files that are looked up.
	Files []string
}

// LoadConfig loads configuration from defaults, YAML config files,
// environment variables and flags, then applies platform defaults.
func LoadConfig(opts LoadOptions) (*Config, error) {
	files := opts.Files
	if files == nil {
		files = []string{"config.yaml", "/etc/checkout/config.yaml"}
	}

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "CHECKOUT",
		SkipFlags: opts.SkipFlags,
		Files:     files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the catalog source settings.
func (c *Config) Validate() error {
	switch c.Catalog.Source {
	case SourceFile:
		if _, err := c.Catalog.TimeLocation(); err != nil {
			return err
		}
	case SourcePostgres:
		if c.DatabaseURL == "" {
			return errors.New("database URL is required for the postgres catalog source: set CHECKOUT_DATABASE_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown catalog source %q, want %q or %q", c.Catalog.Source, SourceFile, SourcePostgres)
	}
	return nil
}

// TimeLocation resolves Location.
func (c CatalogConfig) TimeLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return nil, errors.Wrapf(err, "catalog location %q", c.Location)
	}
	return loc, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's CHECKOUT_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
