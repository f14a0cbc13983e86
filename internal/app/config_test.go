package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, files ...string) (*Config, error) {
	t.Helper()
	if files == nil {
		files = []string{}
	}
	return LoadConfig(LoadOptions{SkipFlags: true, Files: files})
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")

	cfg, err := load(t)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Addr)
	assert.Equal(t, SourceFile, cfg.Catalog.Source)
	assert.Equal(t, ".", cfg.Catalog.Dir)
	assert.Equal(t, "ProductCatalog.json", cfg.Catalog.ProductsFile)
	assert.Equal(t, "PromotionCatalog.json", cfg.Catalog.PromotionsFile)
	assert.Equal(t, "Local", cfg.Catalog.Location)
	assert.Equal(t, 3*time.Second, cfg.Graceful.ReadinessDelay)
	assert.Equal(t, 15*time.Second, cfg.Graceful.ShutdownTimeout)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("CHECKOUT_CATALOG_SOURCE", "postgres")
	t.Setenv("CHECKOUT_DATABASE_URL", "postgres://localhost/checkout")
	t.Setenv("CHECKOUT_CATALOG_PRODUCTS_FILE", "products.json.gz")

	cfg, err := load(t)
	require.NoError(t, err)
	assert.Equal(t, SourcePostgres, cfg.Catalog.Source)
	assert.Equal(t, "postgres://localhost/checkout", cfg.DatabaseURL)
	assert.Equal(t, "products.json.gz", cfg.Catalog.ProductsFile)
}

func TestLoadConfig_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: 127.0.0.1:9000
catalog:
  dir: /srv/catalogs
  location: America/Toronto
`), 0o600))

	cfg, err := load(t, path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, "/srv/catalogs", cfg.Catalog.Dir)

	loc, err := cfg.Catalog.TimeLocation()
	require.NoError(t, err)
	assert.Equal(t, "America/Toronto", loc.String())
}

func TestLoadConfig_PlatformDefaults(t *testing.T) {
	t.Setenv("CHECKOUT_CATALOG_SOURCE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://platform/db")
	t.Setenv("PORT", "3000")

	cfg, err := load(t)
	require.NoError(t, err)
	assert.Equal(t, "postgres://platform/db", cfg.DatabaseURL)
	assert.Equal(t, "0.0.0.0:3000", cfg.Addr)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Run("postgres without url", func(t *testing.T) {
		t.Setenv("CHECKOUT_CATALOG_SOURCE", "postgres")
		t.Setenv("DATABASE_URL", "")

		_, err := load(t)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database URL is required")
	})
	t.Run("unknown source", func(t *testing.T) {
		t.Setenv("CHECKOUT_CATALOG_SOURCE", "s3")

		_, err := load(t)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown catalog source")
	})
	t.Run("unknown location", func(t *testing.T) {
		t.Setenv("CHECKOUT_CATALOG_LOCATION", "Mars/Olympus_Mons")

		_, err := load(t)
		require.Error(t, err)
	})
}
