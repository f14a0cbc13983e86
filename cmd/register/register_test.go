package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/checkout/internal/domain/checkout"
	"github.com/xenking/checkout/internal/domain/pricing"
	"github.com/xenking/checkout/internal/domain/product"
	"github.com/xenking/checkout/internal/domain/promotion"
	"github.com/xenking/checkout/internal/storage/file"
)

type products []product.Product

func (p products) List(context.Context) ([]product.Product, error) { return p, nil }

type promotions struct{}

func (promotions) Load(context.Context) (*promotion.Catalog, error) {
	return &promotion.Catalog{}, nil
}

type failingQuoter struct{ err error }

func (q failingQuoter) Quote(context.Context, checkout.QuoteRequest) (*checkout.Receipt, error) {
	return nil, q.err
}

func newTestRegister(t *testing.T, out *bytes.Buffer) *register {
	t.Helper()
	svc, err := checkout.NewService(
		products{product.New("Apple", decimal.RequireFromString("0.50"))},
		pricing.NewFactory(promotions{}),
		checkout.WithTracerProvider(tracenoop.NewTracerProvider()),
		checkout.WithMeterProvider(metricnoop.NewMeterProvider()),
	)
	require.NoError(t, err)
	return newRegister(svc, out)
}

func writeBasket(t *testing.T, content string) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "basket.txt")
	require.NoError(t, os.WriteFile(name, []byte(content), 0o600))
	return name
}

func TestRegister_Interactive(t *testing.T) {
	var out bytes.Buffer
	basket := writeBasket(t, "Apple\n\n  Apple \nKiwi\n")
	missing := filepath.Join(t.TempDir(), "missing.txt")

	in := strings.NewReader("\n" + basket + "\n" + missing + "\nQ\nApple\n")
	require.NoError(t, newTestRegister(t, &out).interactive(context.Background(), in))

	got := out.String()
	assert.True(t, strings.HasPrefix(got, rule+"\nWelcome to GroceryCo Checkout\n"+rule+"\n"))
	assert.Contains(t, got, "Sale from "+basket+"\n")
	assert.Contains(t, got, "Warning! 'Kiwi' was not found in the product catalog, skipping.\n")
	assert.Equal(t, 2, strings.Count(got, "Apple                         $0.50   \n"))
	assert.Contains(t, got, "Your total is                 $1.00\n")
	assert.Contains(t, got, "Error reading input products from '"+missing+"'.")
	assert.Equal(t, 4, strings.Count(got, "Filename (or Q to quit) > "), "stops at Q")
}

func TestRegister_EndOfInput(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, newTestRegister(t, &out).interactive(context.Background(), strings.NewReader("")))
	assert.True(t, strings.HasSuffix(out.String(), "Filename (or Q to quit) > \n"))
}

func TestRegister_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := newTestRegister(t, &out).interactive(ctx, strings.NewReader("q\n"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestRegister_PriceFile(t *testing.T) {
	t.Run("empty basket", func(t *testing.T) {
		var out bytes.Buffer
		ok := newTestRegister(t, &out).priceFile(context.Background(), writeBasket(t, "\n \n"))
		assert.False(t, ok)
		assert.Contains(t, out.String(), "No products found in")
	})
	t.Run("too many units", func(t *testing.T) {
		var out bytes.Buffer
		basket := writeBasket(t, strings.Repeat("Apple\n", checkout.MaxQuantity+1))
		ok := newTestRegister(t, &out).priceFile(context.Background(), basket)
		assert.False(t, ok)
		assert.Contains(t, out.String(), "Too many units of 'Apple'")
		assert.NotContains(t, out.String(), "system administrator")
	})
	t.Run("catalog error", func(t *testing.T) {
		var out bytes.Buffer
		r := newRegister(failingQuoter{err: &file.Error{
			Catalog: "product catalog",
			Path:    "ProductCatalog.json",
			Err:     file.ErrMalformed,
		}}, &out)

		assert.False(t, r.priceFile(context.Background(), writeBasket(t, "Apple\n")))
		assert.Contains(t, out.String(), "Error reading product catalog.\n")
		assert.Contains(t, out.String(), "Please have a system administrator correct the error.\n")
		assert.NotContains(t, out.String(), "Sale from")
	})
	t.Run("other error", func(t *testing.T) {
		var out bytes.Buffer
		r := newRegister(failingQuoter{err: &pricing.UnknownPolicyError{Name: "BestForNobody"}}, &out)

		assert.False(t, r.priceFile(context.Background(), writeBasket(t, "Apple\n")))
		assert.Contains(t, out.String(), "Error pricing sale.\n")
		assert.Contains(t, out.String(), "BestForNobody")
	})
}

func TestReadBasket(t *testing.T) {
	items, err := readBasket(writeBasket(t, "Apple\r\nBanana\n\nApple"))
	require.NoError(t, err)
	assert.Equal(t, []checkout.Item{
		{ProductID: "Apple", Quantity: 1},
		{ProductID: "Banana", Quantity: 1},
		{ProductID: "Apple", Quantity: 1},
	}, items)
}
