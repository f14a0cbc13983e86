package main

import (
	"context"
	"testing"
	"testing/fstest"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenking/checkout/internal/domain/product"
	"github.com/xenking/checkout/internal/domain/promotion"
	"github.com/xenking/checkout/internal/storage/file"
)

type fakeStore struct {
	products []product.Product
	rules    []promotion.Rule
	policy   string
	err      error
}

func (s *fakeStore) UpsertProduct(_ context.Context, p product.Product) error {
	s.products = append(s.products, p)
	return s.err
}

func (s *fakeStore) ReplaceRules(_ context.Context, rules []promotion.Rule) error {
	s.rules = rules
	return nil
}

func (s *fakeStore) SetPolicy(_ context.Context, policy string) error {
	s.policy = policy
	return nil
}

func fileSource(products, promotions string) source {
	fsys := fstest.MapFS{
		"products.json":   {Data: []byte(products)},
		"promotions.json": {Data: []byte(promotions)},
	}
	return source{
		products:   file.NewProductRepository(fsys, "products.json"),
		promotions: file.NewPromotionRepository(fsys, "promotions.json", time.UTC),
	}
}

func TestSeed(t *testing.T) {
	src := fileSource(
		`{"Products":[{"Id":"Apple","Price":0.5},{"Id":"Banana","Price":0.25},{"Id":"Apple","Price":9}]}`,
		`{"OverallStrategy":"BestForStore","SalesLineItemDiscounts":[{
			"ProductId":"Apple","ThresholdQuantity":3,"Discount":"$1",
			"EffectiveFrom":"2025-01-01","EffectiveTo":"2026-01-01"
		}]}`,
	)
	store := &fakeStore{}

	require.NoError(t, seed(context.Background(), zap.NewNop(), src, target{products: store, promotions: store}))

	require.Len(t, store.products, 2, "duplicates keep the first occurrence")
	assert.Equal(t, "Apple", store.products[0].ID)
	assert.Equal(t, "0.5", store.products[0].Price.String())
	require.Len(t, store.rules, 1)
	assert.Equal(t, "$1", store.rules[0].Discount)
	assert.Equal(t, "BestForStore", store.policy)
}

func TestSeed_NoPolicy(t *testing.T) {
	src := fileSource(`{"Products":[]}`, `{}`)
	store := &fakeStore{policy: "unchanged"}

	require.NoError(t, seed(context.Background(), zap.NewNop(), src, target{products: store, promotions: store}))
	assert.Equal(t, "unchanged", store.policy)
	assert.Empty(t, store.rules)
}

func TestSeed_Errors(t *testing.T) {
	t.Run("invalid price writes nothing", func(t *testing.T) {
		src := fileSource(`{"Products":[{"Id":"Apple","Price":0}]}`, `{}`)
		store := &fakeStore{}

		err := seed(context.Background(), zap.NewNop(), src, target{products: store, promotions: store})
		var priceErr *product.InvalidPriceError
		require.True(t, errors.As(err, &priceErr))
		assert.Empty(t, store.products)
	})
	t.Run("bad promotions writes nothing", func(t *testing.T) {
		src := fileSource(`{"Products":[{"Id":"Apple","Price":1}]}`, `{"SalesLineItemDiscounts":[{}]}`)
		store := &fakeStore{}

		err := seed(context.Background(), zap.NewNop(), src, target{products: store, promotions: store})
		require.ErrorIs(t, err, file.ErrMissingField)
		assert.Empty(t, store.products)
	})
	t.Run("write failure", func(t *testing.T) {
		src := fileSource(`{"Products":[{"Id":"Apple","Price":1}]}`, `{}`)
		store := &fakeStore{err: errors.New("connection reset")}

		err := seed(context.Background(), zap.NewNop(), src, target{products: store, promotions: store})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "upsert product Apple")
	})
}
