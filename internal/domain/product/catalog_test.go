package product

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	products []Product
	err      error
}

func (m *mockRepo) List(_ context.Context) ([]Product, error) {
	return m.products, m.err
}

func p(id, price string) Product {
	return Product{ID: id, Price: decimal.RequireFromString(price)}
}

func TestNewCatalog_RemovesDuplicatesKeepingFirst(t *testing.T) {
	c, err := NewCatalog([]Product{
		p("Apple", "0.50"),
		p("Banana", "0.25"),
		p("Apple", "9.99"),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, c.Len())
	got, err := c.Find("Apple")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.50").Equal(got.Price))
	assert.Equal(t, []string{"Apple", "Banana"}, ids(c.Products()))
}

func TestNewCatalog_TrimsIDs(t *testing.T) {
	c, err := NewCatalog([]Product{p("  Apple ", "0.50"), p("Apple", "1.00")})
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
}

func TestNewCatalog_InvalidPrice(t *testing.T) {
	tests := []struct {
		name      string
		products  []Product
		wantCount int
	}{
		{name: "negative", products: []Product{p("A", "-1.0")}, wantCount: 1},
		{name: "zero", products: []Product{p("A", "0.0")}, wantCount: 1},
		{name: "several", products: []Product{p("A", "0"), p("B", "1"), p("C", "-2")}, wantCount: 2},
		{name: "duplicate of a valid product is ignored", products: []Product{p("A", "1"), p("A", "0")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.products)
			if tt.wantCount == 0 {
				require.NoError(t, err)
				return
			}

			var ipErr *InvalidPriceError
			require.ErrorAs(t, err, &ipErr)
			assert.Equal(t, tt.wantCount, ipErr.Count)
		})
	}
}

func TestCatalog_Find(t *testing.T) {
	c, err := NewCatalog([]Product{p("Apple", "0.50"), p("apple pie", "4.00")})
	require.NoError(t, err)

	tests := []struct {
		name    string
		id      string
		wantID  string
		wantErr error
	}{
		{name: "exact", id: "Apple", wantID: "Apple"},
		{name: "trimmed argument", id: "  Apple\t", wantID: "Apple"},
		{name: "case sensitive", id: "apple", wantErr: ErrNotFound},
		{name: "unknown", id: "Pear", wantErr: ErrNotFound},
		{name: "blank", id: "  ", wantErr: ErrEmptyID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Find(tt.id)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestProduct_Same(t *testing.T) {
	assert.True(t, p("A", "1").Same(p("A", "2")))
	assert.False(t, p("A", "1").Same(p("a", "1")))
}

func TestLoadCatalog(t *testing.T) {
	c, err := LoadCatalog(context.Background(), &mockRepo{products: []Product{p("A", "1")}})
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	_, err = LoadCatalog(context.Background(), &mockRepo{err: errors.New("disk on fire")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list products")
}

func ids(products []Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}
