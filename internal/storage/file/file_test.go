package file

import (
	"bytes"
	"context"
	"io/fs"
	"testing"
	"testing/fstest"
	"time"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/checkout/internal/domain/product"
	"github.com/xenking/checkout/internal/domain/promotion"
)

type deniedFS struct{}

func (deniedFS) Open(name string) (fs.File, error) {
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
}

func gz(t *testing.T, data string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := pgzip.NewWriter(&buf)
	_, err := w.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestProductRepository_List(t *testing.T) {
	fsys := fstest.MapFS{
		"ProductCatalog.json": {Data: []byte(`{
			"Products": [
				{"Id": "Apple", "Price": 0.50},
				{"id": "Banana", "price": "1.25", "Color": "yellow"},
				{"ID": "Orange", "PRICE": 0.8}
			],
			"Version": 2
		}`)},
	}

	products, err := NewProductRepository(fsys, "ProductCatalog.json").List(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 3)

	want := []product.Product{
		product.New("Apple", d("0.5")),
		product.New("Banana", d("1.25")),
		product.New("Orange", d("0.8")),
	}
	for i, p := range products {
		assert.Equal(t, want[i].ID, p.ID)
		assert.True(t, want[i].Price.Equal(p.Price), "%s: %s", p.ID, p.Price)
	}
}

func TestProductRepository_Gzip(t *testing.T) {
	fsys := fstest.MapFS{
		"ProductCatalog.json.gz": {Data: gz(t, `{"Products":[{"Id":"Apple","Price":0.5}]}`)},
	}

	products, err := NewProductRepository(fsys, "ProductCatalog.json.gz").List(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Apple", products[0].ID)
}

func TestProductRepository_Errors(t *testing.T) {
	tests := []struct {
		name    string
		fsys    fs.FS
		wantErr error
		wantMsg string
	}{
		{
			name:    "not found",
			fsys:    fstest.MapFS{},
			wantErr: ErrNotFound,
		},
		{
			name:    "access denied",
			fsys:    deniedFS{},
			wantErr: ErrAccessDenied,
		},
		{
			name:    "malformed",
			fsys:    fstest.MapFS{"p.json": {Data: []byte(`{"Products": [{"Id": "Apple",}`)}},
			wantErr: ErrMalformed,
		},
		{
			name:    "not an object",
			fsys:    fstest.MapFS{"p.json": {Data: []byte(`[]`)}},
			wantErr: ErrMalformed,
		},
		{
			name:    "missing products",
			fsys:    fstest.MapFS{"p.json": {Data: []byte(`{}`)}},
			wantErr: ErrMissingField,
			wantMsg: "Products",
		},
		{
			name:    "missing price",
			fsys:    fstest.MapFS{"p.json": {Data: []byte(`{"Products":[{"Id":"Apple","Price":1},{"Id":"Pear"}]}`)}},
			wantErr: ErrMissingField,
			wantMsg: "Products[1].Price",
		},
		{
			name:    "null id",
			fsys:    fstest.MapFS{"p.json": {Data: []byte(`{"Products":[{"Id":null,"Price":1}]}`)}},
			wantErr: ErrMissingField,
			wantMsg: "Products[0].Id",
		},
		{
			name:    "bad price",
			fsys:    fstest.MapFS{"p.json": {Data: []byte(`{"Products":[{"Id":"Apple","Price":"cheap"}]}`)}},
			wantErr: ErrInvalidValue,
			wantMsg: "Products[0].Price",
		},
		{
			name:    "numeric id",
			fsys:    fstest.MapFS{"p.json": {Data: []byte(`{"Products":[{"Id":7,"Price":1}]}`)}},
			wantErr: ErrInvalidValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProductRepository(tt.fsys, "p.json").List(context.Background())
			require.ErrorIs(t, err, tt.wantErr)

			var fileErr *Error
			require.True(t, errors.As(err, &fileErr))
			assert.Equal(t, "product catalog", fileErr.Catalog)
			assert.Equal(t, "p.json", fileErr.Path)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestProductRepository_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fsys := fstest.MapFS{"p.json": {Data: []byte(`{"Products":[]}`)}}
	_, err := NewProductRepository(fsys, "p.json").List(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

const promotionsJSON = `{
	"OverallStrategy": "BestForStore",
	"SalesLineItemDiscounts": [
		{
			"ProductId": "Apple",
			"ThresholdQuantity": 3,
			"Discount": "$0.50",
			"EffectiveFrom": "2025-01-01T00:00:00",
			"EffectiveTo": "2025-12-31T23:59:59.9999999"
		},
		{
			"productid": "Banana",
			"thresholdquantity": 1,
			"discount": "100%",
			"effectivefrom": "2025-01-01T00:00:00Z",
			"effectiveto": "2025-02-01T00:00:00+02:00",
			"discountappliedonnextproduct": true,
			"Comment": "bogo"
		}
	]
}`

func TestPromotionRepository_Load(t *testing.T) {
	loc := time.FixedZone("EST", -5*60*60)
	fsys := fstest.MapFS{"PromotionCatalog.json": {Data: []byte(promotionsJSON)}}

	c, err := NewPromotionRepository(fsys, "PromotionCatalog.json", loc).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "BestForStore", c.Policy)
	require.Len(t, c.Rules, 2)

	apple := c.Rules[0]
	assert.Equal(t, "Apple", apple.ProductID)
	assert.Equal(t, 3, apple.ThresholdQuantity)
	assert.Equal(t, "$0.50", apple.Discount)
	assert.False(t, apple.AppliedOnNextProduct)
	assert.True(t, apple.EffectiveFrom.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, loc)))
	assert.True(t, apple.EffectiveTo.After(time.Date(2025, 12, 31, 23, 59, 59, 0, loc)))

	banana := c.Rules[1]
	assert.Equal(t, "Banana", banana.ProductID)
	assert.True(t, banana.AppliedOnNextProduct)
	assert.True(t, banana.EffectiveFrom.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, banana.EffectiveTo.Equal(time.Date(2025, 1, 31, 22, 0, 0, 0, time.UTC)))
}

func TestPromotionRepository_OptionalFields(t *testing.T) {
	fsys := fstest.MapFS{"p.json": {Data: []byte(`{}`)}}

	c, err := NewPromotionRepository(fsys, "p.json", time.UTC).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, c.Policy)
	assert.Empty(t, c.Rules)

	// Policy defaulting happens when the catalog is activated.
	active, err := promotion.LoadActive(context.Background(), NewPromotionRepository(fsys, "p.json", time.UTC), time.Now())
	require.NoError(t, err)
	assert.Equal(t, promotion.DefaultPolicy, active.Policy)
}

func TestPromotionRepository_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
		wantMsg string
	}{
		{
			name:    "malformed",
			data:    `{"SalesLineItemDiscounts": [`,
			wantErr: ErrMalformed,
		},
		{
			name: "missing threshold",
			data: `{"SalesLineItemDiscounts": [{
				"ProductId": "Apple", "Discount": "1",
				"EffectiveFrom": "2025-01-01", "EffectiveTo": "2025-01-02"
			}]}`,
			wantErr: ErrMissingField,
			wantMsg: "SalesLineItemDiscounts[0].ThresholdQuantity",
		},
		{
			name: "bad timestamp",
			data: `{"SalesLineItemDiscounts": [{
				"ProductId": "Apple", "ThresholdQuantity": 1, "Discount": "1",
				"EffectiveFrom": "yesterday", "EffectiveTo": "2025-01-02"
			}]}`,
			wantErr: ErrInvalidValue,
			wantMsg: "EffectiveFrom",
		},
		{
			name: "string threshold",
			data: `{"SalesLineItemDiscounts": [{
				"ProductId": "Apple", "ThresholdQuantity": "3", "Discount": "1",
				"EffectiveFrom": "2025-01-01", "EffectiveTo": "2025-01-02"
			}]}`,
			wantErr: ErrInvalidValue,
			wantMsg: "ThresholdQuantity",
		},
		{
			name: "non bool flag",
			data: `{"SalesLineItemDiscounts": [{
				"ProductId": "Apple", "ThresholdQuantity": 3, "Discount": "1",
				"EffectiveFrom": "2025-01-01", "EffectiveTo": "2025-01-02",
				"DiscountAppliedOnNextProduct": "yes"
			}]}`,
			wantErr: ErrInvalidValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fstest.MapFS{"p.json": {Data: []byte(tt.data)}}
			_, err := NewPromotionRepository(fsys, "p.json", time.UTC).Load(context.Background())
			require.ErrorIs(t, err, tt.wantErr)

			var fileErr *Error
			require.True(t, errors.As(err, &fileErr))
			assert.Equal(t, "promotion catalog", fileErr.Catalog)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestPromotionRepository_NotFound(t *testing.T) {
	_, err := NewPromotionRepository(fstest.MapFS{}, "PromotionCatalog.json", nil).Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
}
