package product

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrEmptyID is returned when a lookup is made with a blank product id.
	ErrEmptyID = errors.New("product id is empty")
)

// Product is a catalog item available for purchase. Products are identified
// solely by ID: two products with the same ID are the same product even if
// their prices differ.
type Product struct {
	ID    string
	Price decimal.Decimal
}

// New returns a Product with surrounding whitespace removed from id.
func New(id string, price decimal.Decimal) Product {
	return Product{ID: strings.TrimSpace(id), Price: price}
}

// Same reports whether p and other share the same identity.
func (p Product) Same(other Product) bool {
	return p.ID == other.ID
}

// InvalidPriceError indicates the catalog holds products priced at or below zero.
type InvalidPriceError struct {
	Count int
}

func (e *InvalidPriceError) Error() string {
	return fmt.Sprintf("%d product(s) in the catalog have a negative or zero price", e.Count)
}

// Repository lists the raw product catalog in source order.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
}

// LoadCatalog reads every product from repo and builds a validated Catalog.
func LoadCatalog(ctx context.Context, repo Repository) (*Catalog, error) {
	products, err := repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return NewCatalog(products)
}
