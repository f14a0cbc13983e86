package product

import "strings"

// Catalog is the read-only set of products available in the store.
type Catalog struct {
	products []Product
	byID     map[string]int
}

// NewCatalog deduplicates products by ID, keeping the first occurrence, and
// rejects the catalog with *InvalidPriceError when any price is not positive.
func NewCatalog(products []Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]Product, 0, len(products)),
		byID:     make(map[string]int, len(products)),
	}

	invalid := 0
	for _, p := range products {
		p = New(p.ID, p.Price)
		if _, ok := c.byID[p.ID]; ok {
			continue
		}
		if !p.Price.IsPositive() {
			invalid++
		}
		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}

	if invalid > 0 {
		return nil, &InvalidPriceError{Count: invalid}
	}
	return c, nil
}

// Find returns the product whose ID equals id after trimming. Matching is
// case-sensitive.
func (c *Catalog) Find(id string) (Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Product{}, ErrEmptyID
	}
	i, ok := c.byID[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return c.products[i], nil
}

// Products returns the catalog in source order.
func (c *Catalog) Products() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Len returns the number of distinct products.
func (c *Catalog) Len() int {
	return len(c.products)
}
