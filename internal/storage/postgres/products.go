package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/checkout/internal/domain/product"
)

const (
	listProductsSQL = `SELECT id, price FROM products ORDER BY id`

	upsertProductSQL = `INSERT INTO products (id, price) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET price = EXCLUDED.price, updated_at = now()`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products ordered by id.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "query products")
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, errors.Wrap(err, "scan products")
	}
	return products, nil
}

// UpsertProduct inserts p or updates the price of the existing product.
func (r *ProductRepository) UpsertProduct(ctx context.Context, p product.Product) error {
	if p.ID == "" {
		return product.ErrEmptyID
	}
	if _, err := r.pool.Exec(ctx, upsertProductSQL, p.ID, p.Price); err != nil {
		return errors.Wrapf(err, "upsert product %q", p.ID)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(&p.ID, &p.Price)
	return p, err
}
