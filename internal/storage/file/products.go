package file

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/checkout/internal/domain/product"
)

const productCatalog = "product catalog"

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository reads products from a JSON catalog file:
//
//	{"Products": [{"Id": "Apple", "Price": 0.50}]}
type ProductRepository struct {
	fsys fs.FS
	name string
}

// NewProductRepository creates a ProductRepository reading name from fsys.
func NewProductRepository(fsys fs.FS, name string) *ProductRepository {
	return &ProductRepository{fsys: fsys, name: name}
}

// List reads the catalog file. Failures are returned as *Error.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	data, err := readFile(ctx, r.fsys, r.name)
	if err != nil {
		return nil, openError(productCatalog, r.name, err)
	}

	products, err := decodeProducts(jx.DecodeBytes(data))
	if err != nil {
		return nil, decodeError(productCatalog, r.name, err)
	}
	return products, nil
}

func decodeProducts(d *jx.Decoder) ([]product.Product, error) {
	var (
		products = []product.Product{}
		found    bool
	)
	err := decodeObject(d, func(d *jx.Decoder, key string) error {
		if key != "products" {
			return d.Skip()
		}
		if null, err := isNull(d); err != nil || null {
			return err
		}
		found = true

		return d.Arr(func(d *jx.Decoder) error {
			p, err := decodeProduct(d, fmt.Sprintf("Products[%d]", len(products)))
			if err != nil {
				return err
			}
			products = append(products, p)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, missingField("Products")
	}
	return products, nil
}

func decodeProduct(d *jx.Decoder, path string) (product.Product, error) {
	var (
		id       string
		price    decimal.Decimal
		hasID    bool
		hasPrice bool
	)
	err := decodeObject(d, func(d *jx.Decoder, key string) error {
		if null, err := isNull(d); err != nil || null {
			return err
		}
		switch key {
		case "id":
			v, err := decodeString(d, path+".Id")
			if err != nil {
				return err
			}
			id, hasID = v, true
		case "price":
			v, err := decodeDecimal(d, path+".Price")
			if err != nil {
				return err
			}
			price, hasPrice = v, true
		default:
			return d.Skip()
		}
		return nil
	})
	if err != nil {
		return product.Product{}, err
	}

	switch {
	case !hasID:
		return product.Product{}, missingField(path + ".Id")
	case !hasPrice:
		return product.Product{}, missingField(path + ".Price")
	}
	return product.New(id, price), nil
}
