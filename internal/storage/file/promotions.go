package file

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/checkout/internal/domain/promotion"
)

const promotionCatalog = "promotion catalog"

// Layouts accepted for timestamps without a zone offset. Fractional seconds
// are accepted after the seconds field.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var _ promotion.Repository = (*PromotionRepository)(nil)

// PromotionRepository reads the promotion catalog from a JSON file:
//
//	{
//	  "OverallStrategy": "BestForCustomer",
//	  "SalesLineItemDiscounts": [{
//	    "ProductId": "Apple",
//	    "ThresholdQuantity": 3,
//	    "Discount": "$0.50",
//	    "EffectiveFrom": "2024-01-01T00:00:00",
//	    "EffectiveTo": "2024-12-31T23:59:59",
//	    "DiscountAppliedOnNextProduct": false
//	  }]
//	}
type PromotionRepository struct {
	fsys fs.FS
	name string
	loc  *time.Location
}

// NewPromotionRepository creates a PromotionRepository reading name from fsys.
// Timestamps without a zone offset are interpreted in loc, or in the local
// zone when loc is nil.
func NewPromotionRepository(fsys fs.FS, name string, loc *time.Location) *PromotionRepository {
	if loc == nil {
		loc = time.Local
	}
	return &PromotionRepository{fsys: fsys, name: name, loc: loc}
}

// Load reads the catalog file. Failures are returned as *Error. The rules are
// returned as written; filtering is up to promotion.LoadActive.
func (r *PromotionRepository) Load(ctx context.Context) (*promotion.Catalog, error) {
	data, err := readFile(ctx, r.fsys, r.name)
	if err != nil {
		return nil, openError(promotionCatalog, r.name, err)
	}

	c, err := r.decodeCatalog(jx.DecodeBytes(data))
	if err != nil {
		return nil, decodeError(promotionCatalog, r.name, err)
	}
	return c, nil
}

func (r *PromotionRepository) decodeCatalog(d *jx.Decoder) (*promotion.Catalog, error) {
	c := &promotion.Catalog{}
	err := decodeObject(d, func(d *jx.Decoder, key string) error {
		if null, err := isNull(d); err != nil || null {
			return err
		}
		switch key {
		case "overallstrategy":
			v, err := decodeString(d, "OverallStrategy")
			if err != nil {
				return err
			}
			c.Policy = v
		case "saleslineitemdiscounts":
			return d.Arr(func(d *jx.Decoder) error {
				rule, err := r.decodeRule(d, fmt.Sprintf("SalesLineItemDiscounts[%d]", len(c.Rules)))
				if err != nil {
					return err
				}
				c.Rules = append(c.Rules, rule)
				return nil
			})
		default:
			return d.Skip()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *PromotionRepository) decodeRule(d *jx.Decoder, path string) (promotion.Rule, error) {
	var (
		rule promotion.Rule
		seen = map[string]bool{}
	)
	err := decodeObject(d, func(d *jx.Decoder, key string) error {
		if null, err := isNull(d); err != nil || null {
			return err
		}

		var err error
		switch key {
		case "productid":
			rule.ProductID, err = decodeString(d, path+".ProductId")
		case "thresholdquantity":
			rule.ThresholdQuantity, err = decodeInt(d, path+".ThresholdQuantity")
		case "discount":
			rule.Discount, err = decodeString(d, path+".Discount")
		case "effectivefrom":
			rule.EffectiveFrom, err = r.decodeTime(d, path+".EffectiveFrom")
		case "effectiveto":
			rule.EffectiveTo, err = r.decodeTime(d, path+".EffectiveTo")
		case "discountappliedonnextproduct":
			if tt := d.Next(); tt != jx.Bool {
				if err := d.Skip(); err != nil {
					return err
				}
				return invalidValue(path+".DiscountAppliedOnNextProduct", errors.Errorf("expected bool, got %v", tt))
			}
			rule.AppliedOnNextProduct, err = d.Bool()
		default:
			return d.Skip()
		}
		if err != nil {
			return err
		}
		seen[key] = true
		return nil
	})
	if err != nil {
		return promotion.Rule{}, err
	}

	for _, field := range []struct{ key, name string }{
		{"productid", "ProductId"},
		{"thresholdquantity", "ThresholdQuantity"},
		{"discount", "Discount"},
		{"effectivefrom", "EffectiveFrom"},
		{"effectiveto", "EffectiveTo"},
	} {
		if !seen[field.key] {
			return promotion.Rule{}, missingField(path + "." + field.name)
		}
	}
	return rule, nil
}

func decodeInt(d *jx.Decoder, field string) (int, error) {
	if tt := d.Next(); tt != jx.Number {
		if err := d.Skip(); err != nil {
			return 0, err
		}
		return 0, invalidValue(field, errors.Errorf("expected integer, got %v", tt))
	}
	v, err := d.Int()
	if err != nil {
		return 0, invalidValue(field, err)
	}
	return v, nil
}

// decodeTime reads an RFC 3339 timestamp, or a zone-less one interpreted in
// the repository's location.
func (r *PromotionRepository) decodeTime(d *jx.Decoder, field string) (time.Time, error) {
	s, err := decodeString(d, field)
	if err != nil {
		return time.Time{}, err
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, r.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, invalidValue(field, errors.Errorf("unsupported timestamp %q", s))
}
