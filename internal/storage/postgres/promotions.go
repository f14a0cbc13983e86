package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/checkout/internal/domain/promotion"
)

const (
	listRulesSQL = `SELECT product_id, threshold_quantity, discount,
		effective_from, effective_to, applied_on_next_product
		FROM line_item_discounts ORDER BY id`

	getPolicySQL = `SELECT overall_strategy FROM pricing_settings`

	setPolicySQL = `INSERT INTO pricing_settings (id, overall_strategy) VALUES (TRUE, $1)
		ON CONFLICT (id) DO UPDATE SET overall_strategy = EXCLUDED.overall_strategy`
)

var ruleColumns = []string{
	"product_id", "threshold_quantity", "discount",
	"effective_from", "effective_to", "applied_on_next_product",
}

var _ promotion.Repository = (*PromotionRepository)(nil)

// PromotionRepository implements promotion.Repository backed by PostgreSQL.
type PromotionRepository struct {
	pool *pgxpool.Pool
}

// NewPromotionRepository returns a PromotionRepository that uses the given pool.
func NewPromotionRepository(pool *pgxpool.Pool) *PromotionRepository {
	return &PromotionRepository{pool: pool}
}

// Load returns the stored policy and every stored rule in insertion order.
// The policy is empty when none was set.
func (r *PromotionRepository) Load(ctx context.Context) (*promotion.Catalog, error) {
	c := &promotion.Catalog{}

	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	}, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, getPolicySQL).Scan(&c.Policy); err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return errors.Wrap(err, "get policy")
		}

		rows, err := tx.Query(ctx, listRulesSQL)
		if err != nil {
			return errors.Wrap(err, "query rules")
		}
		c.Rules, err = pgx.CollectRows(rows, scanRule)
		if err != nil {
			return errors.Wrap(err, "scan rules")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ReplaceRules atomically replaces every stored rule with rules.
func (r *PromotionRepository) ReplaceRules(ctx context.Context, rules []promotion.Rule) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM line_item_discounts`); err != nil {
			return errors.Wrap(err, "delete rules")
		}
		_, err := tx.CopyFrom(ctx, pgx.Identifier{"line_item_discounts"}, ruleColumns,
			pgx.CopyFromSlice(len(rules), func(i int) ([]any, error) {
				r := rules[i]
				return []any{
					r.ProductID, r.ThresholdQuantity, r.Discount,
					r.EffectiveFrom, r.EffectiveTo, r.AppliedOnNextProduct,
				}, nil
			}),
		)
		if err != nil {
			return errors.Wrap(err, "copy rules")
		}
		return nil
	})
}

// SetPolicy stores the overall pricing policy name.
func (r *PromotionRepository) SetPolicy(ctx context.Context, policy string) error {
	if _, err := r.pool.Exec(ctx, setPolicySQL, policy); err != nil {
		return errors.Wrapf(err, "set policy %q", policy)
	}
	return nil
}

func scanRule(row pgx.CollectableRow) (promotion.Rule, error) {
	var r promotion.Rule
	err := row.Scan(
		&r.ProductID, &r.ThresholdQuantity, &r.Discount,
		&r.EffectiveFrom, &r.EffectiveTo, &r.AppliedOnNextProduct,
	)
	return r, err
}
