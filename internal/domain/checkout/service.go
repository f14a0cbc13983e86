// Package checkout prices a customer's basket against the current product
// and promotion catalogs.
package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/checkout/internal/domain/pricing"
	"github.com/xenking/checkout/internal/domain/product"
	"github.com/xenking/checkout/internal/domain/sale"
)

// ErrEmptyItems is returned when a quote request has no items.
var ErrEmptyItems = errors.New("items required")

// MaxQuantity bounds the units of one product in a quote, summed over
// every item requesting it. Promotions split discounted units into their
// own line items, so pricing cost grows with the quantity.
const MaxQuantity = 10_000

// InvalidQuantityError indicates a requested product has a non-positive
// quantity or more than MaxQuantity units.
type InvalidQuantityError struct {
	ProductID string
	Quantity  int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be between 1 and %d for product %q, got %d",
		MaxQuantity, e.ProductID, e.Quantity)
}

// Item is a requested product and how many units of it.
type Item struct {
	ProductID string
	Quantity  int
}

// QuoteRequest holds the basket to price.
type QuoteRequest struct {
	Items []Item
}

// StrategyBuilder builds the overall pricing strategy for one sale.
type StrategyBuilder interface {
	Strategy(ctx context.Context) (*pricing.Composite, error)
}

// Option configures a Service.
type Option func(s *Service)

// WithTracerProvider sets the tracer provider. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) {
		s.tracer = tp.Tracer("checkout")
	}
}

// WithMeterProvider sets the meter provider. Defaults to the global one.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) {
		s.meter = mp.Meter("checkout")
	}
}

// Service builds sales and prices them.
type Service struct {
	products   product.Repository
	strategies StrategyBuilder

	tracer  trace.Tracer
	meter   metric.Meter
	quotes  metric.Int64Counter
	skipped metric.Int64Counter
}

// NewService creates a checkout Service reading products from products and
// building pricing strategies with strategies.
func NewService(products product.Repository, strategies StrategyBuilder, opts ...Option) (*Service, error) {
	s := &Service{
		products:   products,
		strategies: strategies,
		tracer:     otel.GetTracerProvider().Tracer("checkout"),
		meter:      otel.GetMeterProvider().Meter("checkout"),
	}
	for _, opt := range opts {
		opt(s)
	}

	var err error
	if s.quotes, err = s.meter.Int64Counter("checkout.quotes",
		metric.WithDescription("Number of priced quotes"),
	); err != nil {
		return nil, errors.Wrap(err, "quotes counter")
	}
	if s.skipped, err = s.meter.Int64Counter("checkout.skipped_products",
		metric.WithDescription("Number of requested products missing from the catalog"),
	); err != nil {
		return nil, errors.Wrap(err, "skipped products counter")
	}

	return s, nil
}

// NewSale returns an empty sale bound to the pricing strategy currently
// described by the promotion catalog.
func (s *Service) NewSale(ctx context.Context) (*sale.Sale, error) {
	strategy, err := s.strategies.Strategy(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "build pricing strategy")
	}
	return sale.New(strategy), nil
}

// Products returns the validated product catalog.
func (s *Service) Products(ctx context.Context) (*product.Catalog, error) {
	return product.LoadCatalog(ctx, s.products)
}

// Quote prices req. Products missing from the catalog are skipped and listed
// in the receipt instead of failing the quote.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (_ *Receipt, rerr error) {
	ctx, span := s.tracer.Start(ctx, "checkout.Quote",
		trace.WithAttributes(attribute.Int("checkout.items", len(req.Items))),
	)
	defer func() {
		if rerr != nil {
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
		}
		span.End()
	}()

	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	units := make(map[string]int, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity <= 0 || item.Quantity > MaxQuantity {
			return nil, &InvalidQuantityError{ProductID: item.ProductID, Quantity: item.Quantity}
		}
		id := strings.TrimSpace(item.ProductID)
		units[id] += item.Quantity
		if units[id] > MaxQuantity {
			return nil, &InvalidQuantityError{ProductID: id, Quantity: units[id]}
		}
	}

	var (
		catalog *product.Catalog
		sl      *sale.Sale
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		catalog, err = s.Products(gctx)
		return err
	})
	g.Go(func() (err error) {
		sl, err = s.NewSale(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	lg := zctx.From(ctx)
	var skipped []string
	for _, item := range req.Items {
		p, err := catalog.Find(item.ProductID)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) || errors.Is(err, product.ErrEmptyID) {
				lg.Warn("Product not in catalog, skipping", zap.String("product_id", item.ProductID))
				skipped = append(skipped, item.ProductID)
				continue
			}
			return nil, err
		}
		if err := sl.MakeLineItem(p, item.Quantity); err != nil {
			return nil, errors.Wrapf(err, "add %s", p.ID)
		}
	}

	total, err := sl.Total()
	if err != nil {
		return nil, errors.Wrap(err, "price sale")
	}

	s.quotes.Add(ctx, 1)
	if len(skipped) > 0 {
		s.skipped.Add(ctx, int64(len(skipped)))
	}
	span.SetAttributes(attribute.String("checkout.sale_id", sl.ID().String()))

	return NewReceipt(sl, total, skipped), nil
}
