// Package app wires the checkout server and the register CLI together.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/checkout/internal/domain/checkout"
	"github.com/xenking/checkout/internal/domain/pricing"
	"github.com/xenking/checkout/internal/domain/promotion"
	"github.com/xenking/checkout/internal/handler"
	"github.com/xenking/checkout/pkg/health"
	"github.com/xenking/checkout/pkg/httpmiddleware"
)

// NewCheckout builds the checkout service over catalogs.
func NewCheckout(catalogs *Catalogs, tp trace.TracerProvider, mp metric.MeterProvider) (*checkout.Service, error) {
	return checkout.NewService(
		catalogs.Products,
		pricing.NewFactory(catalogs.Promotions),
		checkout.WithTracerProvider(tp),
		checkout.WithMeterProvider(mp),
	)
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the server.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("catalog_source", cfg.Catalog.Source),
	)

	catalogs, err := OpenCatalogs(zctx.Base(ctx, lg), cfg)
	if err != nil {
		return errors.Wrap(err, "open catalogs")
	}
	defer catalogs.Close()

	svc, err := NewCheckout(catalogs, m.TracerProvider(), m.MeterProvider())
	if err != nil {
		return errors.Wrap(err, "create checkout service")
	}

	healthSvc := NewHealth(svc, catalogs)
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	if c, err := svc.Products(ctx); err != nil {
		lg.Error("Product catalog is not usable", zap.Error(err))
	} else {
		lg.Info("Product catalog loaded", zap.Int("products", c.Len()))
	}

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           NewHTTPHandler(lg, svc, healthSvc, m.TracerProvider(), m.MeterProvider()),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// NewHealth registers the catalog readiness checks and the goroutine
// liveness check. Catalog errors surface through readiness instead of
// failing boot.
func NewHealth(svc *checkout.Service, catalogs *Catalogs) *health.Health {
	h := health.New()
	h.AddReadinessCheck("products", 5*time.Second, health.CatalogCheck(svc.Products))
	h.AddReadinessCheck("promotions", 5*time.Second, health.CatalogCheck(
		func(ctx context.Context) (*promotion.Catalog, error) {
			return promotion.LoadActive(ctx, catalogs.Promotions, time.Now())
		},
	))
	h.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	return h
}

// NewHTTPHandler routes the health and checkout endpoints behind the
// middleware chain.
func NewHTTPHandler(
	lg *zap.Logger,
	svc handler.Checkout,
	h *health.Health,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", h.LiveEndpoint)
	mux.HandleFunc("/readyz", h.ReadyEndpoint)
	handler.NewHandler(svc).Register(mux)

	return otelhttp.NewHandler(
		httpmiddleware.Wrap(mux,
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(lg),
			httpmiddleware.Recovery(),
			httpmiddleware.LogRequests(),
		),
		"checkout",
		otelhttp.WithTracerProvider(tp),
		otelhttp.WithMeterProvider(mp),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
