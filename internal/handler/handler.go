// Package handler serves the checkout HTTP API.
package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/checkout/internal/domain/checkout"
	"github.com/xenking/checkout/internal/domain/product"
)

// maxBodyBytes bounds quote request bodies.
const maxBodyBytes = 1 << 20

// Checkout is the part of checkout.Service the API needs.
type Checkout interface {
	Quote(ctx context.Context, req checkout.QuoteRequest) (*checkout.Receipt, error)
	Products(ctx context.Context) (*product.Catalog, error)
}

var _ Checkout = (*checkout.Service)(nil)

// Handler serves the quote and product endpoints.
type Handler struct {
	checkout Checkout
}

// NewHandler constructs a Handler delegating to svc.
func NewHandler(svc Checkout) *Handler {
	return &Handler{checkout: svc}
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/quote", h.Quote)
	mux.HandleFunc("GET /api/products", h.Products)
}

// Products serves GET /api/products.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.checkout.Products(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("products", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, p := range catalog.Products() {
						e.Obj(func(e *jx.Encoder) {
							e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
							e.Field("price", func(e *jx.Encoder) { encodeMoney(e, p.Price) })
						})
					}
				})
			})
		})
	})
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("Request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "pricing is unavailable, please contact a system administrator")
}

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError renders {"code":status,"message":msg}.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
		})
	})
}
