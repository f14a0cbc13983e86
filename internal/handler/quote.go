package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/checkout/internal/domain/checkout"
)

// Quote serves POST /api/quote.
//
// Request:
//
//	{"items": [{"productId": "Apple", "quantity": 3}]}
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "request body too large or unreadable")
		return
	}

	req, err := decodeQuoteRequest(jx.DecodeBytes(body))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	receipt, err := h.checkout.Quote(r.Context(), req)
	if err != nil {
		h.quoteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeReceipt(e, receipt)
	})
}

// quoteError maps checkout errors to API responses.
func (h *Handler) quoteError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, checkout.ErrEmptyItems) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var qtyErr *checkout.InvalidQuantityError
	if errors.As(err, &qtyErr) {
		writeError(w, http.StatusUnprocessableEntity, qtyErr.Error())
		return
	}

	h.internalError(w, r, err)
}

func decodeQuoteRequest(d *jx.Decoder) (checkout.QuoteRequest, error) {
	var req checkout.QuoteRequest
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "items" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			var item checkout.Item
			if err := d.Obj(func(d *jx.Decoder, key string) error {
				var err error
				switch key {
				case "productId":
					item.ProductID, err = d.Str()
				case "quantity":
					item.Quantity, err = d.Int()
				default:
					err = d.Skip()
				}
				return err
			}); err != nil {
				return err
			}
			req.Items = append(req.Items, item)
			return nil
		})
	})
	return req, err
}

func encodeReceipt(e *jx.Encoder, r *checkout.Receipt) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("saleId", func(e *jx.Encoder) { e.Str(r.SaleID.String()) })
		e.Field("lines", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, l := range r.Lines {
					e.Obj(func(e *jx.Encoder) {
						e.Field("productId", func(e *jx.Encoder) { e.Str(l.ProductID) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
						e.Field("unitPrice", func(e *jx.Encoder) { encodeMoney(e, l.UnitPrice) })
						e.Field("effectivePrice", func(e *jx.Encoder) { encodeMoney(e, l.EffectivePrice()) })
						e.Field("saved", func(e *jx.Encoder) { encodeMoney(e, l.Saved) })
						e.Field("total", func(e *jx.Encoder) { encodeMoney(e, l.Total) })
					})
				}
			})
		})
		e.Field("skipped", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, id := range r.Skipped {
					e.Str(id)
				}
			})
		})
		e.Field("subtotal", func(e *jx.Encoder) { encodeMoney(e, r.Subtotal) })
		e.Field("savings", func(e *jx.Encoder) { encodeMoney(e, r.Savings) })
		e.Field("total", func(e *jx.Encoder) { encodeMoney(e, r.Total) })
	})
}

// encodeMoney writes d as a JSON number rounded to cents.
func encodeMoney(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.StringFixed(2)))
}
