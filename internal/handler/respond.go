package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lootcart/lootcart/internal/domain/order"
)

// maxBodyBytes caps request bodies; carts are tiny, so 1 MiB is generous.
const maxBodyBytes = 1 << 20

// writeJSON encodes a response body with jx and writes it with the status.
func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := &jx.Encoder{}
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes the standard error body: {"error": ..., "message": ...}.
func writeError(w http.ResponseWriter, status int, name, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("error")
		e.Str(name)
		e.FieldStart("message")
		e.Str(message)
		e.ObjEnd()
	})
}

// writeServerError logs the error and responds with a generic 500 body.
func writeServerError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred")
}

// readBody reads the request body with the size cap applied.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return io.ReadAll(r.Body)
}

// encodeMoney writes a decimal amount as a JSON number.
func encodeMoney(e *jx.Encoder, d decimal.Decimal) {
	e.Float64(d.InexactFloat64())
}

// encodeCartItems writes a cart item array.
func encodeCartItems(e *jx.Encoder, items []order.CartItem) {
	e.ArrStart()
	for _, item := range items {
		e.ObjStart()
		e.FieldStart("productId")
		e.Str(item.ProductID)
		e.FieldStart("quantity")
		e.Int(item.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
}

// encodeTimestamp writes an instant in RFC 3339 with sub-second precision.
func encodeTimestamp(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339Nano))
}
