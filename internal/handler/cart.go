package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/lootcart/lootcart/internal/domain/cart"
	"github.com/lootcart/lootcart/internal/domain/product"
)

type addCartItemRequest struct {
	ProductID string
	Quantity  int
}

func decodeAddCartItemRequest(data []byte) (*addCartItemRequest, error) {
	var req addCartItemRequest
	d := jx.DecodeBytes(data)

	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "productId":
			v, err := d.Str()
			req.ProductID = v
			return err
		case "quantity":
			v, err := d.Int()
			req.Quantity = v
			return err
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, errors.Wrap(err, "decode cart item request")
	}
	return &req, nil
}

func encodeCart(e *jx.Encoder, c *cart.Cart) {
	e.ObjStart()
	e.FieldStart("items")
	encodeCartItems(e, c.Items)
	e.FieldStart("subtotal")
	encodeMoney(e, c.Subtotal)
	e.ObjEnd()
}

// getCart handles GET /api/cart.
func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.cart.Get(r.Context())
	if err != nil {
		writeServerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCart(e, c) })
}

// addCartItem handles POST /api/cart/items.
func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Validation Error", "unable to read request body")
		return
	}

	req, err := decodeAddCartItemRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Validation Error", "Invalid request data")
		return
	}
	if req.ProductID == "" || req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "Validation Error", "Invalid request data")
		return
	}

	c, err := h.cart.AddItem(r.Context(), req.ProductID, req.Quantity)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		writeServerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCart(e, c) })
}

// clearCart handles DELETE /api/cart.
func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.cart.Clear(r.Context()); err != nil {
		writeServerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("success")
		e.Bool(true)
		e.FieldStart("message")
		e.Str("Cart cleared successfully")
		e.ObjEnd()
	})
}
