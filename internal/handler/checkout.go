package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/lootcart/lootcart/internal/domain/checkout"
	"github.com/lootcart/lootcart/internal/domain/coupon"
	"github.com/lootcart/lootcart/internal/domain/order"
)

// tierMessages are the reveal lines shown by the storefront when a reward
// drops. Presentation only; the engine knows nothing about them.
var tierMessages = map[coupon.Tier]string{
	coupon.TierCommon:    "Standard Reward Unlocked!",
	coupon.TierRare:      "System Overclock Activated!",
	coupon.TierLegendary: "Critical Success Achieved!",
}

type checkoutRequest struct {
	Items        []order.CartItem
	DiscountCode string
}

func decodeCheckoutRequest(data []byte) (*checkoutRequest, error) {
	var req checkoutRequest
	d := jx.DecodeBytes(data)

	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "items":
			return d.Arr(func(d *jx.Decoder) error {
				item, err := decodeCartItem(d)
				if err != nil {
					return err
				}
				req.Items = append(req.Items, item)
				return nil
			})
		case "discountCode":
			v, err := d.Str()
			req.DiscountCode = v
			return err
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, errors.Wrap(err, "decode checkout request")
	}
	return &req, nil
}

func decodeCartItem(d *jx.Decoder) (order.CartItem, error) {
	var item order.CartItem
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "productId":
			v, err := d.Str()
			item.ProductID = v
			return err
		case "quantity":
			v, err := d.Int()
			item.Quantity = v
			return err
		default:
			return d.Skip()
		}
	})
	return item, err
}

// processCheckout handles POST /api/checkout.
func (h *Handler) processCheckout(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Validation Error", "unable to read request body")
		return
	}

	req, err := decodeCheckoutRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Validation Error", "Invalid request data")
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "Validation Error", "At least one item is required in the cart")
		return
	}
	for _, item := range req.Items {
		if item.ProductID == "" || item.Quantity <= 0 {
			writeError(w, http.StatusBadRequest, "Validation Error", "Invalid request data")
			return
		}
	}

	result, err := h.engine.ProcessCheckout(r.Context(), req.Items, req.DiscountCode)
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("success")
		e.Bool(true)

		e.FieldStart("order")
		e.ObjStart()
		e.FieldStart("id")
		e.Str(result.Order.ID)
		e.FieldStart("items")
		encodeCartItems(e, result.Order.Items)
		e.FieldStart("totalAmount")
		encodeMoney(e, result.Order.TotalAmount)
		e.FieldStart("discountApplied")
		encodeMoney(e, result.DiscountApplied)
		e.FieldStart("finalAmount")
		encodeMoney(e, result.FinalAmount)
		e.FieldStart("timestamp")
		encodeTimestamp(e, result.Order.CreatedAt)
		e.ObjEnd()

		if rc := result.RewardCoupon; rc != nil {
			e.FieldStart("reward")
			e.ObjStart()
			e.FieldStart("code")
			e.Str(rc.Code)
			e.FieldStart("discountPercent")
			e.Int(rc.DiscountPercent)
			e.FieldStart("tier")
			e.Str(string(rc.Tier))
			e.FieldStart("message")
			e.Str(rewardMessage(rc.Tier))
			e.ObjEnd()
		}

		e.ObjEnd()
	})
}

// writeCheckoutError maps engine failures to client statuses; anything
// unrecognized is a 500.
func (h *Handler) writeCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	var pnf *checkout.ProductNotFoundError
	if errors.As(err, &pnf) {
		writeError(w, http.StatusNotFound, "Not Found", pnf.Error())
		return
	}

	var iq *checkout.InvalidQuantityError
	if errors.As(err, &iq) {
		writeError(w, http.StatusBadRequest, "Validation Error", iq.Error())
		return
	}

	switch {
	case errors.Is(err, checkout.ErrEmptyItems):
		writeError(w, http.StatusBadRequest, "Validation Error", err.Error())
	case errors.Is(err, checkout.ErrInvalidCoupon):
		writeError(w, http.StatusBadRequest, "Checkout Error", checkout.ErrInvalidCoupon.Error())
	default:
		writeServerError(w, r, err)
	}
}

func rewardMessage(t coupon.Tier) string {
	if msg, ok := tierMessages[t]; ok {
		return msg
	}
	return "Reward Unlocked!"
}
