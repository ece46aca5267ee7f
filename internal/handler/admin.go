package handler

import (
	"fmt"
	"net/http"

	"github.com/go-faster/jx"
)

// getStats handles GET /api/admin/stats.
func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	s, err := h.stats.GetStats(r.Context())
	if err != nil {
		writeServerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("totalItemsPurchased")
		e.Int(s.TotalItemsPurchased)
		e.FieldStart("totalPurchaseAmount")
		encodeMoney(e, s.TotalPurchaseAmount)
		e.FieldStart("totalDiscountAmount")
		encodeMoney(e, s.TotalDiscountAmount)

		e.FieldStart("discountCodes")
		e.ArrStart()
		for _, c := range s.DiscountCodes {
			e.ObjStart()
			e.FieldStart("code")
			e.Str(c.Code)
			e.FieldStart("discountPercent")
			e.Int(c.DiscountPercent)
			e.FieldStart("tier")
			e.Str(string(c.Tier))
			e.FieldStart("isUsed")
			e.Bool(c.Used)
			e.ObjEnd()
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}

// generateCoupon handles POST /api/admin/generate-coupon: probes the reward
// cadence against the current ledger length without placing an order.
func (h *Handler) generateCoupon(w http.ResponseWriter, r *http.Request) {
	check, err := h.engine.TriggerRewardCheck(r.Context())
	if err != nil {
		writeServerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()

		if check.Coupon == nil {
			e.FieldStart("success")
			e.Bool(false)
			e.FieldStart("message")
			e.Str(fmt.Sprintf(
				"Reward condition not met. Need %d more order(s) before the next reward. Current order count: %d, N: %d",
				check.OrdersNeeded, check.OrderCount, h.engine.RewardEveryN(),
			))
			e.ObjEnd()
			return
		}

		e.FieldStart("success")
		e.Bool(true)
		e.FieldStart("message")
		e.Str(fmt.Sprintf(
			"Reward coupon generated! This is order #%d, which is a multiple of N=%d.",
			check.OrderCount+1, h.engine.RewardEveryN(),
		))
		e.FieldStart("coupon")
		e.ObjStart()
		e.FieldStart("code")
		e.Str(check.Coupon.Code)
		e.FieldStart("discountPercent")
		e.Int(check.Coupon.DiscountPercent)
		e.FieldStart("tier")
		e.Str(string(check.Coupon.Tier))
		e.ObjEnd()
		e.ObjEnd()
	})
}
