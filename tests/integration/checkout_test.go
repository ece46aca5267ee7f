//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductList(t *testing.T) {
	resp := doGet(t, "/api/products")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	list := decodeJSON[productListResponse](t, resp)
	require.Len(t, list.Products, 8)

	byID := make(map[string]productResponse, len(list.Products))
	for _, p := range list.Products {
		byID[p.ID] = p
	}
	mouse, ok := byID["prod-1"]
	require.True(t, ok)
	assert.Equal(t, "Wireless Mouse", mouse.Name)
	assert.InDelta(t, 29.99, mouse.Price, 0.001)
}

func TestCheckout_Success(t *testing.T) {
	resp := doPost(t, "/api/checkout", checkoutRequest{
		Items: []cartItemRequest{{ProductID: "prod-1", Quantity: 2}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	out := decodeJSON[checkoutResponse](t, resp)
	assert.True(t, out.Success)
	assert.NotEmpty(t, out.Order.ID)
	assert.InDelta(t, 59.98, out.Order.TotalAmount, 0.001)
	assert.InDelta(t, 0, out.Order.DiscountApplied, 0.001)
	assert.InDelta(t, 59.98, out.Order.FinalAmount, 0.001)
}

func TestCheckout_UnknownProduct(t *testing.T) {
	resp := doPost(t, "/api/checkout", checkoutRequest{
		Items: []cartItemRequest{{ProductID: "no-such-product", Quantity: 1}},
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	out := decodeJSON[errorResponse](t, resp)
	assert.Equal(t, "Not Found", out.Error)
}

func TestCheckout_EmptyItems(t *testing.T) {
	resp := doPost(t, "/api/checkout", checkoutRequest{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	out := decodeJSON[errorResponse](t, resp)
	assert.Equal(t, "Validation Error", out.Error)
}

func TestCheckout_InvalidCoupon(t *testing.T) {
	resp := doPost(t, "/api/checkout", checkoutRequest{
		Items:        []cartItemRequest{{ProductID: "prod-2", Quantity: 1}},
		DiscountCode: "BOGUSBOG",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	out := decodeJSON[errorResponse](t, resp)
	assert.Equal(t, "Checkout Error", out.Error)
}

func TestCheckout_SeededCouponSingleUse(t *testing.T) {
	// RARE15AB is seeded by seed-db as an unused 15% coupon.
	resp := doPost(t, "/api/checkout", checkoutRequest{
		Items:        []cartItemRequest{{ProductID: "prod-1", Quantity: 2}},
		DiscountCode: "RARE15AB",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	out := decodeJSON[checkoutResponse](t, resp)
	assert.InDelta(t, 59.98, out.Order.TotalAmount, 0.001)
	assert.InDelta(t, 9.00, out.Order.DiscountApplied, 0.001)
	assert.InDelta(t, 50.98, out.Order.FinalAmount, 0.001)

	// Reuse fails.
	resp = doPost(t, "/api/checkout", checkoutRequest{
		Items:        []cartItemRequest{{ProductID: "prod-1", Quantity: 1}},
		DiscountCode: "RARE15AB",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Checkout Error", decodeJSON[errorResponse](t, resp).Error)
}

func TestCheckout_RewardDropsOnCadence(t *testing.T) {
	// Other tests also place orders, so the absolute ledger position is not
	// known here. Placing N consecutive orders is guaranteed to cross one
	// reward position (N = 4 in the test deployment).
	var reward *rewardResponse
	for i := 0; i < 4; i++ {
		resp := doPost(t, "/api/checkout", checkoutRequest{
			Items: []cartItemRequest{{ProductID: "prod-3", Quantity: 1}},
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		out := decodeJSON[checkoutResponse](t, resp)
		if out.Reward != nil {
			reward = out.Reward
			break
		}
	}
	require.NotNil(t, reward, "4 consecutive orders must produce a reward")

	assert.Len(t, reward.Code, 8)
	assert.Contains(t, []string{"COMMON", "RARE", "LEGENDARY"}, reward.Tier)
	assert.Contains(t, []int{10, 15, 25}, reward.DiscountPercent)
	assert.NotEmpty(t, reward.Message)

	// The dropped coupon is redeemable exactly once.
	resp := doPost(t, "/api/checkout", checkoutRequest{
		Items:        []cartItemRequest{{ProductID: "prod-3", Quantity: 1}},
		DiscountCode: reward.Code,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	out := decodeJSON[checkoutResponse](t, resp)
	assert.Greater(t, out.Order.DiscountApplied, 0.0)
}

func TestAdminStats(t *testing.T) {
	resp := doPost(t, "/api/checkout", checkoutRequest{
		Items: []cartItemRequest{{ProductID: "prod-4", Quantity: 3}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	placed := decodeJSON[checkoutResponse](t, resp)

	resp = doGet(t, "/api/admin/stats")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stats := decodeJSON[statsResponse](t, resp)
	assert.GreaterOrEqual(t, stats.TotalItemsPurchased, 3)
	assert.GreaterOrEqual(t, stats.TotalPurchaseAmount, placed.Order.FinalAmount)

	// Seeded demo coupons are listed with their tier and used state.
	codes := make(map[string]discountResponse, len(stats.DiscountCodes))
	for _, c := range stats.DiscountCodes {
		codes[c.Code] = c
	}
	legend, ok := codes["LEGEND25"]
	require.True(t, ok)
	assert.Equal(t, "LEGENDARY", legend.Tier)
	assert.Equal(t, 25, legend.DiscountPercent)
}

func TestGenerateCouponProbe(t *testing.T) {
	resp := doPost(t, "/api/admin/generate-coupon", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decodeJSON[generateCouponResponse](t, resp)
	if out.Success {
		require.NotNil(t, out.Coupon)
		assert.Len(t, out.Coupon.Code, 8)
	} else {
		assert.Contains(t, out.Message, "Reward condition not met")
	}
}

func TestCartFlow(t *testing.T) {
	resp := doPost(t, "/api/cart/items", cartItemRequest{ProductID: "prod-5", Quantity: 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	req, _ := http.NewRequest(http.MethodDelete, baseURL+"/api/cart", nil)
	delResp, err := httpClient.Do(req)
	require.NoError(t, err)
	defer delResp.Body.Close()
	assert.Equal(t, http.StatusOK, delResp.StatusCode)
}

func TestRequestIDPropagation(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, baseURL+"/api/products", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", fmt.Sprintf("it-%d", 42))

	resp, err := httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "it-42", resp.Header.Get("X-Request-ID"))
}
