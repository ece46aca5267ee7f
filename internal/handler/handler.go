// Package handler is the HTTP edge: request decoding, domain calls, and
// error-to-status mapping. Business rules live in internal/domain.
package handler

import (
	"net/http"

	"github.com/lootcart/lootcart/internal/domain/cart"
	"github.com/lootcart/lootcart/internal/domain/checkout"
	"github.com/lootcart/lootcart/internal/domain/product"
	"github.com/lootcart/lootcart/internal/domain/stats"
)

// Handler holds the domain dependencies for all API routes.
type Handler struct {
	products product.Repository
	cart     *cart.Service
	engine   *checkout.Engine
	stats    *stats.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	products product.Repository,
	cartSvc *cart.Service,
	engine *checkout.Engine,
	statsSvc *stats.Service,
) *Handler {
	return &Handler{
		products: products,
		cart:     cartSvc,
		engine:   engine,
		stats:    statsSvc,
	}
}

// Register mounts all API routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("POST /api/checkout", h.processCheckout)
	mux.HandleFunc("GET /api/cart", h.getCart)
	mux.HandleFunc("POST /api/cart/items", h.addCartItem)
	mux.HandleFunc("DELETE /api/cart", h.clearCart)
	mux.HandleFunc("GET /api/admin/stats", h.getStats)
	mux.HandleFunc("POST /api/admin/generate-coupon", h.generateCoupon)
}
