// Package cart implements the demo's single in-process shopping cart.
package cart

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/lootcart/lootcart/internal/domain/order"
	"github.com/lootcart/lootcart/internal/domain/product"
)

// Cart is a snapshot of the current cart contents with its computed subtotal.
type Cart struct {
	Items    []order.CartItem
	Subtotal decimal.Decimal
}

// Service manages cart contents. Cart state is ephemeral and lives in the
// service itself; only checkout touches the persistent stores.
type Service struct {
	products product.Repository

	mu    sync.Mutex
	items []order.CartItem
}

// NewService creates a cart Service backed by the given catalog.
func NewService(products product.Repository) *Service {
	return &Service{products: products}
}

// Get returns the current cart contents and subtotal.
func (s *Service) Get(ctx context.Context) (*Cart, error) {
	s.mu.Lock()
	items := make([]order.CartItem, len(s.items))
	copy(items, s.items)
	s.mu.Unlock()

	subtotal, err := s.subtotal(ctx, items)
	if err != nil {
		return nil, err
	}
	return &Cart{Items: items, Subtotal: subtotal}, nil
}

// AddItem puts quantity units of a product into the cart, merging with an
// existing line for the same product. The product must exist in the catalog.
func (s *Service) AddItem(ctx context.Context, productID string, quantity int) (*Cart, error) {
	if quantity <= 0 {
		return nil, errors.Errorf("quantity must be positive, got %d", quantity)
	}

	if _, err := s.products.GetByID(ctx, productID); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, errors.Wrapf(product.ErrNotFound, "product %s", productID)
		}
		return nil, errors.Wrap(err, "get product")
	}

	s.mu.Lock()
	merged := false
	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		s.items = append(s.items, order.CartItem{ProductID: productID, Quantity: quantity})
	}
	s.mu.Unlock()

	return s.Get(ctx)
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
	return nil
}

// subtotal sums quantity × unit price across the items. Items whose product
// has vanished from the catalog contribute nothing rather than failing the
// read; the strict lookup happens at checkout.
func (s *Service) subtotal(ctx context.Context, items []order.CartItem) (decimal.Decimal, error) {
	subtotal := decimal.Zero
	for _, item := range items {
		p, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				continue
			}
			return decimal.Zero, errors.Wrap(err, "get product")
		}
		subtotal = subtotal.Add(p.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return subtotal, nil
}
