package memory

import (
	"context"

	"github.com/lootcart/lootcart/internal/domain/product"
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository over the shared Store.
type ProductRepository struct {
	store *Store
}

// List returns a copy of the full catalog in seed order.
func (r *ProductRepository) List(_ context.Context) ([]product.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]product.Product, len(r.store.products))
	copy(out, r.store.products)
	return out, nil
}

// GetByID returns the product with the given id, or product.ErrNotFound.
func (r *ProductRepository) GetByID(_ context.Context, id string) (*product.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	i, ok := r.store.productIndex[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	p := r.store.products[i]
	return &p, nil
}

// GetByIDs returns the products matching ids. Unknown ids are skipped; the
// caller decides whether a missing product is an error.
func (r *ProductRepository) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]product.Product, 0, len(ids))
	for _, id := range ids {
		if i, ok := r.store.productIndex[id]; ok {
			out = append(out, r.store.products[i])
		}
	}
	return out, nil
}

// Add seeds a product. Re-adding an existing id overwrites it in place,
// which keeps seeding idempotent.
func (r *ProductRepository) Add(_ context.Context, p product.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if i, ok := r.store.productIndex[p.ID]; ok {
		r.store.products[i] = p
		return nil
	}
	r.store.productIndex[p.ID] = len(r.store.products)
	r.store.products = append(r.store.products, p)
	return nil
}
