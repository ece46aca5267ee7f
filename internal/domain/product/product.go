package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase.
// Products are immutable once seeded.
type Product struct {
	ID    string
	Name  string
	Price decimal.Decimal
}

// Repository defines operations on the product catalog. Reads dominate;
// Add exists only for seeding.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	Add(ctx context.Context, p Product) error
}
