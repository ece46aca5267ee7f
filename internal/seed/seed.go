// Package seed parses the embedded demo catalog into domain products.
package seed

import (
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/lootcart/lootcart/db"
	"github.com/lootcart/lootcart/internal/domain/product"
)

type productJSON struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Products returns the embedded demo catalog.
func Products() ([]product.Product, error) {
	var raw []productJSON
	if err := json.Unmarshal(db.ProductsJSON, &raw); err != nil {
		return nil, errors.Wrap(err, "parse products JSON")
	}

	out := make([]product.Product, len(raw))
	for i, p := range raw {
		out[i] = product.Product{ID: p.ID, Name: p.Name, Price: p.Price}
	}
	return out, nil
}
