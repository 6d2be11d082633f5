package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/ZClee128/xieka/internal/domain"
	"github.com/google/uuid"
)

//go:embed seed.json
var seedJSON []byte

// Catalog is the read-only product list, loaded once at startup.
type Catalog struct {
	products []*domain.Product
	byID     map[uuid.UUID]*domain.Product
}

// Load parses the embedded seed into a catalog.
func Load() (*Catalog, error) {
	var products []*domain.Product
	if err := json.Unmarshal(seedJSON, &products); err != nil {
		return nil, fmt.Errorf("failed to parse catalog seed: %w", err)
	}
	return New(products), nil
}

// New builds a catalog from an explicit product list.
func New(products []*domain.Product) *Catalog {
	byID := make(map[uuid.UUID]*domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &Catalog{products: products, byID: byID}
}

// List returns the products in seed order.
func (c *Catalog) List() []*domain.Product {
	out := make([]*domain.Product, len(c.products))
	copy(out, c.products)
	return out
}

// Get returns the product with the given id, if any.
func (c *Catalog) Get(id uuid.UUID) (*domain.Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}

func (c *Catalog) Len() int {
	return len(c.products)
}
