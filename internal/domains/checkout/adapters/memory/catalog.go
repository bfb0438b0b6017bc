package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/washly/order-api/internal/domains/checkout/ports"
)

// Catalog is an in-memory service catalog, seedable for tests and local runs.
type Catalog struct {
	mu       sync.RWMutex
	services map[string]ports.CatalogService
}

// NewCatalog builds a catalog from the provided entries.
func NewCatalog(services ...ports.CatalogService) *Catalog {
	c := &Catalog{services: make(map[string]ports.CatalogService, len(services))}
	for _, service := range services {
		c.services[service.ID] = service
	}
	return c
}

// DefaultCatalog seeds the fixed-price entries used in development.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		ports.CatalogService{ID: "wash-fold", Name: "Wash & Fold", UnitPrice: decimal.NewFromFloat(5.00)},
		ports.CatalogService{ID: "dry-clean", Name: "Dry Cleaning", UnitPrice: decimal.NewFromFloat(12.50)},
		ports.CatalogService{ID: "iron-only", Name: "Ironing", UnitPrice: decimal.NewFromFloat(3.00)},
		ports.CatalogService{ID: "bedding", Name: "Bedding & Linen", UnitPrice: decimal.NewFromFloat(15.00)},
	)
}

// Add registers or replaces a catalog entry.
func (c *Catalog) Add(service ports.CatalogService) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[service.ID] = service
}

// Lookup resolves a service by ID.
func (c *Catalog) Lookup(_ context.Context, serviceID string) (*ports.CatalogService, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	service, ok := c.services[serviceID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ports.ErrServiceNotFound, serviceID)
	}
	return &service, nil
}

var _ ports.Catalog = (*Catalog)(nil)
