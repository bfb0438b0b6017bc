package ports

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrServiceNotFound = errors.New("catalog service not found")

// CatalogService is one fixed-price entry in the external service catalog.
type CatalogService struct {
	ID        string
	Name      string
	UnitPrice decimal.Decimal
}

// Catalog looks up fixed-price services. The catalog itself is owned by a
// collaborator; the coordinator only validates line items against it and
// fills in prices the client omitted.
type Catalog interface {
	Lookup(ctx context.Context, serviceID string) (*CatalogService, error)
}
