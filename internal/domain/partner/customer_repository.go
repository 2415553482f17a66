package partner

import (
	"context"
	"time"

	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	// FindByID finds a customer by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	// FindByIDs finds multiple customers by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Customer, error)

	// FindAll finds customers matching the filter with the total count
	FindAll(ctx context.Context, filter CustomerFilter) ([]Customer, int64, error)

	// Save creates or updates a customer
	Save(ctx context.Context, customer *Customer) error

	// SaveWithLock saves a customer with optimistic locking (version check)
	SaveWithLock(ctx context.Context, customer *Customer) error

	// Delete deletes a customer
	Delete(ctx context.Context, id uuid.UUID) error
}

// CustomerFilter contains filter options for querying customers
type CustomerFilter struct {
	shared.Filter
	City string
	// VisibleTo restricts results to customers assigned to the collector
	// or owning at least one sale assigned to the collector
	VisibleTo    *uuid.UUID
	UpdatedAfter *time.Time
}
