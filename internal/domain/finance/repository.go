package finance

import (
	"context"
	"time"

	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CollectionRepository defines the interface for collection persistence
type CollectionRepository interface {
	// FindByID finds a collection by ID with its applications
	FindByID(ctx context.Context, id uuid.UUID) (*Collection, error)

	// FindByIDs finds collections by IDs with their applications
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Collection, error)

	// FindByApplicationID finds the collection owning a payment application
	FindByApplicationID(ctx context.Context, applicationID uuid.UUID) (*Collection, error)

	// FindByClientReference finds a collection by its offline idempotency key
	FindByClientReference(ctx context.Context, ref string) (*Collection, error)

	// FindAll finds collections matching the filter with the total count
	FindAll(ctx context.Context, filter CollectionFilter) ([]Collection, int64, error)

	// Create inserts a collection together with its applications
	Create(ctx context.Context, collection *Collection) error

	// UpdateApplicationAmount stores a corrected application amount and bumps the collection
	UpdateApplicationAmount(ctx context.Context, collectionID, applicationID uuid.UUID, amount decimal.Decimal) error

	// SaveDelivery marks the collection delivered and stores the delivery record
	SaveDelivery(ctx context.Context, collection *Collection, delivery *CollectionDelivery) error
}

// SyncLogRepository stores offline sync pulls
type SyncLogRepository interface {
	// Save stores a sync log entry
	Save(ctx context.Context, log *SyncLog) error

	// FindLatestByUser returns the most recent sync of a user
	FindLatestByUser(ctx context.Context, userID uuid.UUID) (*SyncLog, error)
}

// CollectionFilter contains filter options for querying collections
type CollectionFilter struct {
	shared.Filter
	CustomerID   *uuid.UUID
	CollectorID  *uuid.UUID
	DateFrom     *time.Time
	DateTo       *time.Time
	Delivered    *bool
	UpdatedAfter *time.Time
}
