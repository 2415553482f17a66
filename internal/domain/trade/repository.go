package trade

import (
	"context"
	"time"

	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleRepository defines the interface for sale persistence
type SaleRepository interface {
	// FindByID finds a sale by ID with its items and installments
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)

	// FindByIDs finds sales by IDs with their installments
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Sale, error)

	// FindAll finds sales matching the filter with the total count
	FindAll(ctx context.Context, filter SaleFilter) ([]Sale, int64, error)

	// FindByCustomer finds all sales of a customer with their installments
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]Sale, error)

	// Create inserts a new sale together with its items and installments
	Create(ctx context.Context, sale *Sale) error

	// SaveWithLock updates sale attributes with optimistic locking (version check)
	SaveWithLock(ctx context.Context, sale *Sale) error

	// ReplaceInstallments deletes the sale's installments and inserts the current set
	ReplaceInstallments(ctx context.Context, sale *Sale) error

	// Delete deletes a sale with its items and installments
	Delete(ctx context.Context, id uuid.UUID) error

	// CountByCustomer counts sales of a customer
	CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)
}

// InstallmentRepository defines persistence for installment payment state
type InstallmentRepository interface {
	// FindByIDs finds installments by IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Installment, error)

	// FindByID finds an installment by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Installment, error)

	// IncrementPaid atomically adds amount to the paid amount in the database.
	// Returns an overpayment error if the increment would exceed the scheduled amount.
	IncrementPaid(ctx context.Context, id uuid.UUID, amount decimal.Decimal, paidAt time.Time) error

	// AdjustPaid atomically adds delta (which may be negative) to the paid amount,
	// keeping it within [0, scheduled].
	AdjustPaid(ctx context.Context, id uuid.UUID, delta decimal.Decimal, paidAt time.Time) error
}

// SaleFilter contains filter options for querying sales
type SaleFilter struct {
	shared.Filter
	CustomerID    *uuid.UUID
	CollectorID   *uuid.UUID // Sale-level assignment
	Uncollectible *bool
	PendingOnly   bool
	// VisibleTo restricts results to sales assigned to the collector
	// or belonging to customers assigned to the collector
	VisibleTo    *uuid.UUID
	UpdatedAfter *time.Time
}
