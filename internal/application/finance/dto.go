package finance

import (
	"time"

	"github.com/cobranzas/backend/internal/domain/finance"
	"github.com/cobranzas/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecordCollectionRequest represents one customer visit with the amounts
// collected per installment. Lines with a zero amount are ignored.
type RecordCollectionRequest struct {
	CustomerID  uuid.UUID          `json:"customer_id" binding:"required"`
	CollectedAt *time.Time         `json:"collected_at"`
	Lines       []PaymentLineInput `json:"lines" binding:"required,min=1,dive"`
}

// PaymentLineInput is the amount applied to one installment
type PaymentLineInput struct {
	InstallmentID uuid.UUID       `json:"installment_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount" swaggertype:"string" example:"500"`
}

// ReviseApplicationRequest corrects the amount of a recorded application
type ReviseApplicationRequest struct {
	Amount decimal.Decimal `json:"amount" swaggertype:"string" example:"0"`
}

// DeliverCollectionsRequest marks collections as handed over to the office
type DeliverCollectionsRequest struct {
	CollectionIDs []uuid.UUID `json:"collection_ids" binding:"required,min=1,max=500"`
}

// CollectionListFilter represents filter options for the collection list.
// Without customer or dates the list defaults to today's collections.
type CollectionListFilter struct {
	CustomerID  *uuid.UUID `form:"-"`
	CollectorID *uuid.UUID `form:"-"`
	DateFrom    *time.Time `form:"date_from" time_format:"2006-01-02"`
	DateTo      *time.Time `form:"date_to" time_format:"2006-01-02"`
	Delivered   *bool      `form:"delivered"`
	Page        int        `form:"page" binding:"omitempty,min=1"`
	PageSize    int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// PaymentApplicationResponse represents an application in API responses
type PaymentApplicationResponse struct {
	ID            uuid.UUID       `json:"id"`
	InstallmentID uuid.UUID       `json:"installment_id"`
	SaleID        uuid.UUID       `json:"sale_id"`
	Ordinal       int             `json:"ordinal"`
	Amount        decimal.Decimal `json:"amount" swaggertype:"string"`
}

// CollectionResponse represents a collection in API responses
type CollectionResponse struct {
	ID              uuid.UUID                    `json:"id"`
	CollectorID     uuid.UUID                    `json:"collector_id"`
	CustomerID      uuid.UUID                    `json:"customer_id"`
	CollectedAt     time.Time                    `json:"collected_at"`
	Delivered       bool                         `json:"delivered"`
	DeliveredAt     *time.Time                   `json:"delivered_at,omitempty"`
	ClientReference string                       `json:"client_reference,omitempty"`
	Total           decimal.Decimal              `json:"total" swaggertype:"string"`
	Applications    []PaymentApplicationResponse `json:"applications"`
	Version         int                          `json:"version"`
	CreatedAt       time.Time                    `json:"created_at"`
	UpdatedAt       time.Time                    `json:"updated_at"`
}

// DeliveryResponse summarizes a delivery of collected cash
type DeliveryResponse struct {
	Collections []uuid.UUID     `json:"collections"`
	Total       decimal.Decimal `json:"total" swaggertype:"string"`
	DeliveredAt time.Time       `json:"delivered_at"`
}

// IntakeInstallment is an installment offered on the collection form
type IntakeInstallment struct {
	ID         uuid.UUID       `json:"id"`
	Ordinal    int             `json:"ordinal"`
	Amount     decimal.Decimal `json:"amount" swaggertype:"string"`
	PaidAmount decimal.Decimal `json:"paid_amount" swaggertype:"string"`
	Remaining  decimal.Decimal `json:"remaining" swaggertype:"string"`
	Status     string          `json:"status"`
}

// IntakeSale groups a sale's open installments for the collection form:
// partially paid ones, the next pending one, and the pending ones after it
type IntakeSale struct {
	SaleID         uuid.UUID           `json:"sale_id"`
	SaleDate       time.Time           `json:"sale_date"`
	Remarks        string              `json:"remarks"`
	Price          decimal.Decimal     `json:"price" swaggertype:"string"`
	PendingBalance decimal.Decimal     `json:"pending_balance" swaggertype:"string"`
	Partial        []IntakeInstallment `json:"partial"`
	Next           *IntakeInstallment  `json:"next,omitempty"`
	Pending        []IntakeInstallment `json:"pending"`
}

// IntakeResponse is the collection form of one customer
type IntakeResponse struct {
	CustomerID   uuid.UUID       `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	Address      string          `json:"address"`
	Telephone    string          `json:"telephone"`
	TotalPending decimal.Decimal `json:"total_pending" swaggertype:"string"`
	Sales        []IntakeSale    `json:"sales"`
}

// ToCollectionResponse converts a domain Collection to CollectionResponse
func ToCollectionResponse(c *finance.Collection) CollectionResponse {
	apps := make([]PaymentApplicationResponse, len(c.Applications))
	for i, app := range c.Applications {
		apps[i] = PaymentApplicationResponse{
			ID:            app.ID,
			InstallmentID: app.InstallmentID,
			SaleID:        app.SaleID,
			Ordinal:       app.Ordinal,
			Amount:        app.Amount,
		}
	}
	return CollectionResponse{
		ID:              c.ID,
		CollectorID:     c.CollectorID,
		CustomerID:      c.CustomerID,
		CollectedAt:     c.CollectedAt,
		Delivered:       c.Delivered,
		DeliveredAt:     c.DeliveredAt,
		ClientReference: c.ClientReference,
		Total:           c.TotalAmount(),
		Applications:    apps,
		Version:         c.Version,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func toIntakeInstallment(i *trade.Installment) IntakeInstallment {
	return IntakeInstallment{
		ID:         i.ID,
		Ordinal:    i.Ordinal,
		Amount:     i.Amount,
		PaidAmount: i.PaidAmount,
		Remaining:  i.RemainingAmount(),
		Status:     i.Status.String(),
	}
}
