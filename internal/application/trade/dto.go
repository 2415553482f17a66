package trade

import (
	"time"

	"github.com/cobranzas/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateSaleRequest represents a request to create a sale
type CreateSaleRequest struct {
	CustomerID        uuid.UUID             `json:"customer_id" binding:"required"`
	CollectorID       *uuid.UUID            `json:"collector_id"`
	Price             decimal.Decimal       `json:"price" swaggertype:"string" example:"10000"`
	InstallmentAmount decimal.Decimal       `json:"installment_amount" swaggertype:"string" example:"850"`
	InstallmentCount  int                   `json:"installment_count" binding:"required,min=1,max=600"`
	SaleDate          *time.Time            `json:"sale_date"`
	Remarks           string                `json:"remarks" binding:"max=500"`
	Items             []CreateSaleItemInput `json:"items" binding:"dive"`
}

// CreateSaleItemInput is a product line of a new sale.
// A nil Price takes the product's list price.
type CreateSaleItemInput struct {
	ProductID uuid.UUID        `json:"product_id" binding:"required"`
	Price     *decimal.Decimal `json:"price" swaggertype:"string"`
}

// UpdateSaleRequest represents a request to edit a sale. Changing any of the
// terms regenerates the installment schedule, which is refused once payments
// exist. A non-zero Version must match the stored version.
type UpdateSaleRequest struct {
	Price             *decimal.Decimal `json:"price" swaggertype:"string"`
	InstallmentAmount *decimal.Decimal `json:"installment_amount" swaggertype:"string"`
	InstallmentCount  *int             `json:"installment_count" binding:"omitempty,min=1,max=600"`
	SaleDate          *time.Time       `json:"sale_date"`
	Remarks           *string          `json:"remarks" binding:"omitempty,max=500"`
	Version           int              `json:"version" binding:"omitempty,min=1"`
}

// SetUncollectibleRequest flags or unflags a sale as written off
type SetUncollectibleRequest struct {
	Uncollectible *bool `json:"uncollectible" binding:"required"`
}

// AssignCollectorRequest assigns or clears (null) the sale-level collector
type AssignCollectorRequest struct {
	CollectorID *uuid.UUID `json:"collector_id"`
}

// SaleListFilter represents filter options for the sale list
type SaleListFilter struct {
	CustomerID    *uuid.UUID `form:"-"`
	CollectorID   *uuid.UUID `form:"-"`
	Uncollectible *bool      `form:"uncollectible"`
	PendingOnly   bool       `form:"pending_only"`
	Page          int        `form:"page" binding:"omitempty,min=1"`
	PageSize      int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy       string     `form:"order_by"`
	OrderDir      string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// SaleItemResponse represents a product line in API responses
type SaleItemResponse struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price" swaggertype:"string"`
}

// InstallmentResponse represents an installment in API responses
type InstallmentResponse struct {
	ID            uuid.UUID       `json:"id"`
	Ordinal       int             `json:"ordinal"`
	Amount        decimal.Decimal `json:"amount" swaggertype:"string"`
	PaidAmount    decimal.Decimal `json:"paid_amount" swaggertype:"string"`
	Remaining     decimal.Decimal `json:"remaining" swaggertype:"string"`
	Status        string          `json:"status"`
	LastPaymentAt *time.Time      `json:"last_payment_at,omitempty"`
}

// SaleResponse represents a sale in API responses
type SaleResponse struct {
	ID                uuid.UUID             `json:"id"`
	CustomerID        uuid.UUID             `json:"customer_id"`
	CollectorID       *uuid.UUID            `json:"collector_id,omitempty"`
	CreatedBy         uuid.UUID             `json:"created_by"`
	Price             decimal.Decimal       `json:"price" swaggertype:"string"`
	InstallmentAmount decimal.Decimal       `json:"installment_amount" swaggertype:"string"`
	InstallmentCount  int                   `json:"installment_count"`
	SaleDate          time.Time             `json:"sale_date"`
	Remarks           string                `json:"remarks"`
	Uncollectible     bool                  `json:"uncollectible"`
	PaidAmount        decimal.Decimal       `json:"paid_amount" swaggertype:"string"`
	PendingBalance    decimal.Decimal       `json:"pending_balance" swaggertype:"string"`
	PaidInstallments  int                   `json:"paid_installments"`
	LastPaymentAt     *time.Time            `json:"last_payment_at,omitempty"`
	Items             []SaleItemResponse    `json:"items"`
	Installments      []InstallmentResponse `json:"installments"`
	Version           int                   `json:"version"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// SaleListItemResponse is the compact sale representation used in lists
type SaleListItemResponse struct {
	ID               uuid.UUID       `json:"id"`
	CustomerID       uuid.UUID       `json:"customer_id"`
	CollectorID      *uuid.UUID      `json:"collector_id,omitempty"`
	Price            decimal.Decimal `json:"price" swaggertype:"string"`
	SaleDate         time.Time       `json:"sale_date"`
	Uncollectible    bool            `json:"uncollectible"`
	PendingBalance   decimal.Decimal `json:"pending_balance" swaggertype:"string"`
	PaidInstallments int             `json:"paid_installments"`
	InstallmentCount int             `json:"installment_count"`
}

// ToInstallmentResponse converts a domain Installment to InstallmentResponse
func ToInstallmentResponse(i *trade.Installment) InstallmentResponse {
	return InstallmentResponse{
		ID:            i.ID,
		Ordinal:       i.Ordinal,
		Amount:        i.Amount,
		PaidAmount:    i.PaidAmount,
		Remaining:     i.RemainingAmount(),
		Status:        i.Status.String(),
		LastPaymentAt: i.LastPaymentAt,
	}
}

// ToSaleResponse converts a domain Sale to SaleResponse
func ToSaleResponse(s *trade.Sale) SaleResponse {
	items := make([]SaleItemResponse, len(s.Items))
	for i, item := range s.Items {
		items[i] = SaleItemResponse{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Price:       item.Price,
		}
	}
	installments := make([]InstallmentResponse, len(s.Installments))
	for i := range s.Installments {
		installments[i] = ToInstallmentResponse(&s.Installments[i])
	}

	return SaleResponse{
		ID:                s.ID,
		CustomerID:        s.CustomerID,
		CollectorID:       s.CollectorID,
		CreatedBy:         s.CreatedBy,
		Price:             s.Price,
		InstallmentAmount: s.InstallmentAmount,
		InstallmentCount:  s.InstallmentCount,
		SaleDate:          s.SaleDate,
		Remarks:           s.Remarks,
		Uncollectible:     s.Uncollectible,
		PaidAmount:        s.PaidAmount(),
		PendingBalance:    s.PendingBalance(),
		PaidInstallments:  s.PaidInstallments(),
		LastPaymentAt:     s.LastPaymentAt(),
		Items:             items,
		Installments:      installments,
		Version:           s.Version,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

// ToSaleListItemResponse converts a domain Sale to its list representation
func ToSaleListItemResponse(s *trade.Sale) SaleListItemResponse {
	return SaleListItemResponse{
		ID:               s.ID,
		CustomerID:       s.CustomerID,
		CollectorID:      s.CollectorID,
		Price:            s.Price,
		SaleDate:         s.SaleDate,
		Uncollectible:    s.Uncollectible,
		PendingBalance:   s.PendingBalance(),
		PaidInstallments: s.PaidInstallments(),
		InstallmentCount: len(s.Installments),
	}
}
