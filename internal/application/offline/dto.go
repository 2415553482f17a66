package offline

import (
	"time"

	financeapp "github.com/cobranzas/backend/internal/application/finance"
	"github.com/cobranzas/backend/internal/domain/partner"
	"github.com/cobranzas/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SnapshotQuery selects a full snapshot, or only the changes after Since
type SnapshotQuery struct {
	Since *time.Time `form:"since" time_format:"2006-01-02T15:04:05.999999999Z07:00"`
}

// SnapshotCustomer is the offline copy of a customer
type SnapshotCustomer struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Telephone string    `json:"telephone"`
	City      string    `json:"city"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SnapshotInstallment is the offline copy of an installment
type SnapshotInstallment struct {
	ID         uuid.UUID               `json:"id"`
	Ordinal    int                     `json:"ordinal"`
	Amount     decimal.Decimal         `json:"amount" swaggertype:"string"`
	PaidAmount decimal.Decimal         `json:"paid_amount" swaggertype:"string"`
	Remaining  decimal.Decimal         `json:"remaining" swaggertype:"string"`
	Status     trade.InstallmentStatus `json:"status"`
}

// SnapshotSale is the offline copy of a sale with its schedule
type SnapshotSale struct {
	ID                uuid.UUID             `json:"id"`
	CustomerID        uuid.UUID             `json:"customer_id"`
	Price             decimal.Decimal       `json:"price" swaggertype:"string"`
	InstallmentAmount decimal.Decimal       `json:"installment_amount" swaggertype:"string"`
	InstallmentCount  int                   `json:"installment_count"`
	SaleDate          time.Time             `json:"sale_date"`
	Remarks           string                `json:"remarks"`
	Products          []string              `json:"products"`
	Paid              decimal.Decimal       `json:"paid" swaggertype:"string"`
	Pending           decimal.Decimal       `json:"pending" swaggertype:"string"`
	Uncollectible     bool                  `json:"uncollectible"`
	Installments      []SnapshotInstallment `json:"installments"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// SnapshotResponse is what an offline client stores locally. SyncMarker is
// passed back as since on the next pull.
type SnapshotResponse struct {
	SyncMarker  *time.Time         `json:"sync_marker"`
	Since       *time.Time         `json:"since,omitempty"`
	GeneratedAt time.Time          `json:"generated_at"`
	Customers   []SnapshotCustomer `json:"customers"`
	Sales       []SnapshotSale     `json:"sales"`
}

// SyncMarkerResponse tells a client whether its copy is stale
type SyncMarkerResponse struct {
	SyncMarker   *time.Time `json:"sync_marker"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
}

// WriteBackResponse is the outcome of an offline write-back. Duplicate is
// true when the key was already applied and Collection is the original.
type WriteBackResponse struct {
	Collection *financeapp.CollectionResponse `json:"collection"`
	Duplicate  bool                           `json:"duplicate"`
}

func toSnapshotCustomer(c *partner.Customer) SnapshotCustomer {
	return SnapshotCustomer{
		ID:        c.ID,
		Name:      c.Name,
		Address:   c.Address,
		Telephone: c.Telephone,
		City:      c.City,
		UpdatedAt: c.UpdatedAt,
	}
}

func toSnapshotSale(s *trade.Sale) SnapshotSale {
	products := make([]string, 0, len(s.Items))
	for _, item := range s.Items {
		products = append(products, item.ProductName)
	}
	installments := make([]SnapshotInstallment, 0, len(s.Installments))
	for i := range s.Installments {
		inst := &s.Installments[i]
		installments = append(installments, SnapshotInstallment{
			ID:         inst.ID,
			Ordinal:    inst.Ordinal,
			Amount:     inst.Amount,
			PaidAmount: inst.PaidAmount,
			Remaining:  inst.RemainingAmount(),
			Status:     inst.Status,
		})
	}
	return SnapshotSale{
		ID:                s.ID,
		CustomerID:        s.CustomerID,
		Price:             s.Price,
		InstallmentAmount: s.InstallmentAmount,
		InstallmentCount:  s.InstallmentCount,
		SaleDate:          s.SaleDate,
		Remarks:           s.Remarks,
		Products:          products,
		Paid:              s.PaidAmount(),
		Pending:           s.PendingBalance(),
		Uncollectible:     s.Uncollectible,
		Installments:      installments,
		UpdatedAt:         s.UpdatedAt,
	}
}
