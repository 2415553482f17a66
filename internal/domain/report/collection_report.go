package report

import (
	"sort"
	"time"

	"github.com/cobranzas/backend/internal/domain/finance"
	"github.com/cobranzas/backend/internal/domain/partner"
	"github.com/cobranzas/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultAfterDays is the default number of days without payment after which
// a sale with a pending balance is reported as in default
const DefaultAfterDays = 30

// PendingBalanceRow is a read model for one sale with money still owed
type PendingBalanceRow struct {
	SaleID            uuid.UUID       `json:"sale_id"`
	CustomerID        uuid.UUID       `json:"customer_id"`
	CustomerName      string          `json:"customer_name"`
	City              string          `json:"city"`
	CollectorID       *uuid.UUID      `json:"collector_id,omitempty"`
	SaleDate          time.Time       `json:"sale_date"`
	Price             decimal.Decimal `json:"price"`
	Paid              decimal.Decimal `json:"paid"`
	Pending           decimal.Decimal `json:"pending"`
	InstallmentsPaid  int             `json:"installments_paid"`
	InstallmentsTotal int             `json:"installments_total"`
	LastPaymentAt     *time.Time      `json:"last_payment_at,omitempty"`
}

// DefaulterRow is a pending sale whose last payment is older than the threshold
type DefaulterRow struct {
	PendingBalanceRow
	DaysWithoutPayment int `json:"days_without_payment"`
}

// DeliveryRow summarizes delivered collections of one collector
type DeliveryRow struct {
	CollectorID   uuid.UUID       `json:"collector_id"`
	CollectorName string          `json:"collector_name"`
	Collections   int             `json:"collections"`
	Total         decimal.Decimal `json:"total"`
}

// DeliveryManifest lists delivered collections per collector in a period
type DeliveryManifest struct {
	From  time.Time       `json:"from"`
	To    time.Time       `json:"to"`
	Rows  []DeliveryRow   `json:"rows"`
	Total decimal.Decimal `json:"total"`
}

// NewPendingBalanceRow builds the pending balance read model of a sale.
// The effective collector is the sale's own assignment, falling back to the customer's.
func NewPendingBalanceRow(sale *trade.Sale, customer *partner.Customer) PendingBalanceRow {
	row := PendingBalanceRow{
		SaleID:            sale.ID,
		CustomerID:        sale.CustomerID,
		CollectorID:       sale.CollectorID,
		SaleDate:          sale.SaleDate,
		Price:             sale.Price,
		Paid:              sale.PaidAmount(),
		Pending:           sale.PendingBalance(),
		InstallmentsPaid:  sale.PaidInstallments(),
		InstallmentsTotal: len(sale.Installments),
		LastPaymentAt:     sale.LastPaymentAt(),
	}
	if customer != nil {
		row.CustomerName = customer.Name
		row.City = customer.City
		if row.CollectorID == nil {
			row.CollectorID = customer.CollectorID
		}
	}
	return row
}

// DaysWithoutPayment returns the whole days elapsed since the last payment,
// or since the sale date when nothing was paid yet
func (r PendingBalanceRow) DaysWithoutPayment(asOf time.Time) int {
	since := r.SaleDate
	if r.LastPaymentAt != nil {
		since = *r.LastPaymentAt
	}
	if asOf.Before(since) {
		return 0
	}
	return int(asOf.Sub(since).Hours() / 24)
}

// FilterDefaulters keeps the rows with no payment for more than days,
// most overdue first
func FilterDefaulters(rows []PendingBalanceRow, asOf time.Time, days int) []DefaulterRow {
	if days < 0 {
		days = 0
	}
	result := make([]DefaulterRow, 0)
	for _, row := range rows {
		if !row.Pending.IsPositive() {
			continue
		}
		elapsed := row.DaysWithoutPayment(asOf)
		if elapsed > days {
			result = append(result, DefaulterRow{PendingBalanceRow: row, DaysWithoutPayment: elapsed})
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].DaysWithoutPayment > result[j].DaysWithoutPayment
	})
	return result
}

// BuildDeliveryManifest groups delivered collections by collector.
// names maps collector IDs to display names.
func BuildDeliveryManifest(from, to time.Time, collections []finance.Collection, names map[uuid.UUID]string) DeliveryManifest {
	byCollector := make(map[uuid.UUID]*DeliveryRow)
	order := make([]uuid.UUID, 0)
	total := decimal.Zero

	for i := range collections {
		c := &collections[i]
		if !c.Delivered {
			continue
		}
		row, ok := byCollector[c.CollectorID]
		if !ok {
			row = &DeliveryRow{CollectorID: c.CollectorID, CollectorName: names[c.CollectorID], Total: decimal.Zero}
			byCollector[c.CollectorID] = row
			order = append(order, c.CollectorID)
		}
		amount := c.TotalAmount()
		row.Collections++
		row.Total = row.Total.Add(amount)
		total = total.Add(amount)
	}

	rows := make([]DeliveryRow, 0, len(order))
	for _, id := range order {
		rows = append(rows, *byCollector[id])
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CollectorName < rows[j].CollectorName
	})

	return DeliveryManifest{From: from, To: to, Rows: rows, Total: total}
}
