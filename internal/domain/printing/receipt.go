package printing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Receipt is the printable proof of a collection handed to the customer
type Receipt struct {
	CollectionID    uuid.UUID
	Number          string // Short form of the collection id
	CompanyName     string
	CollectedAt     time.Time
	CollectorName   string
	CustomerName    string
	CustomerAddress string
	CustomerCity    string
	Lines           []ReceiptLine
	Total           decimal.Decimal
	PendingBalance  decimal.Decimal // Remaining debt of the customer after this collection
	Delivered       bool
}

// ReceiptLine is one payment application printed on a receipt
type ReceiptLine struct {
	SaleDate         time.Time
	Products         string
	Ordinal          int
	InstallmentCount int
	Amount           decimal.Decimal
	Remaining        decimal.Decimal // Left to pay on the installment
}

// ReceiptNumber derives the printed receipt number from a collection id
func ReceiptNumber(id uuid.UUID) string {
	s := id.String()
	return s[:8]
}
