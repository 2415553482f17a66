package trade

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleItem is a product line of a sale
type SaleItem struct {
	ID          uuid.UUID
	SaleID      uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Price       decimal.Decimal
}

// Sale is an installment-sale agreement with a customer.
// It owns its installments; the breakdown only changes through RegenerateInstallments.
type Sale struct {
	shared.BaseAggregateRoot
	CustomerID        uuid.UUID
	CollectorID       *uuid.UUID // Sale-level assignment, may differ from the customer's collector
	CreatedBy         uuid.UUID
	Price             decimal.Decimal
	InstallmentAmount decimal.Decimal
	InstallmentCount  int
	SaleDate          time.Time
	Remarks           string
	Uncollectible     bool // Written off, excluded from reconciliation
	Items             []SaleItem
	Installments      []Installment
	// RecordedApplications counts payment applications stored against the
	// installments, including ones later revised to zero. Loaded by the
	// repository.
	RecordedApplications int64
}

// SchemeEntry groups consecutive installments of the same amount
type SchemeEntry struct {
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

// NewSale creates a sale and generates its installment schedule
func NewSale(customerID, createdBy uuid.UUID, price, installmentAmount decimal.Decimal, installmentCount int, saleDate time.Time) (*Sale, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("Customer is required")
	}
	if err := ValidateTerms(price, installmentAmount, installmentCount); err != nil {
		return nil, err
	}
	if saleDate.IsZero() {
		saleDate = time.Now()
	}

	sale := &Sale{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		CreatedBy:         createdBy,
		Price:             price,
		InstallmentAmount: installmentAmount,
		InstallmentCount:  installmentCount,
		SaleDate:          saleDate,
		Items:             make([]SaleItem, 0),
	}
	if err := sale.RegenerateInstallments(); err != nil {
		return nil, err
	}
	return sale, nil
}

// AddItem adds a product line to the sale
func (s *Sale) AddItem(productID uuid.UUID, productName string, price decimal.Decimal) error {
	if productID == uuid.Nil {
		return shared.NewValidationError("Product is required")
	}
	if price.IsNegative() {
		return shared.NewValidationError("Item price cannot be negative")
	}
	if err := checkMoneyScale("Item price", price); err != nil {
		return err
	}
	s.Items = append(s.Items, SaleItem{
		ID:          uuid.New(),
		SaleID:      s.ID,
		ProductID:   productID,
		ProductName: productName,
		Price:       price,
	})
	s.Touch()
	return nil
}

// TermsChanged reports whether the given terms differ from the current ones
func (s *Sale) TermsChanged(price, installmentAmount decimal.Decimal, installmentCount int) bool {
	return !s.Price.Equal(price) ||
		!s.InstallmentAmount.Equal(installmentAmount) ||
		s.InstallmentCount != installmentCount
}

// UpdateTerms changes price and installment terms, regenerating the schedule
// when they differ. Unchanged terms leave the installments untouched.
func (s *Sale) UpdateTerms(price, installmentAmount decimal.Decimal, installmentCount int) (bool, error) {
	if !s.TermsChanged(price, installmentAmount, installmentCount) {
		return false, nil
	}
	if s.HasPayments() {
		return false, shared.ErrInstallmentsHavePayments
	}
	if err := ValidateTerms(price, installmentAmount, installmentCount); err != nil {
		return false, err
	}

	s.Price = price
	s.InstallmentAmount = installmentAmount
	s.InstallmentCount = installmentCount
	if err := s.RegenerateInstallments(); err != nil {
		return false, err
	}
	return true, nil
}

// Edit applies an edit of the sale header and terms as one versioned change.
// It reports whether the installment schedule was regenerated.
func (s *Sale) Edit(remarks string, saleDate time.Time, price, installmentAmount decimal.Decimal, installmentCount int) (bool, error) {
	regenerated, err := s.UpdateTerms(price, installmentAmount, installmentCount)
	if err != nil {
		return false, err
	}
	if err := s.SetRemarks(remarks); err != nil {
		return false, err
	}
	s.SetSaleDate(saleDate)
	s.MarkChanged()
	return regenerated, nil
}

// RegenerateInstallments replaces the installment set with a freshly generated
// schedule. It refuses to run once any payment has been applied, because the
// old installments carry the payment history.
func (s *Sale) RegenerateInstallments() error {
	if s.HasPayments() {
		return shared.ErrInstallmentsHavePayments
	}
	lines, err := GenerateSchedule(s.Price, s.InstallmentAmount, s.InstallmentCount)
	if err != nil {
		return err
	}

	installments := make([]Installment, 0, len(lines))
	for _, line := range lines {
		installments = append(installments, NewInstallment(s.ID, line.Ordinal, line.Amount))
	}
	s.Installments = installments
	s.Touch()
	return nil
}

// SetRemarks sets free-text remarks
func (s *Sale) SetRemarks(remarks string) error {
	remarks = strings.TrimSpace(remarks)
	if len(remarks) > 500 {
		return shared.NewValidationError("Remarks cannot exceed 500 characters")
	}
	s.Remarks = remarks
	s.Touch()
	return nil
}

// SetSaleDate changes the sale date
func (s *Sale) SetSaleDate(date time.Time) {
	if date.IsZero() {
		return
	}
	s.SaleDate = date
	s.Touch()
}

// AssignCollector assigns the sale to a collector; nil removes the sale-level assignment
func (s *Sale) AssignCollector(collectorID *uuid.UUID) {
	s.CollectorID = collectorID
	s.MarkChanged()
}

// SetUncollectible flags or unflags the sale as written off
func (s *Sale) SetUncollectible(uncollectible bool) {
	s.Uncollectible = uncollectible
	s.MarkChanged()
}

// IsAssignedTo returns true if the sale itself is assigned to the collector
func (s *Sale) IsAssignedTo(collectorID uuid.UUID) bool {
	return s.CollectorID != nil && *s.CollectorID == collectorID
}

// HasPayments returns true if any installment has a payment applied or a
// payment application was ever recorded against the sale
func (s *Sale) HasPayments() bool {
	if s.RecordedApplications > 0 {
		return true
	}
	for i := range s.Installments {
		if s.Installments[i].HasPayments() {
			return true
		}
	}
	return false
}

// PaidAmount returns the total paid across all installments
func (s *Sale) PaidAmount() decimal.Decimal {
	total := decimal.Zero
	for i := range s.Installments {
		total = total.Add(s.Installments[i].PaidAmount)
	}
	return total
}

// ScheduledAmount returns the sum of scheduled installment amounts
func (s *Sale) ScheduledAmount() decimal.Decimal {
	total := decimal.Zero
	for i := range s.Installments {
		total = total.Add(s.Installments[i].Amount)
	}
	return total
}

// PendingBalance returns the amount still owed on the sale
func (s *Sale) PendingBalance() decimal.Decimal {
	return s.ScheduledAmount().Sub(s.PaidAmount())
}

// HasPendingBalance returns true while some installment is not fully paid
func (s *Sale) HasPendingBalance() bool {
	return s.PaidInstallments() < len(s.Installments)
}

// PaidInstallments counts fully paid installments
func (s *Sale) PaidInstallments() int {
	count := 0
	for i := range s.Installments {
		if s.Installments[i].IsPaid() {
			count++
		}
	}
	return count
}

// LastPaymentAt returns the latest payment date across installments, or nil if never paid
func (s *Sale) LastPaymentAt() *time.Time {
	var last *time.Time
	for i := range s.Installments {
		at := s.Installments[i].LastPaymentAt
		if at != nil && (last == nil || at.After(*last)) {
			last = at
		}
	}
	return last
}

// Installment returns the installment with the given ID
func (s *Sale) Installment(id uuid.UUID) *Installment {
	for i := range s.Installments {
		if s.Installments[i].ID == id {
			return &s.Installments[i]
		}
	}
	return nil
}

// InstallmentByOrdinal returns the installment at the given ordinal
func (s *Sale) InstallmentByOrdinal(ordinal int) *Installment {
	for i := range s.Installments {
		if s.Installments[i].Ordinal == ordinal {
			return &s.Installments[i]
		}
	}
	return nil
}

// EnsureCollectible returns an error when the installment cannot receive payments
func (s *Sale) EnsureCollectible(installment *Installment) error {
	if s.Uncollectible {
		return shared.NewValidationError(fmt.Sprintf("Sale %s is marked as uncollectible", s.ID))
	}
	if installment.IsPaid() {
		return shared.NewValidationError(fmt.Sprintf(
			"Installment %d of sale %s is already paid", installment.Ordinal, s.ID))
	}
	return nil
}

// Scheme groups consecutive installments with equal amounts, in ordinal order
func (s *Sale) Scheme() []SchemeEntry {
	ordered := make([]Installment, len(s.Installments))
	copy(ordered, s.Installments)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Ordinal < ordered[j].Ordinal })

	scheme := make([]SchemeEntry, 0)
	for _, inst := range ordered {
		if n := len(scheme); n > 0 && scheme[n-1].Amount.Equal(inst.Amount) {
			scheme[n-1].Count++
			continue
		}
		scheme = append(scheme, SchemeEntry{Amount: inst.Amount, Count: 1})
	}
	return scheme
}
