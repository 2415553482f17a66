package trade

import (
	"fmt"
	"time"

	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InstallmentStatus represents the payment status of an installment
type InstallmentStatus string

const (
	InstallmentStatusPending InstallmentStatus = "PENDING" // Nothing paid
	InstallmentStatusPartial InstallmentStatus = "PARTIAL" // 0 < paid < scheduled
	InstallmentStatusPaid    InstallmentStatus = "PAID"    // paid == scheduled
)

// IsValid checks if the status is a valid InstallmentStatus
func (s InstallmentStatus) IsValid() bool {
	switch s {
	case InstallmentStatusPending, InstallmentStatusPartial, InstallmentStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of InstallmentStatus
func (s InstallmentStatus) String() string {
	return string(s)
}

// Installment is one scheduled payment obligation of a Sale
type Installment struct {
	ID            uuid.UUID
	SaleID        uuid.UUID
	Ordinal       int             // 1-based, unique within the sale
	Amount        decimal.Decimal // Scheduled amount
	PaidAmount    decimal.Decimal // Cumulative amount applied so far
	Status        InstallmentStatus
	LastPaymentAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewInstallment creates an unpaid installment
func NewInstallment(saleID uuid.UUID, ordinal int, amount decimal.Decimal) Installment {
	now := time.Now()
	return Installment{
		ID:         uuid.New(),
		SaleID:     saleID,
		Ordinal:    ordinal,
		Amount:     amount,
		PaidAmount: decimal.Zero,
		Status:     InstallmentStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// ApplyPayment records a new payment against the installment.
// Rejects non-positive amounts and amounts that would exceed the scheduled amount.
func (i *Installment) ApplyPayment(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewValidationError("Payment amount must be greater than zero")
	}
	if err := checkMoneyScale("Payment amount", amount); err != nil {
		return err
	}
	return i.setPaidAmount(i.PaidAmount.Add(amount))
}

// RevisePayment replaces a previously applied amount with a corrected one.
// The installment is left unchanged when the result falls outside [0, scheduled].
func (i *Installment) RevisePayment(oldAmount, newAmount decimal.Decimal) error {
	if oldAmount.IsNegative() || newAmount.IsNegative() {
		return shared.NewValidationError("Payment amounts cannot be negative")
	}
	if err := checkMoneyScale("Payment amount", newAmount); err != nil {
		return err
	}
	return i.setPaidAmount(i.PaidAmount.Sub(oldAmount).Add(newAmount))
}

func (i *Installment) setPaidAmount(paid decimal.Decimal) error {
	if err := checkPaidAmount(i.Ordinal, i.Amount, paid); err != nil {
		return err
	}
	now := time.Now()
	i.PaidAmount = paid
	i.Status = StatusForPaidAmount(i.Amount, paid)
	i.LastPaymentAt = &now
	i.UpdatedAt = now
	return nil
}

// checkPaidAmount is the single invariant check for both the record and the revise paths
func checkPaidAmount(ordinal int, scheduled, paid decimal.Decimal) error {
	if paid.IsNegative() {
		return shared.NewValidationError(fmt.Sprintf(
			"Installment %d paid amount cannot be negative (resulting %s)", ordinal, paid.String()))
	}
	if paid.GreaterThan(scheduled) {
		return shared.NewOverpaymentError(fmt.Sprintf(
			"Installment %d paid amount %s would exceed scheduled amount %s", ordinal, paid.String(), scheduled.String()))
	}
	return nil
}

// StatusForPaidAmount derives the status from the scheduled and paid amounts
func StatusForPaidAmount(scheduled, paid decimal.Decimal) InstallmentStatus {
	switch {
	case paid.IsZero():
		return InstallmentStatusPending
	case paid.GreaterThanOrEqual(scheduled):
		return InstallmentStatusPaid
	default:
		return InstallmentStatusPartial
	}
}

// RemainingAmount returns the amount still owed on the installment
func (i *Installment) RemainingAmount() decimal.Decimal {
	return i.Amount.Sub(i.PaidAmount)
}

// IsPaid returns true if the installment is fully paid
func (i *Installment) IsPaid() bool {
	return i.Status == InstallmentStatusPaid
}

// HasPayments returns true if any amount has been applied
func (i *Installment) HasPayments() bool {
	return i.PaidAmount.IsPositive()
}
