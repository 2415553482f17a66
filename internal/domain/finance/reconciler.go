package finance

import (
	"fmt"
	"time"

	"github.com/cobranzas/backend/internal/domain/identity"
	"github.com/cobranzas/backend/internal/domain/partner"
	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/cobranzas/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentLine is one (installment, amount) pair submitted in a collection batch.
// Lines with a zero amount are unchecked rows and are ignored.
type PaymentLine struct {
	InstallmentID uuid.UUID
	Amount        decimal.Decimal
}

// Reconciler is a domain service that turns a batch of payment lines into a
// Collection. It checks authorization for every line before touching any
// installment, then applies each line through the installment's invariant
// check. Any failure rejects the whole batch.
type Reconciler struct{}

// NewReconciler creates a new reconciler
func NewReconciler() *Reconciler {
	return &Reconciler{}
}

type lineTarget struct {
	sale        *trade.Sale
	installment *trade.Installment
}

// BuildCollection validates and applies lines against the customer's sales.
// The sales' installments are updated in place and only reflect a consistent
// state when no error is returned.
func (r *Reconciler) BuildCollection(actor identity.Actor, customer *partner.Customer, sales []*trade.Sale, lines []PaymentLine, collectedAt time.Time) (*Collection, error) {
	targets := make(map[uuid.UUID]lineTarget)
	for _, sale := range sales {
		for i := range sale.Installments {
			targets[sale.Installments[i].ID] = lineTarget{sale: sale, installment: &sale.Installments[i]}
		}
	}

	resolved := make([]lineTarget, len(lines))
	for i, line := range lines {
		target, ok := targets[line.InstallmentID]
		if !ok {
			return nil, shared.NewNotFoundError(fmt.Sprintf("Installment %s not found", line.InstallmentID))
		}
		if err := AuthorizeReconcile(actor, customer, target.sale); err != nil {
			return nil, err
		}
		if line.Amount.IsNegative() {
			return nil, shared.NewValidationError(fmt.Sprintf(
				"Amount for installment %d cannot be negative", target.installment.Ordinal))
		}
		resolved[i] = target
	}

	collection, err := NewCollection(actor.UserID, customer.ID, collectedAt)
	if err != nil {
		return nil, err
	}
	for i, line := range lines {
		if line.Amount.IsZero() {
			continue
		}
		if err := collection.AddApplication(resolved[i].sale, resolved[i].installment, line.Amount); err != nil {
			return nil, err
		}
	}
	if err := collection.Validate(); err != nil {
		return nil, err
	}
	return collection, nil
}

// ReviseApplication corrects a recorded application's amount. Only an
// administrator or the collector who recorded the collection may do so.
func (r *Reconciler) ReviseApplication(actor identity.Actor, collection *Collection, applicationID uuid.UUID, newAmount decimal.Decimal, sale *trade.Sale) (decimal.Decimal, error) {
	if !CanViewCollection(actor, collection.CollectorID) {
		return decimal.Zero, shared.NewPermissionError("Not allowed to revise this collection")
	}
	app := collection.Application(applicationID)
	if app == nil {
		return decimal.Zero, shared.NewNotFoundError("Payment application not found")
	}
	installment := sale.Installment(app.InstallmentID)
	if installment == nil {
		return decimal.Zero, shared.NewNotFoundError("Installment not found")
	}
	return collection.ReviseApplication(applicationID, newAmount, installment)
}
