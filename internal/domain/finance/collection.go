package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/cobranzas/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentApplication is the portion of a collection applied to one installment
type PaymentApplication struct {
	ID            uuid.UUID
	CollectionID  uuid.UUID
	InstallmentID uuid.UUID
	SaleID        uuid.UUID
	Ordinal       int // Installment ordinal, denormalized for receipts
	Amount        decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Collection is one visit in which a collector received money from a customer
type Collection struct {
	shared.BaseAggregateRoot
	CollectorID     uuid.UUID
	CustomerID      uuid.UUID
	CollectedAt     time.Time
	Delivered       bool // Cash handed over to the office
	DeliveredAt     *time.Time
	ClientReference string // Idempotency key supplied by offline clients
	Applications    []PaymentApplication
}

// NewCollection creates an empty collection for a customer visit
func NewCollection(collectorID, customerID uuid.UUID, collectedAt time.Time) (*Collection, error) {
	if collectorID == uuid.Nil {
		return nil, shared.NewValidationError("Collector is required")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("Customer is required")
	}
	if collectedAt.IsZero() {
		collectedAt = time.Now()
	}
	return &Collection{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CollectorID:       collectorID,
		CustomerID:        customerID,
		CollectedAt:       collectedAt,
		Applications:      make([]PaymentApplication, 0),
	}, nil
}

// SetClientReference sets the offline idempotency key
func (c *Collection) SetClientReference(ref string) error {
	ref = strings.TrimSpace(ref)
	if len(ref) > 100 {
		return shared.NewValidationError("Client reference cannot exceed 100 characters")
	}
	c.ClientReference = ref
	return nil
}

// AddApplication applies amount to an installment of sale and records the application.
// The installment is updated in place; an error leaves it untouched.
func (c *Collection) AddApplication(sale *trade.Sale, installment *trade.Installment, amount decimal.Decimal) error {
	if installment.SaleID != sale.ID {
		return shared.NewValidationError(fmt.Sprintf("Installment %s does not belong to sale %s", installment.ID, sale.ID))
	}
	if sale.CustomerID != c.CustomerID {
		return shared.NewPermissionError(fmt.Sprintf("Sale %s does not belong to the selected customer", sale.ID))
	}
	for _, existing := range c.Applications {
		if existing.InstallmentID == installment.ID {
			return shared.NewValidationError(fmt.Sprintf(
				"Installment %d of sale %s is already included in this collection", installment.Ordinal, sale.ID))
		}
	}
	if err := sale.EnsureCollectible(installment); err != nil {
		return err
	}
	if err := installment.ApplyPayment(amount); err != nil {
		return err
	}

	now := time.Now()
	c.Applications = append(c.Applications, PaymentApplication{
		ID:            uuid.New(),
		CollectionID:  c.ID,
		InstallmentID: installment.ID,
		SaleID:        sale.ID,
		Ordinal:       installment.Ordinal,
		Amount:        amount,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	c.Touch()
	return nil
}

// TotalAmount returns the sum of all applications
func (c *Collection) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, app := range c.Applications {
		total = total.Add(app.Amount)
	}
	return total
}

// Validate checks the collection can be recorded
func (c *Collection) Validate() error {
	if !c.TotalAmount().IsPositive() {
		return shared.NewValidationError("Total paid must be greater than zero")
	}
	return nil
}

// Application returns the application with the given ID
func (c *Collection) Application(id uuid.UUID) *PaymentApplication {
	for i := range c.Applications {
		if c.Applications[i].ID == id {
			return &c.Applications[i]
		}
	}
	return nil
}

// ReviseApplication corrects the amount of a recorded application and
// re-derives the installment state. Returns the previous amount.
func (c *Collection) ReviseApplication(applicationID uuid.UUID, newAmount decimal.Decimal, installment *trade.Installment) (decimal.Decimal, error) {
	app := c.Application(applicationID)
	if app == nil {
		return decimal.Zero, shared.NewNotFoundError("Payment application not found")
	}
	if app.InstallmentID != installment.ID {
		return decimal.Zero, shared.NewValidationError("Installment does not match the payment application")
	}

	oldAmount := app.Amount
	if err := installment.RevisePayment(oldAmount, newAmount); err != nil {
		return decimal.Zero, err
	}
	app.Amount = newAmount
	app.UpdatedAt = time.Now()
	c.MarkChanged()
	return oldAmount, nil
}

// MarkDelivered records that the collected cash was handed over
func (c *Collection) MarkDelivered(at time.Time) error {
	if c.Delivered {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Collection %s is already delivered", c.ID))
	}
	c.Delivered = true
	c.DeliveredAt = &at
	c.MarkChanged()
	return nil
}
