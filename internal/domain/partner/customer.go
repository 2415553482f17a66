package partner

import (
	"strings"

	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Customer represents a buyer on installment plans.
// CollectorID is the field collector responsible for visiting the customer.
type Customer struct {
	shared.BaseAggregateRoot
	Name        string
	Address     string
	City        string
	Telephone   string
	CollectorID *uuid.UUID
}

// NewCustomer creates a new customer with required fields
func NewCustomer(name, address, city string) (*Customer, error) {
	return NewCustomerWithContact(name, address, city, "")
}

// NewCustomerWithContact creates a new customer including a telephone
func NewCustomerWithContact(name, address, city, telephone string) (*Customer, error) {
	customer := &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
	}
	if err := customer.setContact(name, address, city, telephone); err != nil {
		return nil, err
	}
	return customer, nil
}

// Update updates the customer's contact information
func (c *Customer) Update(name, address, city, telephone string) error {
	if err := c.setContact(name, address, city, telephone); err != nil {
		return err
	}
	c.MarkChanged()
	return nil
}

func (c *Customer) setContact(name, address, city, telephone string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewValidationError("Customer name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewValidationError("Customer name cannot exceed 200 characters")
	}
	if len(address) > 255 {
		return shared.NewValidationError("Address cannot exceed 255 characters")
	}
	if len(city) > 100 {
		return shared.NewValidationError("City cannot exceed 100 characters")
	}
	if len(telephone) > 50 {
		return shared.NewValidationError("Telephone cannot exceed 50 characters")
	}

	c.Name = name
	c.Address = strings.TrimSpace(address)
	c.City = strings.TrimSpace(city)
	c.Telephone = strings.TrimSpace(telephone)
	return nil
}

// AssignCollector assigns the customer to a collector; nil unassigns
func (c *Customer) AssignCollector(collectorID *uuid.UUID) {
	c.CollectorID = collectorID
	c.MarkChanged()
}

// IsAssignedTo returns true if the customer is assigned to the given collector
func (c *Customer) IsAssignedTo(collectorID uuid.UUID) bool {
	return c.CollectorID != nil && *c.CollectorID == collectorID
}
