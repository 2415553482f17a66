package partner

import (
	"time"

	"github.com/cobranzas/backend/internal/domain/partner"
	"github.com/google/uuid"
)

// CreateCustomerRequest represents a request to create a new customer
type CreateCustomerRequest struct {
	Name        string     `json:"name" binding:"required,min=1,max=200"`
	Address     string     `json:"address" binding:"max=255"`
	City        string     `json:"city" binding:"max=100"`
	Telephone   string     `json:"telephone" binding:"max=50"`
	CollectorID *uuid.UUID `json:"collector_id"`
}

// UpdateCustomerRequest represents a request to update a customer.
// Nil fields keep their current value.
type UpdateCustomerRequest struct {
	Name      *string `json:"name" binding:"omitempty,min=1,max=200"`
	Address   *string `json:"address" binding:"omitempty,max=255"`
	City      *string `json:"city" binding:"omitempty,max=100"`
	Telephone *string `json:"telephone" binding:"omitempty,max=50"`
	Version   int     `json:"version" binding:"omitempty,min=1"`
}

// AssignCollectorRequest assigns or clears (null) the customer's collector
type AssignCollectorRequest struct {
	CollectorID *uuid.UUID `json:"collector_id"`
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Address     string     `json:"address"`
	City        string     `json:"city"`
	Telephone   string     `json:"telephone"`
	CollectorID *uuid.UUID `json:"collector_id,omitempty"`
	Version     int        `json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CustomerListFilter represents filter options for the customer list
type CustomerListFilter struct {
	Search   string `form:"search"`
	City     string `form:"city" binding:"max=100"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToCustomerResponse converts a domain Customer to CustomerResponse
func ToCustomerResponse(c *partner.Customer) CustomerResponse {
	return CustomerResponse{
		ID:          c.ID,
		Name:        c.Name,
		Address:     c.Address,
		City:        c.City,
		Telephone:   c.Telephone,
		CollectorID: c.CollectorID,
		Version:     c.Version,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// ToCustomerResponses converts a slice of domain Customers
func ToCustomerResponses(customers []partner.Customer) []CustomerResponse {
	responses := make([]CustomerResponse, len(customers))
	for i := range customers {
		responses[i] = ToCustomerResponse(&customers[i])
	}
	return responses
}
