package handler

import (
	"context"

	apppartner "github.com/cobranzas/backend/internal/application/partner"
	"github.com/cobranzas/backend/internal/domain/identity"
	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CustomerService is the customer use case consumed by CustomerHandler
type CustomerService interface {
	Create(ctx context.Context, req apppartner.CreateCustomerRequest) (*apppartner.CustomerResponse, error)
	GetByID(ctx context.Context, actor identity.Actor, customerID uuid.UUID) (*apppartner.CustomerResponse, error)
	List(ctx context.Context, actor identity.Actor, filter apppartner.CustomerListFilter) (shared.Paginated[apppartner.CustomerResponse], error)
	Update(ctx context.Context, customerID uuid.UUID, req apppartner.UpdateCustomerRequest) (*apppartner.CustomerResponse, error)
	AssignCollector(ctx context.Context, customerID uuid.UUID, collectorID *uuid.UUID) (*apppartner.CustomerResponse, error)
	Delete(ctx context.Context, customerID uuid.UUID) error
}

// CustomerHandler handles customer-related API endpoints
type CustomerHandler struct {
	BaseHandler
	customerService CustomerService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// Create godoc
// @ID           createCustomer
// @Summary      Create a new customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        request body apppartner.CreateCustomerRequest true "Customer details"
// @Success      201 {object} APIResponse[apppartner.CustomerResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers [post]
func (h *CustomerHandler) Create(c *gin.Context) {
	var req apppartner.CreateCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	customer, err := h.customerService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, customer)
}

// GetByID godoc
// @ID           getCustomerById
// @Summary      Get customer by ID
// @Description  Collectors only see customers assigned to them
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Success      200 {object} APIResponse[apppartner.CustomerResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id} [get]
func (h *CustomerHandler) GetByID(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}

	customer, err := h.customerService.GetByID(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, customer)
}

// List godoc
// @ID           listCustomers
// @Summary      List customers
// @Description  Paginated customer list. Collectors get their own customers only.
// @Tags         customers
// @Produce      json
// @Param        search query string false "Name, address or telephone contains"
// @Param        city query string false "City"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        order_by query string false "Sort field" default(name)
// @Param        order_dir query string false "Sort order" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]apppartner.CustomerResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers [get]
func (h *CustomerHandler) List(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var filter apppartner.CustomerListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	page, err := h.customerService.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Paginated(&h.BaseHandler, c, page)
}

// Update godoc
// @ID           updateCustomer
// @Summary      Update a customer
// @Description  Omitted fields keep their value. A version mismatch answers 409.
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Param        request body apppartner.UpdateCustomerRequest true "Fields to change"
// @Success      200 {object} APIResponse[apppartner.CustomerResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id} [put]
func (h *CustomerHandler) Update(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req apppartner.UpdateCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	customer, err := h.customerService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, customer)
}

// AssignCollector godoc
// @ID           assignCustomerCollector
// @Summary      Assign the customer's collector
// @Description  A null collector_id leaves the customer unassigned
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Param        request body apppartner.AssignCollectorRequest true "Collector"
// @Success      200 {object} APIResponse[apppartner.CustomerResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id}/collector [put]
func (h *CustomerHandler) AssignCollector(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req apppartner.AssignCollectorRequest
	if !h.BindJSON(c, &req) {
		return
	}

	customer, err := h.customerService.AssignCollector(c.Request.Context(), id, req.CollectorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, customer)
}

// Delete godoc
// @ID           deleteCustomer
// @Summary      Delete a customer
// @Description  Customers with sales cannot be deleted
// @Tags         customers
// @Param        id path string true "Customer ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /customers/{id} [delete]
func (h *CustomerHandler) Delete(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}

	if err := h.customerService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
