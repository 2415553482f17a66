package handler

import (
	"context"

	apptrade "github.com/cobranzas/backend/internal/application/trade"
	"github.com/cobranzas/backend/internal/domain/identity"
	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/cobranzas/backend/internal/domain/trade"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SaleService is the installment sale use case consumed by SaleHandler
type SaleService interface {
	Create(ctx context.Context, actor identity.Actor, req apptrade.CreateSaleRequest) (*apptrade.SaleResponse, error)
	GetByID(ctx context.Context, actor identity.Actor, saleID uuid.UUID) (*apptrade.SaleResponse, error)
	Scheme(ctx context.Context, actor identity.Actor, saleID uuid.UUID) ([]trade.SchemeEntry, error)
	List(ctx context.Context, actor identity.Actor, filter apptrade.SaleListFilter) (shared.Paginated[apptrade.SaleListItemResponse], error)
	Update(ctx context.Context, saleID uuid.UUID, req apptrade.UpdateSaleRequest) (*apptrade.SaleResponse, error)
	SetUncollectible(ctx context.Context, saleID uuid.UUID, uncollectible bool) (*apptrade.SaleResponse, error)
	AssignCollector(ctx context.Context, saleID uuid.UUID, collectorID *uuid.UUID) (*apptrade.SaleResponse, error)
	Delete(ctx context.Context, saleID uuid.UUID) error
}

// SaleHandler handles installment sale endpoints
type SaleHandler struct {
	BaseHandler
	saleService SaleService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(saleService SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

// Create godoc
// @ID           createSale
// @Summary      Create an installment sale
// @Description  Generates installment_count installments of installment_amount. The last one absorbs the remainder.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        request body apptrade.CreateSaleRequest true "Sale terms"
// @Success      201 {object} APIResponse[apptrade.SaleResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales [post]
func (h *SaleHandler) Create(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req apptrade.CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sale, err := h.saleService.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, sale)
}

// GetByID godoc
// @ID           getSaleById
// @Summary      Get a sale with its installments
// @Tags         sales
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Success      200 {object} APIResponse[apptrade.SaleResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/{id} [get]
func (h *SaleHandler) GetByID(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}

	sale, err := h.saleService.GetByID(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sale)
}

// Scheme godoc
// @ID           getSaleScheme
// @Summary      Get the payment scheme of a sale
// @Description  Installments grouped by amount, e.g. 11 x 850 and 1 x 650
// @Tags         sales
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Success      200 {object} APIResponse[[]trade.SchemeEntry]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/{id}/scheme [get]
func (h *SaleHandler) Scheme(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}

	scheme, err := h.saleService.Scheme(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, scheme)
}

// List godoc
// @ID           listSales
// @Summary      List sales
// @Description  Collectors see the sales they collect
// @Tags         sales
// @Produce      json
// @Param        customer_id query string false "Customer ID" format(uuid)
// @Param        collector_id query string false "Collector ID" format(uuid)
// @Param        uncollectible query bool false "Uncollectible flag"
// @Param        pending_only query bool false "Only sales with balance"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]apptrade.SaleListItemResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales [get]
func (h *SaleHandler) List(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var filter apptrade.SaleListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	if filter.CustomerID, ok = h.QueryUUID(c, "customer_id"); !ok {
		return
	}
	if filter.CollectorID, ok = h.QueryUUID(c, "collector_id"); !ok {
		return
	}

	page, err := h.saleService.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Paginated(&h.BaseHandler, c, page)
}

// Update godoc
// @ID           updateSale
// @Summary      Update a sale
// @Description  Changing terms regenerates the schedule and is refused once installments have payments
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Param        request body apptrade.UpdateSaleRequest true "Fields to change"
// @Success      200 {object} APIResponse[apptrade.SaleResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/{id} [put]
func (h *SaleHandler) Update(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req apptrade.UpdateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sale, err := h.saleService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sale)
}

// SetUncollectible godoc
// @ID           setSaleUncollectible
// @Summary      Flag a sale as uncollectible
// @Description  Uncollectible sales leave the pending balance and defaulters reports
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Param        request body apptrade.SetUncollectibleRequest true "Flag"
// @Success      200 {object} APIResponse[apptrade.SaleResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/{id}/uncollectible [put]
func (h *SaleHandler) SetUncollectible(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req apptrade.SetUncollectibleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sale, err := h.saleService.SetUncollectible(c.Request.Context(), id, *req.Uncollectible)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sale)
}

// AssignCollector godoc
// @ID           assignSaleCollector
// @Summary      Assign the sale's collector
// @Description  Overrides the customer's collector for this sale. A null collector_id falls back to the customer's.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Param        request body apptrade.AssignCollectorRequest true "Collector"
// @Success      200 {object} APIResponse[apptrade.SaleResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/{id}/collector [put]
func (h *SaleHandler) AssignCollector(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req apptrade.AssignCollectorRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sale, err := h.saleService.AssignCollector(c.Request.Context(), id, req.CollectorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sale)
}

// Delete godoc
// @ID           deleteSale
// @Summary      Delete a sale
// @Description  Sales with recorded payments cannot be deleted
// @Tags         sales
// @Param        id path string true "Sale ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/{id} [delete]
func (h *SaleHandler) Delete(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}

	if err := h.saleService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
