package handler

import (
	"context"

	appfinance "github.com/cobranzas/backend/internal/application/finance"
	appprinting "github.com/cobranzas/backend/internal/application/printing"
	"github.com/cobranzas/backend/internal/domain/identity"
	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CollectionService is the collection use case consumed by CollectionHandler
type CollectionService interface {
	Record(ctx context.Context, actor identity.Actor, req appfinance.RecordCollectionRequest, clientReference string) (*appfinance.CollectionResponse, error)
	ReviseApplication(ctx context.Context, actor identity.Actor, applicationID uuid.UUID, newAmount decimal.Decimal) (*appfinance.CollectionResponse, error)
	GetByID(ctx context.Context, actor identity.Actor, collectionID uuid.UUID) (*appfinance.CollectionResponse, error)
	List(ctx context.Context, actor identity.Actor, filter appfinance.CollectionListFilter) (shared.Paginated[appfinance.CollectionResponse], error)
	Deliver(ctx context.Context, actor identity.Actor, collectionIDs []uuid.UUID) (*appfinance.DeliveryResponse, error)
	IntakeView(ctx context.Context, actor identity.Actor, customerID uuid.UUID) (*appfinance.IntakeResponse, error)
}

// ReceiptRenderer renders printable collection receipts
type ReceiptRenderer interface {
	Render(ctx context.Context, actor identity.Actor, collectionID uuid.UUID, format string) (*appprinting.ReceiptDocument, error)
}

// CollectionHandler handles collection endpoints
type CollectionHandler struct {
	BaseHandler
	collectionService CollectionService
	receipts          ReceiptRenderer
}

// NewCollectionHandler creates a new CollectionHandler
func NewCollectionHandler(collectionService CollectionService, receipts ReceiptRenderer) *CollectionHandler {
	return &CollectionHandler{
		collectionService: collectionService,
		receipts:          receipts,
	}
}

// Record godoc
// @ID           recordCollection
// @Summary      Record a collection
// @Description  Applies the collected amounts to the customer's installments in one transaction.
// @Description  An amount above an installment's remaining balance rejects the whole collection.
// @Tags         collections
// @Accept       json
// @Produce      json
// @Param        request body appfinance.RecordCollectionRequest true "Collected amounts"
// @Success      201 {object} APIResponse[appfinance.CollectionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /collections [post]
func (h *CollectionHandler) Record(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req appfinance.RecordCollectionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	collection, err := h.collectionService.Record(c.Request.Context(), actor, req, "")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, collection)
}

// GetByID godoc
// @ID           getCollectionById
// @Summary      Get a collection
// @Tags         collections
// @Produce      json
// @Param        id path string true "Collection ID" format(uuid)
// @Success      200 {object} APIResponse[appfinance.CollectionResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /collections/{id} [get]
func (h *CollectionHandler) GetByID(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}

	collection, err := h.collectionService.GetByID(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, collection)
}

// List godoc
// @ID           listCollections
// @Summary      List collections
// @Description  Without customer or dates the list shows today's collections. Collectors see their own.
// @Tags         collections
// @Produce      json
// @Param        customer_id query string false "Customer ID" format(uuid)
// @Param        collector_id query string false "Collector ID" format(uuid)
// @Param        date_from query string false "From date (YYYY-MM-DD)"
// @Param        date_to query string false "To date (YYYY-MM-DD)"
// @Param        delivered query bool false "Delivered flag"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]appfinance.CollectionResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /collections [get]
func (h *CollectionHandler) List(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var filter appfinance.CollectionListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	if filter.CustomerID, ok = h.QueryUUID(c, "customer_id"); !ok {
		return
	}
	if filter.CollectorID, ok = h.QueryUUID(c, "collector_id"); !ok {
		return
	}

	page, err := h.collectionService.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Paginated(&h.BaseHandler, c, page)
}

// Intake godoc
// @ID           getCollectionIntake
// @Summary      Collection form of a customer
// @Description  Open installments per sale: partially paid, the next pending one and the rest
// @Tags         collections
// @Produce      json
// @Param        customer_id path string true "Customer ID" format(uuid)
// @Success      200 {object} APIResponse[appfinance.IntakeResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /collections/intake/{customer_id} [get]
func (h *CollectionHandler) Intake(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	customerID, ok := h.ParamUUID(c, "customer_id")
	if !ok {
		return
	}

	intake, err := h.collectionService.IntakeView(c.Request.Context(), actor, customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, intake)
}

// ReviseApplication godoc
// @ID           reviseCollectionApplication
// @Summary      Correct a recorded payment
// @Description  Changes the amount applied to one installment and recomputes its paid amount and state
// @Tags         collections
// @Accept       json
// @Produce      json
// @Param        id path string true "Application ID" format(uuid)
// @Param        request body appfinance.ReviseApplicationRequest true "New amount"
// @Success      200 {object} APIResponse[appfinance.CollectionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /collections/applications/{id} [put]
func (h *CollectionHandler) ReviseApplication(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req appfinance.ReviseApplicationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	collection, err := h.collectionService.ReviseApplication(c.Request.Context(), actor, id, req.Amount)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, collection)
}

// Deliver godoc
// @ID           deliverCollections
// @Summary      Deliver collections to the office
// @Description  Marks the collections as handed over. Already delivered collections are refused.
// @Tags         collections
// @Accept       json
// @Produce      json
// @Param        request body appfinance.DeliverCollectionsRequest true "Collections"
// @Success      200 {object} APIResponse[appfinance.DeliveryResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /collections/deliver [post]
func (h *CollectionHandler) Deliver(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req appfinance.DeliverCollectionsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	delivery, err := h.collectionService.Deliver(c.Request.Context(), actor, req.CollectionIDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, delivery)
}

// Receipt godoc
// @ID           getCollectionReceipt
// @Summary      Printable receipt of a collection
// @Description  PDF by default. HTML is served when requested or when PDF rendering is disabled.
// @Tags         collections
// @Produce      application/pdf
// @Produce      text/html
// @Param        id path string true "Collection ID" format(uuid)
// @Param        format query string false "Output format" Enums(pdf, html)
// @Success      200 {file} file
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /collections/{id}/receipt [get]
func (h *CollectionHandler) Receipt(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var query appprinting.ReceiptQuery
	if !h.BindQuery(c, &query) {
		return
	}

	doc, err := h.receipts.Render(c.Request.Context(), actor, id, query.Format)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.File(c, doc.Filename, doc.ContentType, doc.Data, true)
}
