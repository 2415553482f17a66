package handler

import (
	"context"

	appreport "github.com/cobranzas/backend/internal/application/report"
	"github.com/cobranzas/backend/internal/domain/identity"
	"github.com/cobranzas/backend/internal/domain/report"
	"github.com/gin-gonic/gin"
)

// ReportService is the reporting use case consumed by ReportHandler
type ReportService interface {
	PendingBalance(ctx context.Context, actor identity.Actor, filter appreport.PendingBalanceFilter) (*appreport.PendingBalanceReport, error)
	Defaulters(ctx context.Context, actor identity.Actor, filter appreport.DefaultersFilter) (*appreport.DefaultersReport, error)
	DeliveryManifest(ctx context.Context, actor identity.Actor, filter appreport.DeliveryFilter) (*report.DeliveryManifest, error)
	ExportPendingBalance(ctx context.Context, actor identity.Actor, filter appreport.PendingBalanceFilter) (*appreport.ExportResult, error)
	ExportDefaulters(ctx context.Context, actor identity.Actor, filter appreport.DefaultersFilter) (*appreport.ExportResult, error)
	ExportDeliveryManifest(ctx context.Context, actor identity.Actor, filter appreport.DeliveryFilter) (*appreport.ExportResult, error)
}

// DownloadURLHeader carries the signed URL of an archived export
const DownloadURLHeader = "X-Download-URL"

// ReportFormatQuery selects the report output
type ReportFormatQuery struct {
	Format string `form:"format" binding:"omitempty,oneof=json xlsx"`
}

// ReportHandler handles report endpoints
type ReportHandler struct {
	BaseHandler
	reportService ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// wantsXLSX binds the format query. ok is false when a response was written.
func (h *ReportHandler) wantsXLSX(c *gin.Context) (xlsx bool, ok bool) {
	var query ReportFormatQuery
	if !h.BindQuery(c, &query) {
		return false, false
	}
	return query.Format == appreport.FormatXLSX, true
}

func (h *ReportHandler) sendExport(c *gin.Context, result *appreport.ExportResult, err error) {
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if result.DownloadURL != "" {
		c.Header(DownloadURLHeader, result.DownloadURL)
	}
	h.File(c, result.Filename, result.ContentType, result.Data, false)
}

// PendingBalance godoc
// @ID           getPendingBalanceReport
// @Summary      Pending balance report
// @Description  Collectible sales with money still owed. Collectors get their own portfolio.
// @Tags         reports
// @Produce      json
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        collector_id query string false "Collector ID" format(uuid)
// @Param        customer_id query string false "Customer ID" format(uuid)
// @Param        city query string false "City"
// @Param        format query string false "Output format" Enums(json, xlsx)
// @Success      200 {object} APIResponse[appreport.PendingBalanceReport]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reports/pending-balance [get]
func (h *ReportHandler) PendingBalance(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var filter appreport.PendingBalanceFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	if filter.CustomerID, ok = h.QueryUUID(c, "customer_id"); !ok {
		return
	}
	if filter.CollectorID, ok = h.QueryUUID(c, "collector_id"); !ok {
		return
	}
	xlsx, ok := h.wantsXLSX(c)
	if !ok {
		return
	}

	if xlsx {
		result, err := h.reportService.ExportPendingBalance(c.Request.Context(), actor, filter)
		h.sendExport(c, result, err)
		return
	}

	result, err := h.reportService.PendingBalance(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Defaulters godoc
// @ID           getDefaultersReport
// @Summary      Defaulters report
// @Description  Sales whose last payment, or sale date when never paid, is more than days days before as_of
// @Tags         reports
// @Produce      json
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        collector_id query string false "Collector ID" format(uuid)
// @Param        customer_id query string false "Customer ID" format(uuid)
// @Param        city query string false "City"
// @Param        as_of query string false "Reference date (YYYY-MM-DD)"
// @Param        days query int false "Days without payment"
// @Param        format query string false "Output format" Enums(json, xlsx)
// @Success      200 {object} APIResponse[appreport.DefaultersReport]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reports/defaulters [get]
func (h *ReportHandler) Defaulters(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var filter appreport.DefaultersFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	if filter.CustomerID, ok = h.QueryUUID(c, "customer_id"); !ok {
		return
	}
	if filter.CollectorID, ok = h.QueryUUID(c, "collector_id"); !ok {
		return
	}
	xlsx, ok := h.wantsXLSX(c)
	if !ok {
		return
	}

	if xlsx {
		result, err := h.reportService.ExportDefaulters(c.Request.Context(), actor, filter)
		h.sendExport(c, result, err)
		return
	}

	result, err := h.reportService.Defaulters(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Delivery godoc
// @ID           getDeliveryReport
// @Summary      Delivery manifest
// @Description  Delivered collections per collector, collected between from and to inclusive. Defaults to today.
// @Tags         reports
// @Produce      json
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        from query string false "From date (YYYY-MM-DD)"
// @Param        to query string false "To date (YYYY-MM-DD)"
// @Param        collector_id query string false "Collector ID" format(uuid)
// @Param        format query string false "Output format" Enums(json, xlsx)
// @Success      200 {object} APIResponse[report.DeliveryManifest]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reports/delivery [get]
func (h *ReportHandler) Delivery(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var filter appreport.DeliveryFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	if filter.CollectorID, ok = h.QueryUUID(c, "collector_id"); !ok {
		return
	}
	xlsx, ok := h.wantsXLSX(c)
	if !ok {
		return
	}

	if xlsx {
		result, err := h.reportService.ExportDeliveryManifest(c.Request.Context(), actor, filter)
		h.sendExport(c, result, err)
		return
	}

	result, err := h.reportService.DeliveryManifest(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
