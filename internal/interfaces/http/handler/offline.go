package handler

import (
	"context"
	"net/http"
	"time"

	appfinance "github.com/cobranzas/backend/internal/application/finance"
	appoffline "github.com/cobranzas/backend/internal/application/offline"
	"github.com/cobranzas/backend/internal/domain/identity"
	"github.com/cobranzas/backend/internal/interfaces/http/dto"
	"github.com/cobranzas/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// OfflineService is the offline synchronization use case consumed by OfflineHandler
type OfflineService interface {
	Snapshot(ctx context.Context, actor identity.Actor, since *time.Time) (*appoffline.SnapshotResponse, error)
	SyncMarker(ctx context.Context, actor identity.Actor) (*appoffline.SyncMarkerResponse, error)
	WriteBack(ctx context.Context, actor identity.Actor, idempotencyKey string, req appfinance.RecordCollectionRequest) (*appoffline.WriteBackResponse, error)
}

// OfflineHandler serves the offline collection client
type OfflineHandler struct {
	BaseHandler
	offlineService OfflineService
}

// NewOfflineHandler creates a new OfflineHandler
func NewOfflineHandler(offlineService OfflineService) *OfflineHandler {
	return &OfflineHandler{offlineService: offlineService}
}

// Snapshot godoc
// @ID           getOfflineSnapshot
// @Summary      Offline snapshot
// @Description  Customers and pending sales of the caller. With since, only what changed after it.
// @Tags         offline
// @Produce      json
// @Param        since query string false "Sync marker of the previous pull (RFC 3339)"
// @Success      200 {object} APIResponse[appoffline.SnapshotResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /offline/snapshot [get]
func (h *OfflineHandler) Snapshot(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var query appoffline.SnapshotQuery
	if !h.BindQuery(c, &query) {
		return
	}

	snapshot, err := h.offlineService.Snapshot(c.Request.Context(), actor, query.Since)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, snapshot)
}

// SyncMarker godoc
// @ID           getOfflineSyncMarker
// @Summary      Current sync marker
// @Description  Compare with the stored marker to decide whether a pull is needed
// @Tags         offline
// @Produce      json
// @Success      200 {object} APIResponse[appoffline.SyncMarkerResponse]
// @Security     BearerAuth
// @Router       /offline/sync-marker [get]
func (h *OfflineHandler) SyncMarker(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	marker, err := h.offlineService.SyncMarker(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, marker)
}

// WriteBack godoc
// @ID           writeBackOfflineCollection
// @Summary      Upload an offline collection
// @Description  Records a collection captured offline. Replaying the same Idempotency-Key returns the
// @Description  original collection with duplicate=true and status 200 instead of applying it twice.
// @Tags         offline
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string true "Client generated key of the collection"
// @Param        request body appfinance.RecordCollectionRequest true "Collected amounts"
// @Success      201 {object} APIResponse[appoffline.WriteBackResponse]
// @Success      200 {object} APIResponse[appoffline.WriteBackResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /offline/collections [post]
func (h *OfflineHandler) WriteBack(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	key := c.GetHeader(middleware.IdempotencyKeyHeader)
	if key == "" {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidation, "Idempotency-Key header is required")
		return
	}
	var req appfinance.RecordCollectionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.offlineService.WriteBack(c.Request.Context(), actor, key, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if result.Duplicate {
		h.Success(c, result)
		return
	}
	h.Created(c, result)
}
