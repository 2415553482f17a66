package handler

import (
	"context"

	appidentity "github.com/cobranzas/backend/internal/application/identity"
	"github.com/cobranzas/backend/internal/domain/identity"
	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserService is the user administration use case consumed by UserHandler
type UserService interface {
	Create(ctx context.Context, req appidentity.CreateUserRequest) (*appidentity.UserResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*appidentity.UserResponse, error)
	List(ctx context.Context, filter appidentity.UserListFilter) (shared.Paginated[appidentity.UserResponse], error)
	ListCollectors(ctx context.Context) ([]appidentity.UserResponse, error)
	SetActive(ctx context.Context, actor identity.Actor, id uuid.UUID, active bool) (*appidentity.UserResponse, error)
}

// UserHandler handles user administration endpoints
type UserHandler struct {
	BaseHandler
	userService UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Create godoc
// @ID           createUser
// @Summary      Create a user
// @Description  Create an administrator or collector account
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body appidentity.CreateUserRequest true "User details"
// @Success      201 {object} APIResponse[appidentity.UserResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req appidentity.CreateUserRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.userService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, user)
}

// GetByID godoc
// @ID           getUserById
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} APIResponse[appidentity.UserResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users/{id} [get]
func (h *UserHandler) GetByID(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, user)
}

// List godoc
// @ID           listUsers
// @Summary      List users
// @Description  Paginated user list filtered by role, state or search text
// @Tags         users
// @Produce      json
// @Param        search query string false "Username or name contains"
// @Param        role query string false "Role" Enums(ADMIN, COLLECTOR)
// @Param        active query bool false "Active state"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]appidentity.UserResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users [get]
func (h *UserHandler) List(c *gin.Context) {
	var filter appidentity.UserListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	page, err := h.userService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Paginated(&h.BaseHandler, c, page)
}

// SetActive godoc
// @ID           setUserActive
// @Summary      Enable or disable a user
// @Description  Disabled users cannot log in. Administrators cannot disable themselves.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Param        request body appidentity.SetActiveRequest true "Active flag"
// @Success      200 {object} APIResponse[appidentity.UserResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users/{id}/active [put]
func (h *UserHandler) SetActive(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req appidentity.SetActiveRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.userService.SetActive(c.Request.Context(), actor, id, *req.Active)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, user)
}

// ListCollectors godoc
// @ID           listCollectors
// @Summary      List active collectors
// @Description  Collectors available for assignment to customers and sales
// @Tags         users
// @Produce      json
// @Success      200 {object} APIResponse[[]appidentity.UserResponse]
// @Security     BearerAuth
// @Router       /collectors [get]
func (h *UserHandler) ListCollectors(c *gin.Context) {
	collectors, err := h.userService.ListCollectors(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, collectors)
}
