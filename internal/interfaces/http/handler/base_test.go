package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cobranzas/backend/internal/domain/identity"
	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/cobranzas/backend/internal/infrastructure/logger"
	"github.com/cobranzas/backend/internal/interfaces/http/dto"
	"github.com/cobranzas/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

var (
	testAdmin     = identity.NewActor(uuid.New(), identity.RoleAdmin)
	testCollector = identity.NewActor(uuid.New(), identity.RoleCollector)
)

// withActor simulates the JWT middleware for handler tests
func withActor(actor identity.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetActor(c, actor)
		c.Next()
	}
}

// doRequest serves a request, JSON-encoding body when it is not nil
func doRequest(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var resp APIResponse[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.True(t, resp.Success, w.Body.String())
	return resp.Data
}

func assertErrorCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	assert.Equal(t, status, w.Code, w.Body.String())
	resp := decodeResponse(t, w)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, code, resp.Error.Code)
}

func TestGetRequestID(t *testing.T) {
	t.Run("from request context", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), "ctx-id"))
		c.Set("request_id", "gin-id")
		assert.Equal(t, "ctx-id", getRequestID(c))
	})

	t.Run("falls back to gin context", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Set("request_id", "gin-id")
		assert.Equal(t, "gin-id", getRequestID(c))
	})

	t.Run("empty when not set", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		assert.Empty(t, getRequestID(c))
	})
}

func TestBaseHandlerSuccessWithMeta(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Paginated(h, c, shared.NewPaginated([]string{"a", "b"}, 42, 2, 10))

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(42), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 5, resp.Meta.TotalPages)
}

func TestBaseHandlerCreatedAndNoContent(t *testing.T) {
	h := &BaseHandler{}
	r := gin.New()
	r.POST("/x", func(c *gin.Context) { h.Created(c, map[string]string{"id": "1"}) })
	r.DELETE("/x", func(c *gin.Context) { h.NoContent(c) })

	w := doRequest(r, http.MethodPost, "/x", nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decodeResponse(t, w).Success)

	w = doRequest(r, http.MethodDelete, "/x", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.Bytes())
}

func TestBaseHandlerErrorMethods(t *testing.T) {
	tests := []struct {
		name         string
		method       func(*BaseHandler, *gin.Context)
		expectedCode int
		expectedErr  string
	}{
		{"BadRequest", func(h *BaseHandler, c *gin.Context) { h.BadRequest(c, "bad") }, http.StatusBadRequest, dto.ErrCodeBadRequest},
		{"NotFound", func(h *BaseHandler, c *gin.Context) { h.NotFound(c, "missing") }, http.StatusNotFound, dto.ErrCodeNotFound},
		{"Unauthorized", func(h *BaseHandler, c *gin.Context) { h.Unauthorized(c, "who") }, http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"Forbidden", func(h *BaseHandler, c *gin.Context) { h.Forbidden(c, "no") }, http.StatusForbidden, dto.ErrCodeForbidden},
		{"InternalError", func(h *BaseHandler, c *gin.Context) { h.InternalError(c, "boom") }, http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Set("request_id", "req-1")

			tt.method(h, c)

			assertErrorCode(t, w, tt.expectedCode, tt.expectedErr)
			assert.Equal(t, "req-1", decodeResponse(t, w).Error.RequestID)
		})
	}
}

func TestBaseHandlerHandleError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedErr  string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"already exists", shared.ErrAlreadyExists, http.StatusConflict, dto.ErrCodeAlreadyExists},
		{"validation", shared.NewValidationError("price must be positive"), http.StatusBadRequest, dto.ErrCodeValidation},
		{"overpayment", shared.ErrOverpayment, http.StatusUnprocessableEntity, dto.ErrCodeOverpayment},
		{"forbidden", shared.NewPermissionError("not your customer"), http.StatusForbidden, dto.ErrCodeForbidden},
		{"unauthorized", shared.ErrUnauthorized, http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"concurrent modification", shared.ErrConcurrentModification, http.StatusConflict, dto.ErrCodeConcurrentModification},
		{"installments have payments", shared.ErrInstallmentsHavePayments, http.StatusConflict, dto.ErrCodeInstallmentsHavePayments},
		{"wrapped domain error", fmt.Errorf("saving: %w", shared.ErrNotFound), http.StatusNotFound, dto.ErrCodeNotFound},
		{"plain error", assert.AnError, http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			h.HandleError(c, tt.err)

			assertErrorCode(t, w, tt.expectedCode, tt.expectedErr)
		})
	}
}

func TestBaseHandlerHandleErrorHidesInternalMessage(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	h.HandleError(c, fmt.Errorf("pq: connection reset"))

	resp := decodeResponse(t, w)
	assert.Equal(t, "An unexpected error occurred", resp.Error.Message)
}

func TestBaseHandlerBindJSON(t *testing.T) {
	type body struct {
		Name string `json:"name" binding:"required"`
	}
	h := &BaseHandler{}
	r := gin.New()
	r.POST("/x", func(c *gin.Context) {
		var req body
		if !h.BindJSON(c, &req) {
			return
		}
		h.Success(c, req)
	})

	t.Run("valid", func(t *testing.T) {
		w := doRequest(r, http.MethodPost, "/x", body{Name: "Ana"})
		assert.Equal(t, "Ana", decodeData[body](t, w).Name)
	})

	t.Run("validation details", func(t *testing.T) {
		w := doRequest(r, http.MethodPost, "/x", map[string]string{})
		assertErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
		details := decodeResponse(t, w).Error.Details
		require.Len(t, details, 1)
		assert.Equal(t, "name", details[0].Field)
	})

	t.Run("malformed json", func(t *testing.T) {
		w := doRequest(r, http.MethodPost, "/x", "{not json")
		assertErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeInvalidJSON)
	})
}

func TestBaseHandlerActorAndParamUUID(t *testing.T) {
	h := &BaseHandler{}
	handler := func(c *gin.Context) {
		if _, ok := h.Actor(c); !ok {
			return
		}
		id, ok := h.ParamUUID(c, "id")
		if !ok {
			return
		}
		h.Success(c, id)
	}

	anonymous := gin.New()
	anonymous.GET("/x/:id", handler)
	w := doRequest(anonymous, http.MethodGet, "/x/"+uuid.NewString(), nil)
	assertErrorCode(t, w, http.StatusUnauthorized, dto.ErrCodeUnauthorized)

	authed := gin.New()
	authed.GET("/x/:id", withActor(testAdmin), handler)
	w = doRequest(authed, http.MethodGet, "/x/not-a-uuid", nil)
	assertErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeBadRequest)

	id := uuid.New()
	w = doRequest(authed, http.MethodGet, "/x/"+id.String(), nil)
	assert.Equal(t, id, decodeData[uuid.UUID](t, w))
}

func TestBaseHandlerFile(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.File(c, "receipt.pdf", "application/pdf", []byte("%PDF"), true)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `inline; filename="receipt.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF", w.Body.String())
}
