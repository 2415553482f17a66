package handler

import (
	"context"
	"net/http"
	"testing"

	apppartner "github.com/cobranzas/backend/internal/application/partner"
	"github.com/cobranzas/backend/internal/domain/identity"
	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/cobranzas/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) Create(ctx context.Context, req apppartner.CreateCustomerRequest) (*apppartner.CustomerResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apppartner.CustomerResponse), args.Error(1)
}

func (m *MockCustomerService) GetByID(ctx context.Context, actor identity.Actor, customerID uuid.UUID) (*apppartner.CustomerResponse, error) {
	args := m.Called(ctx, actor, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apppartner.CustomerResponse), args.Error(1)
}

func (m *MockCustomerService) List(ctx context.Context, actor identity.Actor, filter apppartner.CustomerListFilter) (shared.Paginated[apppartner.CustomerResponse], error) {
	args := m.Called(ctx, actor, filter)
	return args.Get(0).(shared.Paginated[apppartner.CustomerResponse]), args.Error(1)
}

func (m *MockCustomerService) Update(ctx context.Context, customerID uuid.UUID, req apppartner.UpdateCustomerRequest) (*apppartner.CustomerResponse, error) {
	args := m.Called(ctx, customerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apppartner.CustomerResponse), args.Error(1)
}

func (m *MockCustomerService) AssignCollector(ctx context.Context, customerID uuid.UUID, collectorID *uuid.UUID) (*apppartner.CustomerResponse, error) {
	args := m.Called(ctx, customerID, collectorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apppartner.CustomerResponse), args.Error(1)
}

func (m *MockCustomerService) Delete(ctx context.Context, customerID uuid.UUID) error {
	args := m.Called(ctx, customerID)
	return args.Error(0)
}

func setupCustomerRouter(svc *MockCustomerService, actor identity.Actor) *gin.Engine {
	h := NewCustomerHandler(svc)
	r := gin.New()
	r.Use(withActor(actor))
	r.POST("/customers", h.Create)
	r.GET("/customers", h.List)
	r.GET("/customers/:id", h.GetByID)
	r.PUT("/customers/:id", h.Update)
	r.PUT("/customers/:id/collector", h.AssignCollector)
	r.DELETE("/customers/:id", h.Delete)
	return r
}

func TestCustomerHandler_Create(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := new(MockCustomerService)
		req := apppartner.CreateCustomerRequest{Name: "Juan Pérez", Address: "Calle 1", City: "Rosario"}
		svc.On("Create", mock.Anything, req).
			Return(&apppartner.CustomerResponse{ID: uuid.New(), Name: req.Name, City: req.City, Version: 1}, nil)

		w := doRequest(setupCustomerRouter(svc, testAdmin), http.MethodPost, "/customers", req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "Juan Pérez", decodeData[apppartner.CustomerResponse](t, w).Name)
	})

	t.Run("name required", func(t *testing.T) {
		svc := new(MockCustomerService)
		w := doRequest(setupCustomerRouter(svc, testAdmin), http.MethodPost, "/customers",
			apppartner.CreateCustomerRequest{City: "Rosario"})

		assertErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
	})
}

func TestCustomerHandler_GetByID(t *testing.T) {
	t.Run("collector sees own customer", func(t *testing.T) {
		svc := new(MockCustomerService)
		id := uuid.New()
		svc.On("GetByID", mock.Anything, testCollector, id).
			Return(&apppartner.CustomerResponse{ID: id, CollectorID: &testCollector.UserID}, nil)

		w := doRequest(setupCustomerRouter(svc, testCollector), http.MethodGet, "/customers/"+id.String(), nil)

		assert.Equal(t, http.StatusOK, w.Code)
		got := decodeData[apppartner.CustomerResponse](t, w)
		require.NotNil(t, got.CollectorID)
		assert.Equal(t, testCollector.UserID, *got.CollectorID)
	})

	t.Run("foreign customer is forbidden", func(t *testing.T) {
		svc := new(MockCustomerService)
		id := uuid.New()
		svc.On("GetByID", mock.Anything, testCollector, id).
			Return(nil, shared.NewPermissionError("Customer is not assigned to you"))

		w := doRequest(setupCustomerRouter(svc, testCollector), http.MethodGet, "/customers/"+id.String(), nil)

		assertErrorCode(t, w, http.StatusForbidden, dto.ErrCodeForbidden)
	})

	t.Run("invalid id", func(t *testing.T) {
		svc := new(MockCustomerService)
		w := doRequest(setupCustomerRouter(svc, testAdmin), http.MethodGet, "/customers/abc", nil)
		assertErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeBadRequest)
	})
}

func TestCustomerHandler_List(t *testing.T) {
	svc := new(MockCustomerService)
	svc.On("List", mock.Anything, testCollector, mock.MatchedBy(func(f apppartner.CustomerListFilter) bool {
		return f.City == "Rosario" && f.Search == "juan"
	})).Return(shared.NewPaginated([]apppartner.CustomerResponse{{Name: "Juan"}}, 1, 1, 20), nil)

	w := doRequest(setupCustomerRouter(svc, testCollector), http.MethodGet, "/customers?city=Rosario&search=juan", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, int64(1), resp.Meta.Total)
	svc.AssertExpectations(t)
}

func TestCustomerHandler_Update(t *testing.T) {
	svc := new(MockCustomerService)
	id := uuid.New()
	svc.On("Update", mock.Anything, id, mock.MatchedBy(func(r apppartner.UpdateCustomerRequest) bool {
		return r.Telephone != nil && *r.Telephone == "341-555" && r.Name == nil && r.Version == 3
	})).Return(nil, shared.ErrConcurrentModification)

	w := doRequest(setupCustomerRouter(svc, testAdmin), http.MethodPut, "/customers/"+id.String(),
		map[string]any{"telephone": "341-555", "version": 3})

	assertErrorCode(t, w, http.StatusConflict, dto.ErrCodeConcurrentModification)
	svc.AssertExpectations(t)
}

func TestCustomerHandler_AssignCollector(t *testing.T) {
	t.Run("assign", func(t *testing.T) {
		svc := new(MockCustomerService)
		id, collector := uuid.New(), uuid.New()
		svc.On("AssignCollector", mock.Anything, id, &collector).
			Return(&apppartner.CustomerResponse{ID: id, CollectorID: &collector}, nil)

		w := doRequest(setupCustomerRouter(svc, testAdmin), http.MethodPut, "/customers/"+id.String()+"/collector",
			apppartner.AssignCollectorRequest{CollectorID: &collector})

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("null clears", func(t *testing.T) {
		svc := new(MockCustomerService)
		id := uuid.New()
		svc.On("AssignCollector", mock.Anything, id, (*uuid.UUID)(nil)).
			Return(&apppartner.CustomerResponse{ID: id}, nil)

		w := doRequest(setupCustomerRouter(svc, testAdmin), http.MethodPut, "/customers/"+id.String()+"/collector",
			map[string]any{"collector_id": nil})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, decodeData[apppartner.CustomerResponse](t, w).CollectorID)
	})
}

func TestCustomerHandler_Delete(t *testing.T) {
	svc := new(MockCustomerService)
	deletable, withSales := uuid.New(), uuid.New()
	svc.On("Delete", mock.Anything, deletable).Return(nil)
	svc.On("Delete", mock.Anything, withSales).
		Return(shared.NewDomainError(shared.CodeInvalidState, "Customer has sales and cannot be deleted"))

	r := setupCustomerRouter(svc, testAdmin)

	w := doRequest(r, http.MethodDelete, "/customers/"+deletable.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(r, http.MethodDelete, "/customers/"+withSales.String(), nil)
	assertErrorCode(t, w, http.StatusConflict, dto.ErrCodeInvalidState)
}
