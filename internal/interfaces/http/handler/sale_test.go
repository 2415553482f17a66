package handler

import (
	"context"
	"net/http"
	"testing"

	apptrade "github.com/cobranzas/backend/internal/application/trade"
	"github.com/cobranzas/backend/internal/domain/identity"
	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/cobranzas/backend/internal/domain/trade"
	"github.com/cobranzas/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSaleService struct {
	mock.Mock
}

func (m *MockSaleService) saleResult(args mock.Arguments) (*apptrade.SaleResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apptrade.SaleResponse), args.Error(1)
}

func (m *MockSaleService) Create(ctx context.Context, actor identity.Actor, req apptrade.CreateSaleRequest) (*apptrade.SaleResponse, error) {
	return m.saleResult(m.Called(ctx, actor, req))
}

func (m *MockSaleService) GetByID(ctx context.Context, actor identity.Actor, saleID uuid.UUID) (*apptrade.SaleResponse, error) {
	return m.saleResult(m.Called(ctx, actor, saleID))
}

func (m *MockSaleService) Scheme(ctx context.Context, actor identity.Actor, saleID uuid.UUID) ([]trade.SchemeEntry, error) {
	args := m.Called(ctx, actor, saleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]trade.SchemeEntry), args.Error(1)
}

func (m *MockSaleService) List(ctx context.Context, actor identity.Actor, filter apptrade.SaleListFilter) (shared.Paginated[apptrade.SaleListItemResponse], error) {
	args := m.Called(ctx, actor, filter)
	return args.Get(0).(shared.Paginated[apptrade.SaleListItemResponse]), args.Error(1)
}

func (m *MockSaleService) Update(ctx context.Context, saleID uuid.UUID, req apptrade.UpdateSaleRequest) (*apptrade.SaleResponse, error) {
	return m.saleResult(m.Called(ctx, saleID, req))
}

func (m *MockSaleService) SetUncollectible(ctx context.Context, saleID uuid.UUID, uncollectible bool) (*apptrade.SaleResponse, error) {
	return m.saleResult(m.Called(ctx, saleID, uncollectible))
}

func (m *MockSaleService) AssignCollector(ctx context.Context, saleID uuid.UUID, collectorID *uuid.UUID) (*apptrade.SaleResponse, error) {
	return m.saleResult(m.Called(ctx, saleID, collectorID))
}

func (m *MockSaleService) Delete(ctx context.Context, saleID uuid.UUID) error {
	return m.Called(ctx, saleID).Error(0)
}

func setupSaleRouter(svc *MockSaleService, actor identity.Actor) *gin.Engine {
	h := NewSaleHandler(svc)
	r := gin.New()
	r.Use(withActor(actor))
	r.POST("/sales", h.Create)
	r.GET("/sales", h.List)
	r.GET("/sales/:id", h.GetByID)
	r.PUT("/sales/:id", h.Update)
	r.DELETE("/sales/:id", h.Delete)
	r.PUT("/sales/:id/uncollectible", h.SetUncollectible)
	r.PUT("/sales/:id/collector", h.AssignCollector)
	r.GET("/sales/:id/scheme", h.Scheme)
	return r
}

func TestSaleHandler_Create(t *testing.T) {
	t.Run("created by actor", func(t *testing.T) {
		svc := new(MockSaleService)
		customerID := uuid.New()
		svc.On("Create", mock.Anything, testAdmin, mock.MatchedBy(func(r apptrade.CreateSaleRequest) bool {
			return r.CustomerID == customerID &&
				r.Price.Equal(decimal.NewFromInt(10000)) &&
				r.InstallmentAmount.Equal(decimal.NewFromInt(850)) &&
				r.InstallmentCount == 12
		})).Return(&apptrade.SaleResponse{ID: uuid.New(), CustomerID: customerID, InstallmentCount: 12}, nil)

		w := doRequest(setupSaleRouter(svc, testAdmin), http.MethodPost, "/sales", map[string]any{
			"customer_id":        customerID,
			"price":              "10000",
			"installment_amount": "850",
			"installment_count":  12,
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, customerID, decodeData[apptrade.SaleResponse](t, w).CustomerID)
		svc.AssertExpectations(t)
	})

	t.Run("inconsistent terms", func(t *testing.T) {
		svc := new(MockSaleService)
		svc.On("Create", mock.Anything, testAdmin, mock.Anything).
			Return(nil, shared.NewValidationError("installment_amount x installment_count does not cover the price"))

		w := doRequest(setupSaleRouter(svc, testAdmin), http.MethodPost, "/sales", map[string]any{
			"customer_id":        uuid.New(),
			"price":              "10000",
			"installment_amount": "100",
			"installment_count":  3,
		})

		assertErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
	})

	t.Run("customer required", func(t *testing.T) {
		svc := new(MockSaleService)
		w := doRequest(setupSaleRouter(svc, testAdmin), http.MethodPost, "/sales",
			map[string]any{"price": "100", "installment_amount": "100", "installment_count": 1})

		assertErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
	})
}

func TestSaleHandler_Scheme(t *testing.T) {
	svc := new(MockSaleService)
	id := uuid.New()
	svc.On("Scheme", mock.Anything, testCollector, id).Return([]trade.SchemeEntry{
		{Amount: decimal.NewFromInt(850), Count: 11},
		{Amount: decimal.NewFromInt(650), Count: 1},
	}, nil)

	w := doRequest(setupSaleRouter(svc, testCollector), http.MethodGet, "/sales/"+id.String()+"/scheme", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	scheme := decodeData[[]trade.SchemeEntry](t, w)
	require.Len(t, scheme, 2)
	assert.Equal(t, 11, scheme[0].Count)
	assert.True(t, scheme[1].Amount.Equal(decimal.NewFromInt(650)))
}

func TestSaleHandler_ListAndGet(t *testing.T) {
	svc := new(MockSaleService)
	id, customerID := uuid.New(), uuid.New()
	svc.On("List", mock.Anything, testCollector, mock.MatchedBy(func(f apptrade.SaleListFilter) bool {
		return f.CustomerID != nil && *f.CustomerID == customerID && f.PendingOnly
	})).Return(shared.NewPaginated([]apptrade.SaleListItemResponse{{ID: id, CustomerID: customerID}}, 1, 1, 20), nil)
	svc.On("GetByID", mock.Anything, testCollector, id).
		Return(nil, shared.NewPermissionError("Sale is not assigned to you"))

	r := setupSaleRouter(svc, testCollector)

	w := doRequest(r, http.MethodGet, "/sales?customer_id="+customerID.String()+"&pending_only=true", nil)
	items := decodeData[[]apptrade.SaleListItemResponse](t, w)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID)

	w = doRequest(r, http.MethodGet, "/sales/"+id.String(), nil)
	assertErrorCode(t, w, http.StatusForbidden, dto.ErrCodeForbidden)
}

func TestSaleHandler_Update(t *testing.T) {
	svc := new(MockSaleService)
	id := uuid.New()
	svc.On("Update", mock.Anything, id, mock.MatchedBy(func(r apptrade.UpdateSaleRequest) bool {
		return r.InstallmentCount != nil && *r.InstallmentCount == 10
	})).Return(nil, shared.ErrInstallmentsHavePayments)

	w := doRequest(setupSaleRouter(svc, testAdmin), http.MethodPut, "/sales/"+id.String(),
		map[string]any{"installment_count": 10})

	assertErrorCode(t, w, http.StatusConflict, dto.ErrCodeInstallmentsHavePayments)
}

func TestSaleHandler_SetUncollectible(t *testing.T) {
	svc := new(MockSaleService)
	id := uuid.New()
	svc.On("SetUncollectible", mock.Anything, id, true).
		Return(&apptrade.SaleResponse{ID: id, Uncollectible: true}, nil)

	r := setupSaleRouter(svc, testAdmin)

	w := doRequest(r, http.MethodPut, "/sales/"+id.String()+"/uncollectible", map[string]bool{"uncollectible": true})
	assert.True(t, decodeData[apptrade.SaleResponse](t, w).Uncollectible)

	w = doRequest(r, http.MethodPut, "/sales/"+id.String()+"/uncollectible", map[string]any{})
	assertErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
}

func TestSaleHandler_AssignCollectorAndDelete(t *testing.T) {
	svc := new(MockSaleService)
	id, collector := uuid.New(), uuid.New()
	svc.On("AssignCollector", mock.Anything, id, &collector).
		Return(&apptrade.SaleResponse{ID: id, CollectorID: &collector}, nil)
	svc.On("Delete", mock.Anything, id).Return(shared.NewDomainError(shared.CodeInstallmentsHavePayment, "A sale with payments cannot be deleted"))

	r := setupSaleRouter(svc, testAdmin)

	w := doRequest(r, http.MethodPut, "/sales/"+id.String()+"/collector", map[string]any{"collector_id": collector})
	got := decodeData[apptrade.SaleResponse](t, w)
	require.NotNil(t, got.CollectorID)
	assert.Equal(t, collector, *got.CollectorID)

	w = doRequest(r, http.MethodDelete, "/sales/"+id.String(), nil)
	assertErrorCode(t, w, http.StatusConflict, dto.ErrCodeInstallmentsHavePayments)
}
