package handler

import (
	"context"
	"net/http"
	"testing"

	appcatalog "github.com/cobranzas/backend/internal/application/catalog"
	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/cobranzas/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) Create(ctx context.Context, req appcatalog.CreateProductRequest) (*appcatalog.ProductResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appcatalog.ProductResponse), args.Error(1)
}

func (m *MockProductService) GetByID(ctx context.Context, productID uuid.UUID) (*appcatalog.ProductResponse, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appcatalog.ProductResponse), args.Error(1)
}

func (m *MockProductService) List(ctx context.Context, filter appcatalog.ProductListFilter) (shared.Paginated[appcatalog.ProductResponse], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(shared.Paginated[appcatalog.ProductResponse]), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, productID uuid.UUID, req appcatalog.UpdateProductRequest) (*appcatalog.ProductResponse, error) {
	args := m.Called(ctx, productID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appcatalog.ProductResponse), args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, productID uuid.UUID) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

func setupProductRouter(svc *MockProductService) *gin.Engine {
	h := NewProductHandler(svc)
	r := gin.New()
	r.Use(withActor(testAdmin))
	r.POST("/products", h.Create)
	r.GET("/products", h.List)
	r.GET("/products/:id", h.GetByID)
	r.PUT("/products/:id", h.Update)
	r.DELETE("/products/:id", h.Delete)
	return r
}

func TestProductHandler_Create(t *testing.T) {
	t.Run("price is decoded as decimal", func(t *testing.T) {
		svc := new(MockProductService)
		svc.On("Create", mock.Anything, mock.MatchedBy(func(r appcatalog.CreateProductRequest) bool {
			return r.SKU == "HEL-01" && r.Price.Equal(decimal.RequireFromString("1500.50"))
		})).Return(&appcatalog.ProductResponse{ID: uuid.New(), SKU: "HEL-01", Price: decimal.RequireFromString("1500.50")}, nil)

		w := doRequest(setupProductRouter(svc), http.MethodPost, "/products",
			`{"name":"Heladera","brand":"Gafa","sku":"HEL-01","price":"1500.50"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, decodeData[appcatalog.ProductResponse](t, w).Price.Equal(decimal.RequireFromString("1500.50")))
		svc.AssertExpectations(t)
	})

	t.Run("duplicate sku", func(t *testing.T) {
		svc := new(MockProductService)
		svc.On("Create", mock.Anything, mock.Anything).Return(nil, shared.ErrAlreadyExists)

		w := doRequest(setupProductRouter(svc), http.MethodPost, "/products",
			appcatalog.CreateProductRequest{Name: "Heladera", SKU: "HEL-01", Price: decimal.NewFromInt(10)})

		assertErrorCode(t, w, http.StatusConflict, dto.ErrCodeAlreadyExists)
	})

	t.Run("sku required", func(t *testing.T) {
		svc := new(MockProductService)
		w := doRequest(setupProductRouter(svc), http.MethodPost, "/products",
			appcatalog.CreateProductRequest{Name: "Heladera"})

		assertErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
	})
}

func TestProductHandler_GetListUpdateDelete(t *testing.T) {
	svc := new(MockProductService)
	id := uuid.New()
	name := "Lavarropas"
	svc.On("GetByID", mock.Anything, id).Return(&appcatalog.ProductResponse{ID: id, Name: "Heladera"}, nil)
	svc.On("List", mock.Anything, mock.MatchedBy(func(f appcatalog.ProductListFilter) bool {
		return f.Search == "hel"
	})).Return(shared.NewPaginated([]appcatalog.ProductResponse{{ID: id}}, 1, 1, 20), nil)
	svc.On("Update", mock.Anything, id, appcatalog.UpdateProductRequest{Name: &name}).
		Return(&appcatalog.ProductResponse{ID: id, Name: name}, nil)
	svc.On("Delete", mock.Anything, id).Return(nil)

	r := setupProductRouter(svc)

	w := doRequest(r, http.MethodGet, "/products/"+id.String(), nil)
	assert.Equal(t, "Heladera", decodeData[appcatalog.ProductResponse](t, w).Name)

	w = doRequest(r, http.MethodGet, "/products?search=hel", nil)
	assert.Len(t, decodeData[[]appcatalog.ProductResponse](t, w), 1)

	w = doRequest(r, http.MethodPut, "/products/"+id.String(), map[string]string{"name": name})
	assert.Equal(t, name, decodeData[appcatalog.ProductResponse](t, w).Name)

	w = doRequest(r, http.MethodDelete, "/products/"+id.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	svc.AssertExpectations(t)
}
