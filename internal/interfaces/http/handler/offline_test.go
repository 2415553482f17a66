package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appfinance "github.com/cobranzas/backend/internal/application/finance"
	appoffline "github.com/cobranzas/backend/internal/application/offline"
	"github.com/cobranzas/backend/internal/domain/identity"
	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/cobranzas/backend/internal/interfaces/http/dto"
	"github.com/cobranzas/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOfflineService struct {
	mock.Mock
}

func (m *MockOfflineService) Snapshot(ctx context.Context, actor identity.Actor, since *time.Time) (*appoffline.SnapshotResponse, error) {
	args := m.Called(ctx, actor, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appoffline.SnapshotResponse), args.Error(1)
}

func (m *MockOfflineService) SyncMarker(ctx context.Context, actor identity.Actor) (*appoffline.SyncMarkerResponse, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appoffline.SyncMarkerResponse), args.Error(1)
}

func (m *MockOfflineService) WriteBack(ctx context.Context, actor identity.Actor, idempotencyKey string, req appfinance.RecordCollectionRequest) (*appoffline.WriteBackResponse, error) {
	args := m.Called(ctx, actor, idempotencyKey, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appoffline.WriteBackResponse), args.Error(1)
}

func setupOfflineRouter(svc *MockOfflineService) *gin.Engine {
	h := NewOfflineHandler(svc)
	r := gin.New()
	r.Use(withActor(testCollector))
	r.GET("/offline/snapshot", h.Snapshot)
	r.GET("/offline/sync-marker", h.SyncMarker)
	r.POST("/offline/collections", h.WriteBack)
	return r
}

func postWriteBack(r http.Handler, key string, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/offline/collections", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(middleware.IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestOfflineHandler_Snapshot(t *testing.T) {
	t.Run("full", func(t *testing.T) {
		svc := new(MockOfflineService)
		marker := time.Now().UTC()
		svc.On("Snapshot", mock.Anything, testCollector, (*time.Time)(nil)).Return(&appoffline.SnapshotResponse{
			SyncMarker: &marker,
			Customers:  []appoffline.SnapshotCustomer{{ID: uuid.New(), Name: "Juan"}},
		}, nil)

		w := doRequest(setupOfflineRouter(svc), http.MethodGet, "/offline/snapshot", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		got := decodeData[appoffline.SnapshotResponse](t, w)
		assert.Len(t, got.Customers, 1)
		require.NotNil(t, got.SyncMarker)
	})

	t.Run("delta since marker", func(t *testing.T) {
		svc := new(MockOfflineService)
		since := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
		svc.On("Snapshot", mock.Anything, testCollector, mock.MatchedBy(func(s *time.Time) bool {
			return s != nil && s.Equal(since)
		})).Return(&appoffline.SnapshotResponse{Since: &since}, nil)

		w := doRequest(setupOfflineRouter(svc), http.MethodGet, "/offline/snapshot?since=2026-03-01T10:30:00Z", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("malformed since", func(t *testing.T) {
		svc := new(MockOfflineService)
		w := doRequest(setupOfflineRouter(svc), http.MethodGet, "/offline/snapshot?since=yesterday", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestOfflineHandler_SyncMarker(t *testing.T) {
	svc := new(MockOfflineService)
	marker := time.Now().UTC()
	svc.On("SyncMarker", mock.Anything, testCollector).Return(&appoffline.SyncMarkerResponse{SyncMarker: &marker}, nil)

	w := doRequest(setupOfflineRouter(svc), http.MethodGet, "/offline/sync-marker", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, decodeData[appoffline.SyncMarkerResponse](t, w).SyncMarker)
}

func TestOfflineHandler_WriteBack(t *testing.T) {
	body := appfinance.RecordCollectionRequest{
		CustomerID: uuid.New(),
		Lines:      []appfinance.PaymentLineInput{{InstallmentID: uuid.New()}},
	}
	collection := &appfinance.CollectionResponse{ID: uuid.New(), ClientReference: "key-1"}

	t.Run("applied", func(t *testing.T) {
		svc := new(MockOfflineService)
		svc.On("WriteBack", mock.Anything, testCollector, "key-1", mock.Anything).
			Return(&appoffline.WriteBackResponse{Collection: collection}, nil)

		w := postWriteBack(setupOfflineRouter(svc), "key-1", body)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.False(t, decodeData[appoffline.WriteBackResponse](t, w).Duplicate)
	})

	t.Run("replayed key", func(t *testing.T) {
		svc := new(MockOfflineService)
		svc.On("WriteBack", mock.Anything, testCollector, "key-1", mock.Anything).
			Return(&appoffline.WriteBackResponse{Collection: collection, Duplicate: true}, nil)

		w := postWriteBack(setupOfflineRouter(svc), "key-1", body)

		assert.Equal(t, http.StatusOK, w.Code)
		got := decodeData[appoffline.WriteBackResponse](t, w)
		assert.True(t, got.Duplicate)
		assert.Equal(t, collection.ID, got.Collection.ID)
	})

	t.Run("missing key", func(t *testing.T) {
		svc := new(MockOfflineService)

		w := postWriteBack(setupOfflineRouter(svc), "", body)

		assertErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
		svc.AssertNotCalled(t, "WriteBack", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("key in flight", func(t *testing.T) {
		svc := new(MockOfflineService)
		svc.On("WriteBack", mock.Anything, testCollector, "key-2", mock.Anything).
			Return(nil, shared.NewDomainError(shared.CodeConcurrentModification, "A request with this idempotency key is already being processed"))

		w := postWriteBack(setupOfflineRouter(svc), "key-2", body)

		assertErrorCode(t, w, http.StatusConflict, dto.ErrCodeConcurrentModification)
	})
}
