package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	appreport "github.com/cobranzas/backend/internal/application/report"
	"github.com/cobranzas/backend/internal/domain/identity"
	"github.com/cobranzas/backend/internal/domain/report"
	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/cobranzas/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockReportService struct {
	mock.Mock
}

func exportResult(args mock.Arguments) (*appreport.ExportResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appreport.ExportResult), args.Error(1)
}

func (m *MockReportService) PendingBalance(ctx context.Context, actor identity.Actor, filter appreport.PendingBalanceFilter) (*appreport.PendingBalanceReport, error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appreport.PendingBalanceReport), args.Error(1)
}

func (m *MockReportService) Defaulters(ctx context.Context, actor identity.Actor, filter appreport.DefaultersFilter) (*appreport.DefaultersReport, error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appreport.DefaultersReport), args.Error(1)
}

func (m *MockReportService) DeliveryManifest(ctx context.Context, actor identity.Actor, filter appreport.DeliveryFilter) (*report.DeliveryManifest, error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.DeliveryManifest), args.Error(1)
}

func (m *MockReportService) ExportPendingBalance(ctx context.Context, actor identity.Actor, filter appreport.PendingBalanceFilter) (*appreport.ExportResult, error) {
	return exportResult(m.Called(ctx, actor, filter))
}

func (m *MockReportService) ExportDefaulters(ctx context.Context, actor identity.Actor, filter appreport.DefaultersFilter) (*appreport.ExportResult, error) {
	return exportResult(m.Called(ctx, actor, filter))
}

func (m *MockReportService) ExportDeliveryManifest(ctx context.Context, actor identity.Actor, filter appreport.DeliveryFilter) (*appreport.ExportResult, error) {
	return exportResult(m.Called(ctx, actor, filter))
}

func setupReportRouter(svc *MockReportService, actor identity.Actor) *gin.Engine {
	h := NewReportHandler(svc)
	r := gin.New()
	r.Use(withActor(actor))
	r.GET("/reports/pending-balance", h.PendingBalance)
	r.GET("/reports/defaulters", h.Defaulters)
	r.GET("/reports/delivery", h.Delivery)
	return r
}

func TestReportHandler_PendingBalance(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		svc := new(MockReportService)
		svc.On("PendingBalance", mock.Anything, testAdmin, appreport.PendingBalanceFilter{City: "Rosario"}).
			Return(&appreport.PendingBalanceReport{
				Rows:         []report.PendingBalanceRow{{CustomerName: "Juan", Pending: decimal.NewFromInt(3000)}},
				TotalPending: decimal.NewFromInt(3000),
			}, nil)

		w := doRequest(setupReportRouter(svc, testAdmin), http.MethodGet, "/reports/pending-balance?city=Rosario", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		got := decodeData[appreport.PendingBalanceReport](t, w)
		require.Len(t, got.Rows, 1)
		assert.True(t, got.TotalPending.Equal(decimal.NewFromInt(3000)))
		svc.AssertNotCalled(t, "ExportPendingBalance", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("xlsx download", func(t *testing.T) {
		svc := new(MockReportService)
		svc.On("ExportPendingBalance", mock.Anything, testAdmin, mock.Anything).Return(&appreport.ExportResult{
			Filename:    "pending_balance_20260301_120000.xlsx",
			ContentType: appreport.XLSXContentType,
			Data:        []byte("PK"),
			DownloadURL: "https://bucket.example/reports/pending.xlsx",
		}, nil)

		w := doRequest(setupReportRouter(svc, testAdmin), http.MethodGet, "/reports/pending-balance?format=xlsx", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, appreport.XLSXContentType, w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="pending_balance_20260301_120000.xlsx"`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, "https://bucket.example/reports/pending.xlsx", w.Header().Get(DownloadURLHeader))
		assert.Equal(t, "PK", w.Body.String())
	})

	t.Run("unknown format", func(t *testing.T) {
		svc := new(MockReportService)
		w := doRequest(setupReportRouter(svc, testAdmin), http.MethodGet, "/reports/pending-balance?format=csv", nil)
		assertErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
	})

	t.Run("collector asking for another portfolio", func(t *testing.T) {
		svc := new(MockReportService)
		other := uuid.New()
		svc.On("PendingBalance", mock.Anything, testCollector, appreport.PendingBalanceFilter{CollectorID: &other}).
			Return(nil, shared.NewPermissionError("Collectors can only report on their own portfolio"))

		w := doRequest(setupReportRouter(svc, testCollector), http.MethodGet,
			"/reports/pending-balance?collector_id="+other.String(), nil)

		assertErrorCode(t, w, http.StatusForbidden, dto.ErrCodeForbidden)
	})
}

func TestReportHandler_Defaulters(t *testing.T) {
	svc := new(MockReportService)
	svc.On("Defaulters", mock.Anything, testAdmin, mock.MatchedBy(func(f appreport.DefaultersFilter) bool {
		return f.Days == 60 && f.AsOf != nil && f.City == "Funes"
	})).Return(&appreport.DefaultersReport{Days: 60, Rows: []report.DefaulterRow{{DaysWithoutPayment: 75}}}, nil)

	w := doRequest(setupReportRouter(svc, testAdmin), http.MethodGet,
		"/reports/defaulters?days=60&as_of=2026-03-31&city=Funes", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	got := decodeData[appreport.DefaultersReport](t, w)
	require.Len(t, got.Rows, 1)
	assert.Equal(t, 75, got.Rows[0].DaysWithoutPayment)
	svc.AssertExpectations(t)
}

func TestReportHandler_Delivery(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		svc := new(MockReportService)
		from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local)
		svc.On("DeliveryManifest", mock.Anything, testAdmin, mock.MatchedBy(func(f appreport.DeliveryFilter) bool {
			return f.From != nil && f.From.Equal(from) && f.To == nil
		})).Return(&report.DeliveryManifest{
			Rows:  []report.DeliveryRow{{CollectorName: "cobrador1", Collections: 4, Total: decimal.NewFromInt(4200)}},
			Total: decimal.NewFromInt(4200),
		}, nil)

		w := doRequest(setupReportRouter(svc, testAdmin), http.MethodGet, "/reports/delivery?from=2026-03-01", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decodeData[report.DeliveryManifest](t, w).Rows, 1)
	})

	t.Run("export not configured", func(t *testing.T) {
		svc := new(MockReportService)
		svc.On("ExportDeliveryManifest", mock.Anything, testAdmin, mock.Anything).
			Return(nil, shared.NewDomainError(shared.CodeInvalidState, "Spreadsheet export is not configured"))

		w := doRequest(setupReportRouter(svc, testAdmin), http.MethodGet, "/reports/delivery?format=xlsx", nil)

		assertErrorCode(t, w, http.StatusConflict, dto.ErrCodeInvalidState)
	})
}
