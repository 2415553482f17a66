package trade

import (
	"context"
	"testing"
	"time"

	"github.com/cobranzas/backend/internal/domain/catalog"
	"github.com/cobranzas/backend/internal/domain/identity"
	"github.com/cobranzas/backend/internal/domain/partner"
	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/cobranzas/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// =============================================================================
// Mock Repositories
// =============================================================================

// MockSaleRepository is a mock implementation of SaleRepository
type MockSaleRepository struct {
	mock.Mock
}

func (m *MockSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Sale, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]trade.Sale, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]trade.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindAll(ctx context.Context, filter trade.SaleFilter) ([]trade.Sale, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]trade.Sale), args.Get(1).(int64), args.Error(2)
}

func (m *MockSaleRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]trade.Sale, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).([]trade.Sale), args.Error(1)
}

func (m *MockSaleRepository) Create(ctx context.Context, sale *trade.Sale) error {
	return m.Called(ctx, sale).Error(0)
}

func (m *MockSaleRepository) SaveWithLock(ctx context.Context, sale *trade.Sale) error {
	return m.Called(ctx, sale).Error(0)
}

func (m *MockSaleRepository) ReplaceInstallments(ctx context.Context, sale *trade.Sale) error {
	return m.Called(ctx, sale).Error(0)
}

func (m *MockSaleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockSaleRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).(int64), args.Error(1)
}

// MockCustomerRepository is a mock implementation of CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]partner.Customer, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindAll(ctx context.Context, filter partner.CustomerFilter) ([]partner.Customer, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]partner.Customer), args.Get(1).(int64), args.Error(2)
}

func (m *MockCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	return m.Called(ctx, customer).Error(0)
}

func (m *MockCustomerRepository) SaveWithLock(ctx context.Context, customer *partner.Customer) error {
	return m.Called(ctx, customer).Error(0)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockProductRepository is a mock implementation of ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) ExistsBySKU(ctx context.Context, sku string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, sku, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Save(ctx context.Context, user *identity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context, filter identity.UserFilter) ([]*identity.User, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*identity.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) SaveLoginLog(ctx context.Context, log *identity.LoginLog) error {
	return m.Called(ctx, log).Error(0)
}

// =============================================================================
// Helpers
// =============================================================================

type saleFixture struct {
	sales     *MockSaleRepository
	customers *MockCustomerRepository
	products  *MockProductRepository
	users     *MockUserRepository
	svc       *SaleService
}

func newSaleFixture() *saleFixture {
	f := &saleFixture{
		sales:     new(MockSaleRepository),
		customers: new(MockCustomerRepository),
		products:  new(MockProductRepository),
		users:     new(MockUserRepository),
	}
	f.svc = NewSaleService(NewNoOpTransactionScope(f.sales), f.sales, f.customers, f.products, f.users, zap.NewNop())
	return f
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func newCustomer(t *testing.T) *partner.Customer {
	t.Helper()
	c, err := partner.NewCustomer("Ana Perez", "Calle 1", "Rosario")
	require.NoError(t, err)
	return c
}

func newTestSale(t *testing.T, customerID uuid.UUID) *trade.Sale {
	t.Helper()
	sale, err := trade.NewSale(customerID, uuid.New(), dec(1000), dec(300), 3, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return sale
}

var admin = identity.NewActor(uuid.New(), identity.RoleAdmin)

// =============================================================================
// Tests
// =============================================================================

func TestSaleService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("generates schedule and product lines", func(t *testing.T) {
		f := newSaleFixture()
		customer := newCustomer(t)
		product, err := catalog.NewProduct("Televisor", "Noblex", "TV-1", dec(9000))
		require.NoError(t, err)

		f.customers.On("FindByID", ctx, customer.ID).Return(customer, nil)
		f.products.On("FindByIDs", ctx, []uuid.UUID{product.ID}).Return([]catalog.Product{*product}, nil)
		f.sales.On("Create", ctx, mock.AnythingOfType("*trade.Sale")).Return(nil)

		resp, err := f.svc.Create(ctx, admin, CreateSaleRequest{
			CustomerID:        customer.ID,
			Price:             dec(10000),
			InstallmentAmount: dec(850),
			InstallmentCount:  12,
			Remarks:           "entrega a domicilio",
			Items:             []CreateSaleItemInput{{ProductID: product.ID}},
		})
		require.NoError(t, err)
		require.Len(t, resp.Installments, 12)
		assert.True(t, resp.Installments[10].Amount.Equal(dec(850)))
		assert.True(t, resp.Installments[11].Amount.Equal(dec(650)))
		assert.True(t, resp.PendingBalance.Equal(dec(10000)))
		assert.Equal(t, admin.UserID, resp.CreatedBy)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, "Televisor", resp.Items[0].ProductName)
		assert.True(t, resp.Items[0].Price.Equal(dec(9000)))
	})

	t.Run("declared count disagrees with terms", func(t *testing.T) {
		f := newSaleFixture()
		customer := newCustomer(t)
		f.customers.On("FindByID", ctx, customer.ID).Return(customer, nil)

		_, err := f.svc.Create(ctx, admin, CreateSaleRequest{
			CustomerID: customer.ID, Price: dec(1000), InstallmentAmount: dec(250), InstallmentCount: 5,
		})
		assert.ErrorIs(t, err, shared.ErrValidation)
		f.sales.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("unknown product", func(t *testing.T) {
		f := newSaleFixture()
		customer := newCustomer(t)
		missing := uuid.New()
		f.customers.On("FindByID", ctx, customer.ID).Return(customer, nil)
		f.products.On("FindByIDs", ctx, []uuid.UUID{missing}).Return([]catalog.Product{}, nil)

		_, err := f.svc.Create(ctx, admin, CreateSaleRequest{
			CustomerID: customer.ID, Price: dec(1000), InstallmentAmount: dec(250), InstallmentCount: 4,
			Items: []CreateSaleItemInput{{ProductID: missing}},
		})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("unknown customer", func(t *testing.T) {
		f := newSaleFixture()
		id := uuid.New()
		f.customers.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)

		_, err := f.svc.Create(ctx, admin, CreateSaleRequest{
			CustomerID: id, Price: dec(1000), InstallmentAmount: dec(250), InstallmentCount: 4,
		})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestSaleService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("changed terms regenerate installments", func(t *testing.T) {
		f := newSaleFixture()
		sale := newTestSale(t, uuid.New())
		f.sales.On("FindByID", ctx, sale.ID).Return(sale, nil)
		f.sales.On("SaveWithLock", ctx, sale).Return(nil)
		f.sales.On("ReplaceInstallments", ctx, sale).Return(nil)

		price := dec(1200)
		count := 4
		resp, err := f.svc.Update(ctx, sale.ID, UpdateSaleRequest{Price: &price, InstallmentCount: &count, Version: 1})
		require.NoError(t, err)
		assert.Len(t, resp.Installments, 4)
		assert.Equal(t, 2, resp.Version)
		f.sales.AssertCalled(t, "ReplaceInstallments", ctx, sale)
	})

	t.Run("remarks only leaves installments alone", func(t *testing.T) {
		f := newSaleFixture()
		sale := newTestSale(t, uuid.New())
		require.NoError(t, sale.Installments[0].ApplyPayment(dec(100)))
		f.sales.On("FindByID", ctx, sale.ID).Return(sale, nil)
		f.sales.On("SaveWithLock", ctx, sale).Return(nil)

		remarks := "cliente se mudó"
		resp, err := f.svc.Update(ctx, sale.ID, UpdateSaleRequest{Remarks: &remarks})
		require.NoError(t, err)
		assert.Equal(t, remarks, resp.Remarks)
		f.sales.AssertNotCalled(t, "ReplaceInstallments", mock.Anything, mock.Anything)
	})

	t.Run("terms change with payments is refused", func(t *testing.T) {
		f := newSaleFixture()
		sale := newTestSale(t, uuid.New())
		require.NoError(t, sale.Installments[0].ApplyPayment(dec(100)))
		f.sales.On("FindByID", ctx, sale.ID).Return(sale, nil)

		price := dec(1200)
		count := 4
		_, err := f.svc.Update(ctx, sale.ID, UpdateSaleRequest{Price: &price, InstallmentCount: &count})
		assert.ErrorIs(t, err, shared.ErrInstallmentsHavePayments)
		f.sales.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("terms change after payments revised to zero is refused", func(t *testing.T) {
		f := newSaleFixture()
		sale := newTestSale(t, uuid.New())
		sale.RecordedApplications = 1
		f.sales.On("FindByID", ctx, sale.ID).Return(sale, nil)

		count := 4
		price := dec(1200)
		_, err := f.svc.Update(ctx, sale.ID, UpdateSaleRequest{Price: &price, InstallmentCount: &count})
		assert.ErrorIs(t, err, shared.ErrInstallmentsHavePayments)
		f.sales.AssertNotCalled(t, "ReplaceInstallments", mock.Anything, mock.Anything)
	})

	t.Run("stale version", func(t *testing.T) {
		f := newSaleFixture()
		sale := newTestSale(t, uuid.New())
		f.sales.On("FindByID", ctx, sale.ID).Return(sale, nil)

		_, err := f.svc.Update(ctx, sale.ID, UpdateSaleRequest{Version: 3})
		assert.ErrorIs(t, err, shared.ErrConcurrentModification)
	})
}

func TestSaleService_GetByID_Scoping(t *testing.T) {
	ctx := context.Background()
	collectorID := uuid.New()
	collector := identity.NewActor(collectorID, identity.RoleCollector)

	t.Run("collector through customer assignment", func(t *testing.T) {
		f := newSaleFixture()
		customer := newCustomer(t)
		customer.AssignCollector(&collectorID)
		sale := newTestSale(t, customer.ID)
		f.sales.On("FindByID", ctx, sale.ID).Return(sale, nil)
		f.customers.On("FindByID", ctx, customer.ID).Return(customer, nil)

		_, err := f.svc.GetByID(ctx, collector, sale.ID)
		assert.NoError(t, err)
	})

	t.Run("collector through sale assignment skips customer lookup", func(t *testing.T) {
		f := newSaleFixture()
		sale := newTestSale(t, uuid.New())
		sale.AssignCollector(&collectorID)
		f.sales.On("FindByID", ctx, sale.ID).Return(sale, nil)

		scheme, err := f.svc.Scheme(ctx, collector, sale.ID)
		require.NoError(t, err)
		require.Len(t, scheme, 2)
		assert.Equal(t, 2, scheme[0].Count)
		assert.True(t, scheme[1].Amount.Equal(dec(400)))
		f.customers.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("unrelated collector", func(t *testing.T) {
		f := newSaleFixture()
		customer := newCustomer(t)
		sale := newTestSale(t, customer.ID)
		f.sales.On("FindByID", ctx, sale.ID).Return(sale, nil)
		f.customers.On("FindByID", ctx, customer.ID).Return(customer, nil)

		_, err := f.svc.GetByID(ctx, collector, sale.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestSaleService_List(t *testing.T) {
	ctx := context.Background()
	f := newSaleFixture()
	collectorID := uuid.New()
	sale := newTestSale(t, uuid.New())
	f.sales.On("FindAll", ctx, mock.MatchedBy(func(filter trade.SaleFilter) bool {
		return filter.VisibleTo != nil && *filter.VisibleTo == collectorID && filter.PendingOnly && filter.OrderBy == "sale_date"
	})).Return([]trade.Sale{*sale}, int64(1), nil)

	page, err := f.svc.List(ctx, identity.NewActor(collectorID, identity.RoleCollector), SaleListFilter{PendingOnly: true})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 3, page.Items[0].InstallmentCount)
	assert.True(t, page.Items[0].PendingBalance.Equal(dec(1000)))
}

func TestSaleService_SetUncollectible(t *testing.T) {
	ctx := context.Background()
	f := newSaleFixture()
	sale := newTestSale(t, uuid.New())
	f.sales.On("FindByID", ctx, sale.ID).Return(sale, nil)
	f.sales.On("SaveWithLock", ctx, sale).Return(nil)

	resp, err := f.svc.SetUncollectible(ctx, sale.ID, true)
	require.NoError(t, err)
	assert.True(t, resp.Uncollectible)
	assert.Equal(t, 2, resp.Version)
}

func TestSaleService_AssignCollector_RejectsInactive(t *testing.T) {
	ctx := context.Background()
	f := newSaleFixture()
	sale := newTestSale(t, uuid.New())
	user, err := identity.NewUser("cobrador", "password123", identity.RoleCollector)
	require.NoError(t, err)
	user.Deactivate()
	f.sales.On("FindByID", ctx, sale.ID).Return(sale, nil)
	f.users.On("FindByID", ctx, user.ID).Return(user, nil)

	_, err = f.svc.AssignCollector(ctx, sale.ID, &user.ID)
	assert.ErrorIs(t, err, shared.ErrValidation)
	f.sales.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestSaleService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("with payments", func(t *testing.T) {
		f := newSaleFixture()
		sale := newTestSale(t, uuid.New())
		require.NoError(t, sale.Installments[2].ApplyPayment(dec(10)))
		f.sales.On("FindByID", ctx, sale.ID).Return(sale, nil)

		err := f.svc.Delete(ctx, sale.ID)
		assert.ErrorIs(t, err, shared.ErrInstallmentsHavePayments)
		f.sales.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("with applications revised to zero", func(t *testing.T) {
		f := newSaleFixture()
		sale := newTestSale(t, uuid.New())
		sale.RecordedApplications = 2
		f.sales.On("FindByID", ctx, sale.ID).Return(sale, nil)

		err := f.svc.Delete(ctx, sale.ID)
		assert.ErrorIs(t, err, shared.ErrInstallmentsHavePayments)
		f.sales.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("without payments", func(t *testing.T) {
		f := newSaleFixture()
		sale := newTestSale(t, uuid.New())
		f.sales.On("FindByID", ctx, sale.ID).Return(sale, nil)
		f.sales.On("Delete", ctx, sale.ID).Return(nil)

		assert.NoError(t, f.svc.Delete(ctx, sale.ID))
	})
}
