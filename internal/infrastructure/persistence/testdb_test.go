package persistence

import (
	"testing"
	"time"

	"github.com/cobranzas/backend/internal/domain/partner"
	"github.com/cobranzas/backend/internal/domain/trade"
	"github.com/cobranzas/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens an in-memory SQLite database with the full schema.
// A single connection keeps every query on the same in-memory database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Discard,
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func createCustomer(t *testing.T, db *gorm.DB, name string, collectorID *uuid.UUID) *partner.Customer {
	t.Helper()
	customer, err := partner.NewCustomer(name, "Calle 123", "Cordoba")
	require.NoError(t, err)
	customer.AssignCollector(collectorID)
	require.NoError(t, NewGormCustomerRepository(db).Save(t.Context(), customer))
	return customer
}

func createSale(t *testing.T, db *gorm.DB, customerID uuid.UUID, price, amount string, count int) *trade.Sale {
	t.Helper()
	sale, err := trade.NewSale(customerID, uuid.New(), d(price), d(amount), count, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, NewGormSaleRepository(db).Create(t.Context(), sale))
	return sale
}
