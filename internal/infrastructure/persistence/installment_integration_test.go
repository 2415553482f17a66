//go:build integration

package persistence

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cobranzas/backend/internal/domain/finance"
	"github.com/cobranzas/backend/internal/domain/identity"
	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/cobranzas/backend/internal/domain/trade"
	"github.com/cobranzas/backend/internal/infrastructure/config"
	"github.com/cobranzas/backend/internal/infrastructure/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newPostgresDB starts a disposable postgres container and applies migrations/.
func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("cobranzas_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := migration.NewFromURL(dsn, filepath.Join("..", "..", "..", "migrations"), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
	require.NoError(t, m.Close())

	database, err := OpenDatabase(postgres.Open(dsn), &config.DatabaseConfig{
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5,
		ConnMaxIdleTime: 5,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database.DB
}

func TestIntegration_IncrementPaid_ConcurrentCollectorsNeverOverpay(t *testing.T) {
	db := newPostgresDB(t)
	customer := createCustomer(t, db, "Ana", nil)
	sale := createSale(t, db, customer.ID, "1000", "100", 10)
	first := sale.Installments[0]

	repo := NewGormInstallmentRepository(db)
	const writers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.IncrementPaid(context.Background(), first.ID, d("30"), time.Now().UTC())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, shared.ErrOverpayment):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded)
	assert.Equal(t, writers-3, rejected)

	stored, err := repo.FindByID(context.Background(), first.ID)
	require.NoError(t, err)
	assert.True(t, stored.PaidAmount.Equal(d("90")))
	assert.Equal(t, trade.InstallmentStatusPartial, stored.Status)

	require.NoError(t, repo.IncrementPaid(context.Background(), first.ID, d("10"), time.Now().UTC()))
	stored, err = repo.FindByID(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.InstallmentStatusPaid, stored.Status)
}

func TestIntegration_CollectionClientReferenceUnique(t *testing.T) {
	db := newPostgresDB(t)
	ctx := context.Background()

	collector, err := identity.NewUser("cobrador1", "secret-pass", identity.RoleCollector)
	require.NoError(t, err)
	require.NoError(t, NewGormUserRepository(db).Save(ctx, collector))
	customer := createCustomer(t, db, "Beto", &collector.ID)
	sale := createSale(t, db, customer.ID, "300", "100", 3)

	newCollection := func() *finance.Collection {
		c, err := finance.NewCollection(collector.ID, customer.ID, time.Now().UTC())
		require.NoError(t, err)
		require.NoError(t, c.SetClientReference("device-1:42"))
		require.NoError(t, c.AddApplication(sale, &sale.Installments[0], d("50")))
		return c
	}

	repo := NewGormCollectionRepository(db)
	require.NoError(t, repo.Create(ctx, newCollection()))
	assert.ErrorIs(t, repo.Create(ctx, newCollection()), shared.ErrAlreadyExists)
}
