package persistence

import (
	"context"

	appfinance "github.com/cobranzas/backend/internal/application/finance"
	apptrade "github.com/cobranzas/backend/internal/application/trade"
	"github.com/cobranzas/backend/internal/domain/finance"
	"github.com/cobranzas/backend/internal/domain/partner"
	"github.com/cobranzas/backend/internal/domain/trade"
	"gorm.io/gorm"
)

// GormTransactionScope implements the application transaction scopes using
// GORM transactions. If fn returns an error the transaction is rolled back,
// otherwise it is committed.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// ForTrade returns the scope as seen by the sale services
func (s *GormTransactionScope) ForTrade() apptrade.TransactionScope {
	return tradeScope{s}
}

// ForFinance returns the scope as seen by the collection services
func (s *GormTransactionScope) ForFinance() appfinance.TransactionScope {
	return financeScope{s}
}

type tradeScope struct{ *GormTransactionScope }

// Execute runs fn inside a database transaction
func (s tradeScope) Execute(ctx context.Context, fn func(repos apptrade.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

type financeScope struct{ *GormTransactionScope }

// Execute runs fn inside a database transaction
func (s financeScope) Execute(ctx context.Context, fn func(repos appfinance.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// CollectionRepo returns the collection repository scoped to the current transaction
func (r *gormTransactionalRepositories) CollectionRepo() finance.CollectionRepository {
	return NewGormCollectionRepository(r.tx)
}

// InstallmentRepo returns the installment repository scoped to the current transaction
func (r *gormTransactionalRepositories) InstallmentRepo() trade.InstallmentRepository {
	return NewGormInstallmentRepository(r.tx)
}

// SaleRepo returns the sale repository scoped to the current transaction
func (r *gormTransactionalRepositories) SaleRepo() trade.SaleRepository {
	return NewGormSaleRepository(r.tx)
}

// CustomerRepo returns the customer repository scoped to the current transaction
func (r *gormTransactionalRepositories) CustomerRepo() partner.CustomerRepository {
	return NewGormCustomerRepository(r.tx)
}

var (
	_ apptrade.TransactionalRepositories   = (*gormTransactionalRepositories)(nil)
	_ appfinance.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
