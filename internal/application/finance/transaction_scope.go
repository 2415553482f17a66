package finance

import (
	"context"

	"github.com/cobranzas/backend/internal/domain/finance"
	"github.com/cobranzas/backend/internal/domain/partner"
	"github.com/cobranzas/backend/internal/domain/trade"
)

// TransactionScope provides transactional access to the repositories touched
// by collection batches. A failing fn rolls back every write it made.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the repositories bound to one transaction
type TransactionalRepositories interface {
	// CollectionRepo returns the collection repository scoped to the current transaction
	CollectionRepo() finance.CollectionRepository
	// InstallmentRepo returns the installment repository scoped to the current transaction
	InstallmentRepo() trade.InstallmentRepository
	// SaleRepo returns the sale repository scoped to the current transaction
	SaleRepo() trade.SaleRepository
	// CustomerRepo returns the customer repository scoped to the current transaction
	CustomerRepo() partner.CustomerRepository
}

// NoOpTransactionScope runs fn against plain repositories without a transaction.
// Used by unit tests.
type NoOpTransactionScope struct {
	collectionRepo  finance.CollectionRepository
	installmentRepo trade.InstallmentRepository
	saleRepo        trade.SaleRepository
	customerRepo    partner.CustomerRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope
func NewNoOpTransactionScope(
	collectionRepo finance.CollectionRepository,
	installmentRepo trade.InstallmentRepository,
	saleRepo trade.SaleRepository,
	customerRepo partner.CustomerRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		collectionRepo:  collectionRepo,
		installmentRepo: installmentRepo,
		saleRepo:        saleRepo,
		customerRepo:    customerRepo,
	}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// CollectionRepo returns the collection repository
func (s *NoOpTransactionScope) CollectionRepo() finance.CollectionRepository {
	return s.collectionRepo
}

// InstallmentRepo returns the installment repository
func (s *NoOpTransactionScope) InstallmentRepo() trade.InstallmentRepository {
	return s.installmentRepo
}

// SaleRepo returns the sale repository
func (s *NoOpTransactionScope) SaleRepo() trade.SaleRepository {
	return s.saleRepo
}

// CustomerRepo returns the customer repository
func (s *NoOpTransactionScope) CustomerRepo() partner.CustomerRepository {
	return s.customerRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
