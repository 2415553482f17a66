package trade

import (
	"context"

	"github.com/cobranzas/backend/internal/domain/trade"
)

// TransactionScope provides transactional access to sale repositories.
// Everything done through the repositories handed to fn commits or rolls back together.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the repositories bound to one transaction
type TransactionalRepositories interface {
	// SaleRepo returns the sale repository scoped to the current transaction
	SaleRepo() trade.SaleRepository
}

// NoOpTransactionScope runs fn against plain repositories without a transaction.
// Used by unit tests.
type NoOpTransactionScope struct {
	saleRepo trade.SaleRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope
func NewNoOpTransactionScope(saleRepo trade.SaleRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{saleRepo: saleRepo}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// SaleRepo returns the sale repository
func (s *NoOpTransactionScope) SaleRepo() trade.SaleRepository {
	return s.saleRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
