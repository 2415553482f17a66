package trade

import (
	"context"
	"time"

	"github.com/cobranzas/backend/internal/domain/catalog"
	"github.com/cobranzas/backend/internal/domain/finance"
	"github.com/cobranzas/backend/internal/domain/identity"
	"github.com/cobranzas/backend/internal/domain/partner"
	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/cobranzas/backend/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SaleService handles installment sale operations
type SaleService struct {
	scope        TransactionScope
	saleRepo     trade.SaleRepository
	customerRepo partner.CustomerRepository
	productRepo  catalog.ProductRepository
	userRepo     identity.UserRepository
	logger       *zap.Logger
}

// NewSaleService creates a new SaleService
func NewSaleService(
	scope TransactionScope,
	saleRepo trade.SaleRepository,
	customerRepo partner.CustomerRepository,
	productRepo catalog.ProductRepository,
	userRepo identity.UserRepository,
	logger *zap.Logger,
) *SaleService {
	return &SaleService{
		scope:        scope,
		saleRepo:     saleRepo,
		customerRepo: customerRepo,
		productRepo:  productRepo,
		userRepo:     userRepo,
		logger:       logger,
	}
}

// Create creates a sale with its product lines and installment schedule
func (s *SaleService) Create(ctx context.Context, actor identity.Actor, req CreateSaleRequest) (*SaleResponse, error) {
	if _, err := s.customerRepo.FindByID(ctx, req.CustomerID); err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewValidationError("Customer does not exist")
		}
		return nil, err
	}
	if req.CollectorID != nil {
		if err := identity.EnsureActiveCollector(ctx, s.userRepo, *req.CollectorID); err != nil {
			return nil, err
		}
	}

	saleDate := time.Time{}
	if req.SaleDate != nil {
		saleDate = *req.SaleDate
	}
	sale, err := trade.NewSale(req.CustomerID, actor.UserID, req.Price, req.InstallmentAmount, req.InstallmentCount, saleDate)
	if err != nil {
		return nil, err
	}
	if err := sale.SetRemarks(req.Remarks); err != nil {
		return nil, err
	}
	sale.CollectorID = req.CollectorID

	if err := s.addItems(ctx, sale, req.Items); err != nil {
		return nil, err
	}

	if err := s.saleRepo.Create(ctx, sale); err != nil {
		return nil, err
	}

	s.logger.Info("Sale created",
		zap.String("sale_id", sale.ID.String()),
		zap.String("customer_id", sale.CustomerID.String()),
		zap.String("price", sale.Price.String()),
		zap.Int("installments", len(sale.Installments)))

	response := ToSaleResponse(sale)
	return &response, nil
}

func (s *SaleService) addItems(ctx context.Context, sale *trade.Sale, items []CreateSaleItemInput) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	for _, item := range items {
		product, ok := byID[item.ProductID]
		if !ok {
			return shared.NewValidationError("Product " + item.ProductID.String() + " does not exist")
		}
		price := product.Price
		if item.Price != nil {
			price = *item.Price
		}
		if err := sale.AddItem(product.ID, product.Name, price); err != nil {
			return err
		}
	}
	return nil
}

// GetByID retrieves a sale visible to the actor
func (s *SaleService) GetByID(ctx context.Context, actor identity.Actor, saleID uuid.UUID) (*SaleResponse, error) {
	sale, err := s.findVisible(ctx, actor, saleID)
	if err != nil {
		return nil, err
	}
	response := ToSaleResponse(sale)
	return &response, nil
}

// Scheme returns the installment scheme of a sale: installments grouped by amount
func (s *SaleService) Scheme(ctx context.Context, actor identity.Actor, saleID uuid.UUID) ([]trade.SchemeEntry, error) {
	sale, err := s.findVisible(ctx, actor, saleID)
	if err != nil {
		return nil, err
	}
	return sale.Scheme(), nil
}

// findVisible loads a sale and hides it from collectors assigned to neither
// the sale nor its customer
func (s *SaleService) findVisible(ctx context.Context, actor identity.Actor, saleID uuid.UUID) (*trade.Sale, error) {
	sale, err := s.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin() || sale.IsAssignedTo(actor.UserID) {
		return sale, nil
	}
	customer, err := s.customerRepo.FindByID(ctx, sale.CustomerID)
	if err != nil {
		return nil, err
	}
	if !finance.CanReconcile(actor, customer.CollectorID, sale.CollectorID) {
		return nil, shared.NewNotFoundError("Sale not found")
	}
	return sale, nil
}

// List retrieves sales visible to the actor with filtering and pagination
func (s *SaleService) List(ctx context.Context, actor identity.Actor, filter SaleListFilter) (shared.Paginated[SaleListItemResponse], error) {
	domainFilter := trade.SaleFilter{
		Filter:        shared.DefaultFilter(),
		CustomerID:    filter.CustomerID,
		CollectorID:   filter.CollectorID,
		Uncollectible: filter.Uncollectible,
		PendingOnly:   filter.PendingOnly,
	}
	domainFilter.OrderBy = "sale_date"
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	if !actor.IsAdmin() {
		domainFilter.VisibleTo = &actor.UserID
	}

	sales, total, err := s.saleRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[SaleListItemResponse]{}, err
	}
	items := make([]SaleListItemResponse, len(sales))
	for i := range sales {
		items[i] = ToSaleListItemResponse(&sales[i])
	}
	return shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize), nil
}

// Update edits a sale. Changed terms regenerate the installments in the same
// transaction as the header update; a sale with payments keeps its schedule
// and only non-term fields may change.
func (s *SaleService) Update(ctx context.Context, saleID uuid.UUID, req UpdateSaleRequest) (*SaleResponse, error) {
	var updated *trade.Sale
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		sales := repos.SaleRepo()
		sale, err := sales.FindByID(ctx, saleID)
		if err != nil {
			return err
		}
		if req.Version != 0 && req.Version != sale.Version {
			return shared.ErrConcurrentModification
		}

		price, amount, count := sale.Price, sale.InstallmentAmount, sale.InstallmentCount
		if req.Price != nil {
			price = *req.Price
		}
		if req.InstallmentAmount != nil {
			amount = *req.InstallmentAmount
		}
		if req.InstallmentCount != nil {
			count = *req.InstallmentCount
		}
		remarks := sale.Remarks
		if req.Remarks != nil {
			remarks = *req.Remarks
		}
		saleDate := time.Time{}
		if req.SaleDate != nil {
			saleDate = *req.SaleDate
		}

		regenerated, err := sale.Edit(remarks, saleDate, price, amount, count)
		if err != nil {
			return err
		}
		if err := sales.SaveWithLock(ctx, sale); err != nil {
			return err
		}
		if regenerated {
			if err := sales.ReplaceInstallments(ctx, sale); err != nil {
				return err
			}
			s.logger.Info("Sale installments regenerated",
				zap.String("sale_id", sale.ID.String()),
				zap.Int("installments", len(sale.Installments)))
		}
		updated = sale
		return nil
	})
	if err != nil {
		return nil, err
	}

	response := ToSaleResponse(updated)
	return &response, nil
}

// SetUncollectible flags or unflags a sale as written off
func (s *SaleService) SetUncollectible(ctx context.Context, saleID uuid.UUID, uncollectible bool) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	sale.SetUncollectible(uncollectible)
	if err := s.saleRepo.SaveWithLock(ctx, sale); err != nil {
		return nil, err
	}

	s.logger.Info("Sale collectibility changed",
		zap.String("sale_id", sale.ID.String()),
		zap.Bool("uncollectible", uncollectible))
	response := ToSaleResponse(sale)
	return &response, nil
}

// AssignCollector sets or clears (nil) the sale-level collector
func (s *SaleService) AssignCollector(ctx context.Context, saleID uuid.UUID, collectorID *uuid.UUID) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if collectorID != nil {
		if err := identity.EnsureActiveCollector(ctx, s.userRepo, *collectorID); err != nil {
			return nil, err
		}
	}
	sale.AssignCollector(collectorID)
	if err := s.saleRepo.SaveWithLock(ctx, sale); err != nil {
		return nil, err
	}

	response := ToSaleResponse(sale)
	return &response, nil
}

// Delete deletes a sale without payments together with its installments
func (s *SaleService) Delete(ctx context.Context, saleID uuid.UUID) error {
	sale, err := s.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		return err
	}
	if sale.HasPayments() {
		return shared.NewDomainError(shared.CodeInstallmentsHavePayment, "A sale with payments cannot be deleted")
	}
	if err := s.saleRepo.Delete(ctx, saleID); err != nil {
		return err
	}

	s.logger.Info("Sale deleted", zap.String("sale_id", saleID.String()))
	return nil
}
