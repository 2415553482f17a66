package partner

import (
	"context"

	"github.com/cobranzas/backend/internal/domain/finance"
	"github.com/cobranzas/backend/internal/domain/identity"
	"github.com/cobranzas/backend/internal/domain/partner"
	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/cobranzas/backend/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CustomerService handles customer-related business operations
type CustomerService struct {
	customerRepo partner.CustomerRepository
	saleRepo     trade.SaleRepository
	userRepo     identity.UserRepository
	logger       *zap.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(
	customerRepo partner.CustomerRepository,
	saleRepo trade.SaleRepository,
	userRepo identity.UserRepository,
	logger *zap.Logger,
) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		saleRepo:     saleRepo,
		userRepo:     userRepo,
		logger:       logger,
	}
}

// Create creates a new customer, optionally assigned to a collector
func (s *CustomerService) Create(ctx context.Context, req CreateCustomerRequest) (*CustomerResponse, error) {
	customer, err := partner.NewCustomerWithContact(req.Name, req.Address, req.City, req.Telephone)
	if err != nil {
		return nil, err
	}
	if req.CollectorID != nil {
		if err := s.ensureCollector(ctx, *req.CollectorID); err != nil {
			return nil, err
		}
		customer.CollectorID = req.CollectorID
	}

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}

	s.logger.Info("Customer created", zap.String("customer_id", customer.ID.String()))
	response := ToCustomerResponse(customer)
	return &response, nil
}

// GetByID retrieves a customer visible to the actor. Customers outside a
// collector's scope are reported as not found.
func (s *CustomerService) GetByID(ctx context.Context, actor identity.Actor, customerID uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !customer.IsAssignedTo(actor.UserID) {
		sales, err := s.saleRepo.FindByCustomer(ctx, customerID)
		if err != nil {
			return nil, err
		}
		if !finance.CanAccessCustomer(actor, customer, sales) {
			return nil, shared.NewNotFoundError("Customer not found")
		}
	}

	response := ToCustomerResponse(customer)
	return &response, nil
}

// List retrieves customers visible to the actor with filtering and pagination
func (s *CustomerService) List(ctx context.Context, actor identity.Actor, filter CustomerListFilter) (shared.Paginated[CustomerResponse], error) {
	domainFilter := partner.CustomerFilter{
		Filter: listFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir, filter.Search),
		City:   filter.City,
	}
	if !actor.IsAdmin() {
		domainFilter.VisibleTo = &actor.UserID
	}

	customers, total, err := s.customerRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[CustomerResponse]{}, err
	}
	return shared.NewPaginated(ToCustomerResponses(customers), total, domainFilter.Page, domainFilter.PageSize), nil
}

// Update updates a customer's contact information. A non-zero Version in the
// request must match the stored version.
func (s *CustomerService) Update(ctx context.Context, customerID uuid.UUID, req UpdateCustomerRequest) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if req.Version != 0 && req.Version != customer.Version {
		return nil, shared.ErrConcurrentModification
	}

	name, address, city, telephone := customer.Name, customer.Address, customer.City, customer.Telephone
	if req.Name != nil {
		name = *req.Name
	}
	if req.Address != nil {
		address = *req.Address
	}
	if req.City != nil {
		city = *req.City
	}
	if req.Telephone != nil {
		telephone = *req.Telephone
	}
	if err := customer.Update(name, address, city, telephone); err != nil {
		return nil, err
	}

	if err := s.customerRepo.SaveWithLock(ctx, customer); err != nil {
		return nil, err
	}

	response := ToCustomerResponse(customer)
	return &response, nil
}

// AssignCollector assigns the customer to an active collector, or clears the
// assignment when collectorID is nil
func (s *CustomerService) AssignCollector(ctx context.Context, customerID uuid.UUID, collectorID *uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if collectorID != nil {
		if err := s.ensureCollector(ctx, *collectorID); err != nil {
			return nil, err
		}
	}

	customer.AssignCollector(collectorID)
	if err := s.customerRepo.SaveWithLock(ctx, customer); err != nil {
		return nil, err
	}

	fields := []zap.Field{zap.String("customer_id", customer.ID.String())}
	if collectorID != nil {
		fields = append(fields, zap.String("collector_id", collectorID.String()))
	}
	s.logger.Info("Customer collector assigned", fields...)

	response := ToCustomerResponse(customer)
	return &response, nil
}

// Delete deletes a customer that has no sales
func (s *CustomerService) Delete(ctx context.Context, customerID uuid.UUID) error {
	if _, err := s.customerRepo.FindByID(ctx, customerID); err != nil {
		return err
	}
	count, err := s.saleRepo.CountByCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	if count > 0 {
		return shared.NewDomainError(shared.CodeInvalidState, "Customer has sales and cannot be deleted")
	}
	if err := s.customerRepo.Delete(ctx, customerID); err != nil {
		return err
	}

	s.logger.Info("Customer deleted", zap.String("customer_id", customerID.String()))
	return nil
}

func (s *CustomerService) ensureCollector(ctx context.Context, userID uuid.UUID) error {
	return identity.EnsureActiveCollector(ctx, s.userRepo, userID)
}

// listFilter builds a domain filter, applying paging defaults
func listFilter(page, pageSize int, orderBy, orderDir, search string) shared.Filter {
	f := shared.DefaultFilter()
	if page > 0 {
		f.Page = page
	}
	if pageSize > 0 {
		f.PageSize = pageSize
	}
	if orderBy != "" {
		f.OrderBy = orderBy
	}
	if orderDir != "" {
		f.OrderDir = orderDir
	}
	f.Search = search
	return f
}
