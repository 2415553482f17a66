package finance

import (
	"context"
	"sort"
	"time"

	"github.com/cobranzas/backend/internal/domain/finance"
	"github.com/cobranzas/backend/internal/domain/identity"
	"github.com/cobranzas/backend/internal/domain/partner"
	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/cobranzas/backend/internal/domain/trade"
	"github.com/cobranzas/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CollectionMetrics receives collection outcomes
type CollectionMetrics interface {
	RecordCollection(ctx context.Context, total decimal.Decimal, applications int)
	RecordRejectedCollection(ctx context.Context, code string)
	RecordRevision(ctx context.Context)
}

// CollectionService records and corrects customer payments
type CollectionService struct {
	scope          TransactionScope
	collectionRepo finance.CollectionRepository
	saleRepo       trade.SaleRepository
	customerRepo   partner.CustomerRepository
	reconciler     *finance.Reconciler
	metrics        CollectionMetrics
	logger         *zap.Logger
	now            func() time.Time
}

// NewCollectionService creates a new CollectionService
func NewCollectionService(
	scope TransactionScope,
	collectionRepo finance.CollectionRepository,
	saleRepo trade.SaleRepository,
	customerRepo partner.CustomerRepository,
	logger *zap.Logger,
) *CollectionService {
	return &CollectionService{
		scope:          scope,
		collectionRepo: collectionRepo,
		saleRepo:       saleRepo,
		customerRepo:   customerRepo,
		reconciler:     finance.NewReconciler(),
		logger:         logger,
		now:            time.Now,
	}
}

// SetMetrics sets the collector of collection metrics
func (s *CollectionService) SetMetrics(metrics CollectionMetrics) {
	s.metrics = metrics
}

// Record records a collection batch. Authorization of every line, eligibility
// of every installment and the in-database increments run in one transaction;
// any failure leaves nothing persisted. clientReference is the optional offline
// idempotency key.
func (s *CollectionService) Record(ctx context.Context, actor identity.Actor, req RecordCollectionRequest, clientReference string) (*CollectionResponse, error) {
	lines := make([]finance.PaymentLine, len(req.Lines))
	installmentIDs := make([]uuid.UUID, len(req.Lines))
	for i, line := range req.Lines {
		lines[i] = finance.PaymentLine{InstallmentID: line.InstallmentID, Amount: line.Amount}
		installmentIDs[i] = line.InstallmentID
	}
	collectedAt := s.now()
	if req.CollectedAt != nil && !req.CollectedAt.IsZero() {
		collectedAt = *req.CollectedAt
	}

	var recorded *finance.Collection
	var err error
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels(telemetry.OperationRecordCollection, nil), func(c context.Context) {
		err = s.scope.Execute(c, func(repos TransactionalRepositories) error {
			customer, err := repos.CustomerRepo().FindByID(c, req.CustomerID)
			if err != nil {
				return err
			}
			sales, err := s.salesOfInstallments(c, repos, installmentIDs)
			if err != nil {
				return err
			}

			collection, err := s.reconciler.BuildCollection(actor, customer, sales, lines, collectedAt)
			if err != nil {
				return err
			}
			if err := collection.SetClientReference(clientReference); err != nil {
				return err
			}

			if err := repos.CollectionRepo().Create(c, collection); err != nil {
				return err
			}
			for _, app := range collection.Applications {
				if err := repos.InstallmentRepo().IncrementPaid(c, app.InstallmentID, app.Amount, collection.CollectedAt); err != nil {
					return err
				}
			}
			recorded = collection
			return nil
		})
	})
	if err != nil {
		s.recordRejected(ctx, err)
		return nil, err
	}

	total := recorded.TotalAmount()
	if s.metrics != nil {
		s.metrics.RecordCollection(ctx, total, len(recorded.Applications))
	}
	s.logger.Info("Collection recorded",
		zap.String("collection_id", recorded.ID.String()),
		zap.String("customer_id", recorded.CustomerID.String()),
		zap.String("collector_id", recorded.CollectorID.String()),
		zap.String("total", total.String()),
		zap.Int("applications", len(recorded.Applications)))

	response := ToCollectionResponse(recorded)
	return &response, nil
}

// salesOfInstallments loads every sale owning one of the installments. Unknown
// installments are left for the reconciler to report.
func (s *CollectionService) salesOfInstallments(ctx context.Context, repos TransactionalRepositories, installmentIDs []uuid.UUID) ([]*trade.Sale, error) {
	installments, err := repos.InstallmentRepo().FindByIDs(ctx, installmentIDs)
	if err != nil {
		return nil, err
	}
	seen := make(map[uuid.UUID]bool)
	saleIDs := make([]uuid.UUID, 0)
	for _, inst := range installments {
		if !seen[inst.SaleID] {
			seen[inst.SaleID] = true
			saleIDs = append(saleIDs, inst.SaleID)
		}
	}
	found, err := repos.SaleRepo().FindByIDs(ctx, saleIDs)
	if err != nil {
		return nil, err
	}
	sales := make([]*trade.Sale, len(found))
	for i := range found {
		sales[i] = &found[i]
	}
	return sales, nil
}

func (s *CollectionService) recordRejected(ctx context.Context, err error) {
	if s.metrics == nil {
		return
	}
	code := "INTERNAL_ERROR"
	if domainErr, ok := shared.AsDomainError(err); ok {
		code = domainErr.Code
	}
	s.metrics.RecordRejectedCollection(ctx, code)
}

// ReviseApplication corrects a recorded application to newAmount. The
// installment's paid amount moves by the difference in the same transaction.
func (s *CollectionService) ReviseApplication(ctx context.Context, actor identity.Actor, applicationID uuid.UUID, newAmount decimal.Decimal) (*CollectionResponse, error) {
	var revised *finance.Collection
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		collection, err := repos.CollectionRepo().FindByApplicationID(ctx, applicationID)
		if err != nil {
			return err
		}
		app := collection.Application(applicationID)
		if app == nil {
			return shared.NewNotFoundError("Payment application not found")
		}
		sale, err := repos.SaleRepo().FindByID(ctx, app.SaleID)
		if err != nil {
			return err
		}
		installmentID := app.InstallmentID

		oldAmount, err := s.reconciler.ReviseApplication(actor, collection, applicationID, newAmount, sale)
		if err != nil {
			return err
		}
		if err := repos.InstallmentRepo().AdjustPaid(ctx, installmentID, newAmount.Sub(oldAmount), time.Time{}); err != nil {
			return err
		}
		if err := repos.CollectionRepo().UpdateApplicationAmount(ctx, collection.ID, applicationID, newAmount); err != nil {
			return err
		}

		s.logger.Info("Payment application revised",
			zap.String("collection_id", collection.ID.String()),
			zap.String("application_id", applicationID.String()),
			zap.String("old_amount", oldAmount.String()),
			zap.String("new_amount", newAmount.String()))
		revised = collection
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordRevision(ctx)
	}

	response := ToCollectionResponse(revised)
	return &response, nil
}

// GetByID retrieves a collection; collectors may only read their own
func (s *CollectionService) GetByID(ctx context.Context, actor identity.Actor, collectionID uuid.UUID) (*CollectionResponse, error) {
	collection, err := s.collectionRepo.FindByID(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if !finance.CanViewCollection(actor, collection.CollectorID) {
		return nil, shared.NewPermissionError("Not allowed to view this collection")
	}
	response := ToCollectionResponse(collection)
	return &response, nil
}

// FindByClientReference returns the collection recorded under an offline
// idempotency key
func (s *CollectionService) FindByClientReference(ctx context.Context, actor identity.Actor, ref string) (*CollectionResponse, error) {
	collection, err := s.collectionRepo.FindByClientReference(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !finance.CanViewCollection(actor, collection.CollectorID) {
		return nil, shared.NewPermissionError("Not allowed to view this collection")
	}
	response := ToCollectionResponse(collection)
	return &response, nil
}

// List retrieves collections. Without a customer or date range it lists
// today's collections; collectors only see their own.
func (s *CollectionService) List(ctx context.Context, actor identity.Actor, filter CollectionListFilter) (shared.Paginated[CollectionResponse], error) {
	domainFilter := finance.CollectionFilter{
		Filter:      shared.DefaultFilter(),
		CustomerID:  filter.CustomerID,
		CollectorID: filter.CollectorID,
		Delivered:   filter.Delivered,
	}
	domainFilter.OrderBy = "collected_at"
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if !actor.IsAdmin() {
		domainFilter.CollectorID = &actor.UserID
	}

	switch {
	case filter.DateFrom != nil || filter.DateTo != nil:
		domainFilter.DateFrom = filter.DateFrom
		if filter.DateTo != nil {
			end := endOfDay(*filter.DateTo)
			domainFilter.DateTo = &end
		}
	case filter.CustomerID == nil:
		start, end := dayBounds(s.now())
		domainFilter.DateFrom = &start
		domainFilter.DateTo = &end
	}

	collections, total, err := s.collectionRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[CollectionResponse]{}, err
	}
	items := make([]CollectionResponse, len(collections))
	for i := range collections {
		items[i] = ToCollectionResponse(&collections[i])
	}
	return shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize), nil
}

// Deliver marks collections as handed over to the office and stores a
// delivery record for each. Either every collection is delivered or none.
func (s *CollectionService) Deliver(ctx context.Context, actor identity.Actor, collectionIDs []uuid.UUID) (*DeliveryResponse, error) {
	ids := uniqueIDs(collectionIDs)
	deliveredAt := s.now()
	total := decimal.Zero

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		collections, err := repos.CollectionRepo().FindByIDs(ctx, ids)
		if err != nil {
			return err
		}
		if len(collections) != len(ids) {
			return shared.NewNotFoundError("One or more collections were not found")
		}
		for i := range collections {
			if !finance.CanViewCollection(actor, collections[i].CollectorID) {
				return shared.NewPermissionError("Not allowed to deliver collections of another collector")
			}
		}
		for i := range collections {
			collection := &collections[i]
			if err := collection.MarkDelivered(deliveredAt); err != nil {
				return err
			}
			delivery := finance.NewCollectionDelivery(collection.ID, actor.UserID, deliveredAt)
			if err := repos.CollectionRepo().SaveDelivery(ctx, collection, delivery); err != nil {
				return err
			}
			total = total.Add(collection.TotalAmount())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Collections delivered",
		zap.String("delivered_by", actor.UserID.String()),
		zap.Int("count", len(ids)),
		zap.String("total", total.String()))
	return &DeliveryResponse{Collections: ids, Total: total, DeliveredAt: deliveredAt}, nil
}

// IntakeView builds the collection form of a customer: every collectible sale
// the actor may reconcile with its open installments grouped as partial,
// next and pending
func (s *CollectionService) IntakeView(ctx context.Context, actor identity.Actor, customerID uuid.UUID) (*IntakeResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	sales, err := s.saleRepo.FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if !finance.CanAccessCustomer(actor, customer, sales) {
		return nil, shared.NewPermissionError("Not allowed to collect from this customer")
	}

	response := &IntakeResponse{
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		Address:      customer.Address,
		Telephone:    customer.Telephone,
		TotalPending: decimal.Zero,
		Sales:        make([]IntakeSale, 0),
	}
	for i := range sales {
		sale := &sales[i]
		if sale.Uncollectible || !sale.HasPendingBalance() {
			continue
		}
		if !finance.CanReconcile(actor, customer.CollectorID, sale.CollectorID) {
			continue
		}
		intake := buildIntakeSale(sale)
		response.TotalPending = response.TotalPending.Add(intake.PendingBalance)
		response.Sales = append(response.Sales, intake)
	}
	return response, nil
}

func buildIntakeSale(sale *trade.Sale) IntakeSale {
	ordered := make([]*trade.Installment, 0, len(sale.Installments))
	for i := range sale.Installments {
		ordered = append(ordered, &sale.Installments[i])
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Ordinal < ordered[j].Ordinal })

	intake := IntakeSale{
		SaleID:         sale.ID,
		SaleDate:       sale.SaleDate,
		Remarks:        sale.Remarks,
		Price:          sale.Price,
		PendingBalance: sale.PendingBalance(),
		Partial:        make([]IntakeInstallment, 0),
		Pending:        make([]IntakeInstallment, 0),
	}
	for _, inst := range ordered {
		switch inst.Status {
		case trade.InstallmentStatusPartial:
			intake.Partial = append(intake.Partial, toIntakeInstallment(inst))
		case trade.InstallmentStatusPending:
			if intake.Next == nil {
				next := toIntakeInstallment(inst)
				intake.Next = &next
				continue
			}
			intake.Pending = append(intake.Pending, toIntakeInstallment(inst))
		}
	}
	return intake
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func dayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, endOfDay(start)
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
