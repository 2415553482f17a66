package report

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cobranzas/backend/internal/domain/finance"
	"github.com/cobranzas/backend/internal/domain/identity"
	"github.com/cobranzas/backend/internal/domain/partner"
	"github.com/cobranzas/backend/internal/domain/report"
	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/cobranzas/backend/internal/domain/trade"
	"github.com/cobranzas/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SpreadsheetExporter renders tables into a workbook
type SpreadsheetExporter interface {
	Export(tables ...Table) ([]byte, error)
}

// ArchiveStorage keeps a copy of generated exports
type ArchiveStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
}

// ExportMetrics counts generated reports
type ExportMetrics interface {
	RecordReportExport(ctx context.Context, report, format string)
}

// Config holds report settings
type Config struct {
	DefaultAfterDays int
	ArchiveExports   bool
	ArchiveURLExpiry time.Duration
}

// ReportService builds the read-only collection reports
type ReportService struct {
	saleRepo       trade.SaleRepository
	customerRepo   partner.CustomerRepository
	collectionRepo finance.CollectionRepository
	userRepo       identity.UserRepository
	exporter       SpreadsheetExporter
	archive        ArchiveStorage
	metrics        ExportMetrics
	config         Config
	logger         *zap.Logger
	now            func() time.Time
}

// NewReportService creates a new ReportService
func NewReportService(
	saleRepo trade.SaleRepository,
	customerRepo partner.CustomerRepository,
	collectionRepo finance.CollectionRepository,
	userRepo identity.UserRepository,
	exporter SpreadsheetExporter,
	cfg Config,
	logger *zap.Logger,
) *ReportService {
	if cfg.DefaultAfterDays <= 0 {
		cfg.DefaultAfterDays = report.DefaultAfterDays
	}
	if cfg.ArchiveURLExpiry <= 0 {
		cfg.ArchiveURLExpiry = time.Hour
	}
	return &ReportService{
		saleRepo:       saleRepo,
		customerRepo:   customerRepo,
		collectionRepo: collectionRepo,
		userRepo:       userRepo,
		exporter:       exporter,
		config:         cfg,
		logger:         logger,
		now:            time.Now,
	}
}

// SetArchive sets the storage exports are archived to
func (s *ReportService) SetArchive(archive ArchiveStorage) {
	s.archive = archive
}

// SetMetrics sets the collector of export metrics
func (s *ReportService) SetMetrics(metrics ExportMetrics) {
	s.metrics = metrics
}

// scopeCollector resolves the collector a report is restricted to.
// Collectors only see their own portfolio.
func scopeCollector(actor identity.Actor, requested *uuid.UUID) (*uuid.UUID, error) {
	if actor.IsAdmin() {
		return requested, nil
	}
	if !actor.IsCollector() {
		return nil, shared.NewPermissionError("Reports are not available for this role")
	}
	if requested != nil && *requested != actor.UserID {
		return nil, shared.NewPermissionError("Collectors can only report on their own portfolio")
	}
	own := actor.UserID
	return &own, nil
}

// PendingBalance returns every collectible sale with a pending balance
func (s *ReportService) PendingBalance(ctx context.Context, actor identity.Actor, filter PendingBalanceFilter) (*PendingBalanceReport, error) {
	rows, err := s.pendingRows(ctx, actor, filter)
	if err != nil {
		return nil, err
	}
	s.recordExport(ctx, ReportPendingBalance, FormatJSON)
	return &PendingBalanceReport{
		GeneratedAt:  s.now(),
		Rows:         rows,
		TotalPending: totalPending(rows),
	}, nil
}

// Defaulters returns the pending sales whose latest payment, or sale date when
// never paid, is more than filter.Days days before filter.AsOf
func (s *ReportService) Defaulters(ctx context.Context, actor identity.Actor, filter DefaultersFilter) (*DefaultersReport, error) {
	result, err := s.defaulters(ctx, actor, filter)
	if err != nil {
		return nil, err
	}
	s.recordExport(ctx, ReportDefaulters, FormatJSON)
	return result, nil
}

// DeliveryManifest returns the delivered collections of the period grouped by collector
func (s *ReportService) DeliveryManifest(ctx context.Context, actor identity.Actor, filter DeliveryFilter) (*report.DeliveryManifest, error) {
	manifest, err := s.deliveryManifest(ctx, actor, filter)
	if err != nil {
		return nil, err
	}
	s.recordExport(ctx, ReportDelivery, FormatJSON)
	return manifest, nil
}

// ExportPendingBalance renders the pending balance report as a workbook
func (s *ReportService) ExportPendingBalance(ctx context.Context, actor identity.Actor, filter PendingBalanceFilter) (*ExportResult, error) {
	rows, err := s.pendingRows(ctx, actor, filter)
	if err != nil {
		return nil, err
	}
	table := Table{
		Sheet:   "Pending balance",
		Title:   "Pending balance as of " + s.now().Format("2006-01-02"),
		Headers: pendingHeaders(),
		Footer:  []any{"Total", "", "", "", "", "", money(totalPending(rows))},
	}
	for _, row := range rows {
		table.Rows = append(table.Rows, pendingCells(row))
	}
	return s.export(ctx, ReportPendingBalance, table)
}

// ExportDefaulters renders the defaulters report as a workbook
func (s *ReportService) ExportDefaulters(ctx context.Context, actor identity.Actor, filter DefaultersFilter) (*ExportResult, error) {
	result, err := s.defaulters(ctx, actor, filter)
	if err != nil {
		return nil, err
	}
	table := Table{
		Sheet:   "Defaulters",
		Title:   fmt.Sprintf("Sales without payment for more than %d days as of %s", result.Days, result.AsOf.Format("2006-01-02")),
		Headers: append(pendingHeaders(), "Days without payment"),
		Footer:  []any{"Total", "", "", "", "", "", money(result.TotalPending)},
	}
	for _, row := range result.Rows {
		table.Rows = append(table.Rows, append(pendingCells(row.PendingBalanceRow), row.DaysWithoutPayment))
	}
	return s.export(ctx, ReportDefaulters, table)
}

// ExportDeliveryManifest renders the delivery manifest as a workbook
func (s *ReportService) ExportDeliveryManifest(ctx context.Context, actor identity.Actor, filter DeliveryFilter) (*ExportResult, error) {
	manifest, err := s.deliveryManifest(ctx, actor, filter)
	if err != nil {
		return nil, err
	}
	table := Table{
		Sheet: "Delivery",
		Title: fmt.Sprintf("Delivered collections %s to %s",
			manifest.From.Format("2006-01-02"), manifest.To.AddDate(0, 0, -1).Format("2006-01-02")),
		Headers: []string{"Collector", "Collections", "Total"},
		Footer:  []any{"Total", "", money(manifest.Total)},
	}
	for _, row := range manifest.Rows {
		table.Rows = append(table.Rows, []any{row.CollectorName, row.Collections, money(row.Total)})
	}
	return s.export(ctx, ReportDelivery, table)
}

func (s *ReportService) pendingRows(ctx context.Context, actor identity.Actor, filter PendingBalanceFilter) ([]report.PendingBalanceRow, error) {
	collectorID, err := scopeCollector(actor, filter.CollectorID)
	if err != nil {
		return nil, err
	}

	var rows []report.PendingBalanceRow
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels(telemetry.OperationReport, nil), func(c context.Context) {
		rows, err = s.loadPendingRows(c, collectorID, filter)
	})
	return rows, err
}

func (s *ReportService) loadPendingRows(ctx context.Context, collectorID *uuid.UUID, filter PendingBalanceFilter) ([]report.PendingBalanceRow, error) {
	collectible := false
	sales, _, err := s.saleRepo.FindAll(ctx, trade.SaleFilter{
		Filter:        shared.Filter{OrderBy: "sale_date", OrderDir: "asc"},
		CustomerID:    filter.CustomerID,
		Uncollectible: &collectible,
		PendingOnly:   true,
		VisibleTo:     collectorID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}

	customerIDs := make([]uuid.UUID, 0, len(sales))
	seen := make(map[uuid.UUID]bool)
	for i := range sales {
		if !seen[sales[i].CustomerID] {
			seen[sales[i].CustomerID] = true
			customerIDs = append(customerIDs, sales[i].CustomerID)
		}
	}
	customers, err := s.customerRepo.FindByIDs(ctx, customerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load customers: %w", err)
	}
	byID := make(map[uuid.UUID]*partner.Customer, len(customers))
	for i := range customers {
		byID[customers[i].ID] = &customers[i]
	}

	city := strings.TrimSpace(filter.City)
	rows := make([]report.PendingBalanceRow, 0, len(sales))
	for i := range sales {
		sale := &sales[i]
		if sale.Uncollectible || !sale.PendingBalance().IsPositive() {
			continue
		}
		customer := byID[sale.CustomerID]
		if city != "" && (customer == nil || !strings.EqualFold(customer.City, city)) {
			continue
		}
		rows = append(rows, report.NewPendingBalanceRow(sale, customer))
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return strings.ToLower(rows[i].CustomerName) < strings.ToLower(rows[j].CustomerName)
	})
	return rows, nil
}

func (s *ReportService) defaulters(ctx context.Context, actor identity.Actor, filter DefaultersFilter) (*DefaultersReport, error) {
	asOf := s.now()
	if filter.AsOf != nil && !filter.AsOf.IsZero() {
		asOf = *filter.AsOf
	}
	days := filter.Days
	if days <= 0 {
		days = s.config.DefaultAfterDays
	}

	rows, err := s.pendingRows(ctx, actor, filter.PendingBalanceFilter)
	if err != nil {
		return nil, err
	}
	defaulters := report.FilterDefaulters(rows, asOf, days)

	total := decimal.Zero
	for _, row := range defaulters {
		total = total.Add(row.Pending)
	}
	return &DefaultersReport{AsOf: asOf, Days: days, Rows: defaulters, TotalPending: total}, nil
}

func (s *ReportService) deliveryManifest(ctx context.Context, actor identity.Actor, filter DeliveryFilter) (*report.DeliveryManifest, error) {
	collectorID, err := scopeCollector(actor, filter.CollectorID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if filter.From != nil {
		from = *filter.From
	}
	to := from.AddDate(0, 0, 1)
	if filter.To != nil {
		// the end date is inclusive
		to = filter.To.AddDate(0, 0, 1)
	}
	if !to.After(from) {
		return nil, shared.NewValidationError("The end date must not be before the start date")
	}

	delivered := true
	collections, _, err := s.collectionRepo.FindAll(ctx, finance.CollectionFilter{
		Filter:      shared.Filter{OrderBy: "collected_at", OrderDir: "asc"},
		CollectorID: collectorID,
		DateFrom:    &from,
		DateTo:      &to,
		Delivered:   &delivered,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load collections: %w", err)
	}

	names, err := s.collectorNames(ctx)
	if err != nil {
		return nil, err
	}
	manifest := report.BuildDeliveryManifest(from, to, collections, names)
	return &manifest, nil
}

func (s *ReportService) collectorNames(ctx context.Context) (map[uuid.UUID]string, error) {
	role := identity.RoleCollector
	users, _, err := s.userRepo.FindAll(ctx, identity.UserFilter{Role: &role})
	if err != nil {
		return nil, fmt.Errorf("failed to load collectors: %w", err)
	}
	names := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		name := u.FullName
		if name == "" {
			name = u.Username
		}
		names[u.ID] = name
	}
	return names, nil
}

// export renders table and archives the workbook when configured. Archive
// failures are logged and do not fail the export.
func (s *ReportService) export(ctx context.Context, name string, table Table) (*ExportResult, error) {
	if s.exporter == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Spreadsheet export is not configured")
	}
	data, err := s.exporter.Export(table)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s export: %w", name, err)
	}

	generatedAt := s.now()
	result := &ExportResult{
		Filename:    fmt.Sprintf("%s_%s.xlsx", name, generatedAt.Format("20060102_150405")),
		ContentType: XLSXContentType,
		Data:        data,
	}
	s.recordExport(ctx, name, FormatXLSX)

	if s.archive == nil || !s.config.ArchiveExports {
		return result, nil
	}
	key := fmt.Sprintf("reports/%s/%s/%s", name, generatedAt.Format("2006/01"), result.Filename)
	if err := s.archive.Upload(ctx, key, data, XLSXContentType); err != nil {
		s.logger.Warn("Failed to archive report export", zap.String("report", name), zap.Error(err))
		return result, nil
	}
	result.ArchiveKey = key
	url, _, err := s.archive.GenerateDownloadURL(ctx, key, s.config.ArchiveURLExpiry)
	if err != nil {
		s.logger.Warn("Failed to sign archived export URL", zap.String("key", key), zap.Error(err))
		return result, nil
	}
	result.DownloadURL = url
	return result, nil
}

func (s *ReportService) recordExport(ctx context.Context, name, format string) {
	if s.metrics != nil {
		s.metrics.RecordReportExport(ctx, name, format)
	}
}

func totalPending(rows []report.PendingBalanceRow) decimal.Decimal {
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.Pending)
	}
	return total
}

func pendingHeaders() []string {
	return []string{"Customer", "City", "Sale date", "Installments", "Price", "Paid", "Pending", "Last payment"}
}

func pendingCells(row report.PendingBalanceRow) []any {
	lastPayment := ""
	if row.LastPaymentAt != nil {
		lastPayment = row.LastPaymentAt.Format("2006-01-02")
	}
	return []any{
		row.CustomerName,
		row.City,
		row.SaleDate.Format("2006-01-02"),
		fmt.Sprintf("%d/%d", row.InstallmentsPaid, row.InstallmentsTotal),
		money(row.Price),
		money(row.Paid),
		money(row.Pending),
		lastPayment,
	}
}

// money converts an amount to a spreadsheet number
func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
