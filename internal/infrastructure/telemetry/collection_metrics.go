package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// WriteBackOutcome labels the result of an offline write-back
type WriteBackOutcome string

const (
	WriteBackApplied   WriteBackOutcome = "applied"
	WriteBackDuplicate WriteBackOutcome = "duplicate"
	WriteBackFailed    WriteBackOutcome = "failed"
)

// PortfolioMetricsProvider reads the aggregate state of the outstanding portfolio
type PortfolioMetricsProvider interface {
	// PendingPortfolio returns the total pending balance and the number of open sales
	PendingPortfolio(ctx context.Context) (decimal.Decimal, int64, error)

	// DefaultedSales counts open sales without a payment since cutoff
	DefaultedSales(ctx context.Context, cutoff time.Time) (int64, error)
}

// CollectionMetricsConfig holds configuration for collection metrics
type CollectionMetricsConfig struct {
	Meter             metric.Meter
	Logger            *zap.Logger
	PortfolioProvider PortfolioMetricsProvider
	DefaultAfterDays  int // Cutoff for the defaulted sales gauge, default 30
}

// CollectionMetrics tracks payments collected in the field and the state of
// the outstanding portfolio
type CollectionMetrics struct {
	logger *zap.Logger

	collectionTotal   *Counter
	collectedAmount   *Counter
	applicationTotal  *Counter
	rejectedTotal     *Counter
	revisionTotal     *Counter
	writeBackTotal    *Counter
	reportExportTotal *Counter

	pendingBalance *Gauge
	openSales      *Gauge
	defaultedSales *Gauge

	provider         PortfolioMetricsProvider
	defaultAfterDays int
	stopChan         chan struct{}
	stopOnce         sync.Once
	collectOnce      sync.Once
	now              func() time.Time
}

// NewCollectionMetrics creates the collection instruments
func NewCollectionMetrics(cfg CollectionMetricsConfig) (*CollectionMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	days := cfg.DefaultAfterDays
	if days <= 0 {
		days = 30
	}

	cm := &CollectionMetrics{
		logger:           logger,
		provider:         cfg.PortfolioProvider,
		defaultAfterDays: days,
		stopChan:         make(chan struct{}),
		now:              time.Now,
	}

	counters := []struct {
		target      **Counter
		name        string
		description string
		unit        string
	}{
		{&cm.collectionTotal, "cobranzas_collection_total", "Collections recorded", "{collections}"},
		{&cm.collectedAmount, "cobranzas_collected_amount_total", "Amount collected in cents", "{cents}"},
		{&cm.applicationTotal, "cobranzas_payment_application_total", "Installment payment applications recorded", "{applications}"},
		{&cm.rejectedTotal, "cobranzas_collection_rejected_total", "Collection batches rejected by error code", "{collections}"},
		{&cm.revisionTotal, "cobranzas_application_revision_total", "Payment applications revised", "{revisions}"},
		{&cm.writeBackTotal, "cobranzas_offline_writeback_total", "Offline write-backs by outcome", "{requests}"},
		{&cm.reportExportTotal, "cobranzas_report_export_total", "Report exports by report and format", "{exports}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.description, c.unit)
		if err != nil {
			return nil, err
		}
		*c.target = counter
	}

	gauges := []struct {
		target      **Gauge
		name        string
		description string
		unit        string
	}{
		{&cm.pendingBalance, "cobranzas_portfolio_pending_cents", "Pending balance of collectible sales in cents", "{cents}"},
		{&cm.openSales, "cobranzas_portfolio_open_sales", "Collectible sales with a pending balance", "{sales}"},
		{&cm.defaultedSales, "cobranzas_portfolio_defaulted_sales", "Open sales without a recent payment", "{sales}"},
	}
	for _, g := range gauges {
		gauge, err := NewGauge(cfg.Meter, g.name, g.description, g.unit)
		if err != nil {
			return nil, err
		}
		*g.target = gauge
	}

	return cm, nil
}

// RecordCollection records an accepted collection batch
func (cm *CollectionMetrics) RecordCollection(ctx context.Context, total decimal.Decimal, applications int) {
	cm.collectionTotal.Inc(ctx)
	cm.collectedAmount.Add(ctx, toCents(total))
	cm.applicationTotal.Add(ctx, int64(applications))
}

// RecordRejectedCollection records a batch rejected with the given error code
func (cm *CollectionMetrics) RecordRejectedCollection(ctx context.Context, code string) {
	cm.rejectedTotal.Inc(ctx, AttrErrorCode.String(code))
}

// RecordRevision records a corrected payment application
func (cm *CollectionMetrics) RecordRevision(ctx context.Context) {
	cm.revisionTotal.Inc(ctx)
}

// RecordWriteBack records the outcome of an offline write-back
func (cm *CollectionMetrics) RecordWriteBack(ctx context.Context, outcome WriteBackOutcome) {
	cm.writeBackTotal.Inc(ctx, AttrOutcome.String(string(outcome)))
}

// RecordReportExport records a generated report
func (cm *CollectionMetrics) RecordReportExport(ctx context.Context, report, format string) {
	cm.reportExportTotal.Inc(ctx, AttrReport.String(report), AttrFormat.String(format))
}

func toCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// StartPeriodicCollection refreshes the portfolio gauges every interval
// (default 5 minutes) until Stop is called or ctx is done
func (cm *CollectionMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	cm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go cm.runPeriodicCollection(ctx, interval)
	})
}

func (cm *CollectionMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	cm.CollectPortfolio(ctx)
	for {
		select {
		case <-cm.stopChan:
			cm.logger.Info("Stopping portfolio metrics collection")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			cm.CollectPortfolio(ctx)
		}
	}
}

// CollectPortfolio reads the portfolio once and records the gauges
func (cm *CollectionMetrics) CollectPortfolio(ctx context.Context) {
	if cm.provider == nil {
		cm.logger.Debug("No portfolio provider configured, skipping portfolio metrics")
		return
	}

	pending, open, err := cm.provider.PendingPortfolio(ctx)
	if err != nil {
		cm.logger.Warn("Failed to read pending portfolio", zap.Error(err))
	} else {
		cm.pendingBalance.Record(ctx, toCents(pending))
		cm.openSales.Record(ctx, open)
	}

	cutoff := cm.now().AddDate(0, 0, -cm.defaultAfterDays)
	defaulted, err := cm.provider.DefaultedSales(ctx, cutoff)
	if err != nil {
		cm.logger.Warn("Failed to count defaulted sales", zap.Error(err))
		return
	}
	cm.defaultedSales.Record(ctx, defaulted)
}

// Stop stops the periodic collection
func (cm *CollectionMetrics) Stop() {
	cm.stopOnce.Do(func() {
		close(cm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewCollectionMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
