package telemetry

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPortfolioMetricsProvider implements PortfolioMetricsProvider with
// aggregate queries over the sales and installments tables
type GormPortfolioMetricsProvider struct {
	db *gorm.DB
}

// NewGormPortfolioMetricsProvider creates a new GormPortfolioMetricsProvider
func NewGormPortfolioMetricsProvider(db *gorm.DB) *GormPortfolioMetricsProvider {
	return &GormPortfolioMetricsProvider{db: db}
}

// openSales selects every collectible sale with an unpaid installment together
// with its pending balance and latest activity
func (p *GormPortfolioMetricsProvider) openSales(ctx context.Context) *gorm.DB {
	return p.db.WithContext(ctx).
		Table("sales").
		Select("sales.id, SUM(installments.amount - installments.paid_amount) AS pending, "+
			"COALESCE(MAX(installments.last_payment_at), sales.sale_date) AS last_activity").
		Joins("JOIN installments ON installments.sale_id = sales.id").
		Where("sales.uncollectible = ?", false).
		Group("sales.id, sales.sale_date").
		Having("SUM(installments.amount - installments.paid_amount) > 0")
}

// PendingPortfolio returns the total pending balance and the number of open sales
func (p *GormPortfolioMetricsProvider) PendingPortfolio(ctx context.Context) (decimal.Decimal, int64, error) {
	var row struct {
		Pending decimal.Decimal
		Open    int64
	}
	err := p.db.WithContext(ctx).
		Table("(?) AS open_sales", p.openSales(ctx)).
		Select("COALESCE(SUM(pending), 0) AS pending, COUNT(*) AS open").
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, 0, err
	}
	return row.Pending, row.Open, nil
}

// DefaultedSales counts open sales whose latest payment, or sale date when
// never paid, is before cutoff
func (p *GormPortfolioMetricsProvider) DefaultedSales(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("(?) AS open_sales", p.openSales(ctx)).
		Where("last_activity < ?", cutoff).
		Count(&count).Error
	return count, err
}
