package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/cobranzas/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormChangeFeedRepository computes the offline high water mark: the latest
// updated_at over the customers, sales, installments and collections visible
// to a collector. There is no shared marker row to contend on.
type GormChangeFeedRepository struct {
	db *gorm.DB
}

// NewGormChangeFeedRepository creates a new GormChangeFeedRepository
func NewGormChangeFeedRepository(db *gorm.DB) *GormChangeFeedRepository {
	return &GormChangeFeedRepository{db: db}
}

// HighWaterMark returns the latest change visible to collectorID, or to
// everyone when collectorID is nil. Returns nil when nothing exists yet.
func (r *GormChangeFeedRepository) HighWaterMark(ctx context.Context, collectorID *uuid.UUID) (*time.Time, error) {
	db := r.db.WithContext(ctx)

	customers := db.Model(&models.CustomerModel{})
	sales := db.Model(&models.SaleModel{})
	installments := db.Model(&models.InstallmentModel{})
	collections := db.Model(&models.CollectionModel{})

	if collectorID != nil {
		visibleSales := r.db.Model(&models.SaleModel{}).Select("id").Where(
			"collector_id = ? OR customer_id IN (?)",
			*collectorID,
			r.db.Model(&models.CustomerModel{}).Select("id").Where("collector_id = ?", *collectorID),
		)
		customers = customers.Where(
			"collector_id = ? OR id IN (?)",
			*collectorID,
			r.db.Model(&models.SaleModel{}).Select("customer_id").Where("collector_id = ?", *collectorID),
		)
		sales = sales.Where("id IN (?)", visibleSales)
		installments = installments.Where("sale_id IN (?)", visibleSales)
		collections = collections.Where("collector_id = ?", *collectorID)
	}

	var mark *time.Time
	for _, query := range []*gorm.DB{customers, sales, installments, collections} {
		latest, err := latestUpdatedAt(query)
		if err != nil {
			return nil, err
		}
		if latest != nil && (mark == nil || latest.After(*mark)) {
			mark = latest
		}
	}
	return mark, nil
}

// latestUpdatedAt reads the newest updated_at through a plain column select so
// every driver scans it as a timestamp
func latestUpdatedAt(query *gorm.DB) (*time.Time, error) {
	var row struct {
		UpdatedAt time.Time
	}
	err := query.Select("updated_at").Order("updated_at DESC").Limit(1).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row.UpdatedAt, nil
}
