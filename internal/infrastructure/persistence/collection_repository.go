package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cobranzas/backend/internal/domain/finance"
	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/cobranzas/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCollectionRepository implements CollectionRepository using GORM
type GormCollectionRepository struct {
	db *gorm.DB
}

// NewGormCollectionRepository creates a new GormCollectionRepository
func NewGormCollectionRepository(db *gorm.DB) *GormCollectionRepository {
	return &GormCollectionRepository{db: db}
}

func (r *GormCollectionRepository) withApplications(query *gorm.DB) *gorm.DB {
	return query.Preload("Applications", func(db *gorm.DB) *gorm.DB {
		return db.Order("sale_id, ordinal")
	})
}

func (r *GormCollectionRepository) findOne(query *gorm.DB) (*finance.Collection, error) {
	var model models.CollectionModel
	if err := r.withApplications(query).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByID finds a collection by ID with its applications
func (r *GormCollectionRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Collection, error) {
	return r.findOne(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindByIDs finds collections by IDs with their applications
func (r *GormCollectionRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]finance.Collection, error) {
	if len(ids) == 0 {
		return []finance.Collection{}, nil
	}
	var collectionModels []models.CollectionModel
	if err := r.withApplications(r.db.WithContext(ctx)).Where("id IN ?", ids).Find(&collectionModels).Error; err != nil {
		return nil, err
	}
	return toDomainCollections(collectionModels), nil
}

// FindByApplicationID finds the collection owning a payment application
func (r *GormCollectionRepository) FindByApplicationID(ctx context.Context, applicationID uuid.UUID) (*finance.Collection, error) {
	sub := r.db.Model(&models.PaymentApplicationModel{}).Select("collection_id").Where("id = ?", applicationID)
	return r.findOne(r.db.WithContext(ctx).Where("id IN (?)", sub))
}

// FindByClientReference finds a collection by its offline idempotency key
func (r *GormCollectionRepository) FindByClientReference(ctx context.Context, ref string) (*finance.Collection, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, shared.ErrNotFound
	}
	return r.findOne(r.db.WithContext(ctx).Where("client_reference = ?", ref))
}

// FindAll finds collections matching the filter with the total count
func (r *GormCollectionRepository) FindAll(ctx context.Context, filter finance.CollectionFilter) ([]finance.Collection, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CollectionModel{})
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.CollectorID != nil {
		query = query.Where("collector_id = ?", *filter.CollectorID)
	}
	if filter.DateFrom != nil {
		query = query.Where("collected_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("collected_at < ?", *filter.DateTo)
	}
	if filter.Delivered != nil {
		query = query.Where("delivered = ?", *filter.Delivered)
	}
	if filter.UpdatedAfter != nil {
		query = query.Where("updated_at > ?", *filter.UpdatedAfter)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var collectionModels []models.CollectionModel
	if err := r.withApplications(paginate(query, filter.Filter, CollectionSortFields, "collected_at")).
		Find(&collectionModels).Error; err != nil {
		return nil, 0, err
	}
	return toDomainCollections(collectionModels), total, nil
}

// Create inserts a collection together with its applications.
// A duplicate client reference is reported as ALREADY_EXISTS.
func (r *GormCollectionRepository) Create(ctx context.Context, collection *finance.Collection) error {
	model := models.CollectionModelFromDomain(collection)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.NewDomainError(shared.CodeAlreadyExists, "A collection with this client reference already exists")
			}
			return err
		}
		if len(model.Applications) == 0 {
			return nil
		}
		return tx.Create(&model.Applications).Error
	})
}

// UpdateApplicationAmount stores a corrected application amount and bumps the collection
func (r *GormCollectionRepository) UpdateApplicationAmount(ctx context.Context, collectionID, applicationID uuid.UUID, amount decimal.Decimal) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.PaymentApplicationModel{}).
			Where("id = ? AND collection_id = ?", applicationID, collectionID).
			Updates(map[string]any{"amount": amount, "updated_at": now})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return tx.Model(&models.CollectionModel{}).
			Where("id = ?", collectionID).
			Updates(map[string]any{"version": gorm.Expr("version + 1"), "updated_at": now}).Error
	})
}

// SaveDelivery marks the collection delivered and stores the delivery record.
// Only an undelivered collection can be delivered.
func (r *GormCollectionRepository) SaveDelivery(ctx context.Context, collection *finance.Collection, delivery *finance.CollectionDelivery) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.CollectionModel{}).
			Where("id = ? AND delivered = ?", collection.ID, false).
			Updates(map[string]any{
				"delivered":    true,
				"delivered_at": delivery.DeliveredAt,
				"version":      gorm.Expr("version + 1"),
				"updated_at":   time.Now().UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError(shared.CodeInvalidState, "Collection has already been delivered")
		}
		return tx.Create(&models.CollectionDeliveryModel{
			ID:           delivery.ID,
			CollectionID: delivery.CollectionID,
			DeliveredBy:  delivery.DeliveredBy,
			DeliveredAt:  delivery.DeliveredAt,
		}).Error
	})
}

func toDomainCollections(collectionModels []models.CollectionModel) []finance.Collection {
	collections := make([]finance.Collection, len(collectionModels))
	for i := range collectionModels {
		collections[i] = *collectionModels[i].ToDomain()
	}
	return collections
}

// Ensure GormCollectionRepository implements CollectionRepository
var _ finance.CollectionRepository = (*GormCollectionRepository)(nil)

// GormSyncLogRepository implements SyncLogRepository using GORM
type GormSyncLogRepository struct {
	db *gorm.DB
}

// NewGormSyncLogRepository creates a new GormSyncLogRepository
func NewGormSyncLogRepository(db *gorm.DB) *GormSyncLogRepository {
	return &GormSyncLogRepository{db: db}
}

// Save stores a sync log entry
func (r *GormSyncLogRepository) Save(ctx context.Context, log *finance.SyncLog) error {
	return r.db.WithContext(ctx).Create(&models.SyncLogModel{
		ID:       log.ID,
		UserID:   log.UserID,
		SyncedAt: log.SyncedAt,
		Marker:   log.Marker,
	}).Error
}

// FindLatestByUser returns the most recent sync of a user
func (r *GormSyncLogRepository) FindLatestByUser(ctx context.Context, userID uuid.UUID) (*finance.SyncLog, error) {
	var model models.SyncLogModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("synced_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Ensure GormSyncLogRepository implements SyncLogRepository
var _ finance.SyncLogRepository = (*GormSyncLogRepository)(nil)
