package persistence

import (
	"context"
	"errors"

	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/cobranzas/backend/internal/domain/trade"
	"github.com/cobranzas/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSaleRepository implements SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

func (r *GormSaleRepository) withChildren(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Items").
		Preload("Installments", func(db *gorm.DB) *gorm.DB {
			return db.Order("ordinal ASC")
		})
}

// FindByID finds a sale by ID with its items and installments
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Sale, error) {
	var model models.SaleModel
	if err := r.withChildren(r.db.WithContext(ctx)).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	sale := model.ToDomain()
	applications, err := r.countApplications(r.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	sale.RecordedApplications = applications
	return sale, nil
}

func (r *GormSaleRepository) countApplications(db *gorm.DB, saleID uuid.UUID) (int64, error) {
	var count int64
	err := db.Model(&models.PaymentApplicationModel{}).
		Where("sale_id = ?", saleID).
		Count(&count).Error
	return count, err
}

// FindByIDs finds sales by IDs with their installments
func (r *GormSaleRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]trade.Sale, error) {
	if len(ids) == 0 {
		return []trade.Sale{}, nil
	}
	var saleModels []models.SaleModel
	if err := r.withChildren(r.db.WithContext(ctx)).Where("id IN ?", ids).Find(&saleModels).Error; err != nil {
		return nil, err
	}
	return toDomainSales(saleModels), nil
}

// FindAll finds sales matching the filter with the total count
func (r *GormSaleRepository) FindAll(ctx context.Context, filter trade.SaleFilter) ([]trade.Sale, int64, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.SaleModel{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var saleModels []models.SaleModel
	if err := r.withChildren(paginate(query, filter.Filter, SaleSortFields, "sale_date")).Find(&saleModels).Error; err != nil {
		return nil, 0, err
	}
	return toDomainSales(saleModels), total, nil
}

// FindByCustomer finds all sales of a customer with their installments, oldest first
func (r *GormSaleRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]trade.Sale, error) {
	var saleModels []models.SaleModel
	if err := r.withChildren(r.db.WithContext(ctx)).
		Where("customer_id = ?", customerID).
		Order("sale_date ASC, id").
		Find(&saleModels).Error; err != nil {
		return nil, err
	}
	return toDomainSales(saleModels), nil
}

// Create inserts a new sale together with its items and installments
func (r *GormSaleRepository) Create(ctx context.Context, sale *trade.Sale) error {
	model := models.SaleModelFromDomain(sale)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return err
		}
		if len(model.Items) > 0 {
			if err := tx.Create(&model.Items).Error; err != nil {
				return err
			}
		}
		if len(model.Installments) > 0 {
			if err := tx.Create(&model.Installments).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveWithLock updates sale attributes with optimistic locking (version check).
// Items and installments are not touched.
func (r *GormSaleRepository) SaveWithLock(ctx context.Context, sale *trade.Sale) error {
	model := models.SaleModelFromDomain(sale)
	result := r.db.WithContext(ctx).
		Model(&models.SaleModel{}).
		Where("id = ? AND version = ?", sale.ID, sale.Version-1).
		Select("*").
		Omit("id", "created_at", "created_by", "customer_id", clause.Associations).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrentModification, "The sale has been modified by another transaction")
	}
	return nil
}

// ReplaceInstallments deletes the sale's installments and inserts the current set.
// Callers run it inside the transaction that saves the sale.
func (r *GormSaleRepository) ReplaceInstallments(ctx context.Context, sale *trade.Sale) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("sale_id = ?", sale.ID).Delete(&models.InstallmentModel{}).Error; err != nil {
		return translateInstallmentDelete(err)
	}
	if len(sale.Installments) == 0 {
		return nil
	}
	installments := make([]models.InstallmentModel, len(sale.Installments))
	for i := range sale.Installments {
		installments[i] = *models.InstallmentModelFromDomain(&sale.Installments[i])
	}
	return db.Create(&installments).Error
}

// Delete deletes a sale with its items and installments
func (r *GormSaleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		count, err := r.countApplications(tx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return shared.ErrInstallmentsHavePayments
		}
		if err := tx.Where("sale_id = ?", id).Delete(&models.InstallmentModel{}).Error; err != nil {
			return translateInstallmentDelete(err)
		}
		if err := tx.Where("sale_id = ?", id).Delete(&models.SaleItemModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.SaleModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// translateInstallmentDelete maps a foreign key violation raised by payment
// applications still referencing the installments
func translateInstallmentDelete(err error) error {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return shared.ErrInstallmentsHavePayments
	}
	return err
}

// CountByCustomer counts sales of a customer
func (r *GormSaleRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SaleModel{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error
	return count, err
}

func (r *GormSaleRepository) applyFilter(query *gorm.DB, filter trade.SaleFilter) *gorm.DB {
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.CollectorID != nil {
		query = query.Where("collector_id = ?", *filter.CollectorID)
	}
	if filter.Uncollectible != nil {
		query = query.Where("uncollectible = ?", *filter.Uncollectible)
	}
	if filter.PendingOnly {
		query = query.Where("EXISTS (SELECT 1 FROM installments i WHERE i.sale_id = sales.id AND i.paid_amount < i.amount)")
	}
	if filter.VisibleTo != nil {
		query = query.Where(
			"collector_id = ? OR customer_id IN (?)",
			*filter.VisibleTo,
			r.db.Model(&models.CustomerModel{}).Select("id").Where("collector_id = ?", *filter.VisibleTo),
		)
	}
	if filter.UpdatedAfter != nil {
		query = query.Where(
			"updated_at > ? OR id IN (?)",
			*filter.UpdatedAfter,
			r.db.Model(&models.InstallmentModel{}).Select("sale_id").Where("updated_at > ?", *filter.UpdatedAfter),
		)
	}
	if filter.Search != "" {
		query = query.Where("LOWER(remarks) LIKE ?", likePattern(filter.Search))
	}
	return query
}

func toDomainSales(saleModels []models.SaleModel) []trade.Sale {
	sales := make([]trade.Sale, len(saleModels))
	for i := range saleModels {
		sales[i] = *saleModels[i].ToDomain()
	}
	return sales
}

// Ensure GormSaleRepository implements SaleRepository
var _ trade.SaleRepository = (*GormSaleRepository)(nil)
