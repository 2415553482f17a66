package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/cobranzas/backend/internal/domain/trade"
	"github.com/cobranzas/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormInstallmentRepository implements InstallmentRepository using GORM.
// Paid amounts are changed with guarded in-database expressions so concurrent
// writers can never push an installment outside [0, scheduled].
type GormInstallmentRepository struct {
	db *gorm.DB
}

// NewGormInstallmentRepository creates a new GormInstallmentRepository
func NewGormInstallmentRepository(db *gorm.DB) *GormInstallmentRepository {
	return &GormInstallmentRepository{db: db}
}

// FindByIDs finds installments by IDs
func (r *GormInstallmentRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]trade.Installment, error) {
	if len(ids) == 0 {
		return []trade.Installment{}, nil
	}
	var installmentModels []models.InstallmentModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("sale_id, ordinal").Find(&installmentModels).Error; err != nil {
		return nil, err
	}
	installments := make([]trade.Installment, len(installmentModels))
	for i := range installmentModels {
		installments[i] = *installmentModels[i].ToDomain()
	}
	return installments, nil
}

// FindByID finds an installment by ID
func (r *GormInstallmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Installment, error) {
	var model models.InstallmentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// IncrementPaid atomically adds amount to the paid amount. The WHERE clause
// only matches while paid_amount + amount <= amount, so zero affected rows
// means the increment would overpay the installment.
func (r *GormInstallmentRepository) IncrementPaid(ctx context.Context, id uuid.UUID, amount decimal.Decimal, paidAt time.Time) error {
	if !amount.IsPositive() {
		return shared.NewValidationError("Payment amount must be greater than zero")
	}

	result := r.db.WithContext(ctx).
		Model(&models.InstallmentModel{}).
		Where("id = ? AND paid_amount + ? <= amount", id, amount).
		Updates(paidAmountChanges(amount, paidAt))
	if result.Error != nil {
		return fmt.Errorf("failed to increment paid amount: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		current, err := r.FindByID(ctx, id)
		if err != nil {
			return err
		}
		return shared.NewOverpaymentError(fmt.Sprintf(
			"Installment %d: payment of %s exceeds the remaining balance of %s",
			current.Ordinal, amount.StringFixed(2), current.RemainingAmount().StringFixed(2)))
	}
	return nil
}

// AdjustPaid atomically adds delta (which may be negative) to the paid amount,
// keeping it within [0, scheduled]. A zero paidAt leaves the last payment date alone.
func (r *GormInstallmentRepository) AdjustPaid(ctx context.Context, id uuid.UUID, delta decimal.Decimal, paidAt time.Time) error {
	if delta.IsZero() {
		return nil
	}

	result := r.db.WithContext(ctx).
		Model(&models.InstallmentModel{}).
		Where("id = ? AND paid_amount + ? >= 0 AND paid_amount + ? <= amount", id, delta, delta).
		Updates(paidAmountChanges(delta, paidAt))
	if result.Error != nil {
		return fmt.Errorf("failed to adjust paid amount: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		current, err := r.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if current.PaidAmount.Add(delta).IsNegative() {
			return shared.NewValidationError(fmt.Sprintf(
				"Installment %d: paid amount cannot become negative", current.Ordinal))
		}
		return shared.NewOverpaymentError(fmt.Sprintf(
			"Installment %d: corrected amount exceeds the scheduled amount of %s",
			current.Ordinal, current.Amount.StringFixed(2)))
	}
	return nil
}

// paidAmountChanges builds the update set for a paid amount change of delta.
// The status expression reads the pre-update row, as SQL assignments do.
func paidAmountChanges(delta decimal.Decimal, paidAt time.Time) map[string]any {
	changes := map[string]any{
		"paid_amount": gorm.Expr("paid_amount + ?", delta),
		"status": gorm.Expr(
			"CASE WHEN paid_amount + ? >= amount THEN ? WHEN paid_amount + ? > 0 THEN ? ELSE ? END",
			delta, string(trade.InstallmentStatusPaid),
			delta, string(trade.InstallmentStatusPartial),
			string(trade.InstallmentStatusPending),
		),
		"updated_at": time.Now().UTC(),
	}
	if !paidAt.IsZero() {
		changes["last_payment_at"] = paidAt
	}
	return changes
}

// Ensure GormInstallmentRepository implements InstallmentRepository
var _ trade.InstallmentRepository = (*GormInstallmentRepository)(nil)
