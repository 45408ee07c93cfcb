package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "cuentas/internal/errors"
	"cuentas/internal/models"
	"cuentas/internal/period"
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// SetBudget creates or replaces the base amount for (user, month). The
// upsert is keyed on the composite pair and is idempotent: repeated calls
// with the same inputs converge on one row, last write wins.
func (s *budgetService) SetBudget(userID uint, month period.Month, amount decimal.Decimal) (*models.Budget, error) {
	budget := &models.Budget{
		UserID:     userID,
		Month:      month.Key(),
		BaseIncome: decimal.NewNullDecimal(amount),
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "month"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"base_income": amount,
			"updated_at":  time.Now(),
		}),
	}).Create(budget).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// Reload so the caller sees the stored row, including the ID of a
	// pre-existing record the conflict clause updated.
	var stored models.Budget
	if err := s.db.Where("user_id = ? AND month = ?", userID, month.Key()).First(&stored).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &stored, nil
}

// BaseAmount returns the resolved base amount for (user, month), zero
// when no budget has been set.
func (s *budgetService) BaseAmount(userID uint, month period.Month) (decimal.Decimal, error) {
	var budget models.Budget
	err := s.db.Where("user_id = ? AND month = ?", userID, month.Key()).First(&budget).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budget.ResolvedAmount(), nil
}
