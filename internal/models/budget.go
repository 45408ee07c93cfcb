package models

import "github.com/shopspring/decimal"

// Budget is the fixed base amount a user assigns to one calendar month.
// Uniqueness is enforced on the (user_id, month) pair, never on month
// alone, so different users can budget the same month independently.
type Budget struct {
	Base
	UserID uint   `gorm:"not null;uniqueIndex:idx_budgets_user_month" json:"user_id"`
	Month  string `gorm:"size:7;not null;uniqueIndex:idx_budgets_user_month" json:"month"`

	// The base amount has lived under two column names across schema
	// revisions. BaseIncome is current; Amount is kept readable so old
	// rows still resolve. Writes only ever touch BaseIncome.
	BaseIncome decimal.NullDecimal `gorm:"type:numeric(18,2);column:base_income" json:"base_income"`
	Amount     decimal.NullDecimal `gorm:"type:numeric(18,2);column:amount" json:"-"`
}

// ResolvedAmount returns the effective base amount, preferring the
// current column, falling back to the legacy one, and defaulting to zero
// when neither holds a value.
func (b *Budget) ResolvedAmount() decimal.Decimal {
	if b.BaseIncome.Valid {
		return b.BaseIncome.Decimal
	}
	if b.Amount.Valid {
		return b.Amount.Decimal
	}
	return decimal.Zero
}
