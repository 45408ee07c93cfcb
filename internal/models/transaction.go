package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind is the direction of a transaction.
type TransactionKind string

const (
	KindIncome  TransactionKind = "income"
	KindExpense TransactionKind = "expense"
)

// Valid reports whether the kind is one of the two enumerated values.
func (k TransactionKind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// DefaultCategory is used at render time when a transaction carries no
// category label.
const DefaultCategory = "General"

// Transaction represents a single income or expense movement.
type Transaction struct {
	Base
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	Date        time.Time       `gorm:"not null" json:"date"`
	Kind        TransactionKind `gorm:"not null" json:"kind"`
	Amount      decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"amount"`
	Description string          `gorm:"not null" json:"description"`
	Category    string          `gorm:"not null" json:"category"`
	ReceiptURL  string          `json:"receipt_url,omitempty"`
}
