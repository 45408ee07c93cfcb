package services

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"cuentas/internal/models"
	"cuentas/internal/period"
)

// TransactionInput carries the editable fields of a transaction. Updates
// replace every field; an empty ReceiptURL leaves the stored receipt
// untouched.
type TransactionInput struct {
	Date        time.Time
	Kind        models.TransactionKind
	Amount      decimal.Decimal
	Description string
	Category    string
	ReceiptURL  string
}

// MonthlySummary is the aggregated view of one user's month.
type MonthlySummary struct {
	Transactions []models.Transaction `json:"transactions"`
	BaseAmount   decimal.Decimal      `json:"base_amount"`
	IncomeTotal  decimal.Decimal      `json:"income_total"`
	ExpenseTotal decimal.Decimal      `json:"expense_total"`
	FinalBalance decimal.Decimal      `json:"final_balance"`
}

// ReceiptRemover removes a stored receipt file behind a receipt URL.
// Removal is best effort and must never fail the surrounding operation.
type ReceiptRemover interface {
	Remove(receiptURL string)
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(username, email, password string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	DeleteAccount(userID uint) error
	CreateResetToken(email string) (string, *models.User, error)
	ResetPassword(token, newPassword string) error
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(userID uint, in TransactionInput) (*models.Transaction, error)
	Summarize(userID uint, month period.Month) (*MonthlySummary, error)
	UpdateTransaction(userID, transactionID uint, in TransactionInput) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID uint) error
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	SetBudget(userID uint, month period.Month, amount decimal.Decimal) (*models.Budget, error)
	BaseAmount(userID uint, month period.Month) (decimal.Decimal, error)
}

// ReportServicer builds the downloadable monthly report workbook.
type ReportServicer interface {
	MonthlyWorkbook(userID uint) (*excelize.File, error)
}
