package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "cuentas/internal/errors"
	"cuentas/internal/models"
	"cuentas/internal/period"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db       *gorm.DB
	receipts ReceiptRemover
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, receipts ReceiptRemover) TransactionServicer {
	return &transactionService{db: db, receipts: receipts}
}

// CreateTransaction records a new income or expense movement for a user.
func (s *transactionService) CreateTransaction(userID uint, in TransactionInput) (*models.Transaction, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	date := in.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	transaction := &models.Transaction{
		UserID:      userID,
		Date:        date,
		Kind:        in.Kind,
		Amount:      in.Amount,
		Description: in.Description,
		Category:    in.Category,
		ReceiptURL:  in.ReceiptURL,
	}

	if err := s.db.Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return transaction, nil
}

// Summarize aggregates one calendar month for a user: the transactions
// whose dates fall inside the month's UTC range (newest first), the base
// budget for that month (zero when absent), the income and expense
// totals, and the final balance base + income - expense. Read only.
func (s *transactionService) Summarize(userID uint, month period.Month) (*MonthlySummary, error) {
	start, end := month.Range()

	var transactions []models.Transaction
	err := s.db.
		Where("user_id = ? AND date BETWEEN ? AND ?", userID, start, end).
		Order("date DESC").
		Find(&transactions).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	base, err := s.baseAmount(userID, month)
	if err != nil {
		return nil, err
	}

	income, expense := tally(transactions)

	return &MonthlySummary{
		Transactions: transactions,
		BaseAmount:   base,
		IncomeTotal:  income,
		ExpenseTotal: expense,
		FinalBalance: finalBalance(base, income, expense),
	}, nil
}

// UpdateTransaction replaces the editable fields of a transaction owned
// by the user. A transaction owned by someone else reports not-found,
// indistinguishable from a missing record.
func (s *transactionService) UpdateTransaction(userID, transactionID uint, in TransactionInput) (*models.Transaction, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	transaction, err := s.getOwned(userID, transactionID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"date":        in.Date,
		"kind":        in.Kind,
		"amount":      in.Amount,
		"description": in.Description,
		"category":    in.Category,
	}
	if in.Date.IsZero() {
		delete(updates, "date")
	}
	if in.ReceiptURL != "" {
		updates["receipt_url"] = in.ReceiptURL
	}

	if err := s.db.Model(transaction).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return transaction, nil
}

// DeleteTransaction removes a transaction owned by the user. The row is
// deleted first; the receipt file, if any, is cleaned up afterwards on a
// best-effort basis.
func (s *transactionService) DeleteTransaction(userID, transactionID uint) error {
	transaction, err := s.getOwned(userID, transactionID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(transaction).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if transaction.ReceiptURL != "" && s.receipts != nil {
		s.receipts.Remove(transaction.ReceiptURL)
	}
	return nil
}

// baseAmount resolves the budget base for (user, month), defaulting to
// zero when no budget row exists.
func (s *transactionService) baseAmount(userID uint, month period.Month) (decimal.Decimal, error) {
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

// getOwned fetches a transaction scoped to its owner.
func (s *transactionService) getOwned(userID, transactionID uint) (*models.Transaction, error) {
	var transaction models.Transaction
	err := s.db.Where("id = ? AND user_id = ?", transactionID, userID).First(&transaction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrTransactionNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

func validateInput(in TransactionInput) error {
	if !in.Kind.Valid() {
		return apperrors.ErrInvalidKind
	}
	if in.Amount.IsNegative() {
		return apperrors.ErrNegativeAmount
	}
	if in.Description == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "description is required")
	}
	if in.Category == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required")
	}
	return nil
}

// tally sums transaction amounts by kind.
func tally(transactions []models.Transaction) (income, expense decimal.Decimal) {
	income, expense = decimal.Zero, decimal.Zero
	for _, tx := range transactions {
		switch tx.Kind {
		case models.KindIncome:
			income = income.Add(tx.Amount)
		case models.KindExpense:
			expense = expense.Add(tx.Amount)
		}
	}
	return income, expense
}

// finalBalance is the single balance formula shared by the monthly
// summary and the report workbook. The two must never diverge for the
// same data.
func finalBalance(base, income, expense decimal.Decimal) decimal.Decimal {
	return base.Add(income).Sub(expense)
}
