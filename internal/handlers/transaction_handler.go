package handlers

import (
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "cuentas/internal/errors"
	"cuentas/internal/models"
	"cuentas/internal/period"
	"cuentas/internal/services"
)

// ReceiptSaver stores an uploaded receipt image and returns its public URL.
type ReceiptSaver interface {
	Save(fh *multipart.FileHeader) (string, error)
}

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	budgetService      services.BudgetServicer
	receipts           ReceiptSaver
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(
	transactionService services.TransactionServicer,
	budgetService services.BudgetServicer,
	receipts ReceiptSaver,
) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		budgetService:      budgetService,
		receipts:           receipts,
	}
}

// TransactionRequest represents the form payload for creating or updating
// a transaction. Receipt images arrive as the multipart file "receipt".
type TransactionRequest struct {
	Date        string `form:"date"`
	Kind        string `form:"kind" binding:"required,transaction_kind"`
	Amount      string `form:"amount" binding:"required"`
	Description string `form:"description" binding:"required"`
	Category    string `form:"category" binding:"required"`
}

// SetBudgetRequest represents the request payload for setting the monthly base.
type SetBudgetRequest struct {
	Month  string           `json:"month" binding:"required,month_key"`
	Amount *decimal.Decimal `json:"amount" binding:"required"`
}

// GetTransactions returns the caller's month summary.
// @Summary     Get transactions by month
// @Description Get the caller's transactions and budget summary for one month
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       month query string true "Month in YYYY-MM format"
// @Success     200 {object} services.MonthlySummary "Month summary"
// @Failure     400 {object} ErrorResponse "Missing or malformed month"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	monthParam := c.Query("month")
	if monthParam == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidMonth, "Missing month (?month=YYYY-MM)"))
		return
	}

	month, err := period.Parse(monthParam)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.transactionService.Summarize(userID, month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions":  summary.Transactions,
		"budget":        summary.BaseAmount,
		"income_total":  summary.IncomeTotal,
		"expense_total": summary.ExpenseTotal,
		"final_balance": summary.FinalBalance,
	})
}

// CreateTransaction records a new movement, with an optional receipt image.
// @Summary     Create a transaction
// @Description Create an income or expense movement with an optional receipt
// @Tags        transactions
// @Accept      mpfd
// @Produce     json
// @Security    BearerAuth
// @Param       kind formData string true "income or expense"
// @Param       amount formData string true "Non-negative amount"
// @Param       description formData string true "Description"
// @Param       category formData string true "Category"
// @Param       date formData string false "Date (RFC 3339 or YYYY-MM-DD)"
// @Param       receipt formData file false "Receipt image"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	input, err := h.bindTransactionInput(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.CreateTransaction(userID, *input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// UpdateTransaction replaces the editable fields of an owned transaction.
// @Summary     Update a transaction
// @Description Update a transaction owned by the caller
// @Tags        transactions
// @Accept      mpfd
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	input, err := h.bindTransactionInput(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.UpdateTransaction(userID, transactionID, *input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// DeleteTransaction removes an owned transaction and, best effort, its
// stored receipt file.
// @Summary     Delete a transaction
// @Description Delete a transaction owned by the caller
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Transaction ID"
// @Success     200 {object} map[string]string "Transaction deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(userID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted"})
}

// SetBudget sets the caller's base amount for one month.
// @Summary     Set monthly budget
// @Description Create or replace the base amount for the caller's month
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body SetBudgetRequest true "Budget details"
// @Success     200 {object} models.Budget "Budget stored"
// @Failure     400 {object} ErrorResponse "Missing month or amount"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/budget [post]
func (h *TransactionHandler) SetBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SetBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Missing fields (month, amount)"))
		return
	}

	month, err := period.Parse(req.Month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.SetBudget(userID, month, *req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// bindTransactionInput binds the shared form payload, parses the amount
// and date, and stores an uploaded receipt when one is attached.
func (h *TransactionHandler) bindTransactionInput(c *gin.Context) (*services.TransactionInput, error) {
	var req TransactionRequest
	if err := c.ShouldBind(&req); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid amount")
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	input := &services.TransactionInput{
		Date:        date,
		Kind:        models.TransactionKind(req.Kind),
		Amount:      amount,
		Description: req.Description,
		Category:    req.Category,
	}

	if fh, err := c.FormFile("receipt"); err == nil && fh != nil {
		url, err := h.receipts.Save(fh)
		if err != nil {
			return nil, err
		}
		input.ReceiptURL = url
	}

	return input, nil
}

// parseDate accepts RFC 3339 timestamps or plain YYYY-MM-DD dates. An
// empty value means "now" and is resolved by the service.
func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid date format")
}
