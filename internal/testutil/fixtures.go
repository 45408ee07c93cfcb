package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"cuentas/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	n := nextID()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Username: fmt.Sprintf("user%d", n),
		Email:    fmt.Sprintf("user%d@test.com", n),
		Password: string(hash),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestTransaction creates a transaction of the given kind, amount, and date.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID uint, kind models.TransactionKind, amount string, date time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:      userID,
		Date:        date,
		Kind:        kind,
		Amount:      MustDecimal(t, amount),
		Description: fmt.Sprintf("Test movement %d", nextID()),
		Category:    "General",
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestBudget creates a budget with the base amount in the current column.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID uint, month, amount string) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:     userID,
		Month:      month,
		BaseIncome: decimal.NewNullDecimal(MustDecimal(t, amount)),
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestLegacyBudget creates a budget with the base amount only in the
// legacy column.
func CreateTestLegacyBudget(t *testing.T, db *gorm.DB, userID uint, month, amount string) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID: userID,
		Month:  month,
		Amount: decimal.NewNullDecimal(MustDecimal(t, amount)),
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test legacy budget: %v", err)
	}
	return budget
}

// MustDecimal parses a decimal literal or fails the test.
func MustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()

	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("invalid decimal literal %q: %v", s, err)
	}
	return d
}
