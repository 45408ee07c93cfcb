package services

import (
	"testing"
	"time"

	"cuentas/internal/models"
	"cuentas/internal/period"
	"cuentas/internal/testutil"
)

// fakeReceiptRemover records removals without touching the filesystem.
type fakeReceiptRemover struct {
	removed []string
}

func (f *fakeReceiptRemover) Remove(receiptURL string) {
	f.removed = append(f.removed, receiptURL)
}

func mustMonth(t *testing.T, key string) period.Month {
	t.Helper()
	m, err := period.Parse(key)
	if err != nil {
		t.Fatalf("invalid month key %q: %v", key, err)
	}
	return m
}

func TestCreateTransaction(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, &fakeReceiptRemover{})
		user := testutil.CreateTestUser(t, db)

		tx, err := svc.CreateTransaction(user.ID, TransactionInput{
			Date:        time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
			Kind:        models.KindIncome,
			Amount:      testutil.MustDecimal(t, "150.50"),
			Description: "Donation",
			Category:    "General",
		})
		testutil.AssertNoError(t, err)

		if tx.ID == 0 {
			t.Fatal("expected non-zero transaction ID")
		}
		if tx.Kind != models.KindIncome {
			t.Errorf("expected kind income, got %s", tx.Kind)
		}
		testutil.AssertDecimalEqual(t, tx.Amount, "150.50")
	})

	t.Run("defaults_date_to_now", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, &fakeReceiptRemover{})
		user := testutil.CreateTestUser(t, db)

		tx, err := svc.CreateTransaction(user.ID, TransactionInput{
			Kind:        models.KindExpense,
			Amount:      testutil.MustDecimal(t, "10"),
			Description: "Snacks",
			Category:    "Food",
		})
		testutil.AssertNoError(t, err)

		if tx.Date.IsZero() {
			t.Error("expected date to default to now")
		}
	})

	t.Run("invalid_kind", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, &fakeReceiptRemover{})
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateTransaction(user.ID, TransactionInput{
			Kind:        "transfer",
			Amount:      testutil.MustDecimal(t, "10"),
			Description: "Nope",
			Category:    "General",
		})
		testutil.AssertAppError(t, err, "INVALID_KIND")
	})

	t.Run("negative_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, &fakeReceiptRemover{})
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateTransaction(user.ID, TransactionInput{
			Kind:        models.KindExpense,
			Amount:      testutil.MustDecimal(t, "-5"),
			Description: "Nope",
			Category:    "General",
		})
		testutil.AssertAppError(t, err, "NEGATIVE_AMOUNT")
	})

	t.Run("missing_description", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, &fakeReceiptRemover{})
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateTransaction(user.ID, TransactionInput{
			Kind:     models.KindExpense,
			Amount:   testutil.MustDecimal(t, "5"),
			Category: "General",
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestSummarize(t *testing.T) {
	t.Run("sum_correctness", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, &fakeReceiptRemover{})
		user := testutil.CreateTestUser(t, db)

		mid := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
		testutil.CreateTestTransaction(t, db, user.ID, models.KindIncome, "100", mid)
		testutil.CreateTestTransaction(t, db, user.ID, models.KindExpense, "30", mid)
		testutil.CreateTestTransaction(t, db, user.ID, models.KindExpense, "20", mid)
		testutil.CreateTestBudget(t, db, user.ID, "2026-01", "500")

		summary, err := svc.Summarize(user.ID, mustMonth(t, "2026-01"))
		testutil.AssertNoError(t, err)

		testutil.AssertDecimalEqual(t, summary.IncomeTotal, "100")
		testutil.AssertDecimalEqual(t, summary.ExpenseTotal, "50")
		testutil.AssertDecimalEqual(t, summary.BaseAmount, "500")
		testutil.AssertDecimalEqual(t, summary.FinalBalance, "550")
		if len(summary.Transactions) != 3 {
			t.Errorf("expected 3 transactions, got %d", len(summary.Transactions))
		}
	})

	t.Run("month_boundaries", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, &fakeReceiptRemover{})
		user := testutil.CreateTestUser(t, db)

		included1 := testutil.CreateTestTransaction(t, db, user.ID, models.KindExpense, "10",
			time.Date(2026, 1, 31, 20, 0, 0, 0, time.UTC))
		included2 := testutil.CreateTestTransaction(t, db, user.ID, models.KindExpense, "10",
			time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC))
		excluded := testutil.CreateTestTransaction(t, db, user.ID, models.KindExpense, "10",
			time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC))

		summary, err := svc.Summarize(user.ID, mustMonth(t, "2026-01"))
		testutil.AssertNoError(t, err)

		ids := make(map[uint]bool)
		for _, tx := range summary.Transactions {
			ids[tx.ID] = true
		}
		if !ids[included1.ID] || !ids[included2.ID] {
			t.Error("expected both January transactions to be included")
		}
		if ids[excluded.ID] {
			t.Error("expected the February transaction to be excluded")
		}
	})

	t.Run("orders_newest_first", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, &fakeReceiptRemover{})
		user := testutil.CreateTestUser(t, db)

		old := testutil.CreateTestTransaction(t, db, user.ID, models.KindExpense, "1",
			time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
		recent := testutil.CreateTestTransaction(t, db, user.ID, models.KindExpense, "1",
			time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC))

		summary, err := svc.Summarize(user.ID, mustMonth(t, "2026-03"))
		testutil.AssertNoError(t, err)

		if len(summary.Transactions) != 2 {
			t.Fatalf("expected 2 transactions, got %d", len(summary.Transactions))
		}
		if summary.Transactions[0].ID != recent.ID || summary.Transactions[1].ID != old.ID {
			t.Error("expected newest-first ordering")
		}
	})

	t.Run("missing_budget_defaults_to_zero", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, &fakeReceiptRemover{})
		user := testutil.CreateTestUser(t, db)

		testutil.CreateTestTransaction(t, db, user.ID, models.KindIncome, "40",
			time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC))

		summary, err := svc.Summarize(user.ID, mustMonth(t, "2026-05"))
		testutil.AssertNoError(t, err)

		testutil.AssertDecimalEqual(t, summary.BaseAmount, "0")
		testutil.AssertDecimalEqual(t, summary.FinalBalance, "40")
	})

	t.Run("scoped_to_owner", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, &fakeReceiptRemover{})
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)

		when := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
		testutil.CreateTestTransaction(t, db, user1.ID, models.KindIncome, "10", when)
		testutil.CreateTestTransaction(t, db, user2.ID, models.KindIncome, "99", when)

		summary, err := svc.Summarize(user1.ID, mustMonth(t, "2026-04"))
		testutil.AssertNoError(t, err)

		if len(summary.Transactions) != 1 {
			t.Fatalf("expected 1 transaction, got %d", len(summary.Transactions))
		}
		testutil.AssertDecimalEqual(t, summary.IncomeTotal, "10")
	})
}

func TestUpdateTransaction(t *testing.T) {
	t.Run("replaces_fields", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, &fakeReceiptRemover{})
		user := testutil.CreateTestUser(t, db)

		tx := testutil.CreateTestTransaction(t, db, user.ID, models.KindExpense, "25",
			time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))

		updated, err := svc.UpdateTransaction(user.ID, tx.ID, TransactionInput{
			Date:        time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC),
			Kind:        models.KindIncome,
			Amount:      testutil.MustDecimal(t, "75"),
			Description: "Corrected",
			Category:    "Adjustments",
		})
		testutil.AssertNoError(t, err)

		if updated.Kind != models.KindIncome {
			t.Errorf("expected kind income, got %s", updated.Kind)
		}
		testutil.AssertDecimalEqual(t, updated.Amount, "75")

		var stored models.Transaction
		if err := db.First(&stored, tx.ID).Error; err != nil {
			t.Fatalf("failed to reload transaction: %v", err)
		}
		if stored.Description != "Corrected" {
			t.Errorf("expected stored description Corrected, got %s", stored.Description)
		}
	})

	t.Run("not_owner_reports_not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, &fakeReceiptRemover{})
		owner := testutil.CreateTestUser(t, db)
		intruder := testutil.CreateTestUser(t, db)

		tx := testutil.CreateTestTransaction(t, db, owner.ID, models.KindExpense, "25",
			time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))

		_, err := svc.UpdateTransaction(intruder.ID, tx.ID, TransactionInput{
			Kind:        models.KindExpense,
			Amount:      testutil.MustDecimal(t, "1"),
			Description: "Hijack",
			Category:    "General",
		})
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})

	t.Run("missing_record", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, &fakeReceiptRemover{})
		user := testutil.CreateTestUser(t, db)

		_, err := svc.UpdateTransaction(user.ID, 9999, TransactionInput{
			Kind:        models.KindExpense,
			Amount:      testutil.MustDecimal(t, "1"),
			Description: "Ghost",
			Category:    "General",
		})
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}

func TestDeleteTransaction(t *testing.T) {
	t.Run("removes_row_and_cleans_receipt", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		remover := &fakeReceiptRemover{}
		svc := NewTransactionService(db, remover)
		user := testutil.CreateTestUser(t, db)

		tx := testutil.CreateTestTransaction(t, db, user.ID, models.KindExpense, "25",
			time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))
		if err := db.Model(tx).Update("receipt_url", "/uploads/receipt-abc.jpg").Error; err != nil {
			t.Fatalf("failed to attach receipt: %v", err)
		}

		err := svc.DeleteTransaction(user.ID, tx.ID)
		testutil.AssertNoError(t, err)

		var count int64
		db.Model(&models.Transaction{}).Where("id = ?", tx.ID).Count(&count)
		if count != 0 {
			t.Error("expected transaction row to be deleted")
		}
		if len(remover.removed) != 1 || remover.removed[0] != "/uploads/receipt-abc.jpg" {
			t.Errorf("expected receipt cleanup, got %v", remover.removed)
		}
	})

	t.Run("not_owner_reports_not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, &fakeReceiptRemover{})
		owner := testutil.CreateTestUser(t, db)
		intruder := testutil.CreateTestUser(t, db)

		tx := testutil.CreateTestTransaction(t, db, owner.ID, models.KindExpense, "25",
			time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))

		err := svc.DeleteTransaction(intruder.ID, tx.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")

		var count int64
		db.Model(&models.Transaction{}).Where("id = ?", tx.ID).Count(&count)
		if count != 1 {
			t.Error("expected transaction to survive a non-owner delete")
		}
	})
}
