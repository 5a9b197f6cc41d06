package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"moneypal/internal/apperr"
	"moneypal/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "moneypal.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestUser(t *testing.T, s *Store, email string) core.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), email, "hash", core.DefaultCurrencySymbol)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func mustAmount(t *testing.T, v string) core.Money {
	t.Helper()
	m, err := core.ParseAmount(v)
	if err != nil {
		t.Fatalf("parse amount %q: %v", v, err)
	}
	return m
}

func newTestBucket(t *testing.T, s *Store, userID int64, name string, typ core.BucketType) core.Bucket {
	t.Helper()
	bb, err := core.NewBucket(userID, name, typ, nil)
	if err != nil {
		t.Fatalf("new bucket: %v", err)
	}
	b, err := s.CreateBucket(context.Background(), bb)
	if err != nil {
		t.Fatalf("create bucket: %v", err)
	}
	return b
}

func investInto(t *testing.T, s *Store, userID, bucketID int64, amount string) core.Transaction {
	t.Helper()
	tx, err := core.NewTransaction(userID, core.Investment, mustAmount(t, amount),
		time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), 0, bucketID, "")
	if err != nil {
		t.Fatalf("new investment: %v", err)
	}
	saved, err := s.InsertTransaction(context.Background(), tx)
	if err != nil {
		t.Fatalf("insert investment: %v", err)
	}
	return saved
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	newTestUser(t, s, "a@example.com")

	_, err := s.CreateUser(context.Background(), "a@example.com", "hash2", "Rs.")
	if !apperr.IsKind(err, apperr.KindDuplicate) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestSeedSystemCategories(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "seed@example.com")

	if err := s.SeedSystemCategories(context.Background(), u.ID); err != nil {
		t.Fatalf("seed: %v", err)
	}
	cats, err := s.ListCategories(context.Background(), u.ID, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cats) != 6 {
		t.Fatalf("expected 6 seeded categories, got %d", len(cats))
	}
	for _, c := range cats {
		if !c.IsSystem {
			t.Errorf("seeded category %q not marked system", c.Name)
		}
	}
}

func TestCategoryUserScoping(t *testing.T) {
	s := newTestStore(t)
	owner := newTestUser(t, s, "owner@example.com")
	other := newTestUser(t, s, "other@example.com")

	cc, err := core.NewCategory(owner.ID, "Books", core.CategoryExpense, "", "book")
	if err != nil {
		t.Fatalf("new category: %v", err)
	}
	c, err := s.CreateCategory(context.Background(), cc)
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	if _, err := s.GetCategory(context.Background(), c.ID, other.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("foreign category should be not found, got %v", err)
	}

	// Uniqueness is per user: the same name and type under another
	// user is a fresh category.
	oc, err := core.NewCategory(other.ID, "Books", core.CategoryExpense, "", "book")
	if err != nil {
		t.Fatalf("new category: %v", err)
	}
	dup, err := s.CreateCategory(context.Background(), oc)
	if err != nil {
		t.Fatalf("same name and type under another user should succeed, got %v", err)
	}
	if dup.ID == c.ID {
		t.Fatal("expected a distinct category row")
	}
}

func TestDeleteOrArchiveCategory(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "cat@example.com")

	mk := func(name string) core.Category {
		cc, err := core.NewCategory(u.ID, name, core.CategoryExpense, "", "")
		if err != nil {
			t.Fatalf("new category: %v", err)
		}
		c, err := s.CreateCategory(context.Background(), cc)
		if err != nil {
			t.Fatalf("create category: %v", err)
		}
		return c
	}

	t.Run("unused category is hard deleted", func(t *testing.T) {
		c := mk("Unused")
		action, err := s.DeleteOrArchiveCategory(context.Background(), c.ID, u.ID)
		if err != nil {
			t.Fatalf("delete: %v", err)
		}
		if action != CategoryDeletedAction {
			t.Fatalf("expected deleted, got %s", action)
		}
		if _, err := s.GetCategory(context.Background(), c.ID, u.ID); !apperr.IsKind(err, apperr.KindNotFound) {
			t.Fatalf("expected not found after delete, got %v", err)
		}
	})

	t.Run("referenced category is archived", func(t *testing.T) {
		c := mk("Used")
		tx, err := core.NewTransaction(u.ID, core.Expense, mustAmount(t, "12.50"),
			time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), c.ID, 0, "lunch")
		if err != nil {
			t.Fatalf("new transaction: %v", err)
		}
		if _, err := s.InsertTransaction(context.Background(), tx); err != nil {
			t.Fatalf("insert transaction: %v", err)
		}

		action, err := s.DeleteOrArchiveCategory(context.Background(), c.ID, u.ID)
		if err != nil {
			t.Fatalf("delete: %v", err)
		}
		if action != CategoryArchivedAction {
			t.Fatalf("expected archived, got %s", action)
		}
		got, err := s.GetCategory(context.Background(), c.ID, u.ID)
		if err != nil {
			t.Fatalf("get archived: %v", err)
		}
		if !got.IsArchived {
			t.Fatal("category should be archived")
		}
	})
}

func TestBucketBalanceAggregation(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "balance@example.com")
	b := newTestBucket(t, s, u.ID, "Emergency Fund", core.SavingsGoal)

	balance, err := s.BucketBalance(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.IsZero() {
		t.Fatalf("fresh bucket balance = %s, want 0.00", balance)
	}

	investInto(t, s, u.ID, b.ID, "300.00")
	investInto(t, s, u.ID, b.ID, "150.50")

	w, err := core.NewTransaction(u.ID, core.Withdrawal, mustAmount(t, "100.25"),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), 0, b.ID, "")
	if err != nil {
		t.Fatalf("new withdrawal: %v", err)
	}
	if _, err := s.InsertWithdrawal(context.Background(), w); err != nil {
		t.Fatalf("insert withdrawal: %v", err)
	}

	balance, err = s.BucketBalance(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if want := mustAmount(t, "350.25"); !balance.Equal(want) {
		t.Fatalf("balance = %s, want %s", balance, want)
	}
}

func TestInsertWithdrawalInsufficientBalance(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "overdraft@example.com")
	b := newTestBucket(t, s, u.ID, "Trip", core.SavingsGoal)
	investInto(t, s, u.ID, b.ID, "100.00")

	w, err := core.NewTransaction(u.ID, core.Withdrawal, mustAmount(t, "100.01"),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), 0, b.ID, "")
	if err != nil {
		t.Fatalf("new withdrawal: %v", err)
	}
	_, err = s.InsertWithdrawal(context.Background(), w)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}

	// Exactly the full balance must still be withdrawable.
	w.Amount = mustAmount(t, "100.00")
	if _, err := s.InsertWithdrawal(context.Background(), w); err != nil {
		t.Fatalf("full withdrawal: %v", err)
	}
}

func TestConcurrentWithdrawalsAtMostOneSucceeds(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "race@example.com")
	b := newTestBucket(t, s, u.ID, "Contested", core.SavingsGoal)
	investInto(t, s, u.ID, b.ID, "100.00")

	w, err := core.NewTransaction(u.ID, core.Withdrawal, mustAmount(t, "100.00"),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), 0, b.ID, "")
	if err != nil {
		t.Fatalf("new withdrawal: %v", err)
	}

	var (
		wg   sync.WaitGroup
		errs = make([]error, 2)
	)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.InsertWithdrawal(context.Background(), w)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrInsufficientBalance):
		default:
			t.Fatalf("unexpected withdrawal error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("%d withdrawals succeeded, want exactly 1", succeeded)
	}

	balance, err := s.BucketBalance(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.IsZero() {
		t.Fatalf("balance after contested withdrawals = %s, want 0.00", balance)
	}
}

func TestUpdateWithdrawalHeadroom(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "headroom@example.com")
	b := newTestBucket(t, s, u.ID, "Fund", core.SavingsGoal)
	investInto(t, s, u.ID, b.ID, "100.00")

	w, err := core.NewTransaction(u.ID, core.Withdrawal, mustAmount(t, "60.00"),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), 0, b.ID, "")
	if err != nil {
		t.Fatalf("new withdrawal: %v", err)
	}
	saved, err := s.InsertWithdrawal(context.Background(), w)
	if err != nil {
		t.Fatalf("insert withdrawal: %v", err)
	}

	// Balance is 40. Growing to 100 exhausts exactly the bucket
	// because the old 60 comes back first.
	saved.Amount = mustAmount(t, "100.00")
	if _, err := s.UpdateWithdrawal(context.Background(), saved); err != nil {
		t.Fatalf("grow to exact headroom: %v", err)
	}

	saved.Amount = mustAmount(t, "100.01")
	_, err = s.UpdateWithdrawal(context.Background(), saved)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}

	saved.Amount = mustAmount(t, "10.00")
	if _, err := s.UpdateWithdrawal(context.Background(), saved); err != nil {
		t.Fatalf("shrink withdrawal: %v", err)
	}
	balance, err := s.BucketBalance(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if want := mustAmount(t, "90.00"); !balance.Equal(want) {
		t.Fatalf("balance = %s, want %s", balance, want)
	}
}

func TestDeleteInvestmentGuard(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "delguard@example.com")
	b := newTestBucket(t, s, u.ID, "Fund", core.SavingsGoal)
	first := investInto(t, s, u.ID, b.ID, "100.00")
	investInto(t, s, u.ID, b.ID, "50.00")

	w, err := core.NewTransaction(u.ID, core.Withdrawal, mustAmount(t, "120.00"),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), 0, b.ID, "")
	if err != nil {
		t.Fatalf("new withdrawal: %v", err)
	}
	if _, err := s.InsertWithdrawal(context.Background(), w); err != nil {
		t.Fatalf("insert withdrawal: %v", err)
	}

	// Balance is 30; removing the 100 investment would drive it to -70.
	err = s.DeleteInvestment(context.Background(), first.ID, u.ID)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
}

func TestMarkBucketSpent(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "spent@example.com")

	t.Run("remaining balance becomes goal completion", func(t *testing.T) {
		b := newTestBucket(t, s, u.ID, "Laptop", core.SavingsGoal)
		investInto(t, s, u.ID, b.ID, "500.00")

		spent, txID, err := s.MarkBucketSpent(context.Background(), b.ID, u.ID, "2026-04-01")
		if err != nil {
			t.Fatalf("mark spent: %v", err)
		}
		if want := mustAmount(t, "500.00"); !spent.Equal(want) {
			t.Fatalf("spent = %s, want %s", spent, want)
		}
		if txID == 0 {
			t.Fatal("expected a goal completion transaction id")
		}

		got, err := s.GetBucket(context.Background(), b.ID, u.ID)
		if err != nil {
			t.Fatalf("get bucket: %v", err)
		}
		if got.Status != core.BucketArchived {
			t.Fatalf("bucket status = %s, want ARCHIVED", got.Status)
		}

		balance, err := s.BucketBalance(context.Background(), b.ID)
		if err != nil {
			t.Fatalf("balance: %v", err)
		}
		if !balance.IsZero() {
			t.Fatalf("balance after completion = %s, want 0.00", balance)
		}

		rows, _, err := s.ListTransactions(context.Background(), u.ID,
			TransactionFilter{Type: core.GoalCompleted, BucketID: b.ID})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(rows) != 1 {
			t.Fatalf("expected one goal completion transaction, got %d", len(rows))
		}
	})

	t.Run("empty bucket archives without a transaction", func(t *testing.T) {
		b := newTestBucket(t, s, u.ID, "Empty", core.SavingsGoal)

		spent, txID, err := s.MarkBucketSpent(context.Background(), b.ID, u.ID, "2026-04-01")
		if err != nil {
			t.Fatalf("mark spent: %v", err)
		}
		if !spent.IsZero() {
			t.Fatalf("spent = %s, want 0.00", spent)
		}
		if txID != 0 {
			t.Fatalf("expected no goal completion transaction, got id %d", txID)
		}
		rows, _, err := s.ListTransactions(context.Background(), u.ID,
			TransactionFilter{Type: core.GoalCompleted, BucketID: b.ID})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(rows) != 0 {
			t.Fatalf("expected no goal completion transactions, got %d", len(rows))
		}
	})

	t.Run("already archived bucket is not found", func(t *testing.T) {
		b := newTestBucket(t, s, u.ID, "Twice", core.SavingsGoal)
		if _, _, err := s.MarkBucketSpent(context.Background(), b.ID, u.ID, "2026-04-01"); err != nil {
			t.Fatalf("first mark spent: %v", err)
		}
		_, _, err := s.MarkBucketSpent(context.Background(), b.ID, u.ID, "2026-04-02")
		if !apperr.IsKind(err, apperr.KindNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})
}

func TestListTransactionsFiltersAndPaging(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "list@example.com")

	cc, err := core.NewCategory(u.ID, "Groceries", core.CategoryExpense, "", "")
	if err != nil {
		t.Fatalf("new category: %v", err)
	}
	c, err := s.CreateCategory(context.Background(), cc)
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	b := newTestBucket(t, s, u.ID, "Fund", core.SavingsGoal)

	for day := 1; day <= 5; day++ {
		tx, err := core.NewTransaction(u.ID, core.Expense, mustAmount(t, "10.00"),
			time.Date(2026, 5, day, 0, 0, 0, 0, time.UTC), c.ID, 0, "")
		if err != nil {
			t.Fatalf("new expense: %v", err)
		}
		if _, err := s.InsertTransaction(context.Background(), tx); err != nil {
			t.Fatalf("insert expense: %v", err)
		}
	}
	investInto(t, s, u.ID, b.ID, "200.00")

	t.Run("type filter", func(t *testing.T) {
		rows, total, err := s.ListTransactions(context.Background(), u.ID,
			TransactionFilter{Type: core.Investment})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if total != 1 || len(rows) != 1 {
			t.Fatalf("total=%d len=%d, want 1/1", total, len(rows))
		}
		if rows[0].BucketName != "Fund" {
			t.Fatalf("bucket name = %q, want Fund", rows[0].BucketName)
		}
	})

	t.Run("date range filter", func(t *testing.T) {
		rows, total, err := s.ListTransactions(context.Background(), u.ID, TransactionFilter{
			From: time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if total != 3 || len(rows) != 3 {
			t.Fatalf("total=%d len=%d, want 3/3", total, len(rows))
		}
	})

	t.Run("paging reports full total", func(t *testing.T) {
		rows, total, err := s.ListTransactions(context.Background(), u.ID,
			TransactionFilter{Limit: 2, Offset: 0})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if total != 6 {
			t.Fatalf("total = %d, want 6", total)
		}
		if len(rows) != 2 {
			t.Fatalf("page len = %d, want 2", len(rows))
		}
		if rows[0].CategoryName != "Groceries" {
			t.Fatalf("category name = %q, want Groceries", rows[0].CategoryName)
		}
	})
}

func TestUserUsableAmount(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "usable@example.com")

	cc, err := core.NewCategory(u.ID, "Salary", core.CategoryIncome, "", "")
	if err != nil {
		t.Fatalf("new category: %v", err)
	}
	inc, err := s.CreateCategory(context.Background(), cc)
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	ec, err := core.NewCategory(u.ID, "Rent", core.CategoryExpense, "", "")
	if err != nil {
		t.Fatalf("new category: %v", err)
	}
	exp, err := s.CreateCategory(context.Background(), ec)
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	b := newTestBucket(t, s, u.ID, "Fund", core.SavingsGoal)

	add := func(typ core.TransactionType, amount string, categoryID, bucketID int64) {
		t.Helper()
		tx, err := core.NewTransaction(u.ID, typ, mustAmount(t, amount),
			time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), categoryID, bucketID, "")
		if err != nil {
			t.Fatalf("new transaction: %v", err)
		}
		if typ == core.Withdrawal {
			_, err = s.InsertWithdrawal(context.Background(), tx)
		} else {
			_, err = s.InsertTransaction(context.Background(), tx)
		}
		if err != nil {
			t.Fatalf("insert %s: %v", typ, err)
		}
	}

	add(core.Income, "1000.00", inc.ID, 0)
	add(core.Expense, "250.00", exp.ID, 0)
	add(core.Investment, "300.00", 0, b.ID)
	add(core.Withdrawal, "50.00", 0, b.ID)

	usable, err := s.UserUsableAmount(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("usable amount: %v", err)
	}
	if want := mustAmount(t, "500.00"); !usable.Equal(want) {
		t.Fatalf("usable = %s, want %s", usable, want)
	}
}

func TestExportStatusTransitions(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "export@example.com")
	b := newTestBucket(t, s, u.ID, "Fund", core.SavingsGoal)
	tx := investInto(t, s, u.ID, b.ID, "75.00")

	pending, err := s.PendingExportTransactions(context.Background(), 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != tx.ID {
		t.Fatalf("pending = %+v, want the inserted row", pending)
	}

	if err := s.MarkExported(context.Background(), tx.ID); err != nil {
		t.Fatalf("mark exported: %v", err)
	}
	pending, err = s.PendingExportTransactions(context.Background(), 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending rows after export, got %d", len(pending))
	}
}
