package core

import "testing"

func TestTypeEffectTable(t *testing.T) {
	cases := []struct {
		typ           TransactionType
		usable        int
		bucket        int
		wantsCategory bool
		wantsBucket   bool
		system        bool
	}{
		{Income, +1, 0, true, false, false},
		{Expense, -1, 0, true, false, false},
		{Investment, -1, +1, false, true, false},
		{Withdrawal, +1, -1, false, true, false},
		{GoalCompleted, 0, -1, false, true, true},
	}
	for _, tc := range cases {
		t.Run(string(tc.typ), func(t *testing.T) {
			if got := tc.typ.UsableAmountEffect(); got != tc.usable {
				t.Errorf("usable effect = %d, want %d", got, tc.usable)
			}
			if got := tc.typ.BucketBalanceEffect(); got != tc.bucket {
				t.Errorf("bucket effect = %d, want %d", got, tc.bucket)
			}
			if got := tc.typ.RequiresCategory(); got != tc.wantsCategory {
				t.Errorf("RequiresCategory = %v, want %v", got, tc.wantsCategory)
			}
			if got := tc.typ.RequiresBucket(); got != tc.wantsBucket {
				t.Errorf("RequiresBucket = %v, want %v", got, tc.wantsBucket)
			}
			if got := tc.typ.SystemGenerated(); got != tc.system {
				t.Errorf("SystemGenerated = %v, want %v", got, tc.system)
			}
			if !tc.typ.Valid() {
				t.Errorf("expected %s to be valid", tc.typ)
			}
		})
	}
}

func TestParseTransactionTypeRejectsUnknown(t *testing.T) {
	for _, s := range []string{"", "income", "TRANSFER", "GOAL-COMPLETED"} {
		if _, err := ParseTransactionType(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
	if tt, err := ParseTransactionType("WITHDRAWAL"); err != nil || tt != Withdrawal {
		t.Fatalf("ParseTransactionType(WITHDRAWAL) = %v, %v", tt, err)
	}
}

func TestCategoryTypeMatching(t *testing.T) {
	if !CategoryIncome.MatchesTransaction(Income) {
		t.Error("INCOME category should match INCOME transaction")
	}
	if CategoryIncome.MatchesTransaction(Expense) {
		t.Error("INCOME category should not match EXPENSE transaction")
	}
	if !CategoryExpense.MatchesTransaction(Expense) {
		t.Error("EXPENSE category should match EXPENSE transaction")
	}
	if CategoryExpense.MatchesTransaction(Investment) {
		t.Error("categories never match bucket transaction types")
	}
}

func TestBucketTypeRules(t *testing.T) {
	if !SavingsGoal.CanHaveTarget() || !SavingsGoal.SupportsMarkAsSpent() {
		t.Error("SAVINGS_GOAL supports targets and mark-as-spent")
	}
	if PerpetualAsset.CanHaveTarget() || PerpetualAsset.SupportsMarkAsSpent() {
		t.Error("PERPETUAL_ASSET supports neither targets nor mark-as-spent")
	}
	if !BucketActive.AllowsTransactions() {
		t.Error("ACTIVE buckets accept transactions")
	}
	if BucketArchived.AllowsTransactions() {
		t.Error("ARCHIVED buckets do not accept transactions")
	}
}
