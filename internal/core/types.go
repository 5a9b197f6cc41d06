package core

import "fmt"

const (
	Income        TransactionType = "INCOME"
	Expense       TransactionType = "EXPENSE"
	Investment    TransactionType = "INVESTMENT"
	Withdrawal    TransactionType = "WITHDRAWAL"
	GoalCompleted TransactionType = "GOAL_COMPLETED"

	CategoryIncome  CategoryType = "INCOME"
	CategoryExpense CategoryType = "EXPENSE"

	SavingsGoal    BucketType = "SAVINGS_GOAL"
	PerpetualAsset BucketType = "PERPETUAL_ASSET"

	BucketActive   BucketStatus = "ACTIVE"
	BucketArchived BucketStatus = "ARCHIVED"
)

type (
	TransactionType string
	CategoryType    string
	BucketType      string
	BucketStatus    string
)

// typeEffect is one row of the authoritative type-effect table.
// usable and bucket are the signed multipliers applied to the
// (always positive) transaction amount.
type typeEffect struct {
	usable          int
	bucket          int
	requiresCategory bool
	requiresBucket  bool
	userCreatable   bool
}

// typeEffects is the single source of truth for how each transaction
// type behaves. Adding a type means adding exactly one row here.
var typeEffects = map[TransactionType]typeEffect{
	Income:        {usable: +1, bucket: 0, requiresCategory: true, userCreatable: true},
	Expense:       {usable: -1, bucket: 0, requiresCategory: true, userCreatable: true},
	Investment:    {usable: -1, bucket: +1, requiresBucket: true, userCreatable: true},
	Withdrawal:    {usable: +1, bucket: -1, requiresBucket: true, userCreatable: true},
	GoalCompleted: {usable: 0, bucket: -1, requiresBucket: true, userCreatable: false},
}

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	_, ok := typeEffects[t]
	return ok
}

// RequiresCategory reports whether transactions of this type must
// reference a category. INCOME and EXPENSE are categorized.
func (t TransactionType) RequiresCategory() bool {
	return typeEffects[t].requiresCategory
}

// RequiresBucket reports whether transactions of this type must
// reference a bucket. INVESTMENT, WITHDRAWAL and GOAL_COMPLETED are
// bucket transactions.
func (t TransactionType) RequiresBucket() bool {
	return typeEffects[t].requiresBucket
}

// SystemGenerated reports whether the type is created by the system
// only; users can never create, edit or delete such transactions.
func (t TransactionType) SystemGenerated() bool {
	e, ok := typeEffects[t]
	return ok && !e.userCreatable
}

// UsableAmountEffect returns the signed multiplier this type applies
// to the user's usable amount: +1, -1 or 0.
func (t TransactionType) UsableAmountEffect() int {
	return typeEffects[t].usable
}

// BucketBalanceEffect returns the signed multiplier this type applies
// to the referenced bucket's balance: +1, -1 or 0.
func (t TransactionType) BucketBalanceEffect() int {
	return typeEffects[t].bucket
}

// ParseTransactionType parses a wire value, rejecting unknown types.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
	return t, nil
}

// MatchesTransaction reports whether a category of this type may be
// referenced by a transaction of the given type. INCOME categories
// pair only with INCOME transactions, EXPENSE only with EXPENSE.
func (c CategoryType) MatchesTransaction(t TransactionType) bool {
	switch c {
	case CategoryIncome:
		return t == Income
	case CategoryExpense:
		return t == Expense
	}
	return false
}

func ParseCategoryType(s string) (CategoryType, error) {
	switch CategoryType(s) {
	case CategoryIncome, CategoryExpense:
		return CategoryType(s), nil
	}
	return "", fmt.Errorf("unknown category type %q", s)
}

// CanHaveTarget reports whether the bucket type supports a target
// amount. Only savings goals have targets.
func (b BucketType) CanHaveTarget() bool {
	return b == SavingsGoal
}

// SupportsMarkAsSpent reports whether the bucket type supports the
// terminal "mark as spent" action.
func (b BucketType) SupportsMarkAsSpent() bool {
	return b == SavingsGoal
}

func ParseBucketType(s string) (BucketType, error) {
	switch BucketType(s) {
	case SavingsGoal, PerpetualAsset:
		return BucketType(s), nil
	}
	return "", fmt.Errorf("unknown bucket type %q", s)
}

// AllowsTransactions reports whether a bucket in this status accepts
// new investments or withdrawals.
func (s BucketStatus) AllowsTransactions() bool {
	return s == BucketActive
}
