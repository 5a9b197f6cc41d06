package core

// SumBucketBalance folds a bucket's transactions into its derived
// balance: +amount for INVESTMENT, -amount for WITHDRAWAL and
// GOAL_COMPLETED, 0 otherwise. This is the reference definition the
// store aggregate must agree with.
func SumBucketBalance(txs []Transaction) Money {
	var sum Money
	for _, t := range txs {
		sum = sum.Add(t.BucketBalanceEffect())
	}
	return sum
}

// SumUsableAmount folds transactions into the user's derived free
// cash: +INCOME +WITHDRAWAL -EXPENSE -INVESTMENT; GOAL_COMPLETED
// contributes nothing (the money left the system).
func SumUsableAmount(txs []Transaction) Money {
	var sum Money
	for _, t := range txs {
		sum = sum.Add(t.UsableAmountEffect())
	}
	return sum
}

// WithdrawalHeadroom computes the funds available when changing a
// withdrawal's amount from oldAmount to newAmount. The current
// balance already reflects the old withdrawal, so the old amount is
// added back before the new one is taken out:
//
//	headroom = balance + oldAmount - newAmount
//
// The edit is acceptable iff the headroom is not negative. For a
// brand-new withdrawal pass a zero oldAmount.
func WithdrawalHeadroom(balance, oldAmount, newAmount Money) Money {
	return balance.Add(oldAmount).Sub(newAmount)
}
