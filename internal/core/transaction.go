package core

import (
	"time"

	"moneypal/internal/apperr"
)

// MaxNoteLength caps free-text notes on a transaction.
const MaxNoteLength = 500

// Transaction is a single money movement. Amount is always positive;
// direction comes from Type, never from sign. Exactly one of
// CategoryID/BucketID is set (zero means unset), determined by Type.
type Transaction struct {
	ID         int64
	UserID     int64
	Type       TransactionType
	Amount     Money
	Date       time.Time // calendar day, time part ignored
	CategoryID int64
	BucketID   int64
	Note       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewTransaction validates and constructs a transaction record.
// Invariant violations come back as errors, not panics, so orchestrators
// can propagate them to the boundary unchanged.
func NewTransaction(userID int64, typ TransactionType, amount Money, date time.Time, categoryID, bucketID int64, note string) (Transaction, error) {
	if userID <= 0 {
		return Transaction{}, apperr.BadRequest("userId is required")
	}
	if !typ.Valid() {
		return Transaction{}, apperr.BadRequestf("unknown transaction type %q", string(typ))
	}
	if !amount.IsPositive() {
		return Transaction{}, apperr.BadRequest("amount must be positive")
	}
	if date.IsZero() {
		return Transaction{}, apperr.BadRequest("transactionDate is required")
	}
	if typ.RequiresCategory() {
		if categoryID == 0 {
			return Transaction{}, apperr.BadRequestf("%s transactions require a category_id", typ)
		}
		if bucketID != 0 {
			return Transaction{}, apperr.BadRequestf("%s transactions cannot have a bucket_id", typ)
		}
	}
	if typ.RequiresBucket() {
		if bucketID == 0 {
			return Transaction{}, apperr.BadRequestf("%s transactions require a bucket_id", typ)
		}
		if categoryID != 0 {
			return Transaction{}, apperr.BadRequestf("%s transactions cannot have a category_id", typ)
		}
	}
	if len(note) > MaxNoteLength {
		return Transaction{}, apperr.BadRequestf("note exceeds maximum length of %d", MaxNoteLength)
	}
	return Transaction{
		UserID:     userID,
		Type:       typ,
		Amount:     amount,
		Date:       date,
		CategoryID: categoryID,
		BucketID:   bucketID,
		Note:       note,
	}, nil
}

// UsableAmountEffect is the signed contribution of this transaction
// to the user's usable amount.
func (t Transaction) UsableAmountEffect() Money {
	return t.Amount.MulSign(t.Type.UsableAmountEffect())
}

// BucketBalanceEffect is the signed contribution of this transaction
// to its bucket's balance; zero for categorized transactions.
func (t Transaction) BucketBalanceEffect() Money {
	return t.Amount.MulSign(t.Type.BucketBalanceEffect())
}

// SystemGenerated transactions can never be edited or deleted by users.
func (t Transaction) SystemGenerated() bool {
	return t.Type.SystemGenerated()
}
