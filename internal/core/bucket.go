package core

import (
	"strings"
	"time"

	"moneypal/internal/apperr"
)

// Bucket is a user-scoped container of saved money. Its balance is
// never stored; it is derived from the bucket's transactions on every
// read (see SumBucketBalance and the store aggregate).
type Bucket struct {
	ID           int64
	UserID       int64
	Name         string
	Type         BucketType
	TargetAmount *Money // only for SAVINGS_GOAL, nil otherwise
	Status       BucketStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewBucket validates and constructs a bucket. A target amount is
// only legal on savings goals and must be positive.
func NewBucket(userID int64, name string, typ BucketType, target *Money) (Bucket, error) {
	name = strings.TrimSpace(name)
	if userID <= 0 {
		return Bucket{}, apperr.BadRequest("userId is required")
	}
	if name == "" {
		return Bucket{}, apperr.BadRequest("bucket name is required")
	}
	if _, err := ParseBucketType(string(typ)); err != nil {
		return Bucket{}, apperr.BadRequestf("unknown bucket type %q", string(typ))
	}
	if target != nil {
		if !typ.CanHaveTarget() {
			return Bucket{}, apperr.BadRequestf("targetAmount can only be set for %s buckets", SavingsGoal)
		}
		if !target.IsPositive() {
			return Bucket{}, apperr.BadRequest("targetAmount must be positive")
		}
	}
	return Bucket{
		UserID:       userID,
		Name:         name,
		Type:         typ,
		TargetAmount: target,
		Status:       BucketActive,
	}, nil
}

// Active reports whether the bucket accepts new transactions.
func (b Bucket) Active() bool {
	return b.Status.AllowsTransactions()
}

// CanMarkAsSpent reports whether the terminal "mark as spent" action
// applies: only active savings goals.
func (b Bucket) CanMarkAsSpent() bool {
	return b.Type.SupportsMarkAsSpent() && b.Status.AllowsTransactions()
}
