package services

import (
	"context"
	"log/slog"
	"time"

	"moneypal/internal/amqp"
	"moneypal/internal/apperr"
	"moneypal/internal/core"
	"moneypal/internal/storage"
)

// BucketService manages savings goals and perpetual assets. Balances
// are always derived, so reads attach them on the way out.
type BucketService struct {
	store  *storage.Store
	events *amqp.Client
}

func NewBucketService(store *storage.Store, events *amqp.Client) *BucketService {
	return &BucketService{store: store, events: events}
}

// BucketWithBalance pairs a bucket with its derived balance for
// responses.
type BucketWithBalance struct {
	core.Bucket
	Balance core.Money
}

// MarkSpentResult reports what the terminal action did.
type MarkSpentResult struct {
	Bucket      core.Bucket
	AmountSpent core.Money
}

func (s *BucketService) Create(ctx context.Context, userID int64, name string, typ core.BucketType, target *core.Money) (BucketWithBalance, error) {
	b, err := core.NewBucket(userID, name, typ, target)
	if err != nil {
		return BucketWithBalance{}, err
	}
	saved, err := s.store.CreateBucket(ctx, b)
	if err != nil {
		return BucketWithBalance{}, err
	}
	return BucketWithBalance{Bucket: saved}, nil
}

// Update renames a bucket or adjusts a savings goal's target. Type
// and status stay as they are.
func (s *BucketService) Update(ctx context.Context, userID, id int64, name string, target *core.Money) (BucketWithBalance, error) {
	existing, err := s.store.GetBucket(ctx, id, userID)
	if err != nil {
		return BucketWithBalance{}, err
	}
	updated, err := core.NewBucket(userID, name, existing.Type, target)
	if err != nil {
		return BucketWithBalance{}, err
	}
	updated.ID = existing.ID
	saved, err := s.store.UpdateBucket(ctx, updated)
	if err != nil {
		return BucketWithBalance{}, err
	}
	return s.withBalance(ctx, saved)
}

// Archive retires a bucket. Its transaction history stays, its
// balance keeps counting toward the dashboard, but no new
// transactions may reference it.
func (s *BucketService) Archive(ctx context.Context, userID, id int64) error {
	if _, err := s.store.GetBucket(ctx, id, userID); err != nil {
		return err
	}
	return s.store.ArchiveBucket(ctx, id, userID)
}

// MarkAsSpent completes a savings goal: the remaining balance is
// zeroed by a system GOAL_COMPLETED transaction and the bucket is
// archived, all in one database transaction.
func (s *BucketService) MarkAsSpent(ctx context.Context, userID, id int64) (MarkSpentResult, error) {
	existing, err := s.store.GetBucket(ctx, id, userID)
	if err != nil {
		return MarkSpentResult{}, err
	}
	if !existing.Type.SupportsMarkAsSpent() {
		return MarkSpentResult{}, apperr.BusinessRulef("%s buckets cannot be marked as spent", existing.Type)
	}
	if !existing.Active() {
		return MarkSpentResult{}, apperr.BusinessRule("bucket is already archived")
	}

	today := time.Now().UTC().Format("2006-01-02")
	spent, txID, err := s.store.MarkBucketSpent(ctx, id, userID, today)
	if err != nil {
		return MarkSpentResult{}, err
	}

	bucket, err := s.store.GetBucket(ctx, id, userID)
	if err != nil {
		return MarkSpentResult{}, err
	}
	if s.events != nil && txID != 0 {
		if err := s.events.PublishTransactionEvent(ctx, amqp.ActionCreated, txID, userID); err != nil {
			slog.ErrorContext(ctx, "failed to publish goal completion event",
				"bucket_id", id, "transaction_id", txID, "error", err)
		}
	}
	return MarkSpentResult{Bucket: bucket, AmountSpent: spent}, nil
}

func (s *BucketService) Get(ctx context.Context, userID, id int64) (BucketWithBalance, error) {
	b, err := s.store.GetBucket(ctx, id, userID)
	if err != nil {
		return BucketWithBalance{}, err
	}
	return s.withBalance(ctx, b)
}

func (s *BucketService) List(ctx context.Context, userID int64, includeArchived bool) ([]BucketWithBalance, error) {
	buckets, err := s.store.ListBuckets(ctx, userID, includeArchived)
	if err != nil {
		return nil, err
	}
	out := make([]BucketWithBalance, 0, len(buckets))
	for _, b := range buckets {
		bb, err := s.withBalance(ctx, b)
		if err != nil {
			return nil, err
		}
		out = append(out, bb)
	}
	return out, nil
}

func (s *BucketService) withBalance(ctx context.Context, b core.Bucket) (BucketWithBalance, error) {
	balance, err := s.store.BucketBalance(ctx, b.ID)
	if err != nil {
		return BucketWithBalance{}, err
	}
	return BucketWithBalance{Bucket: b, Balance: balance}, nil
}
