package services

import (
	"context"

	"moneypal/internal/core"
	"moneypal/internal/storage"
)

// DashboardService assembles the summary view: the usable amount and
// every bucket with its derived balance. Both numbers are recomputed
// from transaction history on each call.
type DashboardService struct {
	store *storage.Store
}

func NewDashboardService(store *storage.Store) *DashboardService {
	return &DashboardService{store: store}
}

// Summary is the dashboard payload.
type Summary struct {
	UsableAmount   core.Money
	TotalInvested  core.Money
	CurrencySymbol string
	Buckets        []BucketWithBalance
}

func (s *DashboardService) Summary(ctx context.Context, userID int64) (Summary, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	usable, err := s.store.UserUsableAmount(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	// Archived buckets keep their residual balance counting toward
	// the invested total, but only active ones appear in the list.
	buckets, err := s.store.ListBuckets(ctx, userID, true)
	if err != nil {
		return Summary{}, err
	}

	out := Summary{
		UsableAmount:   usable,
		CurrencySymbol: user.CurrencySymbol,
		Buckets:        make([]BucketWithBalance, 0, len(buckets)),
	}
	for _, b := range buckets {
		balance, err := s.store.BucketBalance(ctx, b.ID)
		if err != nil {
			return Summary{}, err
		}
		out.TotalInvested = out.TotalInvested.Add(balance)
		if b.Active() {
			out.Buckets = append(out.Buckets, BucketWithBalance{Bucket: b, Balance: balance})
		}
	}
	return out, nil
}
