// Package services orchestrates ledger operations across the SQLite
// store and the AMQP event pipeline. Services validate with the
// domain rules in core, write through the guarded store statements,
// and publish events on a best-effort basis: a broker outage never
// fails a request that the database already accepted.
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

// TransactionService enforces the transaction rules: type decides the
// referenced collaborator, amounts stay positive, withdrawals never
// overdraw, system rows are read-only.
type TransactionService struct {
	store  *storage.Store
	events *amqp.Client
}

func NewTransactionService(store *storage.Store, events *amqp.Client) *TransactionService {
	return &TransactionService{store: store, events: events}
}

// CreateTransactionInput is the validated-on-entry shape for creates.
type CreateTransactionInput struct {
	Type       core.TransactionType
	Amount     core.Money
	Date       time.Time
	CategoryID int64
	BucketID   int64
	Note       string
}

// UpdateTransactionInput carries the mutable fields. Type is absent:
// a transaction's type is fixed at creation.
type UpdateTransactionInput struct {
	Amount     core.Money
	Date       time.Time
	CategoryID int64
	BucketID   int64
	Note       string
}

func (s *TransactionService) Create(ctx context.Context, userID int64, in CreateTransactionInput) (storage.TransactionRow, error) {
	if in.Type.SystemGenerated() {
		return storage.TransactionRow{}, apperr.BadRequestf("%s transactions cannot be created directly", in.Type)
	}
	tx, err := core.NewTransaction(userID, in.Type, in.Amount, in.Date, in.CategoryID, in.BucketID, in.Note)
	if err != nil {
		return storage.TransactionRow{}, err
	}
	if err := validateDate(tx.Date); err != nil {
		return storage.TransactionRow{}, err
	}
	if err := s.validateReferences(ctx, tx); err != nil {
		return storage.TransactionRow{}, err
	}
	if tx.Type == core.Withdrawal {
		if err := s.checkWithdrawalHeadroom(ctx, tx.BucketID, core.Money{}, tx.Amount); err != nil {
			return storage.TransactionRow{}, err
		}
	}

	var saved core.Transaction
	if tx.Type == core.Withdrawal {
		saved, err = s.store.InsertWithdrawal(ctx, tx)
	} else {
		saved, err = s.store.InsertTransaction(ctx, tx)
	}
	if err != nil {
		return storage.TransactionRow{}, err
	}

	s.publish(ctx, amqp.ActionCreated, saved.ID, userID)
	return s.store.GetTransactionRow(ctx, saved.ID, userID)
}

func (s *TransactionService) Update(ctx context.Context, userID, id int64, in UpdateTransactionInput) (storage.TransactionRow, error) {
	existing, err := s.store.GetTransaction(ctx, id, userID)
	if err != nil {
		return storage.TransactionRow{}, err
	}
	if existing.SystemGenerated() {
		return storage.TransactionRow{}, apperr.BusinessRule("system-generated transactions cannot be modified")
	}

	// Bucket references are pinned: moving money between buckets is
	// a delete plus a create, not an edit.
	if existing.Type.RequiresBucket() && in.BucketID != 0 && in.BucketID != existing.BucketID {
		return storage.TransactionRow{}, apperr.BadRequest("a transaction's bucket cannot be changed")
	}
	categoryID := existing.CategoryID
	if existing.Type.RequiresCategory() && in.CategoryID != 0 {
		categoryID = in.CategoryID
	}

	tx, err := core.NewTransaction(userID, existing.Type, in.Amount, in.Date, categoryID, existing.BucketID, in.Note)
	if err != nil {
		return storage.TransactionRow{}, err
	}
	tx.ID = existing.ID
	if err := validateDate(tx.Date); err != nil {
		return storage.TransactionRow{}, err
	}
	// Same reference checks as create: the collaborator may have been
	// archived since this transaction was written.
	if err := s.validateReferences(ctx, tx); err != nil {
		return storage.TransactionRow{}, err
	}
	if existing.Type == core.Withdrawal {
		if err := s.checkWithdrawalHeadroom(ctx, existing.BucketID, existing.Amount, tx.Amount); err != nil {
			return storage.TransactionRow{}, err
		}
	}

	var saved core.Transaction
	switch existing.Type {
	case core.Withdrawal:
		saved, err = s.store.UpdateWithdrawal(ctx, tx)
	case core.Investment:
		saved, err = s.store.UpdateInvestment(ctx, tx)
	default:
		saved, err = s.store.UpdateTransaction(ctx, tx)
	}
	if err != nil {
		return storage.TransactionRow{}, err
	}

	s.publish(ctx, amqp.ActionUpdated, saved.ID, userID)
	return s.store.GetTransactionRow(ctx, saved.ID, userID)
}

func (s *TransactionService) Delete(ctx context.Context, userID, id int64) error {
	existing, err := s.store.GetTransaction(ctx, id, userID)
	if err != nil {
		return err
	}
	if existing.SystemGenerated() {
		return apperr.BusinessRule("system-generated transactions cannot be deleted")
	}

	if existing.Type == core.Investment {
		err = s.store.DeleteInvestment(ctx, id, userID)
	} else {
		err = s.store.DeleteTransaction(ctx, id, userID)
	}
	if err != nil {
		return err
	}

	s.publish(ctx, amqp.ActionDeleted, id, userID)
	return nil
}

func (s *TransactionService) Get(ctx context.Context, userID, id int64) (storage.TransactionRow, error) {
	return s.store.GetTransactionRow(ctx, id, userID)
}

func (s *TransactionService) List(ctx context.Context, userID int64, f storage.TransactionFilter) ([]storage.TransactionRow, int, error) {
	return s.store.ListTransactions(ctx, userID, f)
}

// validateDate rejects future calendar days. Today is compared in
// UTC; the ledger does not track user timezones.
func validateDate(d time.Time) error {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if d.After(today) {
		return apperr.BadRequest("transactionDate cannot be in the future")
	}
	return nil
}

// validateReferences checks the categorized or bucketed collaborator:
// it must exist for this user, be active, and match the transaction
// type.
func (s *TransactionService) validateReferences(ctx context.Context, tx core.Transaction) error {
	if tx.Type.RequiresCategory() {
		cat, err := s.store.GetCategory(ctx, tx.CategoryID, tx.UserID)
		if err != nil {
			return err
		}
		if !cat.Active() {
			return apperr.BusinessRule("transactions cannot reference an archived category")
		}
		if !cat.CanBeUsedWith(tx.Type) {
			return apperr.BusinessRulef("%s category %q cannot be used with %s transactions", cat.Type, cat.Name, tx.Type)
		}
		return nil
	}

	bucket, err := s.store.GetBucket(ctx, tx.BucketID, tx.UserID)
	if err != nil {
		return err
	}
	if !bucket.Active() {
		return apperr.BusinessRule("transactions cannot reference an archived bucket")
	}
	return nil
}

// checkWithdrawalHeadroom reads the current bucket balance and
// produces the friendly insufficient-balance message, with the
// available amount, before the write is attempted. The guarded store
// statement stays authoritative under concurrency; this check only
// improves the answer on the common path. For a new withdrawal pass a
// zero oldAmount.
func (s *TransactionService) checkWithdrawalHeadroom(ctx context.Context, bucketID int64, oldAmount, newAmount core.Money) error {
	balance, err := s.store.BucketBalance(ctx, bucketID)
	if err != nil {
		return err
	}
	if core.WithdrawalHeadroom(balance, oldAmount, newAmount).IsNegative() {
		return apperr.BusinessRulef("insufficient bucket balance: available %s", balance.Add(oldAmount))
	}
	return nil
}

func (s *TransactionService) publish(ctx context.Context, action string, transactionID, userID int64) {
	if s.events == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping event", "action", action)
		return
	}
	if err := s.events.PublishTransactionEvent(ctx, action, transactionID, userID); err != nil {
		slog.ErrorContext(ctx, "failed to publish transaction event",
			"action", action, "transaction_id", transactionID, "error", err)
	}
}
