package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"moneypal/internal/apperr"
	"moneypal/internal/core"
)

// bucketBalanceExpr is the authoritative aggregate for a bucket's
// derived balance. INVESTMENT adds, WITHDRAWAL and GOAL_COMPLETED
// subtract. It is reused verbatim by the conditional withdrawal
// statements so the validation and the write can never disagree.
const bucketBalanceExpr = `COALESCE(SUM(CASE
	WHEN type = 'INVESTMENT' THEN amount_cents
	WHEN type IN ('WITHDRAWAL', 'GOAL_COMPLETED') THEN -amount_cents
	ELSE 0 END), 0)`

func (s *Store) CreateBucket(ctx context.Context, b core.Bucket) (core.Bucket, error) {
	var target sql.NullInt64
	if b.TargetAmount != nil {
		target = sql.NullInt64{Int64: b.TargetAmount.Cents(), Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO buckets (user_id, name, type, target_cents, status) VALUES (?, ?, ?, ?, ?)`,
		b.UserID, b.Name, string(b.Type), target, string(b.Status))
	if err != nil {
		return core.Bucket{}, fmt.Errorf("insert bucket: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Bucket{}, fmt.Errorf("bucket insert id: %w", err)
	}
	return s.GetBucket(ctx, id, b.UserID)
}

func (s *Store) GetBucket(ctx context.Context, id, userID int64) (core.Bucket, error) {
	return scanBucket(s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, type, target_cents, status, created_at, updated_at
		 FROM buckets WHERE id = ? AND user_id = ?`, id, userID))
}

func (s *Store) UpdateBucket(ctx context.Context, b core.Bucket) (core.Bucket, error) {
	var target sql.NullInt64
	if b.TargetAmount != nil {
		target = sql.NullInt64{Int64: b.TargetAmount.Cents(), Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE buckets SET name = ?, target_cents = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ?`,
		b.Name, target, b.ID, b.UserID)
	if err != nil {
		return core.Bucket{}, fmt.Errorf("update bucket: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Bucket{}, apperr.NotFound()
	}
	return s.GetBucket(ctx, b.ID, b.UserID)
}

// ArchiveBucket is monotonic; there is no un-archive.
func (s *Store) ArchiveBucket(ctx context.Context, id, userID int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE buckets SET status = 'ARCHIVED', updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("archive bucket: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound()
	}
	return nil
}

func (s *Store) ListBuckets(ctx context.Context, userID int64, includeArchived bool) ([]core.Bucket, error) {
	q := `SELECT id, user_id, name, type, target_cents, status, created_at, updated_at
	      FROM buckets WHERE user_id = ?`
	if !includeArchived {
		q += ` AND status = 'ACTIVE'`
	}
	q += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}
	defer rows.Close()

	var out []core.Bucket
	for rows.Next() {
		b, err := scanBucket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// BucketBalance recomputes the derived balance from the full
// transaction history. There is no cached counter to drift.
func (s *Store) BucketBalance(ctx context.Context, bucketID int64) (core.Money, error) {
	var cents int64
	err := s.db.QueryRowContext(ctx,
		`SELECT `+bucketBalanceExpr+` FROM transactions WHERE bucket_id = ?`,
		bucketID).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("bucket balance: %w", err)
	}
	return core.FromCents(cents), nil
}

// MarkBucketSpent performs the terminal action on a savings goal in
// one transaction: record the system GOAL_COMPLETED movement for the
// remaining balance (if any), then archive the bucket. The insert is
// guarded by the recomputed aggregate so a concurrent withdrawal
// cannot leave the goal over-completed.
func (s *Store) MarkBucketSpent(ctx context.Context, id, userID int64, txDate string) (core.Money, int64, error) {
	var (
		spent core.Money
		txID  int64
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var cents int64
		err := tx.QueryRowContext(ctx,
			`SELECT `+bucketBalanceExpr+` FROM transactions WHERE bucket_id = ?`, id).Scan(&cents)
		if err != nil {
			return fmt.Errorf("bucket balance: %w", err)
		}
		if cents > 0 {
			res, err := tx.ExecContext(ctx,
				`INSERT INTO transactions (user_id, type, amount_cents, tx_date, bucket_id, note)
				 SELECT ?, 'GOAL_COMPLETED', ?, ?, ?, ''
				 WHERE (SELECT `+bucketBalanceExpr+` FROM transactions WHERE bucket_id = ?) = ?`,
				userID, cents, txDate, id, id, cents)
			if err != nil {
				return fmt.Errorf("insert goal completion: %w", err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return apperr.BusinessRule("bucket balance changed concurrently, retry")
			}
			txID, err = res.LastInsertId()
			if err != nil {
				return fmt.Errorf("goal completion insert id: %w", err)
			}
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE buckets SET status = 'ARCHIVED', updated_at = CURRENT_TIMESTAMP
			 WHERE id = ? AND user_id = ? AND status = 'ACTIVE'`, id, userID)
		if err != nil {
			return fmt.Errorf("archive spent bucket: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.NotFound()
		}
		spent = core.FromCents(cents)
		return nil
	})
	return spent, txID, err
}

func scanBucket(row rowScanner) (core.Bucket, error) {
	var (
		b                    core.Bucket
		typ, status          string
		target               sql.NullInt64
		createdAt, updatedAt string
	)
	err := row.Scan(&b.ID, &b.UserID, &b.Name, &typ, &target, &status, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Bucket{}, apperr.NotFound()
	}
	if err != nil {
		return core.Bucket{}, fmt.Errorf("scan bucket: %w", err)
	}
	b.Type = core.BucketType(typ)
	b.Status = core.BucketStatus(status)
	if target.Valid {
		m := core.FromCents(target.Int64)
		b.TargetAmount = &m
	}
	b.CreatedAt = parseTimestamp(createdAt)
	b.UpdatedAt = parseTimestamp(updatedAt)
	return b, nil
}
