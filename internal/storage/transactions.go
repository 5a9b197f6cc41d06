package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"moneypal/internal/apperr"
	"moneypal/internal/core"
)

// dateLayout is how transaction calendar dates are stored. TEXT in
// this form sorts and compares correctly without any date functions.
const dateLayout = "2006-01-02"

// usableAmountExpr mirrors the signed effect of each transaction type
// on a user's freely spendable money.
const usableAmountExpr = `COALESCE(SUM(CASE
	WHEN type IN ('INCOME', 'WITHDRAWAL') THEN amount_cents
	WHEN type IN ('EXPENSE', 'INVESTMENT') THEN -amount_cents
	ELSE 0 END), 0)`

// ErrInsufficientBalance is returned when a withdrawal write is
// rejected because the guarded statement saw a balance below the
// requested amount at commit time.
var ErrInsufficientBalance = apperr.BusinessRule("insufficient bucket balance")

// TransactionFilter narrows ListTransactions. Zero values mean "no
// constraint"; Limit <= 0 falls back to a server-side default.
type TransactionFilter struct {
	Type       core.TransactionType
	CategoryID int64
	BucketID   int64
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}

// TransactionRow is a transaction joined with the display name of its
// category or bucket, for list and detail responses.
type TransactionRow struct {
	core.Transaction
	CategoryName string
	BucketName   string
}

// InsertTransaction records any non-withdrawal movement. Withdrawals
// must go through InsertWithdrawal so the balance guard applies.
func (s *Store) InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (user_id, type, amount_cents, tx_date, category_id, bucket_id, note)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, string(t.Type), t.Amount.Cents(), t.Date.Format(dateLayout),
		nullID(t.CategoryID), nullID(t.BucketID), t.Note)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction insert id: %w", err)
	}
	return s.GetTransaction(ctx, id, t.UserID)
}

// InsertWithdrawal inserts a WITHDRAWAL only if the bucket's derived
// balance, recomputed inside the same statement, covers the amount.
// Zero rows affected means another writer drained the bucket first.
func (s *Store) InsertWithdrawal(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (user_id, type, amount_cents, tx_date, bucket_id, note)
		 SELECT ?, 'WITHDRAWAL', ?, ?, ?, ?
		 WHERE (SELECT `+bucketBalanceExpr+` FROM transactions WHERE bucket_id = ?) >= ?`,
		t.UserID, t.Amount.Cents(), t.Date.Format(dateLayout), t.BucketID, t.Note,
		t.BucketID, t.Amount.Cents())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert withdrawal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("withdrawal rows affected: %w", err)
	}
	if n == 0 {
		return core.Transaction{}, ErrInsufficientBalance
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("withdrawal insert id: %w", err)
	}
	return s.GetTransaction(ctx, id, t.UserID)
}

// UpdateTransaction rewrites the mutable fields of a non-withdrawal
// transaction. Type is never updated; callers keep the stored type.
func (s *Store) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions
		 SET amount_cents = ?, tx_date = ?, category_id = ?, bucket_id = ?, note = ?,
		     sync_status = 'PENDING', updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ?`,
		t.Amount.Cents(), t.Date.Format(dateLayout),
		nullID(t.CategoryID), nullID(t.BucketID), t.Note, t.ID, t.UserID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Transaction{}, apperr.NotFound()
	}
	return s.GetTransaction(ctx, t.ID, t.UserID)
}

// UpdateWithdrawal changes a WITHDRAWAL's amount under the same guard
// as InsertWithdrawal. The headroom check adds the row's current
// amount back before testing the new one, so shrinking a withdrawal
// always succeeds and growing it only succeeds when the bucket covers
// the difference.
func (s *Store) UpdateWithdrawal(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions
		 SET amount_cents = ?, tx_date = ?, note = ?,
		     sync_status = 'PENDING', updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ? AND type = 'WITHDRAWAL'
		   AND (SELECT `+bucketBalanceExpr+` FROM transactions WHERE bucket_id = ?)
		       + amount_cents - ? >= 0`,
		t.Amount.Cents(), t.Date.Format(dateLayout), t.Note,
		t.ID, t.UserID, t.BucketID, t.Amount.Cents())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update withdrawal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("withdrawal rows affected: %w", err)
	}
	if n == 0 {
		// Distinguish a missing row from a failed guard.
		if _, getErr := s.GetTransaction(ctx, t.ID, t.UserID); getErr != nil {
			return core.Transaction{}, getErr
		}
		return core.Transaction{}, ErrInsufficientBalance
	}
	return s.GetTransaction(ctx, t.ID, t.UserID)
}

// UpdateInvestment changes an INVESTMENT's amount only while the
// bucket stays non-negative after the old amount is swapped for the
// new one. Shrinking an invested amount below what withdrawals have
// already taken out is refused.
func (s *Store) UpdateInvestment(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions
		 SET amount_cents = ?, tx_date = ?, note = ?,
		     sync_status = 'PENDING', updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ? AND type = 'INVESTMENT'
		   AND (SELECT `+bucketBalanceExpr+` FROM transactions WHERE bucket_id = ?)
		       - amount_cents + ? >= 0`,
		t.Amount.Cents(), t.Date.Format(dateLayout), t.Note,
		t.ID, t.UserID, t.BucketID, t.Amount.Cents())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update investment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("investment rows affected: %w", err)
	}
	if n == 0 {
		if _, getErr := s.GetTransaction(ctx, t.ID, t.UserID); getErr != nil {
			return core.Transaction{}, getErr
		}
		return core.Transaction{}, ErrInsufficientBalance
	}
	return s.GetTransaction(ctx, t.ID, t.UserID)
}

func (s *Store) GetTransaction(ctx context.Context, id, userID int64) (core.Transaction, error) {
	row, err := s.getTransactionRow(ctx, id, userID)
	if err != nil {
		return core.Transaction{}, err
	}
	return row.Transaction, nil
}

// GetTransactionRow fetches a transaction with its category or bucket
// name joined in.
func (s *Store) GetTransactionRow(ctx context.Context, id, userID int64) (TransactionRow, error) {
	return s.getTransactionRow(ctx, id, userID)
}

func (s *Store) getTransactionRow(ctx context.Context, id, userID int64) (TransactionRow, error) {
	return scanTransactionRow(s.db.QueryRowContext(ctx,
		`SELECT t.id, t.user_id, t.type, t.amount_cents, t.tx_date,
		        t.category_id, t.bucket_id, t.note, t.created_at, t.updated_at,
		        COALESCE(c.name, ''), COALESCE(b.name, '')
		 FROM transactions t
		 LEFT JOIN categories c ON c.id = t.category_id
		 LEFT JOIN buckets b ON b.id = t.bucket_id
		 WHERE t.id = ? AND t.user_id = ?`, id, userID))
}

// DeleteTransaction removes a row outright. Callers are responsible
// for refusing system-generated and withdrawal-dependent deletions
// before reaching here; deleting an INVESTMENT while withdrawals
// exist would let the derived balance go negative.
func (s *Store) DeleteTransaction(ctx context.Context, id, userID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound()
	}
	return nil
}

// DeleteInvestment deletes an INVESTMENT only while the bucket can
// absorb the removal, using the same aggregate guard as withdrawals.
func (s *Store) DeleteInvestment(ctx context.Context, id, userID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM transactions
		 WHERE id = ? AND user_id = ? AND type = 'INVESTMENT'
		   AND (SELECT `+bucketBalanceExpr+` FROM transactions x WHERE x.bucket_id = transactions.bucket_id)
		       - amount_cents >= 0`,
		id, userID)
	if err != nil {
		return fmt.Errorf("delete investment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete investment rows affected: %w", err)
	}
	if n == 0 {
		if _, getErr := s.GetTransaction(ctx, id, userID); getErr != nil {
			return getErr
		}
		return ErrInsufficientBalance
	}
	return nil
}

// ListTransactions returns a page of transactions newest first, plus
// the total matching count for pagination.
func (s *Store) ListTransactions(ctx context.Context, userID int64, f TransactionFilter) ([]TransactionRow, int, error) {
	var (
		where = []string{"t.user_id = ?"}
		args  = []any{userID}
	)
	if f.Type != "" {
		where = append(where, "t.type = ?")
		args = append(args, string(f.Type))
	}
	if f.CategoryID != 0 {
		where = append(where, "t.category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.BucketID != 0 {
		where = append(where, "t.bucket_id = ?")
		args = append(args, f.BucketID)
	}
	if !f.From.IsZero() {
		where = append(where, "t.tx_date >= ?")
		args = append(args, f.From.Format(dateLayout))
	}
	if !f.To.IsZero() {
		where = append(where, "t.tx_date <= ?")
		args = append(args, f.To.Format(dateLayout))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions t WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, f.Offset)

	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, t.user_id, t.type, t.amount_cents, t.tx_date,
		        t.category_id, t.bucket_id, t.note, t.created_at, t.updated_at,
		        COALESCE(c.name, ''), COALESCE(b.name, '')
		 FROM transactions t
		 LEFT JOIN categories c ON c.id = t.category_id
		 LEFT JOIN buckets b ON b.id = t.bucket_id
		 WHERE `+cond+`
		 ORDER BY t.tx_date DESC, t.id DESC
		 LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []TransactionRow
	for rows.Next() {
		r, err := scanTransactionRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// UserUsableAmount is the user's freely spendable money derived from
// the full transaction history.
func (s *Store) UserUsableAmount(ctx context.Context, userID int64) (core.Money, error) {
	var cents int64
	err := s.db.QueryRowContext(ctx,
		`SELECT `+usableAmountExpr+` FROM transactions WHERE user_id = ?`,
		userID).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("usable amount: %w", err)
	}
	return core.FromCents(cents), nil
}

// CountTransactionsForCategory reports how many transactions reference
// a category, deciding archive versus hard delete.
func (s *Store) CountTransactionsForCategory(ctx context.Context, categoryID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE category_id = ?`, categoryID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count category transactions: %w", err)
	}
	return n, nil
}

// PendingExportTransactions returns rows awaiting spreadsheet export,
// oldest first so the sheet stays chronological.
func (s *Store) PendingExportTransactions(ctx context.Context, limit int) ([]TransactionRow, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, t.user_id, t.type, t.amount_cents, t.tx_date,
		        t.category_id, t.bucket_id, t.note, t.created_at, t.updated_at,
		        COALESCE(c.name, ''), COALESCE(b.name, '')
		 FROM transactions t
		 LEFT JOIN categories c ON c.id = t.category_id
		 LEFT JOIN buckets b ON b.id = t.bucket_id
		 WHERE t.sync_status = 'PENDING'
		 ORDER BY t.id
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("pending export transactions: %w", err)
	}
	defer rows.Close()

	var out []TransactionRow
	for rows.Next() {
		r, err := scanTransactionRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) MarkExported(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = 'SYNCED', updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	return nil
}

func (s *Store) MarkExportError(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = 'ERROR', updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark export error: %w", err)
	}
	return nil
}

func nullID(id int64) sql.NullInt64 {
	if id == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: id, Valid: true}
}

func scanTransactionRow(row rowScanner) (TransactionRow, error) {
	var (
		r                    TransactionRow
		typ, txDate          string
		cents                int64
		categoryID, bucketID sql.NullInt64
		createdAt, updatedAt string
	)
	err := row.Scan(&r.ID, &r.UserID, &typ, &cents, &txDate,
		&categoryID, &bucketID, &r.Note, &createdAt, &updatedAt,
		&r.CategoryName, &r.BucketName)
	if errors.Is(err, sql.ErrNoRows) {
		return TransactionRow{}, apperr.NotFound()
	}
	if err != nil {
		return TransactionRow{}, fmt.Errorf("scan transaction: %w", err)
	}
	r.Type = core.TransactionType(typ)
	r.Amount = core.FromCents(cents)
	if d, err := time.Parse(dateLayout, txDate); err == nil {
		r.Date = d
	}
	r.CategoryID = categoryID.Int64
	r.BucketID = bucketID.Int64
	r.CreatedAt = parseTimestamp(createdAt)
	r.UpdatedAt = parseTimestamp(updatedAt)
	return r, nil
}
