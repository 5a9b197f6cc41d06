package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"moneypal/internal/apperr"
	"moneypal/internal/core"
)

const timeLayout = "2006-01-02 15:04:05"

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// CreateUser inserts a user; duplicate emails come back as a
// Duplicate error.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash, currencySymbol string) (core.User, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, currency_symbol) VALUES (?, ?, ?)`,
		email, passwordHash, currencySymbol)
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, apperr.Duplicate("an account with this email already exists")
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("user insert id: %w", err)
	}
	return s.GetUserByID(ctx, id)
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (core.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, currency_symbol, created_at, updated_at
		 FROM users WHERE id = ?`, id))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, currency_symbol, created_at, updated_at
		 FROM users WHERE email = ?`, email))
}

// UpdateUserCurrency changes the display currency symbol in settings.
func (s *Store) UpdateUserCurrency(ctx context.Context, userID int64, symbol string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET currency_symbol = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		symbol, userID)
	if err != nil {
		return fmt.Errorf("update user currency: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound()
	}
	return nil
}

func (s *Store) scanUser(row *sql.Row) (core.User, error) {
	var (
		u                    core.User
		createdAt, updatedAt string
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CurrencySymbol, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, apperr.NotFound()
	}
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt = parseTimestamp(createdAt)
	u.UpdatedAt = parseTimestamp(updatedAt)
	return u, nil
}
