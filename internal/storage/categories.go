package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"moneypal/internal/apperr"
	"moneypal/internal/core"
)

// CategoryDeleteAction reports how a delete request was resolved:
// categories with transaction history are archived, empty ones are
// removed for good.
type CategoryDeleteAction string

const (
	CategoryArchivedAction CategoryDeleteAction = "archived"
	CategoryDeletedAction  CategoryDeleteAction = "deleted"
)

// seedCategories are created for every new user at registration.
// They are system-owned: not renamable, not deletable.
var seedCategories = []struct {
	name string
	typ  core.CategoryType
	icon string
}{
	{"Salary", core.CategoryIncome, "briefcase"},
	{"Other Income", core.CategoryIncome, "plus-circle"},
	{"Food", core.CategoryExpense, "utensils"},
	{"Transport", core.CategoryExpense, "bus"},
	{"Bills", core.CategoryExpense, "file-text"},
	{"Other", core.CategoryExpense, "more-horizontal"},
}

// SeedSystemCategories inserts the default category set for a new
// user inside one transaction.
func (s *Store) SeedSystemCategories(ctx context.Context, userID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, c := range seedCategories {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO categories (user_id, name, type, icon, is_system) VALUES (?, ?, ?, ?, 1)`,
				userID, c.name, string(c.typ), c.icon)
			if err != nil {
				return fmt.Errorf("seed category %q: %w", c.name, err)
			}
		}
		return nil
	})
}

func (s *Store) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (user_id, name, type, color, icon) VALUES (?, ?, ?, ?, ?)`,
		c.UserID, c.Name, string(c.Type), c.Color, c.Icon)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Category{}, apperr.Duplicate(
				fmt.Sprintf("category with name %q and type %s already exists", c.Name, c.Type))
		}
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category insert id: %w", err)
	}
	return s.GetCategory(ctx, id, c.UserID)
}

// GetCategory looks a category up scoped by owner. A missing row and
// a foreign row are the same NotFound.
func (s *Store) GetCategory(ctx context.Context, id, userID int64) (core.Category, error) {
	return scanCategory(s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, type, color, icon, is_system, is_archived, created_at, updated_at
		 FROM categories WHERE id = ? AND user_id = ?`, id, userID))
}

// CategoryNameExists checks the per-(user, type) uniqueness rule.
func (s *Store) CategoryNameExists(ctx context.Context, userID int64, name string, typ core.CategoryType) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM categories WHERE user_id = ? AND name = ? AND type = ?`,
		userID, name, string(typ)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count category names: %w", err)
	}
	return n > 0, nil
}

// UpdateCategory persists a rename/re-style. Type and the system flag
// never change here; the service enforces that by passing them through
// from the existing row.
func (s *Store) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, color = ?, icon = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ?`,
		c.Name, c.Color, c.Icon, c.ID, c.UserID)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Category{}, apperr.Duplicate(
				fmt.Sprintf("category with name %q and type %s already exists", c.Name, c.Type))
		}
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Category{}, apperr.NotFound()
	}
	return s.GetCategory(ctx, c.ID, c.UserID)
}

// ListCategories returns the user's categories ordered by type then
// name. Archived rows are included only on request (transaction
// history still references them).
func (s *Store) ListCategories(ctx context.Context, userID int64, includeArchived bool) ([]core.Category, error) {
	q := `SELECT id, user_id, name, type, color, icon, is_system, is_archived, created_at, updated_at
	      FROM categories WHERE user_id = ?`
	if !includeArchived {
		q += ` AND is_archived = 0`
	}
	q += ` ORDER BY type, name`

	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteOrArchiveCategory resolves a delete request atomically: the
// reference check and the resulting write happen inside one immediate
// transaction, so a transaction row inserted concurrently cannot
// leave a dangling reference.
func (s *Store) DeleteOrArchiveCategory(ctx context.Context, id, userID int64) (CategoryDeleteAction, error) {
	var action CategoryDeleteAction
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var refs int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM transactions WHERE category_id = ?`, id).Scan(&refs)
		if err != nil {
			return fmt.Errorf("count category references: %w", err)
		}
		if refs > 0 {
			res, err := tx.ExecContext(ctx,
				`UPDATE categories SET is_archived = 1, updated_at = CURRENT_TIMESTAMP
				 WHERE id = ? AND user_id = ?`, id, userID)
			if err != nil {
				return fmt.Errorf("archive category: %w", err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return apperr.NotFound()
			}
			action = CategoryArchivedAction
			return nil
		}
		res, err := tx.ExecContext(ctx,
			`DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
		if err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.NotFound()
		}
		action = CategoryDeletedAction
		return nil
	})
	return action, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (core.Category, error) {
	var (
		c                    core.Category
		typ                  string
		isSystem, isArchived int
		createdAt, updatedAt string
	)
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &typ, &c.Color, &c.Icon,
		&isSystem, &isArchived, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, apperr.NotFound()
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("scan category: %w", err)
	}
	c.Type = core.CategoryType(typ)
	c.IsSystem = isSystem == 1
	c.IsArchived = isArchived == 1
	c.CreatedAt = parseTimestamp(createdAt)
	c.UpdatedAt = parseTimestamp(updatedAt)
	return c, nil
}
