package core

import (
	"strings"
	"time"

	"moneypal/internal/apperr"
)

// Category groups income or expense transactions. Names are unique
// per (user, type). System categories are seeded at registration and
// can never be renamed or deleted. Archiving is one-way.
type Category struct {
	ID         int64
	UserID     int64
	Name       string
	Type       CategoryType
	Color      string
	Icon       string
	IsSystem   bool
	IsArchived bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewCategory validates and constructs a user-created category. The
// name is trimmed; type immutability is enforced by the orchestrators.
func NewCategory(userID int64, name string, typ CategoryType, color, icon string) (Category, error) {
	name = strings.TrimSpace(name)
	if userID <= 0 {
		return Category{}, apperr.BadRequest("userId is required")
	}
	if name == "" {
		return Category{}, apperr.BadRequest("category name is required")
	}
	if _, err := ParseCategoryType(string(typ)); err != nil {
		return Category{}, apperr.BadRequestf("unknown category type %q", string(typ))
	}
	return Category{
		UserID: userID,
		Name:   name,
		Type:   typ,
		Color:  color,
		Icon:   icon,
	}, nil
}

// Protected categories are system-owned and cannot be updated or
// deleted.
func (c Category) Protected() bool {
	return c.IsSystem
}

// Active reports whether the category may be referenced by new
// transactions.
func (c Category) Active() bool {
	return !c.IsArchived
}

// CanBeUsedWith reports whether this category may be referenced by a
// transaction of the given type.
func (c Category) CanBeUsedWith(t TransactionType) bool {
	return c.Type.MatchesTransaction(t)
}
