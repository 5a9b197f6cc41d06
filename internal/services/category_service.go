package services

import (
	"context"

	"moneypal/internal/apperr"
	"moneypal/internal/core"
	"moneypal/internal/storage"
)

// CategoryService manages the user's category set on top of the
// seeded system categories.
type CategoryService struct {
	store *storage.Store
}

func NewCategoryService(store *storage.Store) *CategoryService {
	return &CategoryService{store: store}
}

func (s *CategoryService) Create(ctx context.Context, userID int64, name string, typ core.CategoryType, color, icon string) (core.Category, error) {
	cat, err := core.NewCategory(userID, name, typ, color, icon)
	if err != nil {
		return core.Category{}, err
	}
	return s.store.CreateCategory(ctx, cat)
}

// Update renames or re-styles a category. The type and system flag
// are immutable; system categories are rejected outright.
func (s *CategoryService) Update(ctx context.Context, userID, id int64, name, color, icon string) (core.Category, error) {
	existing, err := s.store.GetCategory(ctx, id, userID)
	if err != nil {
		return core.Category{}, err
	}
	if existing.Protected() {
		return core.Category{}, apperr.BusinessRule("system categories cannot be modified")
	}

	updated, err := core.NewCategory(userID, name, existing.Type, color, icon)
	if err != nil {
		return core.Category{}, err
	}
	updated.ID = existing.ID
	return s.store.UpdateCategory(ctx, updated)
}

// Delete resolves to an archive when transaction history references
// the category, a hard delete otherwise. The caller learns which.
func (s *CategoryService) Delete(ctx context.Context, userID, id int64) (storage.CategoryDeleteAction, error) {
	existing, err := s.store.GetCategory(ctx, id, userID)
	if err != nil {
		return "", err
	}
	if existing.Protected() {
		return "", apperr.BusinessRule("system categories cannot be deleted")
	}
	return s.store.DeleteOrArchiveCategory(ctx, id, userID)
}

func (s *CategoryService) Get(ctx context.Context, userID, id int64) (core.Category, error) {
	return s.store.GetCategory(ctx, id, userID)
}

func (s *CategoryService) List(ctx context.Context, userID int64, includeArchived bool) ([]core.Category, error) {
	return s.store.ListCategories(ctx, userID, includeArchived)
}
