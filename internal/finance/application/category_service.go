package application

import (
	"strings"

	"github.com/google/uuid"
	"github.com/sebuszqo/ExpenseFlow/internal/finance/domain"
	financeErrors "github.com/sebuszqo/ExpenseFlow/internal/finance/errors"
)

type CategoryService struct {
	repo domain.CategoryRepository
}

func NewCategoryService(repo domain.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) GetUserCategories(userID string) ([]domain.Category, error) {
	categories, err := s.repo.FindByUser(userID)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		return []domain.Category{}, nil
	}
	return categories, nil
}

func (s *CategoryService) DoesCategoryExist(categoryID, userID string) (bool, error) {
	category, err := s.repo.FindByID(categoryID, userID)
	if err != nil {
		return false, err
	}
	return category != nil, nil
}

func (s *CategoryService) CreateCategory(category *domain.Category) error {
	category.ID = uuid.NewString()
	category.IsDefault = false
	if err := category.Validate(); err != nil {
		return err
	}

	existing, err := s.repo.FindByNameInsensitive(category.Name, category.UserID)
	if err != nil {
		return err
	}
	if existing != nil {
		return financeErrors.ErrDuplicateCategoryName
	}

	return s.repo.Save(category)
}

func (s *CategoryService) UpdateCategory(category *domain.Category) error {
	current, err := s.repo.FindByID(category.ID, category.UserID)
	if err != nil {
		return err
	}
	if current == nil {
		return financeErrors.ErrInvalidCategory
	}
	if current.Name == domain.OtherCategoryName && !strings.EqualFold(category.Name, domain.OtherCategoryName) {
		return financeErrors.NewConflictError("The Other category cannot be renamed")
	}

	category.IsDefault = current.IsDefault
	if err := category.Validate(); err != nil {
		return err
	}

	existing, err := s.repo.FindByNameInsensitive(category.Name, category.UserID)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != category.ID {
		return financeErrors.ErrDuplicateCategoryName
	}

	return s.repo.Update(category)
}

// DeleteCategory refuses while any expense still references the category.
// The check is a pre-check, not a database constraint.
func (s *CategoryService) DeleteCategory(categoryID, userID string) error {
	category, err := s.repo.FindByID(categoryID, userID)
	if err != nil {
		return err
	}
	if category == nil {
		return financeErrors.ErrInvalidCategory
	}
	if category.Name == domain.OtherCategoryName {
		return financeErrors.NewConflictError("The Other category cannot be deleted")
	}

	count, err := s.repo.CountExpenses(categoryID, userID)
	if err != nil {
		return err
	}
	if count > 0 {
		return financeErrors.ErrCategoryInUse
	}

	return s.repo.Delete(categoryID, userID)
}

// EnsureDefaults re-seeds any missing default category for the user. It is
// idempotent and runs once per session, at login.
func (s *CategoryService) EnsureDefaults(userID string) (int, error) {
	existing, err := s.repo.FindByUser(userID)
	if err != nil {
		return 0, err
	}

	present := make(map[string]bool, len(existing))
	for _, category := range existing {
		present[strings.ToLower(category.Name)] = true
	}

	seeded := 0
	for _, def := range domain.DefaultCategories() {
		if present[strings.ToLower(def.Name)] {
			continue
		}
		category := &domain.Category{
			ID:        uuid.NewString(),
			UserID:    userID,
			Name:      def.Name,
			Color:     def.Color,
			IsDefault: true,
		}
		if err := s.repo.Save(category); err != nil {
			return seeded, err
		}
		seeded++
	}
	return seeded, nil
}
