package application

import (
	"testing"

	"github.com/sebuszqo/ExpenseFlow/internal/finance/domain"
	financeErrors "github.com/sebuszqo/ExpenseFlow/internal/finance/errors"
	"github.com/sebuszqo/ExpenseFlow/internal/finance/infrastructure"
	"github.com/stretchr/testify/assert"
)

func TestEnsureDefaults_SeedsMissingAndIsIdempotent(t *testing.T) {
	repo := &infrastructure.MockCategoryRepository{}
	service := NewCategoryService(repo)

	seeded, err := service.EnsureDefaults(testUserID)
	assert.NoError(t, err)
	assert.Equal(t, len(domain.DefaultCategories()), seeded)

	seeded, err = service.EnsureDefaults(testUserID)
	assert.NoError(t, err)
	assert.Equal(t, 0, seeded, "second run must not duplicate anything")

	categories, err := service.GetUserCategories(testUserID)
	assert.NoError(t, err)
	assert.Len(t, categories, len(domain.DefaultCategories()))
}

func TestEnsureDefaults_ReseedsOnlyTheMissingOnes(t *testing.T) {
	repo := &infrastructure.MockCategoryRepository{}
	service := NewCategoryService(repo)

	_, err := service.EnsureDefaults(testUserID)
	assert.NoError(t, err)

	// Simulate a default row going missing.
	categories, _ := repo.FindByUser(testUserID)
	assert.NoError(t, repo.Delete(categories[0].ID, testUserID))

	seeded, err := service.EnsureDefaults(testUserID)
	assert.NoError(t, err)
	assert.Equal(t, 1, seeded)
}

func TestCreateCategory_NameUniqueCaseInsensitive(t *testing.T) {
	repo := &infrastructure.MockCategoryRepository{}
	service := NewCategoryService(repo)

	assert.NoError(t, service.CreateCategory(&domain.Category{UserID: testUserID, Name: "Groceries", Color: "#aabbcc"}))

	err := service.CreateCategory(&domain.Category{UserID: testUserID, Name: "groceries", Color: "#ddeeff"})
	assert.Error(t, err)
	assert.True(t, financeErrors.IsConflictError(err))
}

func TestCreateCategory_RejectsBadColor(t *testing.T) {
	repo := &infrastructure.MockCategoryRepository{}
	service := NewCategoryService(repo)

	err := service.CreateCategory(&domain.Category{UserID: testUserID, Name: "Groceries", Color: "red"})
	assert.Error(t, err)
	assert.True(t, financeErrors.IsValidationError(err))
}

func TestDeleteCategory_RefusedWhileInUse(t *testing.T) {
	repo := &infrastructure.MockCategoryRepository{
		Categories:    []domain.Category{{ID: "cat-1", UserID: testUserID, Name: "Groceries", Color: "#aabbcc"}},
		ExpenseCounts: map[string]int{"cat-1": 3},
	}
	service := NewCategoryService(repo)

	err := service.DeleteCategory("cat-1", testUserID)
	assert.Error(t, err)
	assert.True(t, financeErrors.IsConflictError(err))

	repo.ExpenseCounts["cat-1"] = 0
	assert.NoError(t, service.DeleteCategory("cat-1", testUserID))
}

func TestDeleteCategory_OtherIsProtected(t *testing.T) {
	repo := &infrastructure.MockCategoryRepository{}
	service := NewCategoryService(repo)
	_, err := service.EnsureDefaults(testUserID)
	assert.NoError(t, err)

	other, err := repo.FindByNameInsensitive(domain.OtherCategoryName, testUserID)
	assert.NoError(t, err)

	err = service.DeleteCategory(other.ID, testUserID)
	assert.Error(t, err)
	assert.True(t, financeErrors.IsConflictError(err))
}

func TestUpdateCategory_RenameCollisionRefused(t *testing.T) {
	repo := &infrastructure.MockCategoryRepository{Categories: []domain.Category{
		{ID: "cat-1", UserID: testUserID, Name: "Groceries", Color: "#aabbcc"},
		{ID: "cat-2", UserID: testUserID, Name: "Travel", Color: "#ddeeff"},
	}}
	service := NewCategoryService(repo)

	err := service.UpdateCategory(&domain.Category{ID: "cat-2", UserID: testUserID, Name: "GROCERIES", Color: "#ddeeff"})
	assert.Error(t, err)
	assert.True(t, financeErrors.IsConflictError(err))

	// Renaming a category onto itself with different casing is fine.
	assert.NoError(t, service.UpdateCategory(&domain.Category{ID: "cat-1", UserID: testUserID, Name: "groceries", Color: "#aabbcc"}))
}
