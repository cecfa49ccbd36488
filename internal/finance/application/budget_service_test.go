package application

import (
	"testing"
	"time"

	"github.com/sebuszqo/ExpenseFlow/internal/finance/domain"
	financeErrors "github.com/sebuszqo/ExpenseFlow/internal/finance/errors"
	"github.com/sebuszqo/ExpenseFlow/internal/finance/infrastructure"
	"github.com/stretchr/testify/assert"
)

type stubCategoryChecker struct {
	existing map[string]bool
}

func (s *stubCategoryChecker) DoesCategoryExist(categoryID, userID string) (bool, error) {
	return s.existing[categoryID], nil
}

func newBudgetFixture() (*BudgetService, *infrastructure.MockBudgetRepository) {
	repo := &infrastructure.MockBudgetRepository{}
	checker := &stubCategoryChecker{existing: map[string]bool{"cat-food": true, "cat-rent": true}}
	return NewBudgetService(repo, checker), repo
}

func TestGetBudgetForMonth_DirectRecordWins(t *testing.T) {
	service, _ := newBudgetFixture()

	assert.NoError(t, service.SetBudgetGoal(testUserID, 2, 2024, dec(750)))

	amount, source, err := service.GetBudgetForMonth(testUserID, 2, 2024)
	assert.NoError(t, err)
	assert.Equal(t, BudgetSourceDirect, source)
	assert.True(t, amount.Equal(dec(750)))
}

func TestGetBudgetForMonth_FallsBackToMostRecentHistory(t *testing.T) {
	service, repo := newBudgetFixture()

	// June 2023 budget of 600, later replaced by 500 starting January 2024.
	repo.History = []domain.BudgetGoalHistoryEntry{
		{ID: "h1", UserID: testUserID, Amount: dec(600), Month: 5, Year: 2023, StartDate: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "h2", UserID: testUserID, Amount: dec(500), Month: 0, Year: 2024, StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	// March 2024 has no direct record: the January 2024 entry carries forward.
	amount, source, err := service.GetBudgetForMonth(testUserID, 2, 2024)
	assert.NoError(t, err)
	assert.Equal(t, BudgetSourceHistory, source)
	assert.True(t, amount.Equal(dec(500)), "expected the most recent entry at or before March 2024, got %s", amount)
}

func TestGetBudgetForMonth_HistoryAfterTargetIsIgnored(t *testing.T) {
	service, repo := newBudgetFixture()

	repo.History = []domain.BudgetGoalHistoryEntry{
		{ID: "h1", UserID: testUserID, Amount: dec(800), Month: 8, Year: 2024, StartDate: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)},
	}

	amount, source, err := service.GetBudgetForMonth(testUserID, 2, 2024)
	assert.NoError(t, err)
	assert.Equal(t, BudgetSourceNone, source)
	assert.Nil(t, amount)
}

func TestGetBudgetForMonth_IdempotentWithoutWrites(t *testing.T) {
	service, _ := newBudgetFixture()

	assert.NoError(t, service.SetBudgetGoal(testUserID, 6, 2024, dec(420.69)))

	first, firstSource, err := service.GetBudgetForMonth(testUserID, 7, 2024)
	assert.NoError(t, err)
	second, secondSource, err := service.GetBudgetForMonth(testUserID, 7, 2024)
	assert.NoError(t, err)

	assert.Equal(t, firstSource, secondSource)
	assert.True(t, first.Equal(*second))
}

func TestSetBudgetGoal_UpsertsAndAppendsHistory(t *testing.T) {
	service, repo := newBudgetFixture()

	assert.NoError(t, service.SetBudgetGoal(testUserID, 3, 2024, dec(500)))
	assert.NoError(t, service.SetBudgetGoal(testUserID, 3, 2024, dec(650)))

	assert.Len(t, repo.Goals, 1, "budget goal rows are upserted per period")
	assert.True(t, repo.Goals[0].Amount.Equal(dec(650)))
	assert.Len(t, repo.History, 2, "history is append-only")
}

func TestSetBudgetGoal_RejectsInvalidPeriod(t *testing.T) {
	service, _ := newBudgetFixture()

	err := service.SetBudgetGoal(testUserID, 12, 2024, dec(100))
	assert.Error(t, err)
	assert.True(t, financeErrors.IsValidationError(err))
}

func TestSetCategoryBudget_RefusesOverAllocation(t *testing.T) {
	service, _ := newBudgetFixture()

	assert.NoError(t, service.SetBudgetGoal(testUserID, 3, 2024, dec(500)))
	assert.NoError(t, service.SetCategoryBudget(&domain.CategoryBudget{
		UserID: testUserID, CategoryID: "cat-food", Amount: dec(300), Month: 3, Year: 2024,
	}))

	err := service.SetCategoryBudget(&domain.CategoryBudget{
		UserID: testUserID, CategoryID: "cat-rent", Amount: dec(250), Month: 3, Year: 2024,
	})
	assert.Error(t, err)
	assert.True(t, financeErrors.IsConflictError(err))

	// Raising an existing allocation counts against its own old value.
	err = service.SetCategoryBudget(&domain.CategoryBudget{
		UserID: testUserID, CategoryID: "cat-food", Amount: dec(500), Month: 3, Year: 2024,
	})
	assert.NoError(t, err)
}

func TestSetCategoryBudget_RequiresBudgetGoal(t *testing.T) {
	service, _ := newBudgetFixture()

	err := service.SetCategoryBudget(&domain.CategoryBudget{
		UserID: testUserID, CategoryID: "cat-food", Amount: dec(100), Month: 3, Year: 2024,
	})
	assert.Error(t, err)
	assert.True(t, financeErrors.IsConflictError(err))
}

func TestSetCategoryBudget_ChecksAgainstCarriedForwardBudget(t *testing.T) {
	service, _ := newBudgetFixture()

	// Budget set in January carries into March for the allocation check.
	assert.NoError(t, service.SetBudgetGoal(testUserID, 0, 2024, dec(400)))

	err := service.SetCategoryBudget(&domain.CategoryBudget{
		UserID: testUserID, CategoryID: "cat-food", Amount: dec(450), Month: 2, Year: 2024,
	})
	assert.Error(t, err)
	assert.True(t, financeErrors.IsConflictError(err))

	assert.NoError(t, service.SetCategoryBudget(&domain.CategoryBudget{
		UserID: testUserID, CategoryID: "cat-food", Amount: dec(400), Month: 2, Year: 2024,
	}))
}

func TestSetCategoryBudget_UnknownCategoryRejected(t *testing.T) {
	service, _ := newBudgetFixture()

	assert.NoError(t, service.SetBudgetGoal(testUserID, 3, 2024, dec(500)))
	err := service.SetCategoryBudget(&domain.CategoryBudget{
		UserID: testUserID, CategoryID: "cat-unknown", Amount: dec(50), Month: 3, Year: 2024,
	})
	assert.Error(t, err)
	assert.True(t, financeErrors.IsValidationError(err))
}
