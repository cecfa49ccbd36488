package interfaces

import (
	"github.com/sebuszqo/ExpenseFlow/internal/finance/application"
	"github.com/sebuszqo/ExpenseFlow/internal/finance/domain"
	financeErrors "github.com/sebuszqo/ExpenseFlow/internal/finance/errors"
	"github.com/shopspring/decimal"
)

type MockCategoryService struct {
	Categories []domain.Category
	CreateErr  error
	DeleteErr  error
}

func (m *MockCategoryService) GetUserCategories(userID string) ([]domain.Category, error) {
	return m.Categories, nil
}

func (m *MockCategoryService) CreateCategory(category *domain.Category) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	category.ID = "new-category-id"
	m.Categories = append(m.Categories, *category)
	return nil
}

func (m *MockCategoryService) UpdateCategory(category *domain.Category) error {
	return nil
}

func (m *MockCategoryService) DeleteCategory(categoryID, userID string) error {
	return m.DeleteErr
}

type MockSavingsService struct {
	Goals        []domain.SavingGoal
	Result       *application.DistributionResult
	DistErr      error
	Recovered    decimal.Decimal
	Refunded     decimal.Decimal
	LastMode     string
	LastGoalIDs  []string
	LastRequests []application.GoalRequest
}

func (m *MockSavingsService) CreateGoal(goal *domain.SavingGoal) error {
	goal.ID = "new-goal-id"
	m.Goals = append(m.Goals, *goal)
	return nil
}

func (m *MockSavingsService) GetUserGoals(userID string) ([]domain.SavingGoal, error) {
	return m.Goals, nil
}

func (m *MockSavingsService) UpdateGoal(goalID, userID, purpose string, amount decimal.Decimal) (*domain.SavingGoal, error) {
	for _, goal := range m.Goals {
		if goal.ID == goalID {
			goal.Purpose = purpose
			goal.Amount = amount
			return &goal, nil
		}
	}
	return nil, financeErrors.NewValidationError("Saving goal not found")
}

func (m *MockSavingsService) DeleteGoal(goalID, userID string) (decimal.Decimal, error) {
	return m.Refunded, nil
}

func (m *MockSavingsService) ReverseContributions(goalID, userID string) (decimal.Decimal, error) {
	return m.Refunded, nil
}

func (m *MockSavingsService) SetAchieved(goalID, userID string, achieved bool) (*domain.SavingGoal, decimal.Decimal, error) {
	for _, goal := range m.Goals {
		if goal.ID == goalID {
			goal.Achieved = achieved
			return &goal, m.Refunded, nil
		}
	}
	return nil, decimal.Zero, financeErrors.NewValidationError("Saving goal not found")
}

func (m *MockSavingsService) DistributeAuto(userID string, month, year int, available decimal.Decimal, goalIDs []string) (*application.DistributionResult, error) {
	m.LastMode = "auto"
	m.LastGoalIDs = goalIDs
	return m.Result, m.DistErr
}

func (m *MockSavingsService) DistributeCustom(userID string, month, year int, available decimal.Decimal, requests []application.GoalRequest) (*application.DistributionResult, error) {
	m.LastMode = "custom"
	m.LastRequests = requests
	return m.Result, m.DistErr
}

func (m *MockSavingsService) TakeRecoveredSavings(userID string) decimal.Decimal {
	recovered := m.Recovered
	m.Recovered = decimal.Zero
	return recovered
}

func (m *MockSavingsService) DistributedForPeriod(userID string, month, year int) (decimal.Decimal, error) {
	return decimal.Zero, nil
}
