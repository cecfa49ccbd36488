package application

import (
	"time"

	"github.com/google/uuid"
	"github.com/sebuszqo/ExpenseFlow/internal/finance/domain"
	financeErrors "github.com/sebuszqo/ExpenseFlow/internal/finance/errors"
	"github.com/shopspring/decimal"
)

// Where a month's budget came from.
const (
	BudgetSourceDirect  = "direct"
	BudgetSourceHistory = "history"
	BudgetSourceNone    = "none"
)

type CategoryExistenceChecker interface {
	DoesCategoryExist(categoryID, userID string) (bool, error)
}

type BudgetService struct {
	repo            domain.BudgetRepository
	categoryService CategoryExistenceChecker
}

func NewBudgetService(repo domain.BudgetRepository, categoryService CategoryExistenceChecker) *BudgetService {
	return &BudgetService{repo: repo, categoryService: categoryService}
}

// SetBudgetGoal upserts the month's budget goal and appends the value to the
// append-only history log that backs the fallback lookup.
func (s *BudgetService) SetBudgetGoal(userID string, month, year int, amount decimal.Decimal) error {
	if err := domain.ValidatePeriod(month, year); err != nil {
		return err
	}
	if amount.IsNegative() {
		return financeErrors.NewValidationError("Budget amount must not be negative")
	}
	amount = domain.Round2(amount)

	goal := &domain.BudgetGoal{UserID: userID, Amount: &amount, Month: month, Year: year}
	if err := s.repo.UpsertBudgetGoal(goal); err != nil {
		return err
	}

	entry := &domain.BudgetGoalHistoryEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Amount:    amount,
		Month:     month,
		Year:      year,
		StartDate: time.Now().UTC(),
	}
	return s.repo.AppendHistory(entry)
}

// GetBudgetForMonth resolves the budget for a period: the direct record when
// one exists, otherwise the most recent history entry whose (year, month) is
// not after the queried period. Budgets carry forward until changed.
func (s *BudgetService) GetBudgetForMonth(userID string, month, year int) (*decimal.Decimal, string, error) {
	if err := domain.ValidatePeriod(month, year); err != nil {
		return nil, "", err
	}

	goal, err := s.repo.FindBudgetGoal(userID, month, year)
	if err != nil {
		return nil, "", err
	}
	if goal != nil && goal.Amount != nil {
		return goal.Amount, BudgetSourceDirect, nil
	}

	entries, err := s.repo.FindHistoryByUser(userID)
	if err != nil {
		return nil, "", err
	}
	// Entries arrive sorted by start date descending.
	for _, entry := range entries {
		if entry.Year < year || (entry.Year == year && entry.Month <= month) {
			amount := entry.Amount
			return &amount, BudgetSourceHistory, nil
		}
	}

	return nil, BudgetSourceNone, nil
}

func (s *BudgetService) GetHistory(userID string) ([]domain.BudgetGoalHistoryEntry, error) {
	entries, err := s.repo.FindHistoryByUser(userID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		return []domain.BudgetGoalHistoryEntry{}, nil
	}
	return entries, nil
}

// SetCategoryBudget upserts one category's allocation within a month. The
// period's allocation total may not exceed its budget goal.
func (s *BudgetService) SetCategoryBudget(budget *domain.CategoryBudget) error {
	budget.Amount = domain.Round2(budget.Amount)
	if err := budget.Validate(); err != nil {
		return err
	}

	exists, err := s.categoryService.DoesCategoryExist(budget.CategoryID, budget.UserID)
	if err != nil {
		return err
	}
	if !exists {
		return financeErrors.ErrInvalidCategory
	}

	budgetGoal, _, err := s.GetBudgetForMonth(budget.UserID, budget.Month, budget.Year)
	if err != nil {
		return err
	}
	if budgetGoal == nil {
		return financeErrors.NewConflictError("No budget goal set for this period")
	}

	existing, err := s.repo.FindCategoryBudgets(budget.UserID, budget.Month, budget.Year)
	if err != nil {
		return err
	}
	allocated := budget.Amount
	for _, other := range existing {
		if other.CategoryID == budget.CategoryID {
			continue
		}
		allocated = domain.Round2(allocated.Add(other.Amount))
	}
	if allocated.GreaterThan(*budgetGoal) {
		return financeErrors.ErrBudgetOverAllocated
	}

	if budget.ID == "" {
		budget.ID = uuid.NewString()
	}
	return s.repo.UpsertCategoryBudget(budget)
}

func (s *BudgetService) GetCategoryBudgets(userID string, month, year int) ([]domain.CategoryBudget, error) {
	if err := domain.ValidatePeriod(month, year); err != nil {
		return nil, err
	}
	budgets, err := s.repo.FindCategoryBudgets(userID, month, year)
	if err != nil {
		return nil, err
	}
	if budgets == nil {
		return []domain.CategoryBudget{}, nil
	}
	return budgets, nil
}

func (s *BudgetService) DeleteCategoryBudget(budgetID, userID string) error {
	return s.repo.DeleteCategoryBudget(budgetID, userID)
}
