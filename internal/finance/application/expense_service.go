package application

import (
	"github.com/google/uuid"
	"github.com/sebuszqo/ExpenseFlow/internal/finance/domain"
	financeErrors "github.com/sebuszqo/ExpenseFlow/internal/finance/errors"
	"github.com/shopspring/decimal"
)

type CategoryLookup interface {
	DoesCategoryExist(categoryID, userID string) (bool, error)
	GetUserCategories(userID string) ([]domain.Category, error)
}

type BudgetLookup interface {
	GetBudgetForMonth(userID string, month, year int) (*decimal.Decimal, string, error)
}

type ExpenseService struct {
	repo            domain.ExpenseRepository
	categoryService CategoryLookup
	budgetService   BudgetLookup
}

func NewExpenseService(repo domain.ExpenseRepository, categoryService CategoryLookup, budgetService BudgetLookup) *ExpenseService {
	return &ExpenseService{repo: repo, categoryService: categoryService, budgetService: budgetService}
}

func (s *ExpenseService) CreateExpense(expense *domain.Expense) error {
	expense.ID = uuid.NewString()
	expense.RoundToTwoDecimalPlaces()
	if err := expense.Validate(); err != nil {
		return err
	}

	exists, err := s.categoryService.DoesCategoryExist(expense.CategoryID, expense.UserID)
	if err != nil {
		return err
	}
	if !exists {
		return financeErrors.ErrInvalidCategory
	}

	return s.repo.Save(expense)
}

func (s *ExpenseService) GetUserExpenses(userID string) ([]domain.Expense, error) {
	expenses, err := s.repo.FindByUser(userID)
	if err != nil {
		return nil, err
	}
	return s.resolveDanglingCategories(userID, expenses)
}

func (s *ExpenseService) GetUserExpensesForPeriod(userID string, month, year int) ([]domain.Expense, error) {
	if err := domain.ValidatePeriod(month, year); err != nil {
		return nil, err
	}
	expenses, err := s.repo.FindByUserAndPeriod(userID, month, year)
	if err != nil {
		return nil, err
	}
	return s.resolveDanglingCategories(userID, expenses)
}

func (s *ExpenseService) UpdateExpense(expense *domain.Expense) error {
	current, err := s.repo.FindByID(expense.ID, expense.UserID)
	if err != nil {
		return err
	}
	if current == nil {
		return financeErrors.NewValidationError("Expense not found")
	}

	expense.RoundToTwoDecimalPlaces()
	if err := expense.Validate(); err != nil {
		return err
	}

	exists, err := s.categoryService.DoesCategoryExist(expense.CategoryID, expense.UserID)
	if err != nil {
		return err
	}
	if !exists {
		return financeErrors.ErrInvalidCategory
	}

	return s.repo.Update(expense)
}

func (s *ExpenseService) DeleteExpense(expenseID, userID string) error {
	return s.repo.Delete(expenseID, userID)
}

// resolveDanglingCategories points expenses whose category is gone at the
// sentinel "Other" category.
func (s *ExpenseService) resolveDanglingCategories(userID string, expenses []domain.Expense) ([]domain.Expense, error) {
	if expenses == nil {
		return []domain.Expense{}, nil
	}

	categories, err := s.categoryService.GetUserCategories(userID)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(categories))
	otherID := ""
	for _, category := range categories {
		known[category.ID] = true
		if category.Name == domain.OtherCategoryName {
			otherID = category.ID
		}
	}

	for i := range expenses {
		if !known[expenses[i].CategoryID] && otherID != "" {
			expenses[i].CategoryID = otherID
		}
	}
	return expenses, nil
}

// CategorySpend is one category's share of a month's spending.
type CategorySpend struct {
	CategoryID   string          `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Color        string          `json:"color"`
	Total        decimal.Decimal `json:"total"`
}

// MonthlySummary is the month's spending against its (possibly carried
// forward) budget goal.
type MonthlySummary struct {
	Month        int              `json:"month"`
	Year         int              `json:"year"`
	TotalSpent   decimal.Decimal  `json:"total_spent"`
	Budget       *decimal.Decimal `json:"budget"`
	BudgetSource string           `json:"budget_source"`
	Remaining    *decimal.Decimal `json:"remaining"`
	Categories   []CategorySpend  `json:"categories"`
}

func (s *ExpenseService) GetMonthlySummary(userID string, month, year int) (*MonthlySummary, error) {
	if err := domain.ValidatePeriod(month, year); err != nil {
		return nil, err
	}

	expenses, err := s.repo.FindByUserAndPeriod(userID, month, year)
	if err != nil {
		return nil, err
	}
	categories, err := s.categoryService.GetUserCategories(userID)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]domain.Category, len(categories))
	var other domain.Category
	for _, category := range categories {
		byID[category.ID] = category
		if category.Name == domain.OtherCategoryName {
			other = category
		}
	}

	total := decimal.Zero
	totals := make(map[string]decimal.Decimal)
	order := []string{}
	for _, expense := range expenses {
		category, ok := byID[expense.CategoryID]
		if !ok {
			category = other
		}
		total = domain.Round2(total.Add(expense.Amount))
		if _, seen := totals[category.ID]; !seen {
			order = append(order, category.ID)
		}
		totals[category.ID] = domain.Round2(totals[category.ID].Add(expense.Amount))
	}

	summary := &MonthlySummary{
		Month:      month,
		Year:       year,
		TotalSpent: total,
		Categories: []CategorySpend{},
	}
	for _, categoryID := range order {
		category := byID[categoryID]
		summary.Categories = append(summary.Categories, CategorySpend{
			CategoryID:   category.ID,
			CategoryName: category.Name,
			Color:        category.Color,
			Total:        totals[categoryID],
		})
	}

	budget, source, err := s.budgetService.GetBudgetForMonth(userID, month, year)
	if err != nil {
		return nil, err
	}
	summary.Budget = budget
	summary.BudgetSource = source
	if budget != nil {
		remaining := domain.Round2(budget.Sub(total))
		summary.Remaining = &remaining
	}

	return summary, nil
}
