package infrastructure

import (
	"sort"
	"strings"

	"github.com/sebuszqo/ExpenseFlow/internal/finance/domain"
)

// In-memory repositories for unit tests.

type MockSavingGoalRepository struct {
	Goals []domain.SavingGoal
	// UpdateErr fails the next Update call once.
	UpdateErr error
}

func (m *MockSavingGoalRepository) Save(goal *domain.SavingGoal) error {
	m.Goals = append(m.Goals, *goal)
	return nil
}

func (m *MockSavingGoalRepository) FindByUser(userID string) ([]domain.SavingGoal, error) {
	var goals []domain.SavingGoal
	for _, goal := range m.Goals {
		if goal.UserID == userID {
			goals = append(goals, goal)
		}
	}
	return goals, nil
}

func (m *MockSavingGoalRepository) FindByID(goalID, userID string) (*domain.SavingGoal, error) {
	for _, goal := range m.Goals {
		if goal.ID == goalID && goal.UserID == userID {
			found := goal
			return &found, nil
		}
	}
	return nil, nil
}

func (m *MockSavingGoalRepository) Update(goal *domain.SavingGoal) error {
	if m.UpdateErr != nil {
		err := m.UpdateErr
		m.UpdateErr = nil
		return err
	}
	for i := range m.Goals {
		if m.Goals[i].ID == goal.ID && m.Goals[i].UserID == goal.UserID {
			m.Goals[i] = *goal
		}
	}
	return nil
}

func (m *MockSavingGoalRepository) Delete(goalID, userID string) error {
	for i := range m.Goals {
		if m.Goals[i].ID == goalID && m.Goals[i].UserID == userID {
			m.Goals = append(m.Goals[:i], m.Goals[i+1:]...)
			return nil
		}
	}
	return nil
}

type MockBudgetRepository struct {
	Goals   []domain.BudgetGoal
	History []domain.BudgetGoalHistoryEntry
	Budgets []domain.CategoryBudget
}

func (m *MockBudgetRepository) UpsertBudgetGoal(goal *domain.BudgetGoal) error {
	for i := range m.Goals {
		if m.Goals[i].UserID == goal.UserID && m.Goals[i].Month == goal.Month && m.Goals[i].Year == goal.Year {
			m.Goals[i] = *goal
			return nil
		}
	}
	m.Goals = append(m.Goals, *goal)
	return nil
}

func (m *MockBudgetRepository) FindBudgetGoal(userID string, month, year int) (*domain.BudgetGoal, error) {
	for _, goal := range m.Goals {
		if goal.UserID == userID && goal.Month == month && goal.Year == year {
			found := goal
			return &found, nil
		}
	}
	return nil, nil
}

func (m *MockBudgetRepository) AppendHistory(entry *domain.BudgetGoalHistoryEntry) error {
	m.History = append(m.History, *entry)
	return nil
}

func (m *MockBudgetRepository) FindHistoryByUser(userID string) ([]domain.BudgetGoalHistoryEntry, error) {
	var entries []domain.BudgetGoalHistoryEntry
	for _, entry := range m.History {
		if entry.UserID == userID {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].StartDate.After(entries[j].StartDate)
	})
	return entries, nil
}

func (m *MockBudgetRepository) UpsertCategoryBudget(budget *domain.CategoryBudget) error {
	for i := range m.Budgets {
		if m.Budgets[i].UserID == budget.UserID && m.Budgets[i].CategoryID == budget.CategoryID &&
			m.Budgets[i].Month == budget.Month && m.Budgets[i].Year == budget.Year {
			m.Budgets[i].Amount = budget.Amount
			return nil
		}
	}
	m.Budgets = append(m.Budgets, *budget)
	return nil
}

func (m *MockBudgetRepository) FindCategoryBudgets(userID string, month, year int) ([]domain.CategoryBudget, error) {
	var budgets []domain.CategoryBudget
	for _, budget := range m.Budgets {
		if budget.UserID == userID && budget.Month == month && budget.Year == year {
			budgets = append(budgets, budget)
		}
	}
	return budgets, nil
}

func (m *MockBudgetRepository) DeleteCategoryBudget(budgetID, userID string) error {
	for i := range m.Budgets {
		if m.Budgets[i].ID == budgetID && m.Budgets[i].UserID == userID {
			m.Budgets = append(m.Budgets[:i], m.Budgets[i+1:]...)
			return nil
		}
	}
	return nil
}

type MockCategoryRepository struct {
	Categories    []domain.Category
	ExpenseCounts map[string]int
}

func (m *MockCategoryRepository) Save(category *domain.Category) error {
	m.Categories = append(m.Categories, *category)
	return nil
}

func (m *MockCategoryRepository) FindByUser(userID string) ([]domain.Category, error) {
	var categories []domain.Category
	for _, category := range m.Categories {
		if category.UserID == userID {
			categories = append(categories, category)
		}
	}
	return categories, nil
}

func (m *MockCategoryRepository) FindByID(categoryID, userID string) (*domain.Category, error) {
	for _, category := range m.Categories {
		if category.ID == categoryID && category.UserID == userID {
			found := category
			return &found, nil
		}
	}
	return nil, nil
}

func (m *MockCategoryRepository) FindByNameInsensitive(name, userID string) (*domain.Category, error) {
	for _, category := range m.Categories {
		if category.UserID == userID && strings.EqualFold(category.Name, name) {
			found := category
			return &found, nil
		}
	}
	return nil, nil
}

func (m *MockCategoryRepository) Update(category *domain.Category) error {
	for i := range m.Categories {
		if m.Categories[i].ID == category.ID && m.Categories[i].UserID == category.UserID {
			m.Categories[i] = *category
		}
	}
	return nil
}

func (m *MockCategoryRepository) Delete(categoryID, userID string) error {
	for i := range m.Categories {
		if m.Categories[i].ID == categoryID && m.Categories[i].UserID == userID {
			m.Categories = append(m.Categories[:i], m.Categories[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *MockCategoryRepository) CountExpenses(categoryID, userID string) (int, error) {
	return m.ExpenseCounts[categoryID], nil
}

type MockExpenseRepository struct {
	Expenses []domain.Expense
}

func (m *MockExpenseRepository) Save(expense *domain.Expense) error {
	m.Expenses = append(m.Expenses, *expense)
	return nil
}

func (m *MockExpenseRepository) FindByUser(userID string) ([]domain.Expense, error) {
	var expenses []domain.Expense
	for _, expense := range m.Expenses {
		if expense.UserID == userID {
			expenses = append(expenses, expense)
		}
	}
	return expenses, nil
}

func (m *MockExpenseRepository) FindByUserAndPeriod(userID string, month, year int) ([]domain.Expense, error) {
	var expenses []domain.Expense
	for _, expense := range m.Expenses {
		if expense.UserID == userID && int(expense.Date.Month())-1 == month && expense.Date.Year() == year {
			expenses = append(expenses, expense)
		}
	}
	return expenses, nil
}

func (m *MockExpenseRepository) FindByID(expenseID, userID string) (*domain.Expense, error) {
	for _, expense := range m.Expenses {
		if expense.ID == expenseID && expense.UserID == userID {
			found := expense
			return &found, nil
		}
	}
	return nil, nil
}

func (m *MockExpenseRepository) Update(expense *domain.Expense) error {
	for i := range m.Expenses {
		if m.Expenses[i].ID == expense.ID && m.Expenses[i].UserID == expense.UserID {
			m.Expenses[i] = *expense
		}
	}
	return nil
}

func (m *MockExpenseRepository) Delete(expenseID, userID string) error {
	for i := range m.Expenses {
		if m.Expenses[i].ID == expenseID && m.Expenses[i].UserID == userID {
			m.Expenses = append(m.Expenses[:i], m.Expenses[i+1:]...)
			return nil
		}
	}
	return nil
}
