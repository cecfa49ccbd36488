package domain

import (
	"time"

	financeErrors "github.com/sebuszqo/ExpenseFlow/internal/finance/errors"
	"github.com/shopspring/decimal"
)

// Months are numbered 0-11 everywhere: in the API, in storage and in the
// period keys of the savings ledger.
func ValidatePeriod(month, year int) error {
	if month < 0 || month > 11 {
		return financeErrors.NewValidationError("Month must be between 0 and 11")
	}
	if year < 2000 || year > 2200 {
		return financeErrors.NewValidationError("Year is out of range")
	}
	return nil
}

// BudgetGoal is the spending ceiling for one calendar month. At most one row
// exists per (user, month, year).
type BudgetGoal struct {
	UserID string           `json:"-"`
	Amount *decimal.Decimal `json:"amount"`
	Month  int              `json:"month"`
	Year   int              `json:"year"`
}

// BudgetGoalHistoryEntry is one row of the append-only log every budget goal
// write also lands in. It resolves budgets for months that never received an
// explicit goal.
type BudgetGoalHistoryEntry struct {
	ID        string          `json:"id"`
	UserID    string          `json:"-"`
	Amount    decimal.Decimal `json:"amount"`
	Month     int             `json:"month"`
	Year      int             `json:"year"`
	StartDate time.Time       `json:"start_date"`
}

// CategoryBudget is a sub-allocation of one month's budget goal to a single
// expense category. Unique per (user, category, month, year).
type CategoryBudget struct {
	ID         string          `json:"id"`
	UserID     string          `json:"-"`
	CategoryID string          `json:"category_id"`
	Amount     decimal.Decimal `json:"amount"`
	Month      int             `json:"month"`
	Year       int             `json:"year"`
}

func (cb *CategoryBudget) Validate() error {
	if err := ValidatePeriod(cb.Month, cb.Year); err != nil {
		return err
	}
	if cb.CategoryID == "" {
		return financeErrors.NewValidationError("Category ID must be provided")
	}
	if cb.Amount.IsNegative() {
		return financeErrors.NewValidationError("Amount must not be negative")
	}
	return nil
}

type BudgetRepository interface {
	UpsertBudgetGoal(goal *BudgetGoal) error
	FindBudgetGoal(userID string, month, year int) (*BudgetGoal, error)
	AppendHistory(entry *BudgetGoalHistoryEntry) error
	FindHistoryByUser(userID string) ([]BudgetGoalHistoryEntry, error)
	UpsertCategoryBudget(budget *CategoryBudget) error
	FindCategoryBudgets(userID string, month, year int) ([]CategoryBudget, error)
	DeleteCategoryBudget(budgetID, userID string) error
}
