package domain

import (
	"time"

	financeErrors "github.com/sebuszqo/ExpenseFlow/internal/finance/errors"
	"github.com/shopspring/decimal"
)

type Expense struct {
	ID          string          `json:"id"`
	UserID      string          `json:"-"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	CategoryID  string          `json:"category_id"`
}

func (e *Expense) Validate() error {
	if e.Amount.IsNegative() {
		return financeErrors.NewValidationError("Amount must not be negative")
	}
	if len(e.Description) > 200 {
		return financeErrors.NewValidationError("Description must be of length less than 200")
	}
	if e.Date.IsZero() {
		return financeErrors.NewValidationError("Date must be provided")
	}
	if e.CategoryID == "" {
		return financeErrors.NewValidationError("Category ID must be provided")
	}
	return nil
}

func (e *Expense) RoundToTwoDecimalPlaces() {
	e.Amount = Round2(e.Amount)
}

type ExpenseRepository interface {
	Save(expense *Expense) error
	FindByUser(userID string) ([]Expense, error)
	FindByUserAndPeriod(userID string, month, year int) ([]Expense, error)
	FindByID(expenseID, userID string) (*Expense, error)
	Update(expense *Expense) error
	Delete(expenseID, userID string) error
}
