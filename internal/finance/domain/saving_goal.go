package domain

import (
	"time"

	financeErrors "github.com/sebuszqo/ExpenseFlow/internal/finance/errors"
	"github.com/shopspring/decimal"
)

// SavingGoal is a named target amount the user sets money aside for.
// Progress only ever increases through distribution; reversal resets it to
// zero and refunds the prior progress to the recovered-savings pool.
type SavingGoal struct {
	ID        string          `json:"id"`
	UserID    string          `json:"-"`
	Amount    decimal.Decimal `json:"amount"`
	Purpose   string          `json:"purpose"`
	CreatedAt time.Time       `json:"created_at"`
	Achieved  bool            `json:"achieved"`
	Progress  decimal.Decimal `json:"progress"`
}

func (g *SavingGoal) Validate() error {
	if !g.Amount.IsPositive() {
		return financeErrors.NewValidationError("Target amount must be greater than zero")
	}
	if g.Purpose == "" {
		return financeErrors.NewValidationError("Purpose must not be empty")
	}
	if len(g.Purpose) > 100 {
		return financeErrors.NewValidationError("Purpose must be of length less than 100")
	}
	return nil
}

// Remaining is how much the goal still needs before it is achieved.
func (g *SavingGoal) Remaining() decimal.Decimal {
	remaining := g.Amount.Sub(g.Progress)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return Round2(remaining)
}

type SavingGoalRepository interface {
	Save(goal *SavingGoal) error
	FindByUser(userID string) ([]SavingGoal, error)
	FindByID(goalID, userID string) (*SavingGoal, error)
	Update(goal *SavingGoal) error
	Delete(goalID, userID string) error
}
