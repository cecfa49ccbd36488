package application

import (
	"fmt"
	"sync"

	"github.com/sebuszqo/ExpenseFlow/internal/finance/domain"
	"github.com/shopspring/decimal"
)

// PeriodKey identifies the month whose surplus funded a contribution,
// e.g. "2024-2" for March 2024 (months are 0-11).
func PeriodKey(month, year int) string {
	return fmt.Sprintf("%d-%d", year, month)
}

// SavingsLedger tracks, per user, how much has been distributed per period
// and keeps the recovered-savings accumulator reversals pay back into. It
// lives in process memory only and assumes a single consumer of TakeRecovered
// per user.
type SavingsLedger struct {
	mu          sync.Mutex
	distributed map[string]map[string]decimal.Decimal
	perGoal     map[string]map[string]decimal.Decimal
	recovered   map[string]decimal.Decimal
}

func NewSavingsLedger() *SavingsLedger {
	return &SavingsLedger{
		distributed: make(map[string]map[string]decimal.Decimal),
		perGoal:     make(map[string]map[string]decimal.Decimal),
		recovered:   make(map[string]decimal.Decimal),
	}
}

func (l *SavingsLedger) RecordDistribution(userID, period, goalID string, amount decimal.Decimal) {
	if !amount.IsPositive() {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.distributed[userID] == nil {
		l.distributed[userID] = make(map[string]decimal.Decimal)
	}
	l.distributed[userID][period] = domain.Round2(l.distributed[userID][period].Add(amount))

	if l.perGoal[goalID] == nil {
		l.perGoal[goalID] = make(map[string]decimal.Decimal)
	}
	l.perGoal[goalID][period] = domain.Round2(l.perGoal[goalID][period].Add(amount))
}

// Refund returns a goal's full progress to the owner's available pool: the
// periods that funded the goal get their distributed totals decremented
// (never below zero) and the user's recovered accumulator grows by exactly
// the reversed amount.
func (l *SavingsLedger) Refund(userID, goalID string, progress decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for period, amount := range l.perGoal[goalID] {
		remaining := l.distributed[userID][period].Sub(amount)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		if l.distributed[userID] == nil {
			l.distributed[userID] = make(map[string]decimal.Decimal)
		}
		l.distributed[userID][period] = domain.Round2(remaining)
	}
	delete(l.perGoal, goalID)

	if progress.IsPositive() {
		l.recovered[userID] = domain.Round2(l.recovered[userID].Add(progress))
	}
}

func (l *SavingsLedger) Distributed(userID, period string) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.distributed[userID][period]
}

// TakeRecovered returns a user's recovered-savings accumulator and resets it
// to zero in one step, so two readers can never see the same amount twice.
func (l *SavingsLedger) TakeRecovered(userID string) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()

	recovered := l.recovered[userID]
	delete(l.recovered, userID)
	return recovered
}
