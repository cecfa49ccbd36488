package application

import (
	"time"

	"github.com/google/uuid"
	"github.com/sebuszqo/ExpenseFlow/internal/finance/domain"
	financeErrors "github.com/sebuszqo/ExpenseFlow/internal/finance/errors"
	"github.com/shopspring/decimal"
)

type SavingsService struct {
	repo   domain.SavingGoalRepository
	ledger *SavingsLedger
}

func NewSavingsService(repo domain.SavingGoalRepository, ledger *SavingsLedger) *SavingsService {
	return &SavingsService{repo: repo, ledger: ledger}
}

// GoalAllocation is what one goal received in a distribution.
type GoalAllocation struct {
	GoalID   string          `json:"goal_id"`
	Granted  decimal.Decimal `json:"granted"`
	Progress decimal.Decimal `json:"progress"`
	Achieved bool            `json:"achieved"`
}

type DistributionResult struct {
	Allocations []GoalAllocation `json:"allocations"`
	Distributed decimal.Decimal  `json:"distributed"`
	Leftover    decimal.Decimal  `json:"leftover"`
}

func (s *SavingsService) CreateGoal(goal *domain.SavingGoal) error {
	goal.ID = uuid.NewString()
	goal.CreatedAt = time.Now().UTC()
	goal.Amount = domain.Round2(goal.Amount)
	goal.Progress = decimal.Zero
	goal.Achieved = false
	if err := goal.Validate(); err != nil {
		return err
	}
	return s.repo.Save(goal)
}

func (s *SavingsService) GetUserGoals(userID string) ([]domain.SavingGoal, error) {
	goals, err := s.repo.FindByUser(userID)
	if err != nil {
		return nil, err
	}
	if goals == nil {
		return []domain.SavingGoal{}, nil
	}
	return goals, nil
}

// UpdateGoal changes a goal's purpose and target. The target may not be
// lowered below money already set aside for the goal.
func (s *SavingsService) UpdateGoal(goalID, userID, purpose string, amount decimal.Decimal) (*domain.SavingGoal, error) {
	goal, err := s.repo.FindByID(goalID, userID)
	if err != nil {
		return nil, err
	}
	if goal == nil {
		return nil, financeErrors.NewValidationError("Saving goal not found")
	}

	goal.Purpose = purpose
	goal.Amount = domain.Round2(amount)
	if err := goal.Validate(); err != nil {
		return nil, err
	}
	if goal.Amount.LessThan(goal.Progress) {
		return nil, financeErrors.NewValidationError("Target amount must not be lower than current progress")
	}
	goal.Achieved = domain.AmountsEqual(goal.Progress, goal.Amount)

	if err := s.repo.Update(goal); err != nil {
		return nil, err
	}
	return goal, nil
}

// DeleteGoal removes the goal and refunds its progress to the recovered
// pool, exactly like an explicit reversal would.
func (s *SavingsService) DeleteGoal(goalID, userID string) (decimal.Decimal, error) {
	goal, err := s.repo.FindByID(goalID, userID)
	if err != nil {
		return decimal.Zero, err
	}
	if goal == nil {
		return decimal.Zero, financeErrors.NewValidationError("Saving goal not found")
	}
	if err := s.repo.Delete(goalID, userID); err != nil {
		return decimal.Zero, err
	}
	s.ledger.Refund(userID, goalID, goal.Progress)
	return goal.Progress, nil
}

// ReverseContributions keeps the goal but returns everything distributed to
// it so far.
func (s *SavingsService) ReverseContributions(goalID, userID string) (decimal.Decimal, error) {
	return s.refund(goalID, userID)
}

// SetAchieved toggles the achieved flag. Un-achieving refunds the goal's
// progress; marking achieved by hand only works when the goal is already
// fully funded.
func (s *SavingsService) SetAchieved(goalID, userID string, achieved bool) (*domain.SavingGoal, decimal.Decimal, error) {
	goal, err := s.repo.FindByID(goalID, userID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if goal == nil {
		return nil, decimal.Zero, financeErrors.NewValidationError("Saving goal not found")
	}

	if achieved {
		if !domain.AmountsEqual(goal.Progress, goal.Amount) {
			return nil, decimal.Zero, financeErrors.NewValidationError("Goal is not fully funded yet")
		}
		goal.Achieved = true
		if err := s.repo.Update(goal); err != nil {
			return nil, decimal.Zero, err
		}
		return goal, decimal.Zero, nil
	}

	refunded, err := s.refund(goalID, userID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	goal, err = s.repo.FindByID(goalID, userID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	return goal, refunded, nil
}

// refund is the single reversal path shared by un-achieve and explicit
// reverse: progress goes back to the recovered pool and the period ledger
// entries that funded the goal are decremented. The ledger is only credited
// once the reset is persisted, so a failed write can be retried without
// counting the refund twice.
func (s *SavingsService) refund(goalID, userID string) (decimal.Decimal, error) {
	goal, err := s.repo.FindByID(goalID, userID)
	if err != nil {
		return decimal.Zero, err
	}
	if goal == nil {
		return decimal.Zero, financeErrors.NewValidationError("Saving goal not found")
	}

	refunded := goal.Progress
	goal.Progress = decimal.Zero
	goal.Achieved = false
	if err := s.repo.Update(goal); err != nil {
		return decimal.Zero, err
	}
	s.ledger.Refund(userID, goalID, refunded)
	return refunded, nil
}

// DistributeAuto fills the selected goals in the order given, each up to its
// remaining need, until the available amount runs out. The unallocated
// remainder is reported back, never dropped.
func (s *SavingsService) DistributeAuto(userID string, month, year int, available decimal.Decimal, goalIDs []string) (*DistributionResult, error) {
	if err := domain.ValidatePeriod(month, year); err != nil {
		return nil, err
	}
	if available.IsNegative() {
		return nil, financeErrors.NewValidationError("Available savings must not be negative")
	}

	goals, err := s.selectGoals(userID, goalIDs)
	if err != nil {
		return nil, err
	}

	period := PeriodKey(month, year)
	remaining := domain.Round2(available)
	result := &DistributionResult{Allocations: []GoalAllocation{}, Distributed: decimal.Zero}

	for i := range goals {
		if !remaining.IsPositive() {
			break
		}
		goal := &goals[i]

		grant := decimal.Min(remaining, goal.Remaining())
		if !grant.IsPositive() {
			continue
		}
		if err := s.apply(goal, grant, period); err != nil {
			return nil, err
		}
		remaining = domain.Round2(remaining.Sub(grant))
		result.Distributed = domain.Round2(result.Distributed.Add(grant))
		result.Allocations = append(result.Allocations, GoalAllocation{
			GoalID:   goal.ID,
			Granted:  grant,
			Progress: goal.Progress,
			Achieved: goal.Achieved,
		})
	}

	result.Leftover = remaining
	return result, nil
}

// GoalRequest is one entry of a custom split: the caller decides how much
// each goal gets.
type GoalRequest struct {
	GoalID string          `json:"goal_id"`
	Amount decimal.Decimal `json:"amount"`
}

// DistributeCustom applies a caller-specified split. The whole request is
// refused when the sum of requested amounts exceeds the available savings;
// individual requests are clamped to what the goal still needs and to what
// is left at validation time.
func (s *SavingsService) DistributeCustom(userID string, month, year int, available decimal.Decimal, requests []GoalRequest) (*DistributionResult, error) {
	if err := domain.ValidatePeriod(month, year); err != nil {
		return nil, err
	}
	if available.IsNegative() {
		return nil, financeErrors.NewValidationError("Available savings must not be negative")
	}

	total := decimal.Zero
	for _, request := range requests {
		if request.Amount.IsNegative() {
			return nil, financeErrors.NewValidationError("Requested amount must not be negative")
		}
		total = domain.Round2(total.Add(request.Amount))
	}
	if total.GreaterThan(available) {
		return nil, financeErrors.ErrDistributionOverAvailable
	}

	period := PeriodKey(month, year)
	remaining := domain.Round2(available)
	result := &DistributionResult{Allocations: []GoalAllocation{}, Distributed: decimal.Zero}

	for _, request := range requests {
		goal, err := s.repo.FindByID(request.GoalID, userID)
		if err != nil {
			return nil, err
		}
		if goal == nil {
			return nil, financeErrors.NewValidationError("Saving goal not found")
		}
		if goal.Achieved {
			return nil, financeErrors.NewValidationError("Goal is already achieved")
		}

		grant := decimal.Min(domain.Round2(request.Amount), remaining, goal.Remaining())
		if grant.IsNegative() {
			grant = decimal.Zero
		}
		if err := s.apply(goal, grant, period); err != nil {
			return nil, err
		}
		remaining = domain.Round2(remaining.Sub(grant))
		result.Distributed = domain.Round2(result.Distributed.Add(grant))
		result.Allocations = append(result.Allocations, GoalAllocation{
			GoalID:   goal.ID,
			Granted:  grant,
			Progress: goal.Progress,
			Achieved: goal.Achieved,
		})
	}

	result.Leftover = remaining
	return result, nil
}

// apply adds a grant to a goal's progress, flips the achieved flag within
// the epsilon, persists and records the contribution against the period.
func (s *SavingsService) apply(goal *domain.SavingGoal, grant decimal.Decimal, period string) error {
	if !grant.IsPositive() {
		return nil
	}
	goal.Progress = domain.Round2(goal.Progress.Add(grant))
	if domain.AmountsEqual(goal.Progress, goal.Amount) || goal.Progress.GreaterThan(goal.Amount) {
		goal.Progress = goal.Amount
		goal.Achieved = true
	}
	if err := s.repo.Update(goal); err != nil {
		return err
	}
	s.ledger.RecordDistribution(goal.UserID, period, goal.ID, grant)
	return nil
}

// selectGoals resolves the goals eligible for auto distribution, keeping the
// order the caller presented. An empty selection means every non-achieved
// goal of the user.
func (s *SavingsService) selectGoals(userID string, goalIDs []string) ([]domain.SavingGoal, error) {
	if len(goalIDs) == 0 {
		all, err := s.repo.FindByUser(userID)
		if err != nil {
			return nil, err
		}
		var eligible []domain.SavingGoal
		for _, goal := range all {
			if !goal.Achieved {
				eligible = append(eligible, goal)
			}
		}
		return eligible, nil
	}

	var goals []domain.SavingGoal
	for _, goalID := range goalIDs {
		goal, err := s.repo.FindByID(goalID, userID)
		if err != nil {
			return nil, err
		}
		if goal == nil {
			return nil, financeErrors.NewValidationError("Saving goal not found")
		}
		if goal.Achieved {
			continue
		}
		goals = append(goals, *goal)
	}
	return goals, nil
}

// TakeRecoveredSavings hands out the user's recovered pool once and clears it.
func (s *SavingsService) TakeRecoveredSavings(userID string) decimal.Decimal {
	return s.ledger.TakeRecovered(userID)
}

// DistributedForPeriod reports how much of a month's surplus the user has
// distributed so far.
func (s *SavingsService) DistributedForPeriod(userID string, month, year int) (decimal.Decimal, error) {
	if err := domain.ValidatePeriod(month, year); err != nil {
		return decimal.Zero, err
	}
	return s.ledger.Distributed(userID, PeriodKey(month, year)), nil
}
