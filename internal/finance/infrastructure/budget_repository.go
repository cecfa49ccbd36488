package infrastructure

import (
	"database/sql"
	"errors"

	"github.com/sebuszqo/ExpenseFlow/internal/finance/domain"
)

type BudgetRepository struct {
	db *sql.DB
}

func NewBudgetRepository(db *sql.DB) *BudgetRepository {
	return &BudgetRepository{db: db}
}

func (r *BudgetRepository) UpsertBudgetGoal(goal *domain.BudgetGoal) error {
	query := `
		INSERT INTO budget_goals (user_id, amount, month, year)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, month, year) DO UPDATE SET amount = EXCLUDED.amount
	`
	_, err := r.db.Exec(query, goal.UserID, goal.Amount, goal.Month, goal.Year)
	return err
}

func (r *BudgetRepository) FindBudgetGoal(userID string, month, year int) (*domain.BudgetGoal, error) {
	query := "SELECT user_id, amount, month, year FROM budget_goals WHERE user_id = $1 AND month = $2 AND year = $3"
	var goal domain.BudgetGoal
	err := r.db.QueryRow(query, userID, month, year).Scan(&goal.UserID, &goal.Amount, &goal.Month, &goal.Year)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &goal, nil
}

func (r *BudgetRepository) AppendHistory(entry *domain.BudgetGoalHistoryEntry) error {
	query := `
		INSERT INTO budget_goal_history (id, user_id, amount, month, year, start_date)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(query, entry.ID, entry.UserID, entry.Amount, entry.Month, entry.Year, entry.StartDate)
	return err
}

func (r *BudgetRepository) FindHistoryByUser(userID string) ([]domain.BudgetGoalHistoryEntry, error) {
	query := `
		SELECT id, user_id, amount, month, year, start_date
		FROM budget_goal_history WHERE user_id = $1 ORDER BY start_date DESC
	`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.BudgetGoalHistoryEntry
	for rows.Next() {
		var entry domain.BudgetGoalHistoryEntry
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Amount, &entry.Month, &entry.Year, &entry.StartDate); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *BudgetRepository) UpsertCategoryBudget(budget *domain.CategoryBudget) error {
	query := `
		INSERT INTO category_budgets (id, user_id, category_id, amount, month, year)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, category_id, month, year) DO UPDATE SET amount = EXCLUDED.amount
	`
	_, err := r.db.Exec(query, budget.ID, budget.UserID, budget.CategoryID, budget.Amount, budget.Month, budget.Year)
	return err
}

func (r *BudgetRepository) FindCategoryBudgets(userID string, month, year int) ([]domain.CategoryBudget, error) {
	query := `
		SELECT id, user_id, category_id, amount, month, year
		FROM category_budgets WHERE user_id = $1 AND month = $2 AND year = $3
	`
	rows, err := r.db.Query(query, userID, month, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var budgets []domain.CategoryBudget
	for rows.Next() {
		var budget domain.CategoryBudget
		if err := rows.Scan(&budget.ID, &budget.UserID, &budget.CategoryID, &budget.Amount, &budget.Month, &budget.Year); err != nil {
			return nil, err
		}
		budgets = append(budgets, budget)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return budgets, nil
}

func (r *BudgetRepository) DeleteCategoryBudget(budgetID, userID string) error {
	_, err := r.db.Exec("DELETE FROM category_budgets WHERE id = $1 AND user_id = $2", budgetID, userID)
	return err
}
