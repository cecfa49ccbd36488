package infrastructure

import (
	"database/sql"
	"errors"

	"github.com/sebuszqo/ExpenseFlow/internal/finance/domain"
)

type SavingGoalRepository struct {
	db *sql.DB
}

func NewSavingGoalRepository(db *sql.DB) *SavingGoalRepository {
	return &SavingGoalRepository{db: db}
}

func (r *SavingGoalRepository) Save(goal *domain.SavingGoal) error {
	query := `
		INSERT INTO saving_goals (id, user_id, amount, purpose, created_at, achieved, progress)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(query, goal.ID, goal.UserID, goal.Amount, goal.Purpose, goal.CreatedAt, goal.Achieved, goal.Progress)
	return err
}

func (r *SavingGoalRepository) FindByUser(userID string) ([]domain.SavingGoal, error) {
	query := `
		SELECT id, user_id, amount, purpose, created_at, achieved, progress
		FROM saving_goals WHERE user_id = $1 ORDER BY created_at
	`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []domain.SavingGoal
	for rows.Next() {
		var goal domain.SavingGoal
		if err := rows.Scan(&goal.ID, &goal.UserID, &goal.Amount, &goal.Purpose, &goal.CreatedAt, &goal.Achieved, &goal.Progress); err != nil {
			return nil, err
		}
		goals = append(goals, goal)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return goals, nil
}

func (r *SavingGoalRepository) FindByID(goalID, userID string) (*domain.SavingGoal, error) {
	query := "SELECT id, user_id, amount, purpose, created_at, achieved, progress FROM saving_goals WHERE id = $1 AND user_id = $2"
	var goal domain.SavingGoal
	err := r.db.QueryRow(query, goalID, userID).Scan(&goal.ID, &goal.UserID, &goal.Amount, &goal.Purpose, &goal.CreatedAt, &goal.Achieved, &goal.Progress)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &goal, nil
}

func (r *SavingGoalRepository) Update(goal *domain.SavingGoal) error {
	query := `
		UPDATE saving_goals SET amount = $1, purpose = $2, achieved = $3, progress = $4
		WHERE id = $5 AND user_id = $6
	`
	_, err := r.db.Exec(query, goal.Amount, goal.Purpose, goal.Achieved, goal.Progress, goal.ID, goal.UserID)
	return err
}

func (r *SavingGoalRepository) Delete(goalID, userID string) error {
	_, err := r.db.Exec("DELETE FROM saving_goals WHERE id = $1 AND user_id = $2", goalID, userID)
	return err
}
