package infrastructure

import (
	"database/sql"
	"errors"

	"github.com/sebuszqo/ExpenseFlow/internal/finance/domain"
)

type ExpenseRepository struct {
	db *sql.DB
}

func NewExpenseRepository(db *sql.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

func (r *ExpenseRepository) Save(expense *domain.Expense) error {
	query := `
		INSERT INTO expenses (id, user_id, amount, description, date, category_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(query, expense.ID, expense.UserID, expense.Amount, expense.Description, expense.Date, expense.CategoryID)
	return err
}

func (r *ExpenseRepository) FindByUser(userID string) ([]domain.Expense, error) {
	query := `
		SELECT id, user_id, amount, description, date, category_id
		FROM expenses WHERE user_id = $1 ORDER BY date DESC
	`
	return r.queryExpenses(query, userID)
}

// FindByUserAndPeriod filters by calendar month; months are 0-11, so the
// stored date month is shifted by one.
func (r *ExpenseRepository) FindByUserAndPeriod(userID string, month, year int) ([]domain.Expense, error) {
	query := `
		SELECT id, user_id, amount, description, date, category_id
		FROM expenses
		WHERE user_id = $1 AND EXTRACT(MONTH FROM date) = $2 AND EXTRACT(YEAR FROM date) = $3
		ORDER BY date DESC
	`
	return r.queryExpenses(query, userID, month+1, year)
}

func (r *ExpenseRepository) queryExpenses(query string, args ...interface{}) ([]domain.Expense, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []domain.Expense
	for rows.Next() {
		var expense domain.Expense
		if err := rows.Scan(&expense.ID, &expense.UserID, &expense.Amount, &expense.Description, &expense.Date, &expense.CategoryID); err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return expenses, nil
}

func (r *ExpenseRepository) FindByID(expenseID, userID string) (*domain.Expense, error) {
	query := "SELECT id, user_id, amount, description, date, category_id FROM expenses WHERE id = $1 AND user_id = $2"
	var expense domain.Expense
	err := r.db.QueryRow(query, expenseID, userID).Scan(&expense.ID, &expense.UserID, &expense.Amount, &expense.Description, &expense.Date, &expense.CategoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &expense, nil
}

func (r *ExpenseRepository) Update(expense *domain.Expense) error {
	query := `
		UPDATE expenses SET amount = $1, description = $2, date = $3, category_id = $4
		WHERE id = $5 AND user_id = $6
	`
	_, err := r.db.Exec(query, expense.Amount, expense.Description, expense.Date, expense.CategoryID, expense.ID, expense.UserID)
	return err
}

func (r *ExpenseRepository) Delete(expenseID, userID string) error {
	_, err := r.db.Exec("DELETE FROM expenses WHERE id = $1 AND user_id = $2", expenseID, userID)
	return err
}
