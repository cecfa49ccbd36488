package infrastructure

import (
	"database/sql"
	"errors"

	"github.com/sebuszqo/ExpenseFlow/internal/finance/domain"
)

type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Save(category *domain.Category) error {
	query := `
		INSERT INTO categories (id, user_id, name, color, is_default)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(query, category.ID, category.UserID, category.Name, category.Color, category.IsDefault)
	return err
}

func (r *CategoryRepository) FindByUser(userID string) ([]domain.Category, error) {
	query := "SELECT id, user_id, name, color, is_default FROM categories WHERE user_id = $1 ORDER BY name"
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(&category.ID, &category.UserID, &category.Name, &category.Color, &category.IsDefault); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return categories, nil
}

func (r *CategoryRepository) FindByID(categoryID, userID string) (*domain.Category, error) {
	query := "SELECT id, user_id, name, color, is_default FROM categories WHERE id = $1 AND user_id = $2"
	var category domain.Category
	err := r.db.QueryRow(query, categoryID, userID).Scan(&category.ID, &category.UserID, &category.Name, &category.Color, &category.IsDefault)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepository) FindByNameInsensitive(name, userID string) (*domain.Category, error) {
	query := "SELECT id, user_id, name, color, is_default FROM categories WHERE LOWER(name) = LOWER($1) AND user_id = $2"
	var category domain.Category
	err := r.db.QueryRow(query, name, userID).Scan(&category.ID, &category.UserID, &category.Name, &category.Color, &category.IsDefault)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepository) Update(category *domain.Category) error {
	query := "UPDATE categories SET name = $1, color = $2 WHERE id = $3 AND user_id = $4"
	_, err := r.db.Exec(query, category.Name, category.Color, category.ID, category.UserID)
	return err
}

func (r *CategoryRepository) Delete(categoryID, userID string) error {
	_, err := r.db.Exec("DELETE FROM categories WHERE id = $1 AND user_id = $2", categoryID, userID)
	return err
}

func (r *CategoryRepository) CountExpenses(categoryID, userID string) (int, error) {
	var count int
	query := "SELECT COUNT(*) FROM expenses WHERE category_id = $1 AND user_id = $2"
	err := r.db.QueryRow(query, categoryID, userID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
