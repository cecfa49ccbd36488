package domain

import (
	"regexp"

	financeErrors "github.com/sebuszqo/ExpenseFlow/internal/finance/errors"
)

// OtherCategoryName is the sentinel category every user always has. Expenses
// whose category disappears resolve to it at read time.
const OtherCategoryName = "Other"

type Category struct {
	ID        string `json:"id"`
	UserID    string `json:"-"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	IsDefault bool   `json:"is_default"`
}

// DefaultCategory is one entry of the fixed set seeded for every user.
type DefaultCategory struct {
	Name  string
	Color string
}

func DefaultCategories() []DefaultCategory {
	return []DefaultCategory{
		{Name: "Food", Color: "#ef4444"},
		{Name: "Transport", Color: "#3b82f6"},
		{Name: "Housing", Color: "#8b5cf6"},
		{Name: "Utilities", Color: "#f59e0b"},
		{Name: "Entertainment", Color: "#ec4899"},
		{Name: "Healthcare", Color: "#10b981"},
		{Name: "Shopping", Color: "#06b6d4"},
		{Name: OtherCategoryName, Color: "#6b7280"},
	}
}

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func (c *Category) Validate() error {
	if c.Name == "" {
		return financeErrors.NewValidationError("Category name must not be empty")
	}
	if len(c.Name) > 50 {
		return financeErrors.NewValidationError("Category name must be of length less than 50")
	}
	if !hexColorPattern.MatchString(c.Color) {
		return financeErrors.NewValidationError("Category color must be a hex value like #a1b2c3")
	}
	return nil
}

type CategoryRepository interface {
	Save(category *Category) error
	FindByUser(userID string) ([]Category, error)
	FindByID(categoryID, userID string) (*Category, error)
	FindByNameInsensitive(name, userID string) (*Category, error)
	Update(category *Category) error
	Delete(categoryID, userID string) error
	CountExpenses(categoryID, userID string) (int, error)
}
