package infrastructure

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	database "github.com/sebuszqo/ExpenseFlow/db"
	"github.com/sebuszqo/ExpenseFlow/internal/finance/domain"
)

// Spins up a throwaway postgres via testcontainers. Opt in with
// EXPENSEFLOW_INTEGRATION_TESTS=1 since it needs a docker daemon.
func newTestDatabase(t *testing.T) *sql.DB {
	t.Helper()
	if os.Getenv("EXPENSEFLOW_INTEGRATION_TESTS") == "" {
		t.Skip("set EXPENSEFLOW_INTEGRATION_TESTS=1 to run postgres integration tests")
	}

	ctx := context.Background()
	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("expenseflow_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = pgContainer.Terminate(ctx)
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("pgx", connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	dbService := &database.DBService{DB: db}
	require.NoError(t, dbService.EnsureSchema(ctx))
	return db
}

func createTestUser(t *testing.T, db *sql.DB) string {
	t.Helper()
	var userID string
	err := db.QueryRow(`
		INSERT INTO users (email, login, password_hash, hash_token)
		VALUES ($1, $2, 'x', 'x')
		RETURNING id
	`, uuid.NewString()+"@example.com", "login-"+uuid.NewString()[:8]).Scan(&userID)
	require.NoError(t, err)
	return userID
}

func TestExpenseRepository_Postgres(t *testing.T) {
	db := newTestDatabase(t)
	userID := createTestUser(t, db)

	categoryRepo := NewCategoryRepository(db)
	expenseRepo := NewExpenseRepository(db)

	category := &domain.Category{
		ID:     uuid.NewString(),
		UserID: userID,
		Name:   "Food",
		Color:  "#ef4444",
	}
	require.NoError(t, categoryRepo.Save(category))

	march := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	april := time.Date(2024, time.April, 2, 9, 0, 0, 0, time.UTC)

	first := &domain.Expense{
		ID:          uuid.NewString(),
		UserID:      userID,
		Amount:      decimal.RequireFromString("42.50"),
		Description: "groceries",
		Date:        march,
		CategoryID:  category.ID,
	}
	second := &domain.Expense{
		ID:         uuid.NewString(),
		UserID:     userID,
		Amount:     decimal.RequireFromString("10.00"),
		Date:       april,
		CategoryID: category.ID,
	}
	require.NoError(t, expenseRepo.Save(first))
	require.NoError(t, expenseRepo.Save(second))

	// month is 0-based, so March is 2
	marchExpenses, err := expenseRepo.FindByUserAndPeriod(userID, 2, 2024)
	require.NoError(t, err)
	require.Len(t, marchExpenses, 1)
	assert.Equal(t, first.ID, marchExpenses[0].ID)
	assert.True(t, marchExpenses[0].Amount.Equal(decimal.RequireFromString("42.50")))

	count, err := categoryRepo.CountExpenses(category.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	first.Amount = decimal.RequireFromString("45.00")
	first.Description = "groceries and snacks"
	require.NoError(t, expenseRepo.Update(first))

	updated, err := expenseRepo.FindByID(first.ID, userID)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "groceries and snacks", updated.Description)
	assert.True(t, updated.Amount.Equal(decimal.RequireFromString("45.00")))

	require.NoError(t, expenseRepo.Delete(second.ID, userID))
	all, err := expenseRepo.FindByUser(userID)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestBudgetRepository_Postgres(t *testing.T) {
	db := newTestDatabase(t)
	userID := createTestUser(t, db)
	repo := NewBudgetRepository(db)

	amount := decimal.RequireFromString("1200.00")
	goal := &domain.BudgetGoal{UserID: userID, Month: 2, Year: 2024, Amount: &amount}
	require.NoError(t, repo.UpsertBudgetGoal(goal))

	// Upserting the same period twice must not create a second row.
	raised := decimal.RequireFromString("1500.00")
	goal.Amount = &raised
	require.NoError(t, repo.UpsertBudgetGoal(goal))

	stored, err := repo.FindBudgetGoal(userID, 2, 2024)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.Amount.Equal(raised))

	for i, when := range []time.Time{
		time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
	} {
		entry := &domain.BudgetGoalHistoryEntry{
			ID:        uuid.NewString(),
			UserID:    userID,
			Month:     i,
			Year:      2024,
			Amount:    amount,
			StartDate: when,
		}
		require.NoError(t, repo.AppendHistory(entry))
	}

	history, err := repo.FindHistoryByUser(userID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].StartDate.After(history[1].StartDate), "history must be newest first")
}
