package interfaces

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/sebuszqo/ExpenseFlow/internal/finance/application"
	"github.com/sebuszqo/ExpenseFlow/internal/finance/domain"
)

type ExpenseServiceInterface interface {
	CreateExpense(expense *domain.Expense) error
	GetUserExpenses(userID string) ([]domain.Expense, error)
	GetUserExpensesForPeriod(userID string, month, year int) ([]domain.Expense, error)
	UpdateExpense(expense *domain.Expense) error
	DeleteExpense(expenseID, userID string) error
	GetMonthlySummary(userID string, month, year int) (*application.MonthlySummary, error)
}

type ExpenseHandler struct {
	service      ExpenseServiceInterface
	respondJSON  func(w http.ResponseWriter, status int, payload interface{})
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string)
}

func NewExpenseHandler(
	service ExpenseServiceInterface,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string),
) *ExpenseHandler {
	if service == nil || respondJSON == nil || respondError == nil {
		panic("Service and response functions must not be nil")
	}
	return &ExpenseHandler{
		service:      service,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

// periodQuery reads the optional month/year pair from the query string.
// Both must be present together.
func periodQuery(r *http.Request) (month, year int, provided bool, err error) {
	monthParam := r.URL.Query().Get("month")
	yearParam := r.URL.Query().Get("year")
	if monthParam == "" && yearParam == "" {
		return 0, 0, false, nil
	}
	month, err = strconv.Atoi(monthParam)
	if err != nil {
		return 0, 0, false, err
	}
	year, err = strconv.Atoi(yearParam)
	if err != nil {
		return 0, 0, false, err
	}
	return month, year, true, nil
}

func (h *ExpenseHandler) GetExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	month, year, provided, err := periodQuery(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid month or year")
		return
	}

	var expenses []domain.Expense
	if provided {
		expenses, err = h.service.GetUserExpensesForPeriod(userID, month, year)
	} else {
		expenses, err = h.service.GetUserExpenses(userID)
	}
	if err != nil {
		status := serviceErrorStatus(err)
		if status == http.StatusInternalServerError {
			h.respondError(w, status, "Failed to retrieve expenses")
			return
		}
		h.respondError(w, status, err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "success",
		"message":  "Expenses retrieved successfully.",
		"expenses": expenses,
	})
}

func (h *ExpenseHandler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var expense domain.Expense
	if err := json.NewDecoder(r.Body).Decode(&expense); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	expense.UserID = userID
	if err := h.service.CreateExpense(&expense); err != nil {
		status := serviceErrorStatus(err)
		if status == http.StatusInternalServerError {
			h.respondError(w, status, "Failed to create expense")
			return
		}
		h.respondError(w, status, err.Error())
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Expense successfully created.",
		"expense": expense,
	})
}

func (h *ExpenseHandler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var expense domain.Expense
	if err := json.NewDecoder(r.Body).Decode(&expense); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	expense.ID = r.PathValue("expenseID")
	expense.UserID = userID
	if err := h.service.UpdateExpense(&expense); err != nil {
		status := serviceErrorStatus(err)
		if status == http.StatusInternalServerError {
			h.respondError(w, status, "Failed to update expense")
			return
		}
		h.respondError(w, status, err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Expense successfully updated.",
		"expense": expense,
	})
}

func (h *ExpenseHandler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.service.DeleteExpense(r.PathValue("expenseID"), userID); err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to delete expense")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Expense successfully deleted.",
	})
}

func (h *ExpenseHandler) GetMonthlySummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	month, year, provided, err := periodQuery(r)
	if err != nil || !provided {
		h.respondError(w, http.StatusBadRequest, "Month and year are required")
		return
	}

	summary, err := h.service.GetMonthlySummary(userID, month, year)
	if err != nil {
		status := serviceErrorStatus(err)
		if status == http.StatusInternalServerError {
			h.respondError(w, status, "Failed to build summary")
			return
		}
		h.respondError(w, status, err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Summary retrieved successfully.",
		"summary": summary,
	})
}
