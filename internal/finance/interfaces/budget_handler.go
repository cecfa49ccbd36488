package interfaces

import (
	"encoding/json"
	"net/http"

	"github.com/sebuszqo/ExpenseFlow/internal/finance/domain"
	"github.com/shopspring/decimal"
)

type BudgetServiceInterface interface {
	SetBudgetGoal(userID string, month, year int, amount decimal.Decimal) error
	GetBudgetForMonth(userID string, month, year int) (*decimal.Decimal, string, error)
	GetHistory(userID string) ([]domain.BudgetGoalHistoryEntry, error)
	SetCategoryBudget(budget *domain.CategoryBudget) error
	GetCategoryBudgets(userID string, month, year int) ([]domain.CategoryBudget, error)
	DeleteCategoryBudget(budgetID, userID string) error
}

type BudgetHandler struct {
	service      BudgetServiceInterface
	respondJSON  func(w http.ResponseWriter, status int, payload interface{})
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string)
}

func NewBudgetHandler(
	service BudgetServiceInterface,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string),
) *BudgetHandler {
	if service == nil || respondJSON == nil || respondError == nil {
		panic("Service and response functions must not be nil")
	}
	return &BudgetHandler{
		service:      service,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

func (h *BudgetHandler) GetBudget(w http.ResponseWriter, r *http.Request) {
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

	amount, source, err := h.service.GetBudgetForMonth(userID, month, year)
	if err != nil {
		status := serviceErrorStatus(err)
		if status == http.StatusInternalServerError {
			h.respondError(w, status, "Failed to retrieve budget")
			return
		}
		h.respondError(w, status, err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Budget retrieved successfully.",
		"budget": map[string]interface{}{
			"month":  month,
			"year":   year,
			"amount": amount,
			"source": source,
		},
	})
}

func (h *BudgetHandler) SetBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		Month  int             `json:"month"`
		Year   int             `json:"year"`
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.SetBudgetGoal(userID, req.Month, req.Year, req.Amount); err != nil {
		status := serviceErrorStatus(err)
		if status == http.StatusInternalServerError {
			h.respondError(w, status, "Failed to save budget")
			return
		}
		h.respondError(w, status, err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Budget successfully saved.",
	})
}

func (h *BudgetHandler) GetBudgetHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	entries, err := h.service.GetHistory(userID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve budget history")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Budget history retrieved successfully.",
		"history": entries,
	})
}

func (h *BudgetHandler) GetCategoryBudgets(w http.ResponseWriter, r *http.Request) {
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

	budgets, err := h.service.GetCategoryBudgets(userID, month, year)
	if err != nil {
		status := serviceErrorStatus(err)
		if status == http.StatusInternalServerError {
			h.respondError(w, status, "Failed to retrieve category budgets")
			return
		}
		h.respondError(w, status, err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "success",
		"message":          "Category budgets retrieved successfully.",
		"category_budgets": budgets,
	})
}

func (h *BudgetHandler) SetCategoryBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var budget domain.CategoryBudget
	if err := json.NewDecoder(r.Body).Decode(&budget); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	budget.UserID = userID
	if err := h.service.SetCategoryBudget(&budget); err != nil {
		status := serviceErrorStatus(err)
		if status == http.StatusInternalServerError {
			h.respondError(w, status, "Failed to save category budget")
			return
		}
		h.respondError(w, status, err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "success",
		"message":         "Category budget successfully saved.",
		"category_budget": budget,
	})
}

func (h *BudgetHandler) DeleteCategoryBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.service.DeleteCategoryBudget(r.PathValue("categoryBudgetID"), userID); err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to delete category budget")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Category budget successfully deleted.",
	})
}
