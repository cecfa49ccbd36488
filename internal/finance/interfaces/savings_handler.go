package interfaces

import (
	"encoding/json"
	"net/http"

	"github.com/sebuszqo/ExpenseFlow/internal/finance/application"
	"github.com/sebuszqo/ExpenseFlow/internal/finance/domain"
	"github.com/shopspring/decimal"
)

type SavingsServiceInterface interface {
	CreateGoal(goal *domain.SavingGoal) error
	GetUserGoals(userID string) ([]domain.SavingGoal, error)
	UpdateGoal(goalID, userID, purpose string, amount decimal.Decimal) (*domain.SavingGoal, error)
	DeleteGoal(goalID, userID string) (decimal.Decimal, error)
	ReverseContributions(goalID, userID string) (decimal.Decimal, error)
	SetAchieved(goalID, userID string, achieved bool) (*domain.SavingGoal, decimal.Decimal, error)
	DistributeAuto(userID string, month, year int, available decimal.Decimal, goalIDs []string) (*application.DistributionResult, error)
	DistributeCustom(userID string, month, year int, available decimal.Decimal, requests []application.GoalRequest) (*application.DistributionResult, error)
	TakeRecoveredSavings(userID string) decimal.Decimal
	DistributedForPeriod(userID string, month, year int) (decimal.Decimal, error)
}

type SavingsHandler struct {
	service      SavingsServiceInterface
	respondJSON  func(w http.ResponseWriter, status int, payload interface{})
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string)
}

func NewSavingsHandler(
	service SavingsServiceInterface,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string),
) *SavingsHandler {
	if service == nil || respondJSON == nil || respondError == nil {
		panic("Service and response functions must not be nil")
	}
	return &SavingsHandler{
		service:      service,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

func (h *SavingsHandler) GetGoals(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	goals, err := h.service.GetUserGoals(userID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve saving goals")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Saving goals retrieved successfully.",
		"goals":   goals,
	})
}

func (h *SavingsHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var goal domain.SavingGoal
	if err := json.NewDecoder(r.Body).Decode(&goal); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	goal.UserID = userID
	if err := h.service.CreateGoal(&goal); err != nil {
		status := serviceErrorStatus(err)
		if status == http.StatusInternalServerError {
			h.respondError(w, status, "Failed to create saving goal")
			return
		}
		h.respondError(w, status, err.Error())
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Saving goal successfully created.",
		"goal":    goal,
	})
}

func (h *SavingsHandler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		Purpose string          `json:"purpose"`
		Amount  decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	goal, err := h.service.UpdateGoal(r.PathValue("goalID"), userID, req.Purpose, req.Amount)
	if err != nil {
		status := serviceErrorStatus(err)
		if status == http.StatusInternalServerError {
			h.respondError(w, status, "Failed to update saving goal")
			return
		}
		h.respondError(w, status, err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Saving goal successfully updated.",
		"goal":    goal,
	})
}

func (h *SavingsHandler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	refunded, err := h.service.DeleteGoal(r.PathValue("goalID"), userID)
	if err != nil {
		status := serviceErrorStatus(err)
		if status == http.StatusInternalServerError {
			h.respondError(w, status, "Failed to delete saving goal")
			return
		}
		h.respondError(w, status, err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "success",
		"message":  "Saving goal successfully deleted.",
		"refunded": refunded,
	})
}

func (h *SavingsHandler) ReverseContributions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	refunded, err := h.service.ReverseContributions(r.PathValue("goalID"), userID)
	if err != nil {
		status := serviceErrorStatus(err)
		if status == http.StatusInternalServerError {
			h.respondError(w, status, "Failed to reverse contributions")
			return
		}
		h.respondError(w, status, err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "success",
		"message":  "Contributions successfully reversed.",
		"refunded": refunded,
	})
}

func (h *SavingsHandler) SetAchieved(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		Achieved bool `json:"achieved"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	goal, refunded, err := h.service.SetAchieved(r.PathValue("goalID"), userID, req.Achieved)
	if err != nil {
		status := serviceErrorStatus(err)
		if status == http.StatusInternalServerError {
			h.respondError(w, status, "Failed to update saving goal")
			return
		}
		h.respondError(w, status, err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "success",
		"message":  "Saving goal successfully updated.",
		"goal":     goal,
		"refunded": refunded,
	})
}

func (h *SavingsHandler) Distribute(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		Mode      string                    `json:"mode"`
		Month     int                       `json:"month"`
		Year      int                       `json:"year"`
		Available decimal.Decimal           `json:"available"`
		GoalIDs   []string                  `json:"goal_ids"`
		Requests  []application.GoalRequest `json:"requests"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var result *application.DistributionResult
	var err error
	switch req.Mode {
	case "auto":
		result, err = h.service.DistributeAuto(userID, req.Month, req.Year, req.Available, req.GoalIDs)
	case "custom":
		result, err = h.service.DistributeCustom(userID, req.Month, req.Year, req.Available, req.Requests)
	default:
		h.respondError(w, http.StatusBadRequest, "Mode must be 'auto' or 'custom'")
		return
	}
	if err != nil {
		status := serviceErrorStatus(err)
		if status == http.StatusInternalServerError {
			h.respondError(w, status, "Failed to distribute savings")
			return
		}
		h.respondError(w, status, err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Savings successfully distributed.",
		"result":  result,
	})
}

// GetRecovered hands out the recovered-savings pool exactly once: reading it
// clears it.
func (h *SavingsHandler) GetRecovered(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "success",
		"message":   "Recovered savings retrieved successfully.",
		"recovered": h.service.TakeRecoveredSavings(userID),
	})
}

func (h *SavingsHandler) GetDistributed(w http.ResponseWriter, r *http.Request) {
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

	distributed, err := h.service.DistributedForPeriod(userID, month, year)
	if err != nil {
		status := serviceErrorStatus(err)
		if status == http.StatusInternalServerError {
			h.respondError(w, status, "Failed to retrieve distributed amount")
			return
		}
		h.respondError(w, status, err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "success",
		"message":     "Distributed amount retrieved successfully.",
		"distributed": distributed,
	})
}
