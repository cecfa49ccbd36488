package interfaces

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sebuszqo/ExpenseFlow/internal/finance/application"
	financeErrors "github.com/sebuszqo/ExpenseFlow/internal/finance/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func authedRequest(method, target string, body []byte) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(context.WithValue(req.Context(), "userID", "test-user-id"))
}

func TestDistribute_AutoModeDispatched(t *testing.T) {
	service := &MockSavingsService{Result: &application.DistributionResult{
		Allocations: []application.GoalAllocation{},
		Distributed: decimal.NewFromInt(100),
		Leftover:    decimal.NewFromInt(30),
	}}
	handler := NewSavingsHandler(service, respondJSON, respondError)

	body, _ := json.Marshal(map[string]interface{}{
		"mode":      "auto",
		"month":     4,
		"year":      2024,
		"available": "130",
		"goal_ids":  []string{"g1", "g2"},
	})
	w := httptest.NewRecorder()
	handler.Distribute(w, authedRequest(http.MethodPost, "/savings/distribute", body))

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "auto", service.LastMode)
	assert.Equal(t, []string{"g1", "g2"}, service.LastGoalIDs)

	var response map[string]interface{}
	assert.NoError(t, json.NewDecoder(res.Body).Decode(&response))
	result := response["result"].(map[string]interface{})
	assert.Equal(t, "30", result["leftover"])
}

func TestDistribute_UnknownModeRejected(t *testing.T) {
	service := &MockSavingsService{}
	handler := NewSavingsHandler(service, respondJSON, respondError)

	body, _ := json.Marshal(map[string]interface{}{"mode": "half-auto"})
	w := httptest.NewRecorder()
	handler.Distribute(w, authedRequest(http.MethodPost, "/savings/distribute", body))

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestDistribute_OverAvailableMapsToConflict(t *testing.T) {
	service := &MockSavingsService{DistErr: financeErrors.ErrDistributionOverAvailable}
	handler := NewSavingsHandler(service, respondJSON, respondError)

	body, _ := json.Marshal(map[string]interface{}{
		"mode":      "custom",
		"month":     4,
		"year":      2024,
		"available": "100",
		"requests":  []map[string]interface{}{{"goal_id": "g1", "amount": "120"}},
	})
	w := httptest.NewRecorder()
	handler.Distribute(w, authedRequest(http.MethodPost, "/savings/distribute", body))

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	var response map[string]interface{}
	assert.NoError(t, json.NewDecoder(res.Body).Decode(&response))
	assert.Equal(t, "error", response["status"])
	assert.Equal(t, financeErrors.ErrDistributionOverAvailable.Error(), response["message"])
}

func TestDistribute_MissingUserIsUnauthorized(t *testing.T) {
	service := &MockSavingsService{}
	handler := NewSavingsHandler(service, respondJSON, respondError)

	req := httptest.NewRequest(http.MethodPost, "/savings/distribute", bytes.NewBufferString("{}"))
	w := httptest.NewRecorder()
	handler.Distribute(w, req)

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestGetRecovered_ClearsOnRead(t *testing.T) {
	service := &MockSavingsService{Recovered: decimal.NewFromFloat(42.50)}
	handler := NewSavingsHandler(service, respondJSON, respondError)

	w := httptest.NewRecorder()
	handler.GetRecovered(w, authedRequest(http.MethodGet, "/savings/recovered", nil))

	var response map[string]interface{}
	assert.NoError(t, json.NewDecoder(w.Result().Body).Decode(&response))
	assert.Equal(t, "42.5", response["recovered"])

	w = httptest.NewRecorder()
	handler.GetRecovered(w, authedRequest(http.MethodGet, "/savings/recovered", nil))
	assert.NoError(t, json.NewDecoder(w.Result().Body).Decode(&response))
	assert.Equal(t, "0", response["recovered"])
}
