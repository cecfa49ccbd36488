package interfaces

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sebuszqo/ExpenseFlow/internal/finance/domain"
	financeErrors "github.com/sebuszqo/ExpenseFlow/internal/finance/errors"
	"github.com/stretchr/testify/assert"
)

func TestGetCategories(t *testing.T) {
	service := &MockCategoryService{Categories: []domain.Category{
		{ID: "c1", Name: "Food", Color: "#ef4444"},
		{ID: "c2", Name: "Other", Color: "#6b7280"},
	}}
	handler := NewCategoryHandler(service, respondJSON, respondError)

	w := httptest.NewRecorder()
	handler.GetCategories(w, authedRequest(http.MethodGet, "/categories", nil))

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var response struct {
		Status     string            `json:"status"`
		Categories []domain.Category `json:"categories"`
	}
	assert.NoError(t, json.NewDecoder(res.Body).Decode(&response))
	assert.Equal(t, "success", response.Status)
	assert.Len(t, response.Categories, 2)
}

func TestCreateCategory_InvalidBody(t *testing.T) {
	handler := NewCategoryHandler(&MockCategoryService{}, respondJSON, respondError)

	w := httptest.NewRecorder()
	handler.CreateCategory(w, authedRequest(http.MethodPost, "/categories", []byte("not json")))

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestCreateCategory_DuplicateNameConflict(t *testing.T) {
	service := &MockCategoryService{CreateErr: financeErrors.ErrDuplicateCategoryName}
	handler := NewCategoryHandler(service, respondJSON, respondError)

	body, _ := json.Marshal(map[string]string{"name": "Food", "color": "#ef4444"})
	w := httptest.NewRecorder()
	handler.CreateCategory(w, authedRequest(http.MethodPost, "/categories", body))

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	var response map[string]interface{}
	assert.NoError(t, json.NewDecoder(res.Body).Decode(&response))
	assert.Equal(t, financeErrors.ErrDuplicateCategoryName.Error(), response["message"])
}

func TestDeleteCategory_InUseConflict(t *testing.T) {
	service := &MockCategoryService{DeleteErr: financeErrors.ErrCategoryInUse}
	handler := NewCategoryHandler(service, respondJSON, respondError)

	req := authedRequest(http.MethodDelete, "/categories/c1", nil)
	req.SetPathValue("categoryID", "c1")
	w := httptest.NewRecorder()
	handler.DeleteCategory(w, req)

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusConflict, res.StatusCode)
}
