package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/username/optimoney/backend/src/logger"
	"github.com/username/optimoney/backend/src/models"
	"github.com/username/optimoney/backend/src/services"
	"github.com/username/optimoney/backend/src/storage"
	"github.com/username/optimoney/backend/src/utils"
)

type BudgetHandler struct {
	budgets    storage.BudgetStore
	categories storage.CategoryStore
	analysis   *services.AnalysisService
}

func NewBudgetHandler(budgets storage.BudgetStore, categories storage.CategoryStore, analysis *services.AnalysisService) *BudgetHandler {
	return &BudgetHandler{budgets: budgets, categories: categories, analysis: analysis}
}

func (h *BudgetHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIdentityFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	budgets, err := h.budgets.ListForUser(r.Context(), id.UID)
	if err != nil {
		logger.L.Error("Failed to list budgets", "userID", id.UID, "error", err)
		utils.SendJSONError(w, "Failed to list budgets", http.StatusInternalServerError)
		return
	}
	if budgets == nil {
		budgets = []models.Budget{}
	}
	utils.SendJSON(w, http.StatusOK, budgets)
}

func (h *BudgetHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIdentityFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var payload struct {
		CategoryID     string  `json:"category_id"`
		Amount         float64 `json:"amount"`
		Period         string  `json:"period"`
		AlertThreshold float64 `json:"alert_threshold"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if payload.CategoryID == "" || payload.Amount <= 0 {
		utils.SendJSONError(w, "category_id and a positive amount are required", http.StatusBadRequest)
		return
	}
	if payload.Period == "" {
		payload.Period = models.PeriodMonthly
	}
	if !models.ValidBudgetPeriod(payload.Period) {
		utils.SendJSONError(w, "Invalid period, must be 'monthly', 'weekly' or 'yearly'", http.StatusBadRequest)
		return
	}
	if payload.AlertThreshold < 0 || payload.AlertThreshold > 100 {
		utils.SendJSONError(w, "alert_threshold must be between 0 and 100", http.StatusBadRequest)
		return
	}
	if payload.AlertThreshold == 0 {
		payload.AlertThreshold = 80
	}

	category, err := h.categories.GetByID(r.Context(), payload.CategoryID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		logger.L.Error("Failed to load category for budget", "categoryID", payload.CategoryID, "error", err)
		utils.SendJSONError(w, "Failed to validate category", http.StatusInternalServerError)
		return
	}
	if err != nil || !categoryVisible(category, id.UID) {
		utils.SendJSONError(w, "Category not found", http.StatusNotFound)
		return
	}
	if category.Type != models.CategoryTypeExpense {
		utils.SendJSONError(w, "Budgets can only be set on expense categories", http.StatusBadRequest)
		return
	}

	budget := models.Budget{
		ID:             uuid.New().String(),
		UserID:         id.UID,
		CategoryID:     category.ID,
		Amount:         payload.Amount,
		Period:         payload.Period,
		AlertThreshold: payload.AlertThreshold,
	}
	if err := h.budgets.Create(r.Context(), &budget); err != nil {
		logger.L.Error("Failed to create budget", "userID", id.UID, "error", err)
		utils.SendJSONError(w, "Failed to create budget", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, http.StatusCreated, budget)
}

func (h *BudgetHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIdentityFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	budgetID := r.PathValue("id")

	budget, err := h.budgets.GetByID(r.Context(), budgetID, id.UID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			utils.SendJSONError(w, "Budget not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to load budget", "budgetID", budgetID, "error", err)
		utils.SendJSONError(w, "Failed to load budget", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, http.StatusOK, budget)
}

func (h *BudgetHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIdentityFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	budgetID := r.PathValue("id")

	if _, err := h.budgets.GetByID(r.Context(), budgetID, id.UID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			utils.SendJSONError(w, "Budget not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to load budget", "budgetID", budgetID, "error", err)
		utils.SendJSONError(w, "Failed to load budget", http.StatusInternalServerError)
		return
	}

	var payload struct {
		Amount         *float64 `json:"amount"`
		Period         *string  `json:"period"`
		AlertThreshold *float64 `json:"alert_threshold"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	changes := map[string]interface{}{}
	if payload.Amount != nil {
		if *payload.Amount <= 0 {
			utils.SendJSONError(w, "Amount must be positive", http.StatusBadRequest)
			return
		}
		changes["amount"] = *payload.Amount
	}
	if payload.Period != nil {
		if !models.ValidBudgetPeriod(*payload.Period) {
			utils.SendJSONError(w, "Invalid period, must be 'monthly', 'weekly' or 'yearly'", http.StatusBadRequest)
			return
		}
		changes["period"] = *payload.Period
	}
	if payload.AlertThreshold != nil {
		if *payload.AlertThreshold < 0 || *payload.AlertThreshold > 100 {
			utils.SendJSONError(w, "alert_threshold must be between 0 and 100", http.StatusBadRequest)
			return
		}
		changes["alert_threshold"] = *payload.AlertThreshold
	}
	if len(changes) == 0 {
		utils.SendJSONError(w, "No fields to update", http.StatusBadRequest)
		return
	}

	if err := h.budgets.Update(r.Context(), budgetID, id.UID, changes); err != nil {
		logger.L.Error("Failed to update budget", "budgetID", budgetID, "error", err)
		utils.SendJSONError(w, "Failed to update budget", http.StatusInternalServerError)
		return
	}
	updated, err := h.budgets.GetByID(r.Context(), budgetID, id.UID)
	if err != nil {
		logger.L.Error("Failed to reload budget after update", "budgetID", budgetID, "error", err)
		utils.SendJSONError(w, "Failed to load budget", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, http.StatusOK, updated)
}

func (h *BudgetHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIdentityFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	budgetID := r.PathValue("id")

	if _, err := h.budgets.GetByID(r.Context(), budgetID, id.UID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			utils.SendJSONError(w, "Budget not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to load budget", "budgetID", budgetID, "error", err)
		utils.SendJSONError(w, "Failed to load budget", http.StatusInternalServerError)
		return
	}

	if err := h.budgets.Delete(r.Context(), budgetID, id.UID); err != nil {
		logger.L.Error("Failed to delete budget", "budgetID", budgetID, "error", err)
		utils.SendJSONError(w, "Failed to delete budget", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SummaryHandler reports current-period spend against every budget.
func (h *BudgetHandler) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIdentityFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	statuses, err := h.analysis.BudgetStatuses(r.Context(), id.UID)
	if err != nil {
		logger.L.Error("Failed to compute budget summary", "userID", id.UID, "error", err)
		utils.SendJSONError(w, "Failed to compute budget summary", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, http.StatusOK, map[string]interface{}{"budgets": statuses})
}
