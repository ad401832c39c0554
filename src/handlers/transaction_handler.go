package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/username/optimoney/backend/src/config"
	"github.com/username/optimoney/backend/src/logger"
	"github.com/username/optimoney/backend/src/models"
	"github.com/username/optimoney/backend/src/security/validation"
	"github.com/username/optimoney/backend/src/services"
	"github.com/username/optimoney/backend/src/storage"
	"github.com/username/optimoney/backend/src/utils"
)

type TransactionHandler struct {
	transactions storage.TransactionStore
	categories   storage.CategoryStore
	users        storage.UserStore
	analysis     *services.AnalysisService
	alerts       *services.AlertService

	// dispatchAlert hands a transaction to budget alerting. Asynchronous in
	// production; tests swap in a synchronous call.
	dispatchAlert func(models.Transaction)
}

func NewTransactionHandler(transactions storage.TransactionStore, categories storage.CategoryStore, users storage.UserStore, analysis *services.AnalysisService, alerts *services.AlertService) *TransactionHandler {
	h := &TransactionHandler{
		transactions: transactions,
		categories:   categories,
		users:        users,
		analysis:     analysis,
		alerts:       alerts,
	}
	h.dispatchAlert = h.dispatchAlertAsync
	return h
}

type transactionPayload struct {
	Amount      *float64 `json:"amount"`
	CategoryID  *string  `json:"category_id"`
	IsExpense   *bool    `json:"is_expense"`
	Currency    *string  `json:"currency"`
	Description *string  `json:"description"`
	Date        *string  `json:"date"`
}

// dispatchAlertAsync runs budget alerting in the background. The request
// context cannot be used, it dies with the response.
func (h *TransactionHandler) dispatchAlertAsync(txn models.Transaction) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		h.alerts.EvaluateTransaction(ctx, txn)
	}()
}

func (h *TransactionHandler) evaluateAlerts(txn models.Transaction) {
	if h.alerts == nil || h.dispatchAlert == nil {
		return
	}
	h.dispatchAlert(txn)
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

// parseEndDate widens a day-granularity value to the end of that day so an
// end_date filter includes the day's transactions.
func parseEndDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, err
	}
	return t.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
}

func (h *TransactionHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIdentityFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var payload transactionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if payload.Amount == nil || payload.CategoryID == nil || payload.IsExpense == nil {
		utils.SendJSONError(w, "amount, category_id and is_expense are required", http.StatusBadRequest)
		return
	}
	if *payload.Amount <= 0 {
		utils.SendJSONError(w, "Amount must be positive", http.StatusBadRequest)
		return
	}

	category, err := h.categories.GetByID(r.Context(), *payload.CategoryID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		logger.L.Error("Failed to load category for transaction", "categoryID", *payload.CategoryID, "error", err)
		utils.SendJSONError(w, "Failed to validate category", http.StatusInternalServerError)
		return
	}
	if err != nil || !categoryVisible(category, id.UID) {
		utils.SendJSONError(w, "Category not found", http.StatusNotFound)
		return
	}

	txn := models.Transaction{
		ID:         uuid.New().String(),
		UserID:     id.UID,
		CategoryID: category.ID,
		Amount:     *payload.Amount,
		IsExpense:  *payload.IsExpense,
		Currency:   config.Cfg.DefaultCurrency,
		Date:       time.Now(),
	}
	if payload.Currency != nil && *payload.Currency != "" {
		txn.Currency = *payload.Currency
	}
	if payload.Description != nil {
		txn.Description = validation.SanitizeText(*payload.Description)
	}
	if payload.Date != nil && *payload.Date != "" {
		date, err := parseDate(*payload.Date)
		if err != nil {
			utils.SendJSONError(w, "Invalid date, use RFC3339 or YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		txn.Date = date
	}

	if err := h.transactions.Create(r.Context(), &txn); err != nil {
		logger.L.Error("Failed to create transaction", "userID", id.UID, "error", err)
		utils.SendJSONError(w, "Failed to create transaction", http.StatusInternalServerError)
		return
	}

	h.analysis.InvalidateUser(id.UID)
	h.evaluateAlerts(txn)

	utils.SendJSON(w, http.StatusCreated, txn)
}

func (h *TransactionHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIdentityFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	filter := storage.TransactionFilter{}
	query := r.URL.Query()
	if v := query.Get("start_date"); v != "" {
		start, err := parseDate(v)
		if err != nil {
			utils.SendJSONError(w, "Invalid start_date, use RFC3339 or YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		filter.StartDate = &start
	}
	if v := query.Get("end_date"); v != "" {
		end, err := parseEndDate(v)
		if err != nil {
			utils.SendJSONError(w, "Invalid end_date, use RFC3339 or YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		filter.EndDate = &end
	}
	if v := query.Get("type"); v != "" {
		if !models.ValidCategoryType(v) {
			utils.SendJSONError(w, "Invalid type, must be 'expense' or 'income'", http.StatusBadRequest)
			return
		}
		filter.Type = v
	}
	if v := query.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			utils.SendJSONError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		filter.Limit = limit
	}

	transactions, err := h.transactions.List(r.Context(), id.UID, filter)
	if err != nil {
		logger.L.Error("Failed to list transactions", "userID", id.UID, "error", err)
		utils.SendJSONError(w, "Failed to list transactions", http.StatusInternalServerError)
		return
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}
	utils.SendJSON(w, http.StatusOK, transactions)
}

func (h *TransactionHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIdentityFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	txn, err := h.transactions.GetByID(r.Context(), r.PathValue("id"), id.UID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			utils.SendJSONError(w, "Transaction not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to load transaction", "userID", id.UID, "error", err)
		utils.SendJSONError(w, "Failed to load transaction", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, http.StatusOK, txn)
}

func (h *TransactionHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIdentityFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	transactionID := r.PathValue("id")

	if _, err := h.transactions.GetByID(r.Context(), transactionID, id.UID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			utils.SendJSONError(w, "Transaction not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to load transaction", "userID", id.UID, "error", err)
		utils.SendJSONError(w, "Failed to load transaction", http.StatusInternalServerError)
		return
	}

	var payload transactionPayload
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
	if payload.CategoryID != nil {
		category, err := h.categories.GetByID(r.Context(), *payload.CategoryID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			logger.L.Error("Failed to load category for transaction update", "categoryID", *payload.CategoryID, "error", err)
			utils.SendJSONError(w, "Failed to validate category", http.StatusInternalServerError)
			return
		}
		if err != nil || !categoryVisible(category, id.UID) {
			utils.SendJSONError(w, "Category not found", http.StatusNotFound)
			return
		}
		changes["category_id"] = category.ID
	}
	if payload.IsExpense != nil {
		changes["is_expense"] = *payload.IsExpense
	}
	if payload.Currency != nil && *payload.Currency != "" {
		changes["currency"] = *payload.Currency
	}
	if payload.Description != nil {
		changes["description"] = validation.SanitizeText(*payload.Description)
	}
	if payload.Date != nil && *payload.Date != "" {
		date, err := parseDate(*payload.Date)
		if err != nil {
			utils.SendJSONError(w, "Invalid date, use RFC3339 or YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		changes["date"] = date.Format(time.RFC3339)
	}
	if len(changes) == 0 {
		utils.SendJSONError(w, "No fields to update", http.StatusBadRequest)
		return
	}

	if err := h.transactions.Update(r.Context(), transactionID, id.UID, changes); err != nil {
		logger.L.Error("Failed to update transaction", "userID", id.UID, "error", err)
		utils.SendJSONError(w, "Failed to update transaction", http.StatusInternalServerError)
		return
	}
	updated, err := h.transactions.GetByID(r.Context(), transactionID, id.UID)
	if err != nil {
		logger.L.Error("Failed to reload transaction after update", "userID", id.UID, "error", err)
		utils.SendJSONError(w, "Failed to load transaction", http.StatusInternalServerError)
		return
	}

	h.analysis.InvalidateUser(id.UID)
	h.evaluateAlerts(*updated)

	utils.SendJSON(w, http.StatusOK, updated)
}

func (h *TransactionHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIdentityFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	transactionID := r.PathValue("id")

	if _, err := h.transactions.GetByID(r.Context(), transactionID, id.UID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			utils.SendJSONError(w, "Transaction not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to load transaction", "userID", id.UID, "error", err)
		utils.SendJSONError(w, "Failed to load transaction", http.StatusInternalServerError)
		return
	}

	if err := h.transactions.Delete(r.Context(), transactionID, id.UID); err != nil {
		logger.L.Error("Failed to delete transaction", "userID", id.UID, "error", err)
		utils.SendJSONError(w, "Failed to delete transaction", http.StatusInternalServerError)
		return
	}

	h.analysis.InvalidateUser(id.UID)
	w.WriteHeader(http.StatusNoContent)
}
