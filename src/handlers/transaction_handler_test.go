package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/optimoney/backend/src/models"
	"github.com/username/optimoney/backend/src/services"
)

func newTransactionHandler(env *testEnv) *TransactionHandler {
	handler := NewTransactionHandler(env.transactions, env.categories, env.users, env.analysis, newAlertService(env))
	// Synchronous dispatch keeps the in-memory stores single-threaded.
	handler.dispatchAlert = func(txn models.Transaction) {
		handler.alerts.EvaluateTransaction(context.Background(), txn)
	}
	return handler
}

func newAlertService(env *testEnv) *services.AlertService {
	return services.NewAlertService(env.users, env.budgets, env.categories, env.transactions, env.email)
}

func seedTransaction(t *testing.T, env *testEnv, id, userID, categoryID string, amount float64, isExpense bool, date time.Time) {
	t.Helper()
	err := env.transactions.Create(context.Background(), &models.Transaction{
		ID:         id,
		UserID:     userID,
		CategoryID: categoryID,
		Amount:     amount,
		Currency:   "CLP",
		IsExpense:  isExpense,
		Date:       date,
	})
	require.NoError(t, err)
}

func TestTransactionCreate(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("user-1", "user@example.com", "Test User")
	handler := newTransactionHandler(env)

	body := jsonBody(t, map[string]interface{}{
		"amount":      12500.0,
		"category_id": "alimentacion",
		"is_expense":  true,
		"description": "Supermercado",
		"date":        "2026-08-15",
	})
	req := authedRequest(http.MethodPost, "/api/transactions", body, testIdentity())
	rec := httptest.NewRecorder()
	handler.CreateHandler(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "user-1", created.UserID)
	assert.Equal(t, "alimentacion", created.CategoryID)
	assert.Equal(t, 12500.0, created.Amount)
	assert.Equal(t, "CLP", created.Currency)
	assert.Equal(t, 15, created.Date.Day())
}

func TestTransactionCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	handler := newTransactionHandler(env)

	cases := []struct {
		name    string
		payload map[string]interface{}
		status  int
	}{
		{"missing amount", map[string]interface{}{"category_id": "alimentacion", "is_expense": true}, http.StatusBadRequest},
		{"negative amount", map[string]interface{}{"amount": -5.0, "category_id": "alimentacion", "is_expense": true}, http.StatusBadRequest},
		{"missing category", map[string]interface{}{"amount": 10.0, "is_expense": true}, http.StatusBadRequest},
		{"missing is_expense", map[string]interface{}{"amount": 10.0, "category_id": "alimentacion"}, http.StatusBadRequest},
		{"unknown category", map[string]interface{}{"amount": 10.0, "category_id": "nope", "is_expense": true}, http.StatusNotFound},
		{"bad date", map[string]interface{}{"amount": 10.0, "category_id": "alimentacion", "is_expense": true, "date": "15/08/2026"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := authedRequest(http.MethodPost, "/api/transactions", jsonBody(t, tc.payload), testIdentity())
			rec := httptest.NewRecorder()
			handler.CreateHandler(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestTransactionCreateRejectsForeignCategory(t *testing.T) {
	env := newTestEnv(t)
	seedCustomCategory(t, env, "cat-other", "user-2", "Ajena", models.CategoryTypeExpense)
	handler := newTransactionHandler(env)

	body := jsonBody(t, map[string]interface{}{
		"amount":      10.0,
		"category_id": "cat-other",
		"is_expense":  true,
	})
	req := authedRequest(http.MethodPost, "/api/transactions", body, testIdentity())
	rec := httptest.NewRecorder()
	handler.CreateHandler(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransactionListFilters(t *testing.T) {
	env := newTestEnv(t)
	handler := newTransactionHandler(env)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		seedTransaction(t, env, fmt.Sprintf("txn-%d", i), "user-1", "alimentacion", 100, true, base.AddDate(0, 0, i))
	}
	seedTransaction(t, env, "txn-income", "user-1", "salario", 5000, false, base)
	seedTransaction(t, env, "txn-foreign", "user-2", "alimentacion", 999, true, base)

	t.Run("all", func(t *testing.T) {
		req := authedRequest(http.MethodGet, "/api/transactions", nil, testIdentity())
		rec := httptest.NewRecorder()
		handler.ListHandler(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var out []models.Transaction
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.Len(t, out, 6)
	})

	t.Run("by type", func(t *testing.T) {
		req := authedRequest(http.MethodGet, "/api/transactions?type=income", nil, testIdentity())
		rec := httptest.NewRecorder()
		handler.ListHandler(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var out []models.Transaction
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		require.Len(t, out, 1)
		assert.Equal(t, "txn-income", out[0].ID)
	})

	t.Run("by range", func(t *testing.T) {
		req := authedRequest(http.MethodGet, "/api/transactions?start_date=2026-08-03&end_date=2026-08-04", nil, testIdentity())
		rec := httptest.NewRecorder()
		handler.ListHandler(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var out []models.Transaction
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.Len(t, out, 2)
	})

	t.Run("end date covers its whole day", func(t *testing.T) {
		req := authedRequest(http.MethodGet, "/api/transactions?end_date=2026-08-01", nil, testIdentity())
		rec := httptest.NewRecorder()
		handler.ListHandler(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var out []models.Transaction
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		// txn-0 and txn-income both sit at noon on the end day.
		assert.Len(t, out, 2)
	})

	t.Run("with limit", func(t *testing.T) {
		req := authedRequest(http.MethodGet, "/api/transactions?limit=3", nil, testIdentity())
		rec := httptest.NewRecorder()
		handler.ListHandler(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var out []models.Transaction
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.Len(t, out, 3)
	})

	t.Run("bad limit", func(t *testing.T) {
		req := authedRequest(http.MethodGet, "/api/transactions?limit=zero", nil, testIdentity())
		rec := httptest.NewRecorder()
		handler.ListHandler(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTransactionGetScopedToOwner(t *testing.T) {
	env := newTestEnv(t)
	handler := newTransactionHandler(env)
	seedTransaction(t, env, "txn-foreign", "user-2", "alimentacion", 999, true, time.Now())

	req := authedRequest(http.MethodGet, "/api/transactions/txn-foreign", nil, testIdentity())
	req.SetPathValue("id", "txn-foreign")
	rec := httptest.NewRecorder()
	handler.GetHandler(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransactionUpdate(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("user-1", "user@example.com", "Test User")
	handler := newTransactionHandler(env)
	seedTransaction(t, env, "txn-1", "user-1", "alimentacion", 100, true, time.Now())

	body := jsonBody(t, map[string]interface{}{
		"amount":      250.0,
		"description": "Corregido",
	})
	req := authedRequest(http.MethodPut, "/api/transactions/txn-1", body, testIdentity())
	req.SetPathValue("id", "txn-1")
	rec := httptest.NewRecorder()
	handler.UpdateHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := env.transactions.GetByID(context.Background(), "txn-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 250.0, stored.Amount)
	assert.Equal(t, "Corregido", stored.Description)
}

func TestTransactionUpdateUnknownID(t *testing.T) {
	env := newTestEnv(t)
	handler := newTransactionHandler(env)

	body := jsonBody(t, map[string]interface{}{"amount": 250.0})
	req := authedRequest(http.MethodPut, "/api/transactions/ghost", body, testIdentity())
	req.SetPathValue("id", "ghost")
	rec := httptest.NewRecorder()
	handler.UpdateHandler(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransactionCreateTriggersBudgetAlert(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("user-1", "user@example.com", "Test User")
	seedBudget(t, env, "bud-1", "user-1", "alimentacion", 1000, models.PeriodMonthly)
	handler := newTransactionHandler(env)

	body := jsonBody(t, map[string]interface{}{
		"amount":      1200.0,
		"category_id": "alimentacion",
		"is_expense":  true,
	})
	req := authedRequest(http.MethodPost, "/api/transactions", body, testIdentity())
	rec := httptest.NewRecorder()
	handler.CreateHandler(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, env.email.sent, 1)
	assert.Equal(t, "budget_alert", env.email.sent[0].kind)
	assert.Equal(t, "user@example.com", env.email.sent[0].to)
}

func TestTransactionDelete(t *testing.T) {
	env := newTestEnv(t)
	handler := newTransactionHandler(env)
	seedTransaction(t, env, "txn-1", "user-1", "alimentacion", 100, true, time.Now())

	req := authedRequest(http.MethodDelete, "/api/transactions/txn-1", nil, testIdentity())
	req.SetPathValue("id", "txn-1")
	rec := httptest.NewRecorder()
	handler.DeleteHandler(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)

	_, err := env.transactions.GetByID(context.Background(), "txn-1", "user-1")
	assert.Error(t, err)
}
