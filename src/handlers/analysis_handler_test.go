package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverviewHandler(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	env.analysis.Now = func() time.Time { return now }

	seedTransaction(t, env, "txn-1", "user-1", "salario", 1000000, false, now.AddDate(0, 0, -1))
	seedTransaction(t, env, "txn-2", "user-1", "alimentacion", 300000, true, now.AddDate(0, 0, -2))
	seedTransaction(t, env, "txn-3", "user-1", "alimentacion", 200000, true, now.AddDate(0, -1, 0))

	handler := NewAnalysisHandler(env.analysis)
	req := authedRequest(http.MethodGet, "/api/analysis/overview", nil, testIdentity())
	rec := httptest.NewRecorder()
	handler.OverviewHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Totals struct {
			TotalIncome   float64 `json:"total_income"`
			TotalExpenses float64 `json:"total_expenses"`
			Balance       float64 `json:"balance"`
		} `json:"totals"`
		CurrentMonth struct {
			Expenses float64 `json:"expenses"`
		} `json:"current_month"`
		MonthlyTrends []struct {
			Month string `json:"month"`
		} `json:"monthly_trends"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1000000.0, resp.Totals.TotalIncome)
	assert.Equal(t, 500000.0, resp.Totals.TotalExpenses)
	assert.Equal(t, 500000.0, resp.Totals.Balance)
	assert.Equal(t, 300000.0, resp.CurrentMonth.Expenses)
	require.Len(t, resp.MonthlyTrends, 6)
	assert.Equal(t, "2026-03", resp.MonthlyTrends[0].Month)
	assert.Equal(t, "2026-08", resp.MonthlyTrends[5].Month)
}

func TestOverviewHandlerHonorsETag(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	env.analysis.Now = func() time.Time { return now }
	seedTransaction(t, env, "txn-1", "user-1", "alimentacion", 300000, true, now.AddDate(0, 0, -1))
	handler := NewAnalysisHandler(env.analysis)

	req := authedRequest(http.MethodGet, "/api/analysis/overview", nil, testIdentity())
	rec := httptest.NewRecorder()
	handler.OverviewHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	// A matching If-None-Match skips the body.
	req = authedRequest(http.MethodGet, "/api/analysis/overview", nil, testIdentity())
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	handler.OverviewHandler(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestExpensesHandlerRejectsInvertedRange(t *testing.T) {
	env := newTestEnv(t)
	handler := NewAnalysisHandler(env.analysis)

	req := authedRequest(http.MethodGet, "/api/analysis/expenses?start_date=2026-08-10&end_date=2026-08-01", nil, testIdentity())
	rec := httptest.NewRecorder()
	handler.ExpensesHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExpensesHandlerGroupsByCategory(t *testing.T) {
	env := newTestEnv(t)
	base := time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC)
	seedTransaction(t, env, "txn-1", "user-1", "alimentacion", 600, true, base)
	seedTransaction(t, env, "txn-2", "user-1", "transporte", 400, true, base)
	handler := NewAnalysisHandler(env.analysis)

	req := authedRequest(http.MethodGet, "/api/analysis/expenses?start_date=2026-08-01&end_date=2026-08-31", nil, testIdentity())
	rec := httptest.NewRecorder()
	handler.ExpensesHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Total      float64 `json:"total"`
		Categories []struct {
			CategoryID string  `json:"category_id"`
			Amount     float64 `json:"amount"`
			Percentage float64 `json:"percentage"`
		} `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1000.0, resp.Total)
	require.Len(t, resp.Categories, 2)
	// Sorted by amount, largest first.
	assert.Equal(t, "alimentacion", resp.Categories[0].CategoryID)
	assert.Equal(t, 60.0, resp.Categories[0].Percentage)
}

func TestRatioHandlerValidatesMonths(t *testing.T) {
	env := newTestEnv(t)
	handler := NewAnalysisHandler(env.analysis)

	req := authedRequest(http.MethodGet, "/api/analysis/income-expense-ratio?months=120", nil, testIdentity())
	rec := httptest.NewRecorder()
	handler.RatioHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCategoryTrendsHandlerUnknownCategory(t *testing.T) {
	env := newTestEnv(t)
	handler := NewAnalysisHandler(env.analysis)

	req := authedRequest(http.MethodGet, "/api/analysis/category-trends/ghost", nil, testIdentity())
	req.SetPathValue("id", "ghost")
	rec := httptest.NewRecorder()
	handler.CategoryTrendsHandler(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
