package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/username/optimoney/backend/src/logger"
	"github.com/username/optimoney/backend/src/services"
	"github.com/username/optimoney/backend/src/storage"
	"github.com/username/optimoney/backend/src/utils"
)

type AnalysisHandler struct {
	analysis *services.AnalysisService
}

func NewAnalysisHandler(analysis *services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysis: analysis}
}

func (h *AnalysisHandler) OverviewHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIdentityFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	overview, err := h.analysis.Overview(r.Context(), id.UID)
	if err != nil {
		logger.L.Error("Failed to build overview", "userID", id.UID, "error", err)
		utils.SendJSONError(w, "Failed to build overview", http.StatusInternalServerError)
		return
	}

	etag, err := utils.GenerateETag(overview)
	if err != nil {
		logger.L.Warn("Failed to generate ETag for overview", "userID", id.UID, "error", err)
	} else {
		w.Header().Set("ETag", etag)
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	utils.SendJSON(w, http.StatusOK, overview)
}

func (h *AnalysisHandler) ExpensesHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIdentityFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	// Defaults to the current month when no range is given.
	now := time.Now()
	start := utils.StartOfMonth(now)
	end := utils.EndOfMonth(now)
	if v := r.URL.Query().Get("start_date"); v != "" {
		parsed, err := parseDate(v)
		if err != nil {
			utils.SendJSONError(w, "Invalid start_date, use RFC3339 or YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		start = parsed
	}
	if v := r.URL.Query().Get("end_date"); v != "" {
		parsed, err := parseEndDate(v)
		if err != nil {
			utils.SendJSONError(w, "Invalid end_date, use RFC3339 or YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		end = parsed
	}
	if end.Before(start) {
		utils.SendJSONError(w, "end_date must not precede start_date", http.StatusBadRequest)
		return
	}

	report, err := h.analysis.Expenses(r.Context(), id.UID, start, end)
	if err != nil {
		logger.L.Error("Failed to build expense report", "userID", id.UID, "error", err)
		utils.SendJSONError(w, "Failed to build expense report", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, http.StatusOK, report)
}

func (h *AnalysisHandler) RatioHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIdentityFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	months := 0
	if v := r.URL.Query().Get("months"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 || parsed > 36 {
			utils.SendJSONError(w, "months must be between 1 and 36", http.StatusBadRequest)
			return
		}
		months = parsed
	}

	report, err := h.analysis.IncomeExpenseRatio(r.Context(), id.UID, months)
	if err != nil {
		logger.L.Error("Failed to build ratio report", "userID", id.UID, "error", err)
		utils.SendJSONError(w, "Failed to build ratio report", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, http.StatusOK, report)
}

func (h *AnalysisHandler) SavingsPotentialHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIdentityFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	potential, err := h.analysis.SavingsPotential(r.Context(), id.UID)
	if err != nil {
		logger.L.Error("Failed to analyze savings potential", "userID", id.UID, "error", err)
		utils.SendJSONError(w, "Failed to analyze savings potential", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, http.StatusOK, potential)
}

func (h *AnalysisHandler) CategoryTrendsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIdentityFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	months := 0
	if v := r.URL.Query().Get("months"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 || parsed > 36 {
			utils.SendJSONError(w, "months must be between 1 and 36", http.StatusBadRequest)
			return
		}
		months = parsed
	}

	trend, err := h.analysis.CategoryTrends(r.Context(), id.UID, r.PathValue("id"), months)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			utils.SendJSONError(w, "Category not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to build category trends", "userID", id.UID, "error", err)
		utils.SendJSONError(w, "Failed to build category trends", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, http.StatusOK, trend)
}
