package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/username/optimoney/backend/src/logger"
	"github.com/username/optimoney/backend/src/models"
	"github.com/username/optimoney/backend/src/services"
	"github.com/username/optimoney/backend/src/storage"
	"github.com/username/optimoney/backend/src/utils"
)

type RecommendationHandler struct {
	recommendations *services.RecommendationService
}

func NewRecommendationHandler(recommendations *services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{recommendations: recommendations}
}

func (h *RecommendationHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIdentityFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	status := r.URL.Query().Get("status")
	if status != "" && status != models.RecommendationPending && status != models.RecommendationShown {
		utils.SendJSONError(w, "Invalid status, must be 'pending' or 'shown'", http.StatusBadRequest)
		return
	}

	recommendations, err := h.recommendations.List(r.Context(), id.UID, status)
	if err != nil {
		logger.L.Error("Failed to list recommendations", "userID", id.UID, "error", err)
		utils.SendJSONError(w, "Failed to list recommendations", http.StatusInternalServerError)
		return
	}
	if recommendations == nil {
		recommendations = []models.Recommendation{}
	}
	utils.SendJSON(w, http.StatusOK, recommendations)
}

func (h *RecommendationHandler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIdentityFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	created, err := h.recommendations.Generate(r.Context(), id.UID)
	if err != nil {
		logger.L.Error("Failed to generate recommendations", "userID", id.UID, "error", err)
		utils.SendJSONError(w, "Failed to generate recommendations", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, http.StatusCreated, map[string]interface{}{
		"created":         len(created),
		"recommendations": created,
	})
}

func (h *RecommendationHandler) MarkShownHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIdentityFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	updated, err := h.recommendations.MarkShown(r.Context(), id.UID, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			utils.SendJSONError(w, "Recommendation not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to mark recommendation shown", "userID", id.UID, "error", err)
		utils.SendJSONError(w, "Failed to update recommendation", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, http.StatusOK, updated)
}

func (h *RecommendationHandler) InteractionHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIdentityFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var payload struct {
		Interaction string `json:"interaction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := h.recommendations.RecordInteraction(r.Context(), id.UID, r.PathValue("id"), payload.Interaction)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			utils.SendJSONError(w, "Recommendation not found", http.StatusNotFound)
			return
		}
		if errors.Is(err, services.ErrInvalidInteraction) {
			utils.SendJSONError(w, "Invalid interaction, must be 'accepted' or 'dismissed'", http.StatusBadRequest)
			return
		}
		logger.L.Error("Failed to record recommendation interaction", "userID", id.UID, "error", err)
		utils.SendJSONError(w, "Failed to update recommendation", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, http.StatusOK, updated)
}
