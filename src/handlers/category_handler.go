package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/username/optimoney/backend/src/logger"
	"github.com/username/optimoney/backend/src/models"
	"github.com/username/optimoney/backend/src/security/validation"
	"github.com/username/optimoney/backend/src/storage"
	"github.com/username/optimoney/backend/src/utils"
)

type CategoryHandler struct {
	categories storage.CategoryStore
}

func NewCategoryHandler(categories storage.CategoryStore) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

func (h *CategoryHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIdentityFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	typeFilter := r.URL.Query().Get("type")
	if typeFilter != "" && !models.ValidCategoryType(typeFilter) {
		utils.SendJSONError(w, "Invalid category type, must be 'expense' or 'income'", http.StatusBadRequest)
		return
	}

	categories, err := h.categories.ListVisible(r.Context(), id.UID)
	if err != nil {
		logger.L.Error("Failed to list categories", "userID", id.UID, "error", err)
		utils.SendJSONError(w, "Failed to list categories", http.StatusInternalServerError)
		return
	}

	if typeFilter != "" {
		filtered := categories[:0]
		for _, c := range categories {
			if c.Type == typeFilter {
				filtered = append(filtered, c)
			}
		}
		categories = filtered
	}
	if categories == nil {
		categories = []models.Category{}
	}
	utils.SendJSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIdentityFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var payload struct {
		Name  string `json:"name"`
		Type  string `json:"type"`
		Icon  string `json:"icon"`
		Color string `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	payload.Name = validation.SanitizeText(payload.Name)
	if payload.Name == "" {
		utils.SendJSONError(w, "Category name is required", http.StatusBadRequest)
		return
	}
	if !models.ValidCategoryType(payload.Type) {
		utils.SendJSONError(w, "Invalid category type, must be 'expense' or 'income'", http.StatusBadRequest)
		return
	}

	userID := id.UID
	category := models.Category{
		ID:     uuid.New().String(),
		UserID: &userID,
		Name:   payload.Name,
		Type:   payload.Type,
		Icon:   payload.Icon,
		Color:  payload.Color,
	}
	if err := h.categories.Create(r.Context(), &category); err != nil {
		logger.L.Error("Failed to create category", "userID", id.UID, "error", err)
		utils.SendJSONError(w, "Failed to create category", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, http.StatusCreated, category)
}

func (h *CategoryHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIdentityFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	categoryID := r.PathValue("id")

	category, err := h.categories.GetByID(r.Context(), categoryID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			utils.SendJSONError(w, "Category not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to load category", "categoryID", categoryID, "error", err)
		utils.SendJSONError(w, "Failed to load category", http.StatusInternalServerError)
		return
	}
	// Predefined categories are shared and read only; another user's
	// category is invisible, so both cases report not found.
	if category.IsPredefined() || *category.UserID != id.UID {
		utils.SendJSONError(w, "Category not found", http.StatusNotFound)
		return
	}

	var payload struct {
		Name  *string `json:"name"`
		Type  *string `json:"type"`
		Icon  *string `json:"icon"`
		Color *string `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if payload.Type != nil && *payload.Type != category.Type {
		utils.SendJSONError(w, "Category type cannot be changed", http.StatusBadRequest)
		return
	}

	changes := map[string]interface{}{}
	if payload.Name != nil {
		name := validation.SanitizeText(*payload.Name)
		if name == "" {
			utils.SendJSONError(w, "Category name cannot be empty", http.StatusBadRequest)
			return
		}
		changes["name"] = name
	}
	if payload.Icon != nil {
		changes["icon"] = *payload.Icon
	}
	if payload.Color != nil {
		changes["color"] = *payload.Color
	}
	if len(changes) == 0 {
		utils.SendJSON(w, http.StatusOK, category)
		return
	}

	if err := h.categories.Update(r.Context(), categoryID, id.UID, changes); err != nil {
		logger.L.Error("Failed to update category", "categoryID", categoryID, "error", err)
		utils.SendJSONError(w, "Failed to update category", http.StatusInternalServerError)
		return
	}
	updated, err := h.categories.GetByID(r.Context(), categoryID)
	if err != nil {
		logger.L.Error("Failed to reload category after update", "categoryID", categoryID, "error", err)
		utils.SendJSONError(w, "Failed to load category", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, http.StatusOK, updated)
}

func (h *CategoryHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIdentityFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	categoryID := r.PathValue("id")

	category, err := h.categories.GetByID(r.Context(), categoryID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			utils.SendJSONError(w, "Category not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to load category", "categoryID", categoryID, "error", err)
		utils.SendJSONError(w, "Failed to load category", http.StatusInternalServerError)
		return
	}
	if category.IsPredefined() || *category.UserID != id.UID {
		utils.SendJSONError(w, "Category not found", http.StatusNotFound)
		return
	}

	if err := h.categories.Delete(r.Context(), categoryID, id.UID); err != nil {
		logger.L.Error("Failed to delete category", "categoryID", categoryID, "error", err)
		utils.SendJSONError(w, "Failed to delete category", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// InitializeDefaultsHandler seeds the shared predefined categories. The
// slug IDs make the operation idempotent; calling it twice changes nothing.
func (h *CategoryHandler) InitializeDefaultsHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := GetIdentityFromContext(r.Context()); !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	if err := h.categories.SeedDefaults(r.Context()); err != nil {
		logger.L.Error("Failed to seed default categories", "error", err)
		utils.SendJSONError(w, "Failed to initialize default categories", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, http.StatusOK, map[string]interface{}{
		"message":    "Default categories initialized",
		"categories": models.DefaultCategories(),
	})
}

// categoryVisible reports whether the category exists and is usable by the
// user. Shared by the transaction and budget handlers.
func categoryVisible(category *models.Category, userID string) bool {
	if category == nil {
		return false
	}
	return category.IsPredefined() || *category.UserID == userID
}
