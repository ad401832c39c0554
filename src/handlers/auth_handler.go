package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/username/optimoney/backend/src/config"
	"github.com/username/optimoney/backend/src/identity"
	"github.com/username/optimoney/backend/src/logger"
	"github.com/username/optimoney/backend/src/models"
	"github.com/username/optimoney/backend/src/security"
	"github.com/username/optimoney/backend/src/security/validation"
	"github.com/username/optimoney/backend/src/services"
	"github.com/username/optimoney/backend/src/storage"
	"github.com/username/optimoney/backend/src/utils"
)

type AuthHandler struct {
	provider identity.Provider
	tokens   *security.TokenService
	users    storage.UserStore
	email    services.EmailService
}

func NewAuthHandler(provider identity.Provider, tokens *security.TokenService, users storage.UserStore, email services.EmailService) *AuthHandler {
	return &AuthHandler{
		provider: provider,
		tokens:   tokens,
		users:    users,
		email:    email,
	}
}

func defaultSettings() models.UserSettings {
	return models.UserSettings{
		Currency:             config.Cfg.DefaultCurrency,
		NotificationsEnabled: true,
	}
}

func (h *AuthHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	payload.Email = strings.TrimSpace(strings.ToLower(payload.Email))
	payload.Name = validation.SanitizeText(payload.Name)
	if !validation.IsLikelyEmail(payload.Email) {
		utils.SendJSONError(w, "A valid email is required", http.StatusBadRequest)
		return
	}
	if len(payload.Password) < 6 {
		utils.SendJSONError(w, "Password must be at least 6 characters", http.StatusBadRequest)
		return
	}

	id, err := h.provider.Register(r.Context(), payload.Email, payload.Password, payload.Name)
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			utils.SendJSONError(w, "Email is already registered", http.StatusConflict)
			return
		}
		logger.L.Error("Registration failed", "email", payload.Email, "error", err)
		utils.SendJSONError(w, "Failed to register user", http.StatusInternalServerError)
		return
	}

	user := models.User{
		ID:       id.UID,
		Email:    id.Email,
		Name:     payload.Name,
		Settings: defaultSettings(),
	}
	if err := h.users.Create(r.Context(), &user); err != nil {
		logger.L.Error("Failed to persist user profile after registration", "userID", id.UID, "error", err)
		utils.SendJSONError(w, "Failed to create user profile", http.StatusInternalServerError)
		return
	}

	if err := h.email.SendWelcomeEmail(user.Email, user.Name); err != nil {
		logger.L.Warn("Failed to send welcome email", "userID", user.ID, "error", err)
	}

	token, expiresAt, err := h.tokens.GenerateToken(id)
	if err != nil {
		logger.L.Error("Failed to issue session token after registration", "userID", id.UID, "error", err)
		utils.SendJSONError(w, "Failed to issue session token", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, http.StatusCreated, map[string]interface{}{
		"message":          "User registered successfully",
		"user":             user,
		"token":            token,
		"token_expires_at": expiresAt,
	})
}

func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if credentials.Email == "" || credentials.Password == "" {
		utils.SendJSONError(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	session, err := h.provider.VerifyPassword(r.Context(), strings.TrimSpace(strings.ToLower(credentials.Email)), credentials.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			utils.SendJSONError(w, "Invalid email or password", http.StatusUnauthorized)
			return
		}
		logger.L.Error("Login failed", "email", credentials.Email, "error", err)
		utils.SendJSONError(w, "Login failed", http.StatusInternalServerError)
		return
	}

	user, err := h.ensureUserDoc(r, session.Identity)
	if err != nil {
		logger.L.Error("Failed to load user profile on login", "userID", session.Identity.UID, "error", err)
		utils.SendJSONError(w, "Failed to load user profile", http.StatusInternalServerError)
		return
	}

	// The session token is signed locally so the service can verify callers
	// without a provider round trip on every request.
	token, expiresAt, err := h.tokens.GenerateToken(session.Identity)
	if err != nil {
		logger.L.Error("Failed to issue session token on login", "userID", session.Identity.UID, "error", err)
		utils.SendJSONError(w, "Failed to issue session token", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, http.StatusOK, map[string]interface{}{
		"access_token":     session.AccessToken,
		"refresh_token":    session.RefreshToken,
		"expires_in":       session.ExpiresIn,
		"token":            token,
		"token_expires_at": expiresAt,
		"user":             user,
	})
}

// ensureUserDoc creates the profile document on first login. Accounts can
// predate the profile store, e.g. when created directly in the provider.
func (h *AuthHandler) ensureUserDoc(r *http.Request, id security.Identity) (*models.User, error) {
	user, err := h.users.GetByID(r.Context(), id.UID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	created := models.User{
		ID:       id.UID,
		Email:    id.Email,
		Name:     id.Name,
		Settings: defaultSettings(),
	}
	if err := h.users.Create(r.Context(), &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (h *AuthHandler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIdentityFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	user, err := h.ensureUserDoc(r, id)
	if err != nil {
		logger.L.Error("Failed to load profile", "userID", id.UID, "error", err)
		utils.SendJSONError(w, "Failed to load profile", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIdentityFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var payload struct {
		Name     *string `json:"name"`
		Settings *struct {
			Currency             *string `json:"currency"`
			NotificationsEnabled *bool   `json:"notificationsEnabled"`
		} `json:"settings"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.ensureUserDoc(r, id)
	if err != nil {
		logger.L.Error("Failed to load profile for update", "userID", id.UID, "error", err)
		utils.SendJSONError(w, "Failed to load profile", http.StatusInternalServerError)
		return
	}

	changes := map[string]interface{}{
		"updated_at": time.Now().Format(time.RFC3339),
	}
	if payload.Name != nil {
		name := validation.SanitizeText(*payload.Name)
		if name == "" {
			utils.SendJSONError(w, "Name cannot be empty", http.StatusBadRequest)
			return
		}
		changes["name"] = name
		if err := h.provider.UpdateDisplayName(r.Context(), id.UID, name); err != nil {
			logger.L.Warn("Failed to propagate display name to identity provider", "userID", id.UID, "error", err)
		}
	}
	if payload.Settings != nil {
		settings := user.Settings
		if payload.Settings.Currency != nil {
			currency := strings.ToUpper(strings.TrimSpace(*payload.Settings.Currency))
			if len(currency) != 3 {
				utils.SendJSONError(w, "Currency must be a 3-letter code", http.StatusBadRequest)
				return
			}
			settings.Currency = currency
		}
		if payload.Settings.NotificationsEnabled != nil {
			settings.NotificationsEnabled = *payload.Settings.NotificationsEnabled
		}
		changes["settings"] = settings
	}

	if err := h.users.Update(r.Context(), id.UID, changes); err != nil {
		logger.L.Error("Failed to update profile", "userID", id.UID, "error", err)
		utils.SendJSONError(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}
	updated, err := h.users.GetByID(r.Context(), id.UID)
	if err != nil {
		logger.L.Error("Failed to reload profile after update", "userID", id.UID, "error", err)
		utils.SendJSONError(w, "Failed to load profile", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, http.StatusOK, updated)
}

func (h *AuthHandler) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIdentityFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var payload struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if payload.CurrentPassword == "" || payload.NewPassword == "" {
		utils.SendJSONError(w, "Current and new password are required", http.StatusBadRequest)
		return
	}
	if len(payload.NewPassword) < 6 {
		utils.SendJSONError(w, "New password must be at least 6 characters", http.StatusBadRequest)
		return
	}

	if err := h.provider.ChangePassword(r.Context(), id.Email, payload.CurrentPassword, payload.NewPassword); err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			utils.SendJSONError(w, "Current password is incorrect", http.StatusUnauthorized)
			return
		}
		logger.L.Error("Password change failed", "userID", id.UID, "error", err)
		utils.SendJSONError(w, "Failed to change password", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

// VerifyHandler confirms the bearer token resolves to a known identity. The
// middleware has already done the work; this just echoes the result.
func (h *AuthHandler) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIdentityFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	utils.SendJSON(w, http.StatusOK, map[string]interface{}{
		"valid": true,
		"user": map[string]string{
			"id":    id.UID,
			"email": id.Email,
			"name":  id.Name,
		},
	})
}
