package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/username/optimoney/backend/src/identity"
	"github.com/username/optimoney/backend/src/logger"
	"github.com/username/optimoney/backend/src/security"
	"github.com/username/optimoney/backend/src/storage"
	"github.com/username/optimoney/backend/src/utils"
)

// Context keys are an unexported type so other packages cannot collide.
type contextKey string

const identityContextKey contextKey = "identity"

// AuthMiddleware resolves the bearer token and attaches the caller's
// identity to the request context. Three token shapes are accepted, in
// order: a provider-issued access token, a locally signed JWT, and (outside
// production only) a dev_{uid} token.
type AuthMiddleware struct {
	provider identity.Provider
	tokens   *security.TokenService
	users    storage.UserStore
}

func NewAuthMiddleware(provider identity.Provider, tokens *security.TokenService, users storage.UserStore) *AuthMiddleware {
	return &AuthMiddleware{provider: provider, tokens: tokens, users: users}
}

func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			logger.L.Debug("AuthMiddleware: Authorization header missing", "path", r.URL.Path)
			utils.SendJSONError(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		tokenString := authHeader
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}
		if tokenString == "" {
			logger.L.Debug("AuthMiddleware: Token string empty", "path", r.URL.Path)
			utils.SendJSONError(w, "Malformed token", http.StatusUnauthorized)
			return
		}

		id, err := m.resolve(r.Context(), tokenString)
		if err != nil {
			logger.L.Warn("AuthMiddleware: Token validation failed", "path", r.URL.Path, "error", err)
			utils.SendJSONError(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), identityContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) resolve(ctx context.Context, tokenString string) (security.Identity, error) {
	// Dev tokens have a distinctive prefix; checking them first avoids a
	// round trip to the provider that is guaranteed to fail.
	if security.IsDevToken(tokenString) {
		id, err := m.tokens.ParseDevToken(tokenString)
		if err != nil {
			return security.Identity{}, err
		}
		// The uid must belong to a real profile; the stored email and name
		// replace the placeholders so downstream handlers see the real user.
		user, err := m.users.GetByID(ctx, id.UID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return security.Identity{}, fmt.Errorf("%w: unknown development user %q", security.ErrInvalidToken, id.UID)
			}
			return security.Identity{}, err
		}
		id.Email = user.Email
		id.Name = user.Name
		return id, nil
	}

	if id, err := m.provider.VerifyToken(ctx, tokenString); err == nil {
		return id, nil
	} else if !errors.Is(err, identity.ErrInvalidToken) {
		logger.L.Debug("AuthMiddleware: provider rejected token, trying local JWT", "error", err)
	}

	return m.tokens.ValidateToken(tokenString)
}

// GetIdentityFromContext retrieves the authenticated identity placed on the
// context by AuthMiddleware.
func GetIdentityFromContext(ctx context.Context) (security.Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(security.Identity)
	return id, ok
}

// ContextWithIdentity is used by tests to exercise handlers without going
// through the middleware.
func ContextWithIdentity(ctx context.Context, id security.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}
