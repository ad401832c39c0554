package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"

	"github.com/username/optimoney/backend/src/logger"
	"github.com/username/optimoney/backend/src/security"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid provider token")
)

// Session is a provider-issued login session.
type Session struct {
	Identity     security.Identity
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

// Provider is the external identity platform. Verification, credential
// storage and token signing all happen on the provider's side; this
// interface is the only seam the handlers see.
type Provider interface {
	Register(ctx context.Context, email, password, name string) (security.Identity, error)
	VerifyPassword(ctx context.Context, email, password string) (*Session, error)
	VerifyToken(ctx context.Context, token string) (security.Identity, error)
	UpdateDisplayName(ctx context.Context, uid, name string) error
	ChangePassword(ctx context.Context, email, currentPassword, newPassword string) error
}

// GoTrueProvider implements Provider against a Supabase GoTrue deployment.
type GoTrueProvider struct {
	client gotrue.Client
}

// NewGoTrueProvider builds a provider client. baseURL is the Supabase
// project URL; projectRef may be empty when baseURL is set.
func NewGoTrueProvider(projectRef, apiKey, baseURL string) *GoTrueProvider {
	client := gotrue.New(projectRef, apiKey)
	if baseURL != "" {
		client = client.WithCustomGoTrueURL(strings.TrimRight(baseURL, "/") + "/auth/v1")
	}
	return &GoTrueProvider{client: client}
}

func (p *GoTrueProvider) Register(ctx context.Context, email, password, name string) (security.Identity, error) {
	resp, err := p.client.Signup(types.SignupRequest{
		Email:    email,
		Password: password,
		Data:     map[string]interface{}{"name": name},
	})
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "already registered") {
			return security.Identity{}, ErrEmailTaken
		}
		return security.Identity{}, fmt.Errorf("provider signup failed: %w", err)
	}
	return security.Identity{
		UID:   resp.ID.String(),
		Email: email,
		Name:  name,
	}, nil
}

func (p *GoTrueProvider) VerifyPassword(ctx context.Context, email, password string) (*Session, error) {
	resp, err := p.client.SignInWithEmailPassword(email, password)
	if err != nil {
		logger.L.Debug("Provider password verification failed", "email", email, "error", err)
		return nil, ErrInvalidCredentials
	}
	return &Session{
		Identity: security.Identity{
			UID:   resp.User.ID.String(),
			Email: resp.User.Email,
			Name:  metadataName(resp.User.UserMetadata),
		},
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
	}, nil
}

func (p *GoTrueProvider) VerifyToken(ctx context.Context, token string) (security.Identity, error) {
	resp, err := p.client.WithToken(token).GetUser()
	if err != nil {
		return security.Identity{}, ErrInvalidToken
	}
	return security.Identity{
		UID:   resp.ID.String(),
		Email: resp.Email,
		Name:  metadataName(resp.UserMetadata),
	}, nil
}

// UpdateDisplayName propagates a profile name change to the provider.
// Non-provider uids (development accounts) are skipped silently.
func (p *GoTrueProvider) UpdateDisplayName(ctx context.Context, uid, name string) error {
	userID, err := uuid.Parse(uid)
	if err != nil {
		logger.L.Debug("Skipping provider name update for non-provider uid", "uid", uid)
		return nil
	}
	_, err = p.client.AdminUpdateUser(types.AdminUpdateUserRequest{
		UserID:       userID,
		UserMetadata: map[string]interface{}{"name": name},
	})
	if err != nil {
		return fmt.Errorf("provider display name update failed: %w", err)
	}
	return nil
}

// ChangePassword re-verifies the current password, then updates it using the
// short-lived session the verification produced.
func (p *GoTrueProvider) ChangePassword(ctx context.Context, email, currentPassword, newPassword string) error {
	session, err := p.VerifyPassword(ctx, email, currentPassword)
	if err != nil {
		return err
	}
	_, err = p.client.WithToken(session.AccessToken).UpdateUser(types.UpdateUserRequest{
		Password: &newPassword,
	})
	if err != nil {
		return fmt.Errorf("provider password update failed: %w", err)
	}
	return nil
}

func metadataName(metadata map[string]interface{}) string {
	if metadata == nil {
		return ""
	}
	if name, ok := metadata["name"].(string); ok {
		return name
	}
	return ""
}
