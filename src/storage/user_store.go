package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/supabase-community/supabase-go"

	"github.com/username/optimoney/backend/src/models"
)

type supabaseUserStore struct {
	client *supabase.Client
}

func (s *supabaseUserStore) Create(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.UpdatedAt = user.CreatedAt

	data, _, err := s.client.From(tableUsers).Insert(user, true, "", "", "").Execute()
	if err != nil {
		return fmt.Errorf("failed to create user document: %w", err)
	}

	var created []models.User
	if err := json.Unmarshal(data, &created); err != nil {
		return fmt.Errorf("failed to parse created user: %w", err)
	}
	if len(created) > 0 {
		user.CreatedAt = created[0].CreatedAt
	}
	return nil
}

func (s *supabaseUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	data, _, err := s.client.From(tableUsers).
		Select("*", "", false).
		Eq("id", id).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var users []models.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("failed to parse user: %w", err)
	}
	if len(users) == 0 {
		return nil, ErrNotFound
	}
	return &users[0], nil
}

func (s *supabaseUserStore) Update(ctx context.Context, id string, changes map[string]interface{}) error {
	changes["updated_at"] = time.Now().UTC()
	_, _, err := s.client.From(tableUsers).
		Update(changes, "", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}
