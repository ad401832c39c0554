package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/supabase-go"

	"github.com/username/optimoney/backend/src/models"
)

type supabaseCategoryStore struct {
	client *supabase.Client
}

func (s *supabaseCategoryStore) Create(ctx context.Context, category *models.Category) error {
	if category.ID == "" {
		category.ID = uuid.New().String()
	}
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}

	data, _, err := s.client.From(tableCategories).Insert(category, false, "", "", "").Execute()
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}

	var created []models.Category
	if err := json.Unmarshal(data, &created); err != nil {
		return fmt.Errorf("failed to parse created category: %w", err)
	}
	if len(created) > 0 {
		category.ID = created[0].ID
		category.CreatedAt = created[0].CreatedAt
	}
	return nil
}

func (s *supabaseCategoryStore) GetByID(ctx context.Context, id string) (*models.Category, error) {
	data, _, err := s.client.From(tableCategories).
		Select("*", "", false).
		Eq("id", id).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	var categories []models.Category
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, fmt.Errorf("failed to parse category: %w", err)
	}
	if len(categories) == 0 {
		return nil, ErrNotFound
	}
	return &categories[0], nil
}

// ListVisible returns the system defaults followed by the user's own
// categories. Two reads: the document API has no cheap null-or-equals
// disjunction worth the filter-string coupling.
func (s *supabaseCategoryStore) ListVisible(ctx context.Context, userID string) ([]models.Category, error) {
	data, _, err := s.client.From(tableCategories).
		Select("*", "", false).
		Is("user_id", "null").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get default categories: %w", err)
	}
	var categories []models.Category
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, fmt.Errorf("failed to parse default categories: %w", err)
	}

	if userID != "" {
		data, _, err = s.client.From(tableCategories).
			Select("*", "", false).
			Eq("user_id", userID).
			Execute()
		if err != nil {
			return nil, fmt.Errorf("failed to get user categories: %w", err)
		}
		var owned []models.Category
		if err := json.Unmarshal(data, &owned); err != nil {
			return nil, fmt.Errorf("failed to parse user categories: %w", err)
		}
		categories = append(categories, owned...)
	}
	return categories, nil
}

func (s *supabaseCategoryStore) Update(ctx context.Context, id, userID string, changes map[string]interface{}) error {
	_, _, err := s.client.From(tableCategories).
		Update(changes, "", "").
		Eq("id", id).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return nil
}

func (s *supabaseCategoryStore) Delete(ctx context.Context, id, userID string) error {
	_, _, err := s.client.From(tableCategories).
		Delete("", "").
		Eq("id", id).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

// SeedDefaults upserts the predefined categories; their slug ids keep the
// operation idempotent.
func (s *supabaseCategoryStore) SeedDefaults(ctx context.Context) error {
	defaults := models.DefaultCategories()
	now := time.Now().UTC()
	for i := range defaults {
		defaults[i].CreatedAt = now
	}
	_, _, err := s.client.From(tableCategories).Insert(defaults, true, "", "", "").Execute()
	if err != nil {
		return fmt.Errorf("failed to seed default categories: %w", err)
	}
	return nil
}
