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

type supabaseRecommendationStore struct {
	client *supabase.Client
}

func (s *supabaseRecommendationStore) Create(ctx context.Context, recommendation *models.Recommendation) error {
	if recommendation.ID == "" {
		recommendation.ID = uuid.New().String()
	}
	if recommendation.CreatedAt.IsZero() {
		recommendation.CreatedAt = time.Now().UTC()
	}

	data, _, err := s.client.From(tableRecommendations).Insert(recommendation, false, "", "", "").Execute()
	if err != nil {
		return fmt.Errorf("failed to create recommendation: %w", err)
	}

	var created []models.Recommendation
	if err := json.Unmarshal(data, &created); err != nil {
		return fmt.Errorf("failed to parse created recommendation: %w", err)
	}
	if len(created) > 0 {
		recommendation.ID = created[0].ID
		recommendation.CreatedAt = created[0].CreatedAt
	}
	return nil
}

func (s *supabaseRecommendationStore) GetByID(ctx context.Context, id, userID string) (*models.Recommendation, error) {
	data, _, err := s.client.From(tableRecommendations).
		Select("*", "", false).
		Eq("id", id).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get recommendation: %w", err)
	}

	var recommendations []models.Recommendation
	if err := json.Unmarshal(data, &recommendations); err != nil {
		return nil, fmt.Errorf("failed to parse recommendation: %w", err)
	}
	if len(recommendations) == 0 {
		return nil, ErrNotFound
	}
	return &recommendations[0], nil
}

func (s *supabaseRecommendationStore) ListForUser(ctx context.Context, userID string) ([]models.Recommendation, error) {
	data, _, err := s.client.From(tableRecommendations).
		Select("*", "", false).
		Eq("user_id", userID).
		Order("created_at.desc", nil).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}

	var recommendations []models.Recommendation
	if err := json.Unmarshal(data, &recommendations); err != nil {
		return nil, fmt.Errorf("failed to parse recommendations: %w", err)
	}
	return recommendations, nil
}

func (s *supabaseRecommendationStore) Update(ctx context.Context, id, userID string, changes map[string]interface{}) error {
	_, _, err := s.client.From(tableRecommendations).
		Update(changes, "", "").
		Eq("id", id).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update recommendation: %w", err)
	}
	return nil
}
