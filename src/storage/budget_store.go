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

type supabaseBudgetStore struct {
	client *supabase.Client
}

func (s *supabaseBudgetStore) Create(ctx context.Context, budget *models.Budget) error {
	if budget.ID == "" {
		budget.ID = uuid.New().String()
	}
	if budget.CreatedAt.IsZero() {
		budget.CreatedAt = time.Now().UTC()
	}

	data, _, err := s.client.From(tableBudgets).Insert(budget, false, "", "", "").Execute()
	if err != nil {
		return fmt.Errorf("failed to create budget: %w", err)
	}

	var created []models.Budget
	if err := json.Unmarshal(data, &created); err != nil {
		return fmt.Errorf("failed to parse created budget: %w", err)
	}
	if len(created) > 0 {
		budget.ID = created[0].ID
		budget.CreatedAt = created[0].CreatedAt
	}
	return nil
}

func (s *supabaseBudgetStore) GetByID(ctx context.Context, id, userID string) (*models.Budget, error) {
	data, _, err := s.client.From(tableBudgets).
		Select("*", "", false).
		Eq("id", id).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get budget: %w", err)
	}

	var budgets []models.Budget
	if err := json.Unmarshal(data, &budgets); err != nil {
		return nil, fmt.Errorf("failed to parse budget: %w", err)
	}
	if len(budgets) == 0 {
		return nil, ErrNotFound
	}
	return &budgets[0], nil
}

func (s *supabaseBudgetStore) ListForUser(ctx context.Context, userID string) ([]models.Budget, error) {
	data, _, err := s.client.From(tableBudgets).
		Select("*", "", false).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}

	var budgets []models.Budget
	if err := json.Unmarshal(data, &budgets); err != nil {
		return nil, fmt.Errorf("failed to parse budgets: %w", err)
	}
	return budgets, nil
}

func (s *supabaseBudgetStore) Update(ctx context.Context, id, userID string, changes map[string]interface{}) error {
	_, _, err := s.client.From(tableBudgets).
		Update(changes, "", "").
		Eq("id", id).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update budget: %w", err)
	}
	return nil
}

func (s *supabaseBudgetStore) Delete(ctx context.Context, id, userID string) error {
	_, _, err := s.client.From(tableBudgets).
		Delete("", "").
		Eq("id", id).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete budget: %w", err)
	}
	return nil
}
