package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/supabase-go"

	"github.com/username/optimoney/backend/src/models"
)

type supabaseTransactionStore struct {
	client *supabase.Client
}

func (s *supabaseTransactionStore) Create(ctx context.Context, transaction *models.Transaction) error {
	if transaction.ID == "" {
		transaction.ID = uuid.New().String()
	}
	if transaction.CreatedAt.IsZero() {
		transaction.CreatedAt = time.Now().UTC()
	}

	data, _, err := s.client.From(tableTransactions).Insert(transaction, false, "", "", "").Execute()
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	var created []models.Transaction
	if err := json.Unmarshal(data, &created); err != nil {
		return fmt.Errorf("failed to parse created transaction: %w", err)
	}
	if len(created) > 0 {
		transaction.ID = created[0].ID
		transaction.CreatedAt = created[0].CreatedAt
	}
	return nil
}

func (s *supabaseTransactionStore) GetByID(ctx context.Context, id, userID string) (*models.Transaction, error) {
	data, _, err := s.client.From(tableTransactions).
		Select("*", "", false).
		Eq("id", id).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	var transactions []models.Transaction
	if err := json.Unmarshal(data, &transactions); err != nil {
		return nil, fmt.Errorf("failed to parse transaction: %w", err)
	}
	if len(transactions) == 0 {
		return nil, ErrNotFound
	}
	return &transactions[0], nil
}

func (s *supabaseTransactionStore) List(ctx context.Context, userID string, filter TransactionFilter) ([]models.Transaction, error) {
	query := s.client.From(tableTransactions).
		Select("*", "", false).
		Eq("user_id", userID)

	if filter.StartDate != nil {
		query = query.Gte("date", filter.StartDate.Format(time.RFC3339))
	}
	if filter.EndDate != nil {
		query = query.Lte("date", filter.EndDate.Format(time.RFC3339))
	}
	if filter.Type != "" {
		query = query.Eq("is_expense", strconv.FormatBool(filter.Type == models.CategoryTypeExpense))
	}

	query = query.Order("date.desc", nil)

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit, "")
	}

	data, _, err := query.Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	var transactions []models.Transaction
	if err := json.Unmarshal(data, &transactions); err != nil {
		return nil, fmt.Errorf("failed to parse transactions: %w", err)
	}
	return transactions, nil
}

func (s *supabaseTransactionStore) Update(ctx context.Context, id, userID string, changes map[string]interface{}) error {
	_, _, err := s.client.From(tableTransactions).
		Update(changes, "", "").
		Eq("id", id).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

func (s *supabaseTransactionStore) Delete(ctx context.Context, id, userID string) error {
	_, _, err := s.client.From(tableTransactions).
		Delete("", "").
		Eq("id", id).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}
