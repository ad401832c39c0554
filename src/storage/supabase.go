package storage

import (
	"context"
	"fmt"

	"github.com/supabase-community/supabase-go"
)

// Document database tables.
const (
	tableUsers           = "users"
	tableCategories      = "categories"
	tableTransactions    = "transactions"
	tableBudgets         = "budgets"
	tableRecommendations = "recommendations"
)

// SupabaseClient wraps the managed document database connection and hands
// out the per-entity stores.
type SupabaseClient struct {
	client *supabase.Client
}

func NewSupabaseClient(url, key string) (*SupabaseClient, error) {
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create document database client: %w", err)
	}
	return &SupabaseClient{client: client}, nil
}

// Stores returns the full store bundle backed by this client.
func (c *SupabaseClient) Stores() Stores {
	return Stores{
		Users:           &supabaseUserStore{client: c.client},
		Categories:      &supabaseCategoryStore{client: c.client},
		Transactions:    &supabaseTransactionStore{client: c.client},
		Budgets:         &supabaseBudgetStore{client: c.client},
		Recommendations: &supabaseRecommendationStore{client: c.client},
	}
}

// Ping issues a minimal read against the categories table so the health
// endpoint can report document database reachability.
func (c *SupabaseClient) Ping(ctx context.Context) error {
	_, _, err := c.client.From(tableCategories).Select("id", "", false).Limit(1, "").Execute()
	if err != nil {
		return fmt.Errorf("document database unreachable: %w", err)
	}
	return nil
}
