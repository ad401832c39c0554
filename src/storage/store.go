package storage

import (
	"context"
	"errors"
	"time"

	"github.com/username/optimoney/backend/src/models"
)

// ErrNotFound is returned when a referenced document does not exist, or is
// not visible to the requesting user.
var ErrNotFound = errors.New("document not found")

// TransactionFilter narrows transaction listings. Nil/zero fields are
// ignored. Type is "expense" or "income".
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Type      string
	Limit     int
}

type UserStore interface {
	// Create inserts the user document, or refreshes it when it already
	// exists (first provider login after an out-of-band registration).
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, id string, changes map[string]interface{}) error
}

type CategoryStore interface {
	Create(ctx context.Context, category *models.Category) error
	// GetByID returns any category regardless of owner; visibility is the
	// caller's concern since defaults are shared.
	GetByID(ctx context.Context, id string) (*models.Category, error)
	// ListVisible returns the system defaults plus the user's own categories.
	ListVisible(ctx context.Context, userID string) ([]models.Category, error)
	Update(ctx context.Context, id, userID string, changes map[string]interface{}) error
	Delete(ctx context.Context, id, userID string) error
	// SeedDefaults upserts the system-predefined categories.
	SeedDefaults(ctx context.Context) error
}

type TransactionStore interface {
	Create(ctx context.Context, transaction *models.Transaction) error
	GetByID(ctx context.Context, id, userID string) (*models.Transaction, error)
	List(ctx context.Context, userID string, filter TransactionFilter) ([]models.Transaction, error)
	Update(ctx context.Context, id, userID string, changes map[string]interface{}) error
	Delete(ctx context.Context, id, userID string) error
}

type BudgetStore interface {
	Create(ctx context.Context, budget *models.Budget) error
	GetByID(ctx context.Context, id, userID string) (*models.Budget, error)
	ListForUser(ctx context.Context, userID string) ([]models.Budget, error)
	Update(ctx context.Context, id, userID string, changes map[string]interface{}) error
	Delete(ctx context.Context, id, userID string) error
}

type RecommendationStore interface {
	Create(ctx context.Context, recommendation *models.Recommendation) error
	GetByID(ctx context.Context, id, userID string) (*models.Recommendation, error)
	ListForUser(ctx context.Context, userID string) ([]models.Recommendation, error)
	Update(ctx context.Context, id, userID string, changes map[string]interface{}) error
}

// Stores bundles every store for handler wiring.
type Stores struct {
	Users           UserStore
	Categories      CategoryStore
	Transactions    TransactionStore
	Budgets         BudgetStore
	Recommendations RecommendationStore
}
