package services

import (
	"context"
	"sort"
	"time"

	"github.com/username/optimoney/backend/src/models"
	"github.com/username/optimoney/backend/src/storage"
)

type stubTransactionStore struct {
	transactions []models.Transaction
	listCalls    int
}

func (s *stubTransactionStore) Create(ctx context.Context, transaction *models.Transaction) error {
	s.transactions = append(s.transactions, *transaction)
	return nil
}

func (s *stubTransactionStore) GetByID(ctx context.Context, id, userID string) (*models.Transaction, error) {
	for _, t := range s.transactions {
		if t.ID == id && t.UserID == userID {
			return &t, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *stubTransactionStore) List(ctx context.Context, userID string, filter storage.TransactionFilter) ([]models.Transaction, error) {
	s.listCalls++
	var out []models.Transaction
	for _, t := range s.transactions {
		if t.UserID != userID {
			continue
		}
		if filter.StartDate != nil && t.Date.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && t.Date.After(*filter.EndDate) {
			continue
		}
		if filter.Type == models.CategoryTypeExpense && !t.IsExpense {
			continue
		}
		if filter.Type == models.CategoryTypeIncome && t.IsExpense {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *stubTransactionStore) Update(ctx context.Context, id, userID string, changes map[string]interface{}) error {
	return nil
}

func (s *stubTransactionStore) Delete(ctx context.Context, id, userID string) error {
	return nil
}

type stubCategoryStore struct {
	categories []models.Category
}

func newStubCategoryStore() *stubCategoryStore {
	return &stubCategoryStore{categories: models.DefaultCategories()}
}

func (s *stubCategoryStore) Create(ctx context.Context, category *models.Category) error {
	s.categories = append(s.categories, *category)
	return nil
}

func (s *stubCategoryStore) GetByID(ctx context.Context, id string) (*models.Category, error) {
	for _, c := range s.categories {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *stubCategoryStore) ListVisible(ctx context.Context, userID string) ([]models.Category, error) {
	var out []models.Category
	for _, c := range s.categories {
		if c.IsPredefined() || *c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubCategoryStore) Update(ctx context.Context, id, userID string, changes map[string]interface{}) error {
	return nil
}

func (s *stubCategoryStore) Delete(ctx context.Context, id, userID string) error {
	return nil
}

func (s *stubCategoryStore) SeedDefaults(ctx context.Context) error {
	return nil
}

type stubBudgetStore struct {
	budgets []models.Budget
}

func (s *stubBudgetStore) Create(ctx context.Context, budget *models.Budget) error {
	s.budgets = append(s.budgets, *budget)
	return nil
}

func (s *stubBudgetStore) GetByID(ctx context.Context, id, userID string) (*models.Budget, error) {
	for _, b := range s.budgets {
		if b.ID == id && b.UserID == userID {
			return &b, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *stubBudgetStore) ListForUser(ctx context.Context, userID string) ([]models.Budget, error) {
	var out []models.Budget
	for _, b := range s.budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *stubBudgetStore) Update(ctx context.Context, id, userID string, changes map[string]interface{}) error {
	return nil
}

func (s *stubBudgetStore) Delete(ctx context.Context, id, userID string) error {
	return nil
}

type stubUserStore struct {
	users map[string]models.User
}

func (s *stubUserStore) Create(ctx context.Context, user *models.User) error {
	s.users[user.ID] = *user
	return nil
}

func (s *stubUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &user, nil
}

func (s *stubUserStore) Update(ctx context.Context, id string, changes map[string]interface{}) error {
	return nil
}

type stubRecommendationStore struct {
	recommendations map[string]models.Recommendation
}

func newStubRecommendationStore() *stubRecommendationStore {
	return &stubRecommendationStore{recommendations: map[string]models.Recommendation{}}
}

func (s *stubRecommendationStore) Create(ctx context.Context, recommendation *models.Recommendation) error {
	s.recommendations[recommendation.ID] = *recommendation
	return nil
}

func (s *stubRecommendationStore) GetByID(ctx context.Context, id, userID string) (*models.Recommendation, error) {
	recommendation, ok := s.recommendations[id]
	if !ok || recommendation.UserID != userID {
		return nil, storage.ErrNotFound
	}
	return &recommendation, nil
}

func (s *stubRecommendationStore) ListForUser(ctx context.Context, userID string) ([]models.Recommendation, error) {
	var out []models.Recommendation
	for _, r := range s.recommendations {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubRecommendationStore) Update(ctx context.Context, id, userID string, changes map[string]interface{}) error {
	recommendation, ok := s.recommendations[id]
	if !ok || recommendation.UserID != userID {
		return storage.ErrNotFound
	}
	if v, ok := changes["status"].(string); ok {
		recommendation.Status = v
	}
	if v, ok := changes["interaction"].(string); ok {
		recommendation.Interaction = v
	}
	if v, ok := changes["shown_at"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339, v); err == nil {
			recommendation.ShownAt = &parsed
		}
	}
	s.recommendations[id] = recommendation
	return nil
}

type recordingEmail struct {
	welcome []string
	alerts  []string // category names
}

func (e *recordingEmail) SendWelcomeEmail(toEmail, name string) error {
	e.welcome = append(e.welcome, toEmail)
	return nil
}

func (e *recordingEmail) SendBudgetAlertEmail(toEmail, name, categoryName string, spent, limit float64, currency string) error {
	e.alerts = append(e.alerts, categoryName)
	return nil
}

func expense(id, userID, categoryID string, amount float64, date time.Time) models.Transaction {
	return models.Transaction{
		ID:         id,
		UserID:     userID,
		CategoryID: categoryID,
		Amount:     amount,
		Currency:   "CLP",
		IsExpense:  true,
		Date:       date,
	}
}

func income(id, userID, categoryID string, amount float64, date time.Time) models.Transaction {
	return models.Transaction{
		ID:         id,
		UserID:     userID,
		CategoryID: categoryID,
		Amount:     amount,
		Currency:   "CLP",
		IsExpense:  false,
		Date:       date,
	}
}
