package models

import "time"

// CategoryType values accepted for categories, budgets and report filters.
const (
	CategoryTypeExpense = "expense"
	CategoryTypeIncome  = "income"
)

// UserSettings is the free-form configuration sub-document persisted
// alongside the user record.
type UserSettings struct {
	Currency             string `json:"currency"`
	NotificationsEnabled bool   `json:"notificationsEnabled"`
}

// User mirrors the identity-provider account inside the document database.
// The ID is the uid assigned by the identity provider at registration.
type User struct {
	ID        string       `json:"id"`
	Email     string       `json:"email"`
	Name      string       `json:"name"`
	Settings  UserSettings `json:"settings"`
	CreatedAt time.Time    `json:"created_at,omitempty"`
	UpdatedAt time.Time    `json:"updated_at,omitempty"`
}

// Category classifies transactions. System defaults carry a nil UserID and
// are visible to every user; custom categories belong to exactly one user.
type Category struct {
	ID        string    `json:"id,omitempty"`
	UserID    *string   `json:"user_id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"` // expense or income
	Icon      string    `json:"icon,omitempty"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// IsPredefined reports whether the category is a system default.
func (c *Category) IsPredefined() bool {
	return c.UserID == nil || *c.UserID == ""
}

type Transaction struct {
	ID          string    `json:"id,omitempty"`
	UserID      string    `json:"user_id"`
	CategoryID  string    `json:"category_id"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency,omitempty"`
	Description string    `json:"description,omitempty"`
	IsExpense   bool      `json:"is_expense"`
	Date        time.Time `json:"date"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// Budget periods.
const (
	PeriodMonthly = "monthly"
	PeriodWeekly  = "weekly"
	PeriodYearly  = "yearly"
)

// Budget caps spending for one category over a rolling period.
// AlertThreshold is the percentage of Amount at which the budget status
// turns to "warning" (alert e-mail fires only once it is exceeded).
type Budget struct {
	ID             string    `json:"id,omitempty"`
	UserID         string    `json:"user_id"`
	CategoryID     string    `json:"category_id"`
	Amount         float64   `json:"amount"`
	Period         string    `json:"period"`
	AlertThreshold float64   `json:"alert_threshold"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
}

// Recommendation lifecycle.
const (
	RecommendationPending = "pending"
	RecommendationShown   = "shown"
)

// Recommendation types produced by the savings heuristics.
const (
	RecommendationMicroExpense      = "micro_expense"
	RecommendationCategoryDeviation = "category_deviation"
)

type Recommendation struct {
	ID              string     `json:"id,omitempty"`
	UserID          string     `json:"user_id"`
	Type            string     `json:"type"`
	CategoryID      string     `json:"category_id,omitempty"`
	Title           string     `json:"title"`
	Message         string     `json:"message"`
	SavingsEstimate float64    `json:"savings_estimate"`
	Priority        int        `json:"priority"` // 1 (high) .. 3 (low)
	Status          string     `json:"status"`
	Interaction     string     `json:"interaction,omitempty"` // accepted or dismissed
	ShownAt         *time.Time `json:"shown_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at,omitempty"`
}

// DefaultCategories returns the system-predefined categories seeded by the
// initialize-defaults operation. IDs are stable slugs so re-seeding is
// idempotent on the database side.
func DefaultCategories() []Category {
	return []Category{
		{ID: "alimentacion", Name: "Alimentación", Type: CategoryTypeExpense, Icon: "restaurant", Color: "#FF5722"},
		{ID: "transporte", Name: "Transporte", Type: CategoryTypeExpense, Icon: "directions_car", Color: "#3F51B5"},
		{ID: "vivienda", Name: "Vivienda", Type: CategoryTypeExpense, Icon: "home", Color: "#673AB7"},
		{ID: "servicios", Name: "Servicios", Type: CategoryTypeExpense, Icon: "lightbulb", Color: "#FFC107"},
		{ID: "entretenimiento", Name: "Entretenimiento", Type: CategoryTypeExpense, Icon: "movie", Color: "#E91E63"},
		{ID: "salud", Name: "Salud", Type: CategoryTypeExpense, Icon: "local_hospital", Color: "#4CAF50"},
		{ID: "educacion", Name: "Educación", Type: CategoryTypeExpense, Icon: "school", Color: "#009688"},
		{ID: "ropa", Name: "Ropa", Type: CategoryTypeExpense, Icon: "checkroom", Color: "#9C27B0"},
		{ID: "otros_gastos", Name: "Otros Gastos", Type: CategoryTypeExpense, Icon: "more_horiz", Color: "#607D8B"},
		{ID: "salario", Name: "Salario", Type: CategoryTypeIncome, Icon: "payments", Color: "#4CAF50"},
		{ID: "inversiones", Name: "Inversiones", Type: CategoryTypeIncome, Icon: "trending_up", Color: "#2196F3"},
		{ID: "otros_ingresos", Name: "Otros Ingresos", Type: CategoryTypeIncome, Icon: "account_balance", Color: "#00BCD4"},
	}
}

// ValidCategoryType reports whether t is one of the accepted category types.
func ValidCategoryType(t string) bool {
	return t == CategoryTypeExpense || t == CategoryTypeIncome
}

// ValidBudgetPeriod reports whether p is one of the accepted budget periods.
func ValidBudgetPeriod(p string) bool {
	return p == PeriodMonthly || p == PeriodWeekly || p == PeriodYearly
}
