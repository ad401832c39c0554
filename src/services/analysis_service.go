package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/username/optimoney/backend/src/logger"
	"github.com/username/optimoney/backend/src/models"
	"github.com/username/optimoney/backend/src/storage"
	"github.com/username/optimoney/backend/src/utils"
)

// Heuristic knobs for the savings analysis. A micro expense is any expense
// below microExpenseShare of the 90-day expense total; a category deviates
// when the current month runs above deviationFactor times its trailing
// three-month average.
const (
	microExpenseShare   = 0.01
	microExpenseMinHits = 6
	deviationFactor     = 1.5
	trendMonths         = 6
)

type Totals struct {
	TotalIncome   float64 `json:"total_income"`
	TotalExpenses float64 `json:"total_expenses"`
	Balance       float64 `json:"balance"`
}

type MonthSummary struct {
	Month            string             `json:"month"` // YYYY-MM
	Income           float64            `json:"income"`
	Expenses         float64            `json:"expenses"`
	Balance          float64            `json:"balance"`
	TransactionCount int                `json:"transaction_count"`
	ExpensesByCat    map[string]float64 `json:"expenses_by_category,omitempty"`
}

type Delta struct {
	Change     float64 `json:"change"`
	Percentage float64 `json:"percentage"`
}

type MonthComparison struct {
	Income   Delta `json:"income"`
	Expenses Delta `json:"expenses"`
	Balance  Delta `json:"balance"`
}

type BudgetStatus struct {
	BudgetID     string  `json:"budget_id"`
	CategoryID   string  `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Period       string  `json:"period"`
	Limit        float64 `json:"limit"`
	Spent        float64 `json:"spent"`
	Percentage   float64 `json:"percentage"`
	Status       string  `json:"status"` // ok, warning or exceeded
}

type Overview struct {
	Totals          Totals          `json:"totals"`
	CurrentMonth    MonthSummary    `json:"current_month"`
	PreviousMonth   MonthSummary    `json:"previous_month"`
	MonthComparison MonthComparison `json:"month_comparison"`
	MonthlyTrends   []MonthSummary  `json:"monthly_trends"`
	BudgetStatus    []BudgetStatus  `json:"budget_status"`
	GeneratedAt     time.Time       `json:"generated_at"`
}

type CategoryExpense struct {
	CategoryID   string  `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Amount       float64 `json:"amount"`
	Count        int     `json:"count"`
	Percentage   float64 `json:"percentage"`
}

type ExpenseReport struct {
	StartDate  time.Time         `json:"start_date"`
	EndDate    time.Time         `json:"end_date"`
	Total      float64           `json:"total"`
	Categories []CategoryExpense `json:"categories"`
}

type MonthRatio struct {
	Month    string  `json:"month"`
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Ratio    float64 `json:"ratio"` // expenses / income, 0 when no income
}

type RatioReport struct {
	Months       []MonthRatio `json:"months"`
	OverallRatio float64      `json:"overall_ratio"`
}

// SavingsFinding is one heuristic hit; recommendations are minted from these.
type SavingsFinding struct {
	Type            string  `json:"type"`
	CategoryID      string  `json:"category_id"`
	CategoryName    string  `json:"category_name"`
	Title           string  `json:"title"`
	Message         string  `json:"message"`
	MonthlyEstimate float64 `json:"monthly_estimate"`
	YearlyEstimate  float64 `json:"yearly_estimate"`
	Priority        int     `json:"priority"`
}

type SavingsPotential struct {
	Findings             []SavingsFinding `json:"findings"`
	TotalMonthlyEstimate float64          `json:"total_monthly_estimate"`
}

type CategoryTrend struct {
	CategoryID   string         `json:"category_id"`
	CategoryName string         `json:"category_name"`
	Months       []MonthSummary `json:"months"`
	Direction    string         `json:"direction"` // increasing, decreasing or stable
}

// AnalysisService derives reports from the transaction history. Overviews
// are cached per user and invalidated on any transaction write.
type AnalysisService struct {
	transactions storage.TransactionStore
	categories   storage.CategoryStore
	budgets      storage.BudgetStore
	cache        *cache.Cache

	// Now is the clock used for period math; overridable in tests.
	Now func() time.Time
}

func NewAnalysisService(transactions storage.TransactionStore, categories storage.CategoryStore, budgets storage.BudgetStore, c *cache.Cache) *AnalysisService {
	return &AnalysisService{
		transactions: transactions,
		categories:   categories,
		budgets:      budgets,
		cache:        c,
		Now:          time.Now,
	}
}

func overviewCacheKey(userID string) string { return "overview:" + userID }

// InvalidateUser drops cached analysis for the user. Called after every
// transaction write.
func (s *AnalysisService) InvalidateUser(userID string) {
	if s.cache != nil {
		s.cache.Delete(overviewCacheKey(userID))
	}
}

// Overview assembles the financial overview: lifetime totals, current and
// previous month summaries with comparison, monthly trends and budget status.
func (s *AnalysisService) Overview(ctx context.Context, userID string) (*Overview, error) {
	if s.cache != nil {
		if cached, found := s.cache.Get(overviewCacheKey(userID)); found {
			if overview, ok := cached.(*Overview); ok {
				logger.L.Debug("Analysis overview served from cache", "userID", userID)
				return overview, nil
			}
		}
	}

	now := s.Now()
	windowStart := utils.StartOfMonth(now).AddDate(0, -(trendMonths - 1), 0)
	transactions, err := s.transactions.List(ctx, userID, storage.TransactionFilter{})
	if err != nil {
		return nil, err
	}

	var totals Totals
	for _, t := range transactions {
		if t.IsExpense {
			totals.TotalExpenses += t.Amount
		} else {
			totals.TotalIncome += t.Amount
		}
	}
	totals.Balance = totals.TotalIncome - totals.TotalExpenses

	current := summarizeMonth(transactions, utils.StartOfMonth(now))
	previous := summarizeMonth(transactions, utils.PreviousMonth(now))

	trends := make([]MonthSummary, 0, trendMonths)
	for m := windowStart; !m.After(now); m = m.AddDate(0, 1, 0) {
		summary := summarizeMonth(transactions, m)
		summary.ExpensesByCat = nil // keep the trend payload small
		trends = append(trends, summary)
	}

	statuses, err := s.BudgetStatuses(ctx, userID)
	if err != nil {
		// Budget status is supplementary; an overview without it is still useful.
		logger.L.Warn("Failed to compute budget status for overview", "userID", userID, "error", err)
		statuses = []BudgetStatus{}
	}

	overview := &Overview{
		Totals:        totals,
		CurrentMonth:  current,
		PreviousMonth: previous,
		MonthComparison: MonthComparison{
			Income: Delta{
				Change:     utils.RoundFloat(current.Income-previous.Income, 2),
				Percentage: utils.PercentChange(current.Income, previous.Income),
			},
			Expenses: Delta{
				Change:     utils.RoundFloat(current.Expenses-previous.Expenses, 2),
				Percentage: utils.PercentChange(current.Expenses, previous.Expenses),
			},
			Balance: Delta{
				Change:     utils.RoundFloat(current.Balance-previous.Balance, 2),
				Percentage: utils.PercentChange(current.Balance, previous.Balance),
			},
		},
		MonthlyTrends: trends,
		BudgetStatus:  statuses,
		GeneratedAt:   now,
	}

	if s.cache != nil {
		s.cache.SetDefault(overviewCacheKey(userID), overview)
	}
	return overview, nil
}

// BudgetStatuses computes spend against every budget for its current period.
func (s *AnalysisService) BudgetStatuses(ctx context.Context, userID string) ([]BudgetStatus, error) {
	budgets, err := s.budgets.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(budgets) == 0 {
		return []BudgetStatus{}, nil
	}

	names, err := s.categoryNames(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	statuses := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		start := utils.PeriodStart(b.Period, now)
		transactions, err := s.transactions.List(ctx, userID, storage.TransactionFilter{
			StartDate: &start,
			Type:      models.CategoryTypeExpense,
		})
		if err != nil {
			return nil, err
		}

		var spent float64
		for _, t := range transactions {
			if t.CategoryID == b.CategoryID {
				spent += t.Amount
			}
		}

		statuses = append(statuses, buildBudgetStatus(b, spent, names[b.CategoryID]))
	}
	return statuses, nil
}

func buildBudgetStatus(b models.Budget, spent float64, categoryName string) BudgetStatus {
	percentage := 0.0
	if b.Amount > 0 {
		percentage = utils.RoundFloat(spent/b.Amount*100, 2)
	}
	threshold := b.AlertThreshold
	if threshold <= 0 {
		threshold = 80
	}
	status := "ok"
	switch {
	case percentage > 100:
		status = "exceeded"
	case percentage >= threshold:
		status = "warning"
	}
	if categoryName == "" {
		categoryName = "Categoría desconocida"
	}
	return BudgetStatus{
		BudgetID:     b.ID,
		CategoryID:   b.CategoryID,
		CategoryName: categoryName,
		Period:       b.Period,
		Limit:        b.Amount,
		Spent:        utils.RoundFloat(spent, 2),
		Percentage:   percentage,
		Status:       status,
	}
}

// Expenses builds a per-category expense report over the given range.
func (s *AnalysisService) Expenses(ctx context.Context, userID string, start, end time.Time) (*ExpenseReport, error) {
	transactions, err := s.transactions.List(ctx, userID, storage.TransactionFilter{
		StartDate: &start,
		EndDate:   &end,
		Type:      models.CategoryTypeExpense,
	})
	if err != nil {
		return nil, err
	}

	names, err := s.categoryNames(ctx, userID)
	if err != nil {
		return nil, err
	}

	byCategory := map[string]*CategoryExpense{}
	var total float64
	for _, t := range transactions {
		total += t.Amount
		entry, ok := byCategory[t.CategoryID]
		if !ok {
			entry = &CategoryExpense{CategoryID: t.CategoryID, CategoryName: names[t.CategoryID]}
			byCategory[t.CategoryID] = entry
		}
		entry.Amount += t.Amount
		entry.Count++
	}

	report := &ExpenseReport{StartDate: start, EndDate: end, Total: utils.RoundFloat(total, 2)}
	for _, entry := range byCategory {
		if total > 0 {
			entry.Percentage = utils.RoundFloat(entry.Amount/total*100, 2)
		}
		entry.Amount = utils.RoundFloat(entry.Amount, 2)
		report.Categories = append(report.Categories, *entry)
	}
	sort.Slice(report.Categories, func(i, j int) bool {
		if report.Categories[i].Amount != report.Categories[j].Amount {
			return report.Categories[i].Amount > report.Categories[j].Amount
		}
		return report.Categories[i].CategoryID < report.Categories[j].CategoryID
	})
	return report, nil
}

// IncomeExpenseRatio reports the expenses-to-income ratio per month over the
// trailing window.
func (s *AnalysisService) IncomeExpenseRatio(ctx context.Context, userID string, months int) (*RatioReport, error) {
	if months <= 0 {
		months = trendMonths
	}
	now := s.Now()
	start := utils.StartOfMonth(now).AddDate(0, -(months - 1), 0)
	transactions, err := s.transactions.List(ctx, userID, storage.TransactionFilter{StartDate: &start})
	if err != nil {
		return nil, err
	}

	report := &RatioReport{}
	var totalIncome, totalExpenses float64
	for m := start; !m.After(now); m = m.AddDate(0, 1, 0) {
		summary := summarizeMonth(transactions, m)
		ratio := 0.0
		if summary.Income > 0 {
			ratio = utils.RoundFloat(summary.Expenses/summary.Income, 4)
		}
		report.Months = append(report.Months, MonthRatio{
			Month:    summary.Month,
			Income:   summary.Income,
			Expenses: summary.Expenses,
			Ratio:    ratio,
		})
		totalIncome += summary.Income
		totalExpenses += summary.Expenses
	}
	if totalIncome > 0 {
		report.OverallRatio = utils.RoundFloat(totalExpenses/totalIncome, 4)
	}
	return report, nil
}

// SavingsPotential runs the micro-expense and category-deviation heuristics
// over the last three full months plus the current one.
func (s *AnalysisService) SavingsPotential(ctx context.Context, userID string) (*SavingsPotential, error) {
	now := s.Now()
	windowStart := utils.StartOfMonth(now).AddDate(0, -3, 0)
	transactions, err := s.transactions.List(ctx, userID, storage.TransactionFilter{
		StartDate: &windowStart,
		Type:      models.CategoryTypeExpense,
	})
	if err != nil {
		return nil, err
	}

	names, err := s.categoryNames(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &SavingsPotential{Findings: []SavingsFinding{}}
	result.Findings = append(result.Findings, microExpenseFindings(transactions, names)...)
	result.Findings = append(result.Findings, deviationFindings(transactions, names, now)...)
	for _, f := range result.Findings {
		result.TotalMonthlyEstimate += f.MonthlyEstimate
	}
	result.TotalMonthlyEstimate = utils.RoundFloat(result.TotalMonthlyEstimate, 2)
	return result, nil
}

// CategoryTrends reports per-month spend for one category over the trailing
// window and classifies the direction.
func (s *AnalysisService) CategoryTrends(ctx context.Context, userID, categoryID string, months int) (*CategoryTrend, error) {
	category, err := s.categories.GetByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if !category.IsPredefined() && *category.UserID != userID {
		return nil, storage.ErrNotFound
	}

	if months <= 0 {
		months = trendMonths
	}
	now := s.Now()
	start := utils.StartOfMonth(now).AddDate(0, -(months - 1), 0)
	transactions, err := s.transactions.List(ctx, userID, storage.TransactionFilter{StartDate: &start})
	if err != nil {
		return nil, err
	}

	var inCategory []models.Transaction
	for _, t := range transactions {
		if t.CategoryID == categoryID {
			inCategory = append(inCategory, t)
		}
	}

	trend := &CategoryTrend{CategoryID: categoryID, CategoryName: category.Name}
	for m := start; !m.After(now); m = m.AddDate(0, 1, 0) {
		summary := summarizeMonth(inCategory, m)
		summary.ExpensesByCat = nil
		trend.Months = append(trend.Months, summary)
	}

	trend.Direction = classifyDirection(trend.Months)
	return trend, nil
}

func classifyDirection(months []MonthSummary) string {
	if len(months) < 2 {
		return "stable"
	}
	first := months[0].Expenses
	last := months[len(months)-1].Expenses
	switch {
	case last > first*1.1:
		return "increasing"
	case last < first*0.9:
		return "decreasing"
	default:
		return "stable"
	}
}

func (s *AnalysisService) categoryNames(ctx context.Context, userID string) (map[string]string, error) {
	categories, err := s.categories.ListVisible(ctx, userID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return names, nil
}

func summarizeMonth(transactions []models.Transaction, month time.Time) MonthSummary {
	start := utils.StartOfMonth(month)
	end := utils.EndOfMonth(month)
	summary := MonthSummary{
		Month:         start.Format("2006-01"),
		ExpensesByCat: map[string]float64{},
	}
	for _, t := range transactions {
		if t.Date.Before(start) || t.Date.After(end) {
			continue
		}
		summary.TransactionCount++
		if t.IsExpense {
			summary.Expenses += t.Amount
			summary.ExpensesByCat[t.CategoryID] += t.Amount
		} else {
			summary.Income += t.Amount
		}
	}
	summary.Income = utils.RoundFloat(summary.Income, 2)
	summary.Expenses = utils.RoundFloat(summary.Expenses, 2)
	summary.Balance = utils.RoundFloat(summary.Income-summary.Expenses, 2)
	return summary
}

// microExpenseFindings flags categories accumulating many small expenses.
// The smallness cutoff scales with the window's expense volume so the
// heuristic is currency-agnostic.
func microExpenseFindings(transactions []models.Transaction, names map[string]string) []SavingsFinding {
	var windowTotal float64
	for _, t := range transactions {
		windowTotal += t.Amount
	}
	if windowTotal == 0 {
		return nil
	}
	ceiling := windowTotal * microExpenseShare

	type bucket struct {
		total float64
		count int
	}
	buckets := map[string]*bucket{}
	for _, t := range transactions {
		if t.Amount > ceiling {
			continue
		}
		b, ok := buckets[t.CategoryID]
		if !ok {
			b = &bucket{}
			buckets[t.CategoryID] = b
		}
		b.total += t.Amount
		b.count++
	}

	var findings []SavingsFinding
	for categoryID, b := range buckets {
		if b.count < microExpenseMinHits {
			continue
		}
		name := names[categoryID]
		if name == "" {
			name = categoryID
		}
		// Assume half of the recurring small spend is avoidable.
		monthly := utils.RoundFloat(b.total/3*0.5, 2)
		if monthly <= 0 {
			continue
		}
		findings = append(findings, SavingsFinding{
			Type:         models.RecommendationMicroExpense,
			CategoryID:   categoryID,
			CategoryName: name,
			Title:        fmt.Sprintf("Pequeños gastos en %s suman %.0f", name, b.total),
			Message: fmt.Sprintf(
				"Registraste %d gastos pequeños en %s en los últimos meses. Reducirlos a la mitad ahorraría aproximadamente %.0f al mes, o %.0f al año.",
				b.count, name, monthly, monthly*12),
			MonthlyEstimate: monthly,
			YearlyEstimate:  utils.RoundFloat(monthly*12, 2),
			Priority:        priorityForEstimate(monthly, windowTotal/3),
		})
	}
	sort.Slice(findings, func(i, j int) bool {
		return findings[i].MonthlyEstimate > findings[j].MonthlyEstimate
	})
	return findings
}

// deviationFindings flags categories whose current-month spend runs well
// above the trailing three-month average.
func deviationFindings(transactions []models.Transaction, names map[string]string, now time.Time) []SavingsFinding {
	currentStart := utils.StartOfMonth(now)

	currentByCat := map[string]float64{}
	priorByCat := map[string]float64{}
	for _, t := range transactions {
		if t.Date.Before(currentStart) {
			priorByCat[t.CategoryID] += t.Amount
		} else {
			currentByCat[t.CategoryID] += t.Amount
		}
	}

	var windowTotal float64
	for _, t := range transactions {
		windowTotal += t.Amount
	}

	var findings []SavingsFinding
	for categoryID, current := range currentByCat {
		average := priorByCat[categoryID] / 3
		if average <= 0 || current <= average*deviationFactor {
			continue
		}
		name := names[categoryID]
		if name == "" {
			name = categoryID
		}
		monthly := utils.RoundFloat(current-average, 2)
		findings = append(findings, SavingsFinding{
			Type:         models.RecommendationCategoryDeviation,
			CategoryID:   categoryID,
			CategoryName: name,
			Title:        fmt.Sprintf("Tus gastos en %s aumentaron este mes", name),
			Message: fmt.Sprintf(
				"Este mes llevas %.0f en %s, frente a un promedio de %.0f. Volver a tu nivel habitual ahorraría aproximadamente %.0f al mes.",
				current, name, average, monthly),
			MonthlyEstimate: monthly,
			YearlyEstimate:  utils.RoundFloat(monthly*12, 2),
			Priority:        priorityForEstimate(monthly, windowTotal/3),
		})
	}
	sort.Slice(findings, func(i, j int) bool {
		return findings[i].MonthlyEstimate > findings[j].MonthlyEstimate
	})
	return findings
}

func priorityForEstimate(monthly, monthlySpend float64) int {
	if monthlySpend <= 0 {
		return 3
	}
	share := monthly / monthlySpend
	switch {
	case share >= 0.15:
		return 1
	case share >= 0.05:
		return 2
	default:
		return 3
	}
}
