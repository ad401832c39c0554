package services

import (
	"context"

	"github.com/username/optimoney/backend/src/logger"
	"github.com/username/optimoney/backend/src/models"
	"github.com/username/optimoney/backend/src/storage"
	"github.com/username/optimoney/backend/src/utils"
)

// AlertService emails the user when an expense pushes a budget past its
// limit. Evaluation is best effort; a failed alert never fails the write
// that triggered it.
type AlertService struct {
	users        storage.UserStore
	budgets      storage.BudgetStore
	categories   storage.CategoryStore
	transactions storage.TransactionStore
	email        EmailService
}

func NewAlertService(users storage.UserStore, budgets storage.BudgetStore, categories storage.CategoryStore, transactions storage.TransactionStore, email EmailService) *AlertService {
	return &AlertService{
		users:        users,
		budgets:      budgets,
		categories:   categories,
		transactions: transactions,
		email:        email,
	}
}

// EvaluateTransaction checks whether txn just pushed a budget over its
// limit and, if so, sends the alert email. Only the crossing triggers a
// mail; further expenses on an already exceeded budget stay quiet.
func (s *AlertService) EvaluateTransaction(ctx context.Context, txn models.Transaction) {
	if !txn.IsExpense {
		return
	}

	user, err := s.users.GetByID(ctx, txn.UserID)
	if err != nil {
		logger.L.Warn("Budget alert skipped, user lookup failed", "userID", txn.UserID, "error", err)
		return
	}
	if !user.Settings.NotificationsEnabled {
		return
	}

	budgets, err := s.budgets.ListForUser(ctx, txn.UserID)
	if err != nil {
		logger.L.Warn("Budget alert skipped, budget lookup failed", "userID", txn.UserID, "error", err)
		return
	}

	for _, b := range budgets {
		if b.CategoryID != txn.CategoryID || b.Amount <= 0 {
			continue
		}
		start := utils.PeriodStart(b.Period, txn.Date)
		transactions, err := s.transactions.List(ctx, txn.UserID, storage.TransactionFilter{
			StartDate: &start,
			Type:      models.CategoryTypeExpense,
		})
		if err != nil {
			logger.L.Warn("Budget alert skipped, spend lookup failed", "userID", txn.UserID, "budgetID", b.ID, "error", err)
			continue
		}

		var spent float64
		for _, t := range transactions {
			if t.CategoryID == b.CategoryID {
				spent += t.Amount
			}
		}
		if spent-txn.Amount > b.Amount || spent <= b.Amount {
			continue
		}

		categoryName := b.CategoryID
		if category, err := s.categories.GetByID(ctx, b.CategoryID); err == nil {
			categoryName = category.Name
		}
		if err := s.email.SendBudgetAlertEmail(user.Email, user.Name, categoryName, spent, b.Amount, txn.Currency); err != nil {
			logger.L.Error("Failed to send budget alert email", "userID", txn.UserID, "budgetID", b.ID, "error", err)
			continue
		}
		logger.L.Info("Budget alert email sent", "userID", txn.UserID, "budgetID", b.ID, "spent", spent, "limit", b.Amount)
	}
}
