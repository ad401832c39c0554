package services

// EmailService sends user-facing notification mail. Implementations must be
// safe for concurrent use; delivery is best effort and callers only log
// failures.
type EmailService interface {
	SendWelcomeEmail(toEmail, name string) error
	SendBudgetAlertEmail(toEmail, name, categoryName string, spent, limit float64, currency string) error
}
