package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "budgetly/internal/errors"
	"budgetly/internal/models"
	"budgetly/internal/periods"
	"budgetly/internal/repository"
)

// Alert thresholds, as progress percentages.
const (
	approachingThreshold = 80.0
	highThreshold        = 95.0
)

// analyticsService handles reporting queries.
type analyticsService struct {
	db            *gorm.DB
	budgetService BudgetServicer
}

// NewAnalyticsService creates a new AnalyticsServicer.
func NewAnalyticsService(db *gorm.DB, budgetService BudgetServicer) AnalyticsServicer {
	return &analyticsService{db: db, budgetService: budgetService}
}

// GetSummary aggregates transactions over an optional date range into
// income/expense totals and a per-category breakdown. Each category's
// percentage is its share of the total for its type.
func (s *analyticsService) GetSummary(from, to *time.Time) (*Summary, error) {
	var filters repository.Filters
	if from != nil {
		filters = filters.From("date", periods.Truncate(*from))
	}
	if to != nil {
		filters = filters.To("date", periods.Truncate(*to))
	}

	var transactions []models.Transaction
	if err := s.db.Preload("Category").
		Scopes(repository.Apply(filters)).
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	summary := &Summary{
		StartDate:    from,
		EndDate:      to,
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
		ByCategory:   []CategorySummary{},
	}

	totals := make(map[string]*CategorySummary)
	order := []string{}
	for _, tx := range transactions {
		if tx.Type == models.TransactionTypeIncome {
			summary.TotalIncome = summary.TotalIncome.Add(tx.Amount)
		} else {
			summary.TotalExpense = summary.TotalExpense.Add(tx.Amount)
		}

		entry, ok := totals[tx.CategoryID]
		if !ok {
			entry = &CategorySummary{
				CategoryID:   tx.CategoryID,
				CategoryName: tx.Category.Name,
				Type:         tx.Category.Type,
				Total:        decimal.Zero,
			}
			totals[tx.CategoryID] = entry
			order = append(order, tx.CategoryID)
		}
		entry.Total = entry.Total.Add(tx.Amount)
	}

	summary.Net = summary.TotalIncome.Sub(summary.TotalExpense)

	hundred := decimal.NewFromInt(100)
	for _, id := range order {
		entry := totals[id]
		typeTotal := summary.TotalExpense
		if entry.Type == models.CategoryTypeIncome {
			typeTotal = summary.TotalIncome
		}
		if typeTotal.IsPositive() {
			entry.Percentage, _ = entry.Total.Div(typeTotal).Mul(hundred).Round(2).Float64()
		}
		entry.Total = entry.Total.Round(2)
		summary.ByCategory = append(summary.ByCategory, *entry)
	}

	summary.TotalIncome = summary.TotalIncome.Round(2)
	summary.TotalExpense = summary.TotalExpense.Round(2)
	summary.Net = summary.Net.Round(2)

	return summary, nil
}

// GetBudgetAlerts classifies every active budget into at most one alert.
func (s *analyticsService) GetBudgetAlerts() ([]BudgetAlert, error) {
	progresses, err := s.budgetService.GetActiveBudgetsProgress()
	if err != nil {
		return nil, err
	}

	alerts := []BudgetAlert{}
	for _, p := range progresses {
		if alert, ok := ClassifyAlert(p); ok {
			alerts = append(alerts, alert)
		}
	}
	return alerts, nil
}

// ClassifyAlert maps a budget's progress to an alert, evaluated in priority
// order: overspent beats exceeded projection beats threshold alerts. A
// budget below the approaching threshold yields no alert.
func ClassifyAlert(p models.BudgetWithProgress) (BudgetAlert, bool) {
	alert := BudgetAlert{
		BudgetID:     p.ID,
		CategoryID:   p.CategoryID,
		CategoryName: p.Category.Name,
		Progress:     p.ProgressPercentage,
		Spent:        p.SpentAmount,
		Budgeted:     p.Amount,
	}

	switch {
	case p.IsOverspent:
		alert.AlertType = AlertOverspent
		alert.Severity = AlertSeverityHigh
	case p.ProjectedTotal.GreaterThan(p.Amount):
		alert.AlertType = AlertExceededProjection
		alert.Severity = AlertSeverityMedium
	case p.ProgressPercentage >= highThreshold:
		alert.AlertType = AlertApproachingLimit
		alert.Severity = AlertSeverityHigh
	case p.ProgressPercentage >= approachingThreshold:
		alert.AlertType = AlertApproachingLimit
		alert.Severity = AlertSeverityMedium
	default:
		return BudgetAlert{}, false
	}

	return alert, true
}
