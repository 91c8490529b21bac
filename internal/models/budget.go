package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetPeriod represents the period type for a budget
type BudgetPeriod string

const (
	BudgetPeriodWeekly  BudgetPeriod = "weekly"
	BudgetPeriodMonthly BudgetPeriod = "monthly"
	BudgetPeriodYearly  BudgetPeriod = "yearly"
)

// Budget represents a spending limit for an expense category over a date
// range. No two active budgets for the same category may have overlapping
// [StartDate, EndDate] intervals.
type Budget struct {
	Base
	CategoryID string          `gorm:"type:uuid;not null;index" json:"category_id"`
	Amount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"budget_amount"`
	Period     BudgetPeriod    `gorm:"not null" json:"period"`
	StartDate  time.Time       `gorm:"not null" json:"start_date"`
	EndDate    time.Time       `gorm:"not null" json:"end_date"`
	IsActive   bool            `gorm:"default:true" json:"is_active"`

	// Relationships
	Category Category `gorm:"foreignKey:CategoryID" json:"category"`
}

// BudgetWithProgress augments a budget with spending progress for its
// period. Derived on read, never persisted. Monetary fields are rounded to
// two decimals; intermediate arithmetic is exact.
type BudgetWithProgress struct {
	Budget
	SpentAmount          decimal.Decimal `json:"spent_amount"`
	RemainingAmount      decimal.Decimal `json:"remaining_amount"`
	ProgressPercentage   float64         `json:"progress_percentage"`
	IsOverspent          bool            `json:"is_overspent"`
	DaysRemaining        int             `json:"days_remaining"`
	AverageDailySpending decimal.Decimal `json:"average_daily_spending"`
	ProjectedTotal       decimal.Decimal `json:"projected_total"`
}
