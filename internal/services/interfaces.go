package services

import (
	"time"

	"github.com/shopspring/decimal"

	"budgetly/internal/models"
	"budgetly/internal/pagination"
)

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(name string, categoryType models.CategoryType, color, icon, description string, parentID *string) (*models.Category, error)
	GetCategories(page pagination.PageRequest, categoryType *models.CategoryType, activeOnly bool) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(categoryID string) (*models.Category, error)
	GetHierarchy() ([]*models.CategoryNode, error)
	UpdateCategory(categoryID string, upd CategoryUpdate) (*models.Category, error)
	DeleteCategory(categoryID string) error
}

// CategoryUpdate holds optional fields for a category update. Nil fields
// are left unchanged.
type CategoryUpdate struct {
	Name        *string
	Color       *string
	Icon        *string
	Description *string
	ParentID    *string
	ClearParent bool
	IsActive    *bool
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	Type       *models.TransactionType
	CategoryID *string
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(transactionType models.TransactionType, amount decimal.Decimal, description, categoryID string, date time.Time) (*models.Transaction, error)
	GetTransactions(page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(transactionID string) (*models.Transaction, error)
	UpdateTransaction(transactionID string, upd TransactionUpdate) (*models.Transaction, error)
	DeleteTransaction(transactionID string) error
}

// TransactionUpdate holds optional fields for a transaction update.
type TransactionUpdate struct {
	Type        *models.TransactionType
	Amount      *decimal.Decimal
	Description *string
	CategoryID  *string
	Date        *time.Time
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(categoryID string, amount decimal.Decimal, period models.BudgetPeriod, startDate time.Time, endDate *time.Time) (*models.Budget, error)
	GetBudgets(page pagination.PageRequest, isActive *bool, period *models.BudgetPeriod) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(budgetID string) (*models.Budget, error)
	UpdateBudget(budgetID string, upd BudgetUpdate) (*models.Budget, error)
	DeleteBudget(budgetID string) error
	GetBudgetProgress(budgetID string) (*models.BudgetWithProgress, error)
	GetActiveBudgetsProgress() ([]models.BudgetWithProgress, error)
}

// BudgetUpdate holds optional fields for a budget update.
type BudgetUpdate struct {
	Amount   *decimal.Decimal
	Period   *models.BudgetPeriod
	EndDate  *time.Time
	IsActive *bool
}

// CategorySummary is one category's share of an analytics summary.
type CategorySummary struct {
	CategoryID   string              `json:"category_id"`
	CategoryName string              `json:"category_name"`
	Type         models.CategoryType `json:"type"`
	Total        decimal.Decimal     `json:"total"`
	Percentage   float64             `json:"percentage"`
}

// Summary aggregates transactions over a date range.
type Summary struct {
	StartDate    *time.Time        `json:"start_date,omitempty"`
	EndDate      *time.Time        `json:"end_date,omitempty"`
	TotalIncome  decimal.Decimal   `json:"total_income"`
	TotalExpense decimal.Decimal   `json:"total_expense"`
	Net          decimal.Decimal   `json:"net"`
	ByCategory   []CategorySummary `json:"by_category"`
}

// Alert severity and type labels.
const (
	AlertOverspent          = "overspent"
	AlertExceededProjection = "exceeded_projection"
	AlertApproachingLimit   = "approaching_limit"

	AlertSeverityHigh   = "high"
	AlertSeverityMedium = "medium"
)

// BudgetAlert flags a budget that needs attention. Each active budget gets
// at most one alert, chosen in priority order: overspent, then exceeded
// projection, then approaching limit.
type BudgetAlert struct {
	BudgetID     string          `json:"budget_id"`
	CategoryID   string          `json:"category_id"`
	CategoryName string          `json:"category_name"`
	AlertType    string          `json:"alert_type"`
	Severity     string          `json:"severity"`
	Progress     float64         `json:"progress_percentage"`
	Spent        decimal.Decimal `json:"spent_amount"`
	Budgeted     decimal.Decimal `json:"budget_amount"`
}

// AnalyticsServicer defines the contract for reporting endpoints.
type AnalyticsServicer interface {
	GetSummary(from, to *time.Time) (*Summary, error)
	GetBudgetAlerts() ([]BudgetAlert, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(action, resourceType, resourceID, clientIP string, changes map[string]interface{})
}
