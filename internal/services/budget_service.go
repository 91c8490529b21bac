package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "budgetly/internal/errors"
	"budgetly/internal/logger"
	"budgetly/internal/models"
	"budgetly/internal/pagination"
	"budgetly/internal/periods"
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// CreateBudget creates a new budget for an active expense category. When no
// end date is given it is derived from the period. The overlap check against
// existing active budgets is read-then-write: two concurrent creates for the
// same category can both pass it. Acceptable for a single-user tool.
func (s *budgetService) CreateBudget(
	categoryID string,
	amount decimal.Decimal,
	period models.BudgetPeriod,
	startDate time.Time,
	endDate *time.Time,
) (*models.Budget, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	var category models.Category
	if err := s.db.Where("id = ?", categoryID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if category.Type != models.CategoryTypeExpense || !category.IsActive {
		return nil, apperrors.ErrNotExpenseCategory
	}

	start := periods.Truncate(startDate)
	var end time.Time
	if endDate != nil {
		end = periods.Truncate(*endDate)
		if !end.After(start) {
			return nil, apperrors.ErrInvalidDateRange
		}
	} else {
		end = periods.EndDateFor(start, period)
	}

	if err := s.checkOverlap(categoryID, start, end, ""); err != nil {
		return nil, err
	}

	budget := &models.Budget{
		CategoryID: categoryID,
		Amount:     amount,
		Period:     period,
		StartDate:  start,
		EndDate:    end,
		IsActive:   true,
	}

	if err := s.db.Create(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return budget, nil
}

// checkOverlap rejects a [start, end] range that shares any day with an
// existing active budget for the same category. excludeID skips the budget
// being updated.
func (s *budgetService) checkOverlap(categoryID string, start, end time.Time, excludeID string) error {
	q := s.db.Model(&models.Budget{}).
		Where("category_id = ? AND is_active = ?", categoryID, true).
		Where("start_date <= ? AND end_date >= ?", end, start)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrOverlappingBudget
	}
	return nil
}

// GetBudgets returns a paginated list of budgets with optional filters.
func (s *budgetService) GetBudgets(
	page pagination.PageRequest,
	isActive *bool,
	period *models.BudgetPeriod,
) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	base := s.db.Model(&models.Budget{})
	if isActive != nil {
		base = base.Where("is_active = ?", *isActive)
	}
	if period != nil {
		base = base.Where("period = ?", *period)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Preload("Category").Order("start_date DESC").Scopes(pagination.Paginate(page)).Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudgetByID returns a budget by ID.
func (s *budgetService) GetBudgetByID(budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Preload("Category").Where("id = ?", budgetID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// UpdateBudget updates an existing budget's fields. Changing the period
// without an explicit end date re-derives the end date; any range change
// re-runs the overlap check against the other active budgets.
func (s *budgetService) UpdateBudget(budgetID string, upd BudgetUpdate) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(budgetID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})

	if upd.Amount != nil {
		if err := validateAmount(*upd.Amount); err != nil {
			return nil, err
		}
		updates["amount"] = *upd.Amount
	}

	end := budget.EndDate
	if upd.Period != nil {
		updates["period"] = *upd.Period
		if upd.EndDate == nil {
			end = periods.EndDateFor(budget.StartDate, *upd.Period)
		}
	}
	if upd.EndDate != nil {
		end = periods.Truncate(*upd.EndDate)
		if !end.After(budget.StartDate) {
			return nil, apperrors.ErrInvalidDateRange
		}
	}
	if !end.Equal(budget.EndDate) {
		if err := s.checkOverlap(budget.CategoryID, budget.StartDate, end, budget.ID); err != nil {
			return nil, err
		}
		updates["end_date"] = end
	}

	if upd.IsActive != nil {
		if *upd.IsActive && !budget.IsActive {
			// Reactivation must not re-introduce an overlap.
			if err := s.checkOverlap(budget.CategoryID, budget.StartDate, end, budget.ID); err != nil {
				return nil, err
			}
		}
		updates["is_active"] = *upd.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(budget).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return budget, nil
}

// DeleteBudget soft-deletes a budget.
func (s *budgetService) DeleteBudget(budgetID string) error {
	budget, err := s.GetBudgetByID(budgetID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(budget).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetBudgetProgress computes spending progress for one budget. A failure to
// load the budget's transactions degrades to zero progress rather than
// failing the call, so listing endpoints stay usable when the store is
// partially unavailable.
func (s *budgetService) GetBudgetProgress(budgetID string) (*models.BudgetWithProgress, error) {
	budget, err := s.GetBudgetByID(budgetID)
	if err != nil {
		return nil, err
	}
	progress := s.progressFor(*budget)
	return &progress, nil
}

// GetActiveBudgetsProgress computes progress for every active budget.
func (s *budgetService) GetActiveBudgetsProgress() ([]models.BudgetWithProgress, error) {
	var budgets []models.Budget
	if err := s.db.Preload("Category").Where("is_active = ?", true).Order("start_date DESC").Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := make([]models.BudgetWithProgress, 0, len(budgets))
	for _, budget := range budgets {
		result = append(result, s.progressFor(budget))
	}
	return result, nil
}

func (s *budgetService) progressFor(budget models.Budget) models.BudgetWithProgress {
	var transactions []models.Transaction
	err := s.db.
		Where("category_id = ? AND type = ? AND date >= ? AND date <= ?",
			budget.CategoryID, models.TransactionTypeExpense, budget.StartDate, budget.EndDate).
		Find(&transactions).Error
	if err != nil {
		logger.Get().Errorw("failed to load transactions for budget progress",
			"budget_id", budget.ID,
			"error", err.Error(),
		)
		transactions = nil
	}
	return ComputeProgress(budget, transactions, time.Now())
}

// ComputeProgress derives a BudgetWithProgress from a budget and its expense
// transactions. Only expense transactions dated within [StartDate, EndDate]
// contribute to spending; other entries are ignored. Sums are exact
// decimals; monetary outputs and percentages are rounded to two decimals at
// this boundary only.
func ComputeProgress(budget models.Budget, transactions []models.Transaction, now time.Time) models.BudgetWithProgress {
	spent := decimal.Zero
	for _, tx := range transactions {
		if tx.Type != models.TransactionTypeExpense {
			continue
		}
		if tx.Date.Before(budget.StartDate) || tx.Date.After(budget.EndDate) {
			continue
		}
		spent = spent.Add(tx.Amount)
	}

	remaining := budget.Amount.Sub(spent)

	var percentage float64
	if budget.Amount.IsPositive() {
		percentage, _ = spent.Div(budget.Amount).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	}

	totalDays := periods.TotalDays(budget.StartDate, budget.EndDate)
	daysRemaining := periods.DaysRemaining(budget.EndDate, now)
	if daysRemaining > totalDays {
		daysRemaining = totalDays
	}
	daysElapsed := totalDays - daysRemaining

	averageDaily := decimal.Zero
	if daysElapsed > 0 {
		averageDaily = spent.Div(decimal.NewFromInt(int64(daysElapsed)))
	}

	projected := spent
	if totalDays > 0 {
		projected = averageDaily.Mul(decimal.NewFromInt(int64(totalDays)))
	}

	return models.BudgetWithProgress{
		Budget:               budget,
		SpentAmount:          spent.Round(2),
		RemainingAmount:      remaining.Round(2),
		ProgressPercentage:   percentage,
		IsOverspent:          spent.GreaterThan(budget.Amount),
		DaysRemaining:        daysRemaining,
		AverageDailySpending: averageDaily.Round(2),
		ProjectedTotal:       projected.Round(2),
	}
}
