package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "budgetly/internal/errors"
	"budgetly/internal/models"
	"budgetly/internal/pagination"
	"budgetly/internal/services"
)

// BudgetHandler handles budget-related requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	auditService  services.AuditServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, auditService: auditService}
}

// CreateBudgetRequest represents the request payload for creating a budget.
type CreateBudgetRequest struct {
	CategoryID string              `json:"category_id" binding:"required,uuid"`
	Amount     decimal.Decimal     `json:"amount" binding:"required"`
	Period     models.BudgetPeriod `json:"period" binding:"required,budget_period"`
	StartDate  time.Time           `json:"start_date" binding:"required"`
	EndDate    *time.Time          `json:"end_date"`
}

// UpdateBudgetRequest represents the request payload for updating a budget.
// Omitted fields are left unchanged.
type UpdateBudgetRequest struct {
	Amount   *decimal.Decimal     `json:"amount"`
	Period   *models.BudgetPeriod `json:"period" binding:"omitempty,budget_period"`
	EndDate  *time.Time           `json:"end_date"`
	IsActive *bool                `json:"is_active"`
}

// CreateBudget handles the creation of a new budget.
// @Summary     Create a budget
// @Description Create a budget for an expense category over a date range
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Param       request body CreateBudgetRequest true "Budget details"
// @Success     201 {object} models.Budget "Budget created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Overlapping budget"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [post]
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	budget, err := h.budgetService.CreateBudget(
		req.CategoryID, req.Amount, req.Period, req.StartDate, req.EndDate,
	)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("CREATE_BUDGET", "budget", budget.ID, c.ClientIP(),
		map[string]interface{}{"amount": req.Amount.String(), "period": req.Period})

	c.JSON(http.StatusCreated, gin.H{"budget": budget})
}

// GetBudgets handles listing budgets.
// @Summary     Get budgets
// @Description Get a paginated list of budgets
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Param       is_active query bool   false "Filter by active status"
// @Param       period    query string false "Filter by period (weekly/monthly/yearly)"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Budget] "Paginated budgets"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [get]
func (h *BudgetHandler) GetBudgets(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var isActive *bool
	if v := c.Query("is_active"); v != "" {
		switch v {
		case "true":
			b := true
			isActive = &b
		case "false":
			b := false
			isActive = &b
		default:
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "is_active must be true or false"))
			return
		}
	}

	var period *models.BudgetPeriod
	if v := c.Query("period"); v != "" {
		switch p := models.BudgetPeriod(v); p {
		case models.BudgetPeriodWeekly, models.BudgetPeriodMonthly, models.BudgetPeriodYearly:
			period = &p
		default:
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "period must be weekly, monthly, or yearly"))
			return
		}
	}

	result, err := h.budgetService.GetBudgets(page, isActive, period)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetBudgetByID handles the retrieval of a specific budget.
// @Summary     Get budget by ID
// @Description Get a specific budget by ID
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Param       id path string true "Budget ID"
// @Success     200 {object} models.Budget "Budget details"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [get]
func (h *BudgetHandler) GetBudgetByID(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetBudgetByID(budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// GetBudgetProgress handles retrieving spending progress for one budget.
// @Summary     Get budget progress
// @Description Get spent, remaining, and projected figures for a budget
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Param       id path string true "Budget ID"
// @Success     200 {object} models.BudgetWithProgress "Budget with progress"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/progress [get]
func (h *BudgetHandler) GetBudgetProgress(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	progress, err := h.budgetService.GetBudgetProgress(budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": progress})
}

// GetActiveBudgetsProgress handles retrieving progress for all active budgets.
// @Summary     Get progress for all active budgets
// @Description Get spending progress for every active budget
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Success     200 {array} models.BudgetWithProgress "Budgets with progress"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/progress [get]
func (h *BudgetHandler) GetActiveBudgetsProgress(c *gin.Context) {
	progress, err := h.budgetService.GetActiveBudgetsProgress()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budgets": progress})
}

// UpdateBudget handles updating a budget.
// @Summary     Update budget
// @Description Update an existing budget; omitted fields are unchanged
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Param       id      path string              true "Budget ID"
// @Param       request body UpdateBudgetRequest true "Updated budget details"
// @Success     200 {object} models.Budget "Updated budget"
// @Failure     400 {object} ErrorResponse "Invalid input or budget ID"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     409 {object} ErrorResponse "Overlapping budget"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [put]
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	budget, err := h.budgetService.UpdateBudget(budgetID, services.BudgetUpdate{
		Amount:   req.Amount,
		Period:   req.Period,
		EndDate:  req.EndDate,
		IsActive: req.IsActive,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("UPDATE_BUDGET", "budget", budget.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// DeleteBudget handles deleting a budget.
// @Summary     Delete budget
// @Description Delete a budget by ID
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Param       id path string true "Budget ID"
// @Success     200 {object} MessageResponse "Budget deleted"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.DeleteBudget(budgetID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("DELETE_BUDGET", "budget", budgetID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Budget deleted successfully"})
}
