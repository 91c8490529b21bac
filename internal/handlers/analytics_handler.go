package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "budgetly/internal/errors"
	"budgetly/internal/services"
)

// AnalyticsHandler handles reporting requests.
type AnalyticsHandler struct {
	analyticsService services.AnalyticsServicer
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analyticsService services.AnalyticsServicer) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// GetSummary handles retrieving aggregate income and spending figures.
// @Summary     Get spending summary
// @Description Get income, expense, and per-category totals over a date range
// @Tags        analytics
// @Accept      json
// @Produce     json
// @Param       from_date query string false "Earliest date (YYYY-MM-DD)"
// @Param       to_date   query string false "Latest date (YYYY-MM-DD)"
// @Success     200 {object} services.Summary "Summary"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /analytics/summary [get]
func (h *AnalyticsHandler) GetSummary(c *gin.Context) {
	var from, to *time.Time

	if v := c.Query("from_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "from_date must be YYYY-MM-DD"))
			return
		}
		from = &t
	}
	if v := c.Query("to_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "to_date must be YYYY-MM-DD"))
			return
		}
		to = &t
	}
	if from != nil && to != nil && to.Before(*from) {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "to_date must not precede from_date"))
		return
	}

	summary, err := h.analyticsService.GetSummary(from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// GetBudgetAlerts handles retrieving budget alerts.
// @Summary     Get budget alerts
// @Description Get alerts for active budgets that are overspent, projected to overspend, or approaching their limit
// @Tags        analytics
// @Accept      json
// @Produce     json
// @Success     200 {array} services.BudgetAlert "Alerts"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /analytics/alerts [get]
func (h *AnalyticsHandler) GetBudgetAlerts(c *gin.Context) {
	alerts, err := h.analyticsService.GetBudgetAlerts()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}
