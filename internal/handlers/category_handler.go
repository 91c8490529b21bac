package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "budgetly/internal/errors"
	"budgetly/internal/models"
	"budgetly/internal/pagination"
	"budgetly/internal/services"
)

// CategoryHandler handles category-related requests.
type CategoryHandler struct {
	categoryService services.CategoryServicer
	auditService    services.AuditServicer
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(categoryService services.CategoryServicer, auditService services.AuditServicer) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, auditService: auditService}
}

// CreateCategoryRequest represents the request payload for creating a category.
type CreateCategoryRequest struct {
	Name        string              `json:"name" binding:"required,min=1,max=50"`
	Type        models.CategoryType `json:"type" binding:"required,category_type"`
	Color       string              `json:"color" binding:"required,hex_color"`
	Icon        string              `json:"icon" binding:"required"`
	Description string              `json:"description" binding:"omitempty,max=200"`
	ParentID    *string             `json:"parent_id"`
}

// UpdateCategoryRequest represents the request payload for updating a category.
// Omitted fields are left unchanged; clear_parent detaches the category from
// its parent.
type UpdateCategoryRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=50"`
	Color       *string `json:"color" binding:"omitempty,hex_color"`
	Icon        *string `json:"icon" binding:"omitempty,min=1"`
	Description *string `json:"description" binding:"omitempty,max=200"`
	ParentID    *string `json:"parent_id"`
	ClearParent bool    `json:"clear_parent"`
	IsActive    *bool   `json:"is_active"`
}

// CreateCategory handles the creation of a new category.
// @Summary     Create a category
// @Description Create a new transaction category
// @Tags        categories
// @Accept      json
// @Produce     json
// @Param       request body CreateCategoryRequest true "Category details"
// @Success     201 {object} models.Category "Category created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Duplicate name"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	category, err := h.categoryService.CreateCategory(
		req.Name, req.Type, req.Color, req.Icon, req.Description, req.ParentID,
	)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("CREATE_CATEGORY", "category", category.ID, c.ClientIP(),
		map[string]interface{}{"name": req.Name, "type": req.Type})

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// GetCategories handles listing categories.
// @Summary     Get categories
// @Description Get a paginated list of categories
// @Tags        categories
// @Accept      json
// @Produce     json
// @Param       type        query string false "Filter by category type (income/expense)"
// @Param       active_only query bool   false "Exclude inactive categories"
// @Param       page        query int    false "Page number (default 1)"
// @Param       page_size   query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Category] "Paginated categories"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories [get]
func (h *CategoryHandler) GetCategories(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var categoryType *models.CategoryType
	if v := c.Query("type"); v != "" {
		if v != string(models.CategoryTypeIncome) && v != string(models.CategoryTypeExpense) {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "type must be income or expense"))
			return
		}
		t := models.CategoryType(v)
		categoryType = &t
	}

	activeOnly := c.Query("active_only") == "true"

	result, err := h.categoryService.GetCategories(page, categoryType, activeOnly)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCategoryHierarchy handles retrieving the category tree.
// @Summary     Get category hierarchy
// @Description Get all active categories arranged as parent/child trees
// @Tags        categories
// @Accept      json
// @Produce     json
// @Success     200 {array} models.CategoryNode "Category trees"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories/hierarchy [get]
func (h *CategoryHandler) GetCategoryHierarchy(c *gin.Context) {
	nodes, err := h.categoryService.GetHierarchy()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": nodes})
}

// GetCategoryByID handles the retrieval of a specific category.
// @Summary     Get category by ID
// @Description Get a specific category by ID
// @Tags        categories
// @Accept      json
// @Produce     json
// @Param       id path string true "Category ID"
// @Success     200 {object} models.Category "Category details"
// @Failure     400 {object} ErrorResponse "Invalid category ID"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories/{id} [get]
func (h *CategoryHandler) GetCategoryByID(c *gin.Context) {
	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	category, err := h.categoryService.GetCategoryByID(categoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// UpdateCategory handles updating a category.
// @Summary     Update category
// @Description Update an existing category; omitted fields are unchanged
// @Tags        categories
// @Accept      json
// @Produce     json
// @Param       id      path string                true "Category ID"
// @Param       request body UpdateCategoryRequest true "Updated category details"
// @Success     200 {object} models.Category "Updated category"
// @Failure     400 {object} ErrorResponse "Invalid input or category ID"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Duplicate name or cycle"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	category, err := h.categoryService.UpdateCategory(categoryID, services.CategoryUpdate{
		Name:        req.Name,
		Color:       req.Color,
		Icon:        req.Icon,
		Description: req.Description,
		ParentID:    req.ParentID,
		ClearParent: req.ClearParent,
		IsActive:    req.IsActive,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("UPDATE_CATEGORY", "category", category.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// DeleteCategory handles deleting a category.
// @Summary     Delete category
// @Description Delete a category with no children and no transactions
// @Tags        categories
// @Accept      json
// @Produce     json
// @Param       id path string true "Category ID"
// @Success     200 {object} MessageResponse "Category deleted"
// @Failure     400 {object} ErrorResponse "Invalid category ID"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Category in use"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.categoryService.DeleteCategory(categoryID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("DELETE_CATEGORY", "category", categoryID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}
