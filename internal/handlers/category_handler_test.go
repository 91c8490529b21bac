package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "budgetly/internal/errors"
	"budgetly/internal/models"
	"budgetly/internal/pagination"
	"budgetly/internal/services"
)

// --- mock category service ---

type mockCategoryService struct {
	createCategoryFn  func(name string, categoryType models.CategoryType, color, icon, description string, parentID *string) (*models.Category, error)
	getCategoriesFn   func(page pagination.PageRequest, categoryType *models.CategoryType, activeOnly bool) (*pagination.PageResponse[models.Category], error)
	getCategoryByIDFn func(categoryID string) (*models.Category, error)
	getHierarchyFn    func() ([]*models.CategoryNode, error)
	updateCategoryFn  func(categoryID string, upd services.CategoryUpdate) (*models.Category, error)
	deleteCategoryFn  func(categoryID string) error
}

func (m *mockCategoryService) CreateCategory(name string, categoryType models.CategoryType, color, icon, description string, parentID *string) (*models.Category, error) {
	if m.createCategoryFn != nil {
		return m.createCategoryFn(name, categoryType, color, icon, description, parentID)
	}
	return &models.Category{}, nil
}

func (m *mockCategoryService) GetCategories(page pagination.PageRequest, categoryType *models.CategoryType, activeOnly bool) (*pagination.PageResponse[models.Category], error) {
	if m.getCategoriesFn != nil {
		return m.getCategoriesFn(page, categoryType, activeOnly)
	}
	resp := pagination.NewPageResponse([]models.Category{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockCategoryService) GetCategoryByID(categoryID string) (*models.Category, error) {
	if m.getCategoryByIDFn != nil {
		return m.getCategoryByIDFn(categoryID)
	}
	return &models.Category{}, nil
}

func (m *mockCategoryService) GetHierarchy() ([]*models.CategoryNode, error) {
	if m.getHierarchyFn != nil {
		return m.getHierarchyFn()
	}
	return []*models.CategoryNode{}, nil
}

func (m *mockCategoryService) UpdateCategory(categoryID string, upd services.CategoryUpdate) (*models.Category, error) {
	if m.updateCategoryFn != nil {
		return m.updateCategoryFn(categoryID, upd)
	}
	return &models.Category{}, nil
}

func (m *mockCategoryService) DeleteCategory(categoryID string) error {
	if m.deleteCategoryFn != nil {
		return m.deleteCategoryFn(categoryID)
	}
	return nil
}

var _ services.CategoryServicer = (*mockCategoryService)(nil)

func setupCategoryRouter(handler *CategoryHandler) *gin.Engine {
	r := gin.New()
	r.POST("/categories", handler.CreateCategory)
	r.GET("/categories", handler.GetCategories)
	r.GET("/categories/hierarchy", handler.GetCategoryHierarchy)
	r.GET("/categories/:id", handler.GetCategoryByID)
	r.PUT("/categories/:id", handler.UpdateCategory)
	r.DELETE("/categories/:id", handler.DeleteCategory)
	return r
}

func TestCategoryHandler_CreateCategory(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		svc := &mockCategoryService{
			createCategoryFn: func(name string, categoryType models.CategoryType, color, icon, _ string, _ *string) (*models.Category, error) {
				return &models.Category{
					Base:     models.Base{ID: testCategoryID},
					Name:     name,
					Type:     categoryType,
					Color:    color,
					Icon:     icon,
					IsActive: true,
				}, nil
			},
		}
		handler := NewCategoryHandler(svc, &mockAuditService{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "POST", "/categories",
			`{"name":"Groceries","type":"expense","color":"#4CAF50","icon":"cart"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		category := result["category"].(map[string]interface{})
		if category["name"] != "Groceries" {
			t.Errorf("expected Groceries, got %v", category["name"])
		}
	})

	t.Run("returns 400 on missing name", func(t *testing.T) {
		handler := NewCategoryHandler(&mockCategoryService{}, &mockAuditService{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "POST", "/categories",
			`{"type":"expense","color":"#4CAF50","icon":"cart"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on invalid color", func(t *testing.T) {
		handler := NewCategoryHandler(&mockCategoryService{}, &mockAuditService{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "POST", "/categories",
			`{"name":"Groceries","type":"expense","color":"green","icon":"cart"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 409 on duplicate name", func(t *testing.T) {
		svc := &mockCategoryService{
			createCategoryFn: func(_ string, _ models.CategoryType, _, _, _ string, _ *string) (*models.Category, error) {
				return nil, apperrors.ErrDuplicateName
			},
		}
		handler := NewCategoryHandler(svc, &mockAuditService{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "POST", "/categories",
			`{"name":"Groceries","type":"expense","color":"#4CAF50","icon":"cart"}`)

		if rec.Code != apperrors.ErrDuplicateName.StatusCode {
			t.Fatalf("expected %d, got %d", apperrors.ErrDuplicateName.StatusCode, rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), apperrors.ErrDuplicateName.Code)
	})
}

func TestCategoryHandler_GetCategories(t *testing.T) {
	t.Run("passes type filter to the service", func(t *testing.T) {
		var gotType *models.CategoryType
		svc := &mockCategoryService{
			getCategoriesFn: func(_ pagination.PageRequest, categoryType *models.CategoryType, _ bool) (*pagination.PageResponse[models.Category], error) {
				gotType = categoryType
				resp := pagination.NewPageResponse([]models.Category{}, 1, 20, 0)
				return &resp, nil
			},
		}
		handler := NewCategoryHandler(svc, &mockAuditService{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "GET", "/categories?type=income", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotType == nil || *gotType != models.CategoryTypeIncome {
			t.Errorf("expected income type filter, got %v", gotType)
		}
	})

	t.Run("rejects unknown type filter", func(t *testing.T) {
		handler := NewCategoryHandler(&mockCategoryService{}, &mockAuditService{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "GET", "/categories?type=savings", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestCategoryHandler_GetCategoryByID(t *testing.T) {
	t.Run("returns 400 on malformed id", func(t *testing.T) {
		handler := NewCategoryHandler(&mockCategoryService{}, &mockAuditService{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "GET", "/categories/not-a-uuid", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 404 when not found", func(t *testing.T) {
		svc := &mockCategoryService{
			getCategoryByIDFn: func(_ string) (*models.Category, error) {
				return nil, apperrors.ErrCategoryNotFound
			},
		}
		handler := NewCategoryHandler(svc, &mockAuditService{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "GET", "/categories/"+testCategoryID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), apperrors.ErrCategoryNotFound.Code)
	})
}

func TestCategoryHandler_UpdateCategory(t *testing.T) {
	t.Run("forwards only provided fields", func(t *testing.T) {
		var gotUpdate services.CategoryUpdate
		svc := &mockCategoryService{
			updateCategoryFn: func(_ string, upd services.CategoryUpdate) (*models.Category, error) {
				gotUpdate = upd
				return &models.Category{Base: models.Base{ID: testCategoryID}}, nil
			},
		}
		handler := NewCategoryHandler(svc, &mockAuditService{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "PUT", "/categories/"+testCategoryID, `{"color":"#123456"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotUpdate.Color == nil || *gotUpdate.Color != "#123456" {
			t.Errorf("expected color update, got %+v", gotUpdate)
		}
		if gotUpdate.Name != nil {
			t.Errorf("expected nil name, got %v", *gotUpdate.Name)
		}
	})
}

func TestCategoryHandler_DeleteCategory(t *testing.T) {
	t.Run("returns 409 when category is in use", func(t *testing.T) {
		svc := &mockCategoryService{
			deleteCategoryFn: func(_ string) error {
				return apperrors.ErrCategoryInUse
			},
		}
		handler := NewCategoryHandler(svc, &mockAuditService{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "DELETE", "/categories/"+testCategoryID, "")

		if rec.Code != apperrors.ErrCategoryInUse.StatusCode {
			t.Fatalf("expected %d, got %d", apperrors.ErrCategoryInUse.StatusCode, rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), apperrors.ErrCategoryInUse.Code)
	})
}
