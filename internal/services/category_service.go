package services

import (
	"errors"
	"sort"
	"strings"

	"gorm.io/gorm"

	apperrors "budgetly/internal/errors"
	"budgetly/internal/models"
	"budgetly/internal/pagination"
)

// maxParentDepth bounds the cycle-check walk so a corrupted parent chain
// cannot loop forever. On hitting the bound we fail closed.
const maxParentDepth = 10

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a new category.
func (s *categoryService) CreateCategory(
	name string,
	categoryType models.CategoryType,
	color string,
	icon string,
	description string,
	parentID *string,
) (*models.Category, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if len(name) > 50 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name must be at most 50 characters")
	}

	// Name must be unique (case-insensitive) within the same type.
	var count int64
	if err := s.db.Model(&models.Category{}).
		Where("LOWER(name) = ? AND type = ?", strings.ToLower(name), categoryType).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateName
	}

	if parentID != nil {
		parent, err := s.GetCategoryByID(*parentID)
		if err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrCategoryNotFound, "parent category not found")
		}
		if parent.Type != categoryType {
			return nil, apperrors.ErrParentTypeMismatch
		}
	}

	category := &models.Category{
		Name:        name,
		Type:        categoryType,
		Color:       color,
		Icon:        icon,
		Description: description,
		ParentID:    parentID,
		IsActive:    true,
	}

	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return category, nil
}

// GetCategories retrieves a paginated list of categories with optional type
// and active-only filters.
func (s *categoryService) GetCategories(page pagination.PageRequest, categoryType *models.CategoryType, activeOnly bool) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	base := s.db.Model(&models.Category{})
	if categoryType != nil {
		base = base.Where("type = ?", *categoryType)
	}
	if activeOnly {
		base = base.Where("is_active = ?", true)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := base.Order("name ASC").Scopes(pagination.Paginate(page)).Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(categories, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetCategoryByID retrieves a category by ID.
func (s *categoryService) GetCategoryByID(categoryID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Where("id = ?", categoryID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// GetHierarchy returns all active categories as a forest of root nodes with
// recursively populated children.
func (s *categoryService) GetHierarchy() ([]*models.CategoryNode, error) {
	var categories []models.Category
	if err := s.db.Where("is_active = ?", true).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return BuildHierarchy(categories), nil
}

// BuildHierarchy assembles a parent/children forest from a flat category
// list in two passes: one to index nodes by ID, one to attach each non-root
// node to its parent. A node whose parent is not in the input is an orphan
// and is silently omitted from the forest. Children lists come out sorted
// by name.
func BuildHierarchy(categories []models.Category) []*models.CategoryNode {
	sort.SliceStable(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})

	nodes := make(map[string]*models.CategoryNode, len(categories))
	for i := range categories {
		nodes[categories[i].ID] = &models.CategoryNode{
			Category: categories[i],
			Children: []*models.CategoryNode{},
		}
	}

	roots := make([]*models.CategoryNode, 0, len(categories))
	for i := range categories {
		node := nodes[categories[i].ID]
		if categories[i].ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*categories[i].ParentID]
		if !ok {
			// Dangling parent reference: drop the orphan rather than
			// failing the whole listing.
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	return roots
}

// UpdateCategory updates an existing category. Structural fields (name,
// parent) of default categories cannot be changed.
func (s *categoryService) UpdateCategory(categoryID string, upd CategoryUpdate) (*models.Category, error) {
	category, err := s.GetCategoryByID(categoryID)
	if err != nil {
		return nil, err
	}

	structural := upd.Name != nil || upd.ParentID != nil || upd.ClearParent
	if category.IsDefault && structural {
		return nil, apperrors.ErrDefaultCategoryFixed
	}

	updates := make(map[string]interface{})

	if upd.Name != nil {
		if *upd.Name == "" || len(*upd.Name) > 50 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name must be 1-50 characters")
		}
		var count int64
		if err := s.db.Model(&models.Category{}).
			Where("LOWER(name) = ? AND type = ? AND id <> ?", strings.ToLower(*upd.Name), category.Type, categoryID).
			Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return nil, apperrors.ErrDuplicateName
		}
		updates["name"] = *upd.Name
	}

	if upd.ParentID != nil {
		if *upd.ParentID == categoryID {
			return nil, apperrors.ErrCategoryCycle
		}
		parent, err := s.GetCategoryByID(*upd.ParentID)
		if err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrCategoryNotFound, "parent category not found")
		}
		if parent.Type != category.Type {
			return nil, apperrors.ErrParentTypeMismatch
		}
		cycle, err := s.wouldCreateCycle(categoryID, *upd.ParentID)
		if err != nil || cycle {
			// Traversal failures fail closed and are treated as a cycle.
			return nil, apperrors.ErrCategoryCycle
		}
		updates["parent_id"] = *upd.ParentID
	} else if upd.ClearParent {
		updates["parent_id"] = nil
	}

	if upd.Color != nil {
		updates["color"] = *upd.Color
	}
	if upd.Icon != nil {
		updates["icon"] = *upd.Icon
	}
	if upd.Description != nil {
		if len(*upd.Description) > 200 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "description must be at most 200 characters")
		}
		updates["description"] = *upd.Description
	}
	if upd.IsActive != nil {
		updates["is_active"] = *upd.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(category).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return category, nil
}

// wouldCreateCycle walks the parent chain upward from proposedParentID and
// reports whether categoryID is encountered. The walk is bounded to
// maxParentDepth levels.
func (s *categoryService) wouldCreateCycle(categoryID, proposedParentID string) (bool, error) {
	current := proposedParentID
	for depth := 0; depth < maxParentDepth; depth++ {
		if current == categoryID {
			return true, nil
		}
		var parent models.Category
		if err := s.db.Select("id", "parent_id").Where("id = ?", current).First(&parent).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, nil
			}
			return true, err
		}
		if parent.ParentID == nil {
			return false, nil
		}
		current = *parent.ParentID
	}
	// Chain deeper than the bound: assume pre-existing corruption.
	return true, nil
}

// DeleteCategory deletes a category if it is not a seeded default, has no
// children, and is not referenced by any transaction.
func (s *categoryService) DeleteCategory(categoryID string) error {
	category, err := s.GetCategoryByID(categoryID)
	if err != nil {
		return err
	}

	if category.IsDefault {
		return apperrors.WithMessage(apperrors.ErrDefaultCategoryFixed, "Default categories cannot be deleted")
	}

	var childCount int64
	if err := s.db.Model(&models.Category{}).Where("parent_id = ?", categoryID).Count(&childCount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if childCount > 0 {
		return apperrors.ErrCategoryHasChildren
	}

	var txCount int64
	if err := s.db.Model(&models.Transaction{}).Where("category_id = ?", categoryID).Count(&txCount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if txCount > 0 {
		return apperrors.ErrCategoryInUse
	}

	if err := s.db.Delete(category).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
