package models

// CategoryType represents the type of category
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

// Category represents a transaction category. Categories form a tree via
// ParentID; a parent must have the same type as its children.
type Category struct {
	Base
	Name        string       `gorm:"size:50;not null" json:"name"`
	Type        CategoryType `gorm:"not null;index" json:"type"`
	Color       string       `gorm:"not null" json:"color"`
	Icon        string       `gorm:"not null" json:"icon"`
	Description string       `gorm:"size:200" json:"description,omitempty"`
	ParentID    *string      `gorm:"type:uuid" json:"parent_id,omitempty"`
	IsDefault   bool         `gorm:"default:false" json:"is_default"`
	IsActive    bool         `gorm:"default:true" json:"is_active"`

	// Relationships
	Parent   *Category  `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	Children []Category `gorm:"foreignKey:ParentID" json:"children,omitempty"`
}

// CategoryNode is a category with its recursively populated children,
// as returned by the hierarchy endpoint. Not persisted.
type CategoryNode struct {
	Category
	Children []*CategoryNode `json:"children"`
}
