package catalog

import (
	"fmt"
	"strings"

	"github.com/erp/magento-connector/internal/domain/shared"
	"github.com/google/uuid"
)

// MaxCategoryDepth is the maximum depth of category hierarchy.
// Magento trees are rooted at a store root and commonly nest 6-7 levels deep.
const MaxCategoryDepth = 10

const (
	maxCategoryCodeLen = 50
	// Magento allows 255 character category names
	maxCategoryNameLen = 255
)

// CategoryStatus represents the status of a category
type CategoryStatus string

const (
	CategoryStatusActive   CategoryStatus = "active"
	CategoryStatusInactive CategoryStatus = "inactive"
)

// Category is a node of a tenant's category tree. Path holds the ids from
// the root down to the category, separated by "/".
type Category struct {
	shared.TenantAggregateRoot
	Code        string         `gorm:"type:varchar(50);not null;index"`
	Name        string         `gorm:"type:varchar(255);not null"`
	Description string         `gorm:"type:text"`
	ParentID    *uuid.UUID     `gorm:"type:uuid;index"`
	Path        string         `gorm:"type:varchar(1000);not null;index"`
	Level       int            `gorm:"not null;default:0"`
	SortOrder   int            `gorm:"not null;default:0"`
	Status      CategoryStatus `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (Category) TableName() string {
	return "categories"
}

// NewCategory creates a root category. Codes are stored upper case.
func NewCategory(tenantID uuid.UUID, code, name string) (*Category, error) {
	if err := validateCategory(code, name); err != nil {
		return nil, err
	}

	category := &Category{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                strings.ToUpper(code),
		Name:                name,
		Status:              CategoryStatusActive,
	}
	category.Path = category.ID.String()
	return category, nil
}

// NewChildCategory creates a category one level below parent, extending
// the parent's materialized path
func NewChildCategory(tenantID uuid.UUID, code, name string, parent *Category) (*Category, error) {
	switch {
	case parent == nil:
		return nil, shared.NewDomainError("INVALID_PARENT", "Parent category is required")
	case parent.TenantID != tenantID:
		return nil, shared.NewDomainError("INVALID_PARENT", "Parent category belongs to another tenant")
	case parent.Level+1 >= MaxCategoryDepth:
		return nil, shared.NewDomainError("MAX_DEPTH_EXCEEDED",
			fmt.Sprintf("Category depth cannot exceed %d levels", MaxCategoryDepth))
	}

	category, err := NewCategory(tenantID, code, name)
	if err != nil {
		return nil, err
	}
	category.ParentID = &parent.ID
	category.Level = parent.Level + 1
	category.Path = parent.Path + "/" + category.ID.String()
	return category, nil
}

// SetSortOrder sets the position among siblings
func (c *Category) SetSortOrder(order int) {
	c.SortOrder = order
	c.IncrementVersion()
}

// IsRoot reports whether the category has no parent
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

// IsAncestorOf reports whether other lies below c in the tree
func (c *Category) IsAncestorOf(other *Category) bool {
	if other == nil || other.Path == "" {
		return false
	}
	return strings.HasPrefix(other.Path, c.Path+"/")
}

func validateCategory(code, name string) error {
	switch {
	case code == "":
		return shared.NewDomainError("INVALID_CODE", "Category code cannot be empty")
	case len(code) > maxCategoryCodeLen:
		return shared.NewDomainError("INVALID_CODE",
			fmt.Sprintf("Category code cannot exceed %d characters", maxCategoryCodeLen))
	case strings.IndexFunc(code, invalidCodeRune) >= 0:
		return shared.NewDomainError("INVALID_CODE", "Category code can only contain letters, numbers, underscores, and hyphens")
	case strings.TrimSpace(name) == "":
		return shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	case len(name) > maxCategoryNameLen:
		return shared.NewDomainError("INVALID_NAME",
			fmt.Sprintf("Category name cannot exceed %d characters", maxCategoryNameLen))
	}
	return nil
}

func invalidCodeRune(r rune) bool {
	return !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' || r == '-')
}
