package catalog

import (
	"context"

	"github.com/google/uuid"
)

// CategoryRepository defines the interface for category persistence
type CategoryRepository interface {
	// FindByIDForTenant finds a category by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Category, error)

	// FindChildren finds all direct children of a category, ordered by sort order
	FindChildren(ctx context.Context, tenantID, parentID uuid.UUID) ([]Category, error)

	// CountForTenant counts categories for a tenant
	CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)

	// Save creates or updates a category
	Save(ctx context.Context, category *Category) error
}

// ProductTemplateRepository defines the interface for product template persistence.
// Templates are always loaded and saved together with their variants.
type ProductTemplateRepository interface {
	// FindByIDForTenant finds a template by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ProductTemplate, error)

	// CountForTenant counts templates for a tenant
	CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)

	// Save creates or updates a template and its variants
	Save(ctx context.Context, template *ProductTemplate) error
}
