package persistence

import (
	"context"

	"github.com/erp/magento-connector/internal/domain/catalog"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCategoryRepository stores categories in the categories table. Every
// read is restricted to one tenant.
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

func (r *GormCategoryRepository) tenant(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Model(&catalog.Category{}).Where("tenant_id = ?", tenantID)
}

// FindByIDForTenant returns shared.ErrNotFound when the category does not
// exist or belongs to another tenant
func (r *GormCategoryRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Category, error) {
	var category catalog.Category
	err := r.tenant(ctx, tenantID).Where("id = ?", id).First(&category).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &category, nil
}

// FindChildren lists the direct children of parentID by position, then name
func (r *GormCategoryRepository) FindChildren(ctx context.Context, tenantID, parentID uuid.UUID) ([]catalog.Category, error) {
	var children []catalog.Category
	err := r.tenant(ctx, tenantID).
		Where("parent_id = ?", parentID).
		Order("sort_order ASC, name ASC").
		Find(&children).Error
	return children, err
}

// CountForTenant counts the tenant's categories
func (r *GormCategoryRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var n int64
	err := r.tenant(ctx, tenantID).Count(&n).Error
	return n, err
}

// Save inserts or updates category
func (r *GormCategoryRepository) Save(ctx context.Context, category *catalog.Category) error {
	return translateError(r.db.WithContext(ctx).Save(category).Error)
}

var _ catalog.CategoryRepository = (*GormCategoryRepository)(nil)
