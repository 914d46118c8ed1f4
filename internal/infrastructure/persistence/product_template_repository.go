package persistence

import (
	"context"

	"github.com/erp/magento-connector/internal/domain/catalog"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductTemplateRepository implements ProductTemplateRepository using GORM
type GormProductTemplateRepository struct {
	db *gorm.DB
}

// NewGormProductTemplateRepository creates a new GormProductTemplateRepository
func NewGormProductTemplateRepository(db *gorm.DB) *GormProductTemplateRepository {
	return &GormProductTemplateRepository{db: db}
}

// FindByIDForTenant finds a template with its variants
func (r *GormProductTemplateRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.ProductTemplate, error) {
	var template catalog.ProductTemplate
	if err := r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&template).Error; err != nil {
		return nil, translateError(err)
	}
	return &template, nil
}

// CountForTenant counts templates for a tenant
func (r *GormProductTemplateRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&catalog.ProductTemplate{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a template and its variants. Stored variants no
// longer on the template are deleted. Callers needing atomicity run it inside
// a transaction scope.
func (r *GormProductTemplateRepository) Save(ctx context.Context, template *catalog.ProductTemplate) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Save(template).Error; err != nil {
		return translateError(err)
	}

	variantIDs := make([]uuid.UUID, len(template.Variants))
	for i := range template.Variants {
		variantIDs[i] = template.Variants[i].ID
	}
	stale := db.Where("template_id = ?", template.ID)
	if len(variantIDs) > 0 {
		stale = stale.Where("id NOT IN ?", variantIDs)
	}
	if err := stale.Delete(&catalog.ProductVariant{}).Error; err != nil {
		return translateError(err)
	}

	for i := range template.Variants {
		template.Variants[i].TemplateID = template.ID
		if err := db.Save(&template.Variants[i]).Error; err != nil {
			return translateError(err)
		}
	}
	return nil
}

// Ensure GormProductTemplateRepository implements ProductTemplateRepository
var _ catalog.ProductTemplateRepository = (*GormProductTemplateRepository)(nil)
