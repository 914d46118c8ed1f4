package persistence

import (
	"context"

	"github.com/erp/magento-connector/internal/domain/magento"
	"github.com/erp/magento-connector/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ---------------------------------------------------------------------------
// Instances
// ---------------------------------------------------------------------------

// GormInstanceRepository implements InstanceRepository using GORM
type GormInstanceRepository struct {
	db *gorm.DB
}

// NewGormInstanceRepository creates a new GormInstanceRepository
func NewGormInstanceRepository(db *gorm.DB) *GormInstanceRepository {
	return &GormInstanceRepository{db: db}
}

// FindByID finds an instance by its ID
func (r *GormInstanceRepository) FindByID(ctx context.Context, id uuid.UUID) (*magento.Instance, error) {
	var model models.InstanceModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// Save creates or updates an instance
func (r *GormInstanceRepository) Save(ctx context.Context, instance *magento.Instance) error {
	return translateError(r.db.WithContext(ctx).Save(models.InstanceModelFromDomain(instance)).Error)
}

// ---------------------------------------------------------------------------
// Websites
// ---------------------------------------------------------------------------

// GormWebsiteRepository implements WebsiteRepository using GORM
type GormWebsiteRepository struct {
	db *gorm.DB
}

// NewGormWebsiteRepository creates a new GormWebsiteRepository
func NewGormWebsiteRepository(db *gorm.DB) *GormWebsiteRepository {
	return &GormWebsiteRepository{db: db}
}

// FindByID finds a website by its ID
func (r *GormWebsiteRepository) FindByID(ctx context.Context, id uuid.UUID) (*magento.Website, error) {
	var model models.WebsiteModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByMagentoID finds a website by its Magento id within an instance
func (r *GormWebsiteRepository) FindByMagentoID(ctx context.Context, instanceID uuid.UUID, magentoID int64) (*magento.Website, error) {
	var model models.WebsiteModel
	if err := r.db.WithContext(ctx).
		Where("instance_id = ? AND magento_id = ?", instanceID, magentoID).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// Save creates or updates a website
func (r *GormWebsiteRepository) Save(ctx context.Context, website *magento.Website) error {
	return translateError(r.db.WithContext(ctx).Save(models.WebsiteModelFromDomain(website)).Error)
}

// ---------------------------------------------------------------------------
// Category references
// ---------------------------------------------------------------------------

// GormCategoryReferenceRepository implements CategoryReferenceRepository using GORM
type GormCategoryReferenceRepository struct {
	db *gorm.DB
}

// NewGormCategoryReferenceRepository creates a new GormCategoryReferenceRepository
func NewGormCategoryReferenceRepository(db *gorm.DB) *GormCategoryReferenceRepository {
	return &GormCategoryReferenceRepository{db: db}
}

// FindByMagentoID finds the reference for (instance, magento id)
func (r *GormCategoryReferenceRepository) FindByMagentoID(ctx context.Context, instanceID uuid.UUID, magentoID int64) (*magento.CategoryReference, error) {
	var model models.CategoryReferenceModel
	if err := r.db.WithContext(ctx).
		Where("instance_id = ? AND magento_id = ?", instanceID, magentoID).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByCategoryID finds every reference to a local category
func (r *GormCategoryReferenceRepository) FindByCategoryID(ctx context.Context, categoryID uuid.UUID) ([]magento.CategoryReference, error) {
	var refModels []models.CategoryReferenceModel
	if err := r.db.WithContext(ctx).
		Where("category_id = ?", categoryID).
		Order("created_at ASC").
		Find(&refModels).Error; err != nil {
		return nil, err
	}

	refs := make([]magento.CategoryReference, len(refModels))
	for i := range refModels {
		refs[i] = *refModels[i].ToDomain()
	}
	return refs, nil
}

// CountByInstance counts references recorded for an instance
func (r *GormCategoryReferenceRepository) CountByInstance(ctx context.Context, instanceID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.CategoryReferenceModel{}).
		Where("instance_id = ?", instanceID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates a reference; references are never updated
func (r *GormCategoryReferenceRepository) Save(ctx context.Context, ref *magento.CategoryReference) error {
	return translateError(r.db.WithContext(ctx).Create(models.CategoryReferenceModelFromDomain(ref)).Error)
}

// ---------------------------------------------------------------------------
// Template references
// ---------------------------------------------------------------------------

// GormTemplateReferenceRepository implements TemplateReferenceRepository using GORM
type GormTemplateReferenceRepository struct {
	db *gorm.DB
}

// NewGormTemplateReferenceRepository creates a new GormTemplateReferenceRepository
func NewGormTemplateReferenceRepository(db *gorm.DB) *GormTemplateReferenceRepository {
	return &GormTemplateReferenceRepository{db: db}
}

// FindByMagentoID finds the reference for (website, magento id)
func (r *GormTemplateReferenceRepository) FindByMagentoID(ctx context.Context, websiteID uuid.UUID, magentoID int64) (*magento.TemplateReference, error) {
	var model models.TemplateReferenceModel
	if err := r.db.WithContext(ctx).
		Where("website_id = ? AND magento_id = ?", websiteID, magentoID).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByTemplateID finds the reference of a template within a website
func (r *GormTemplateReferenceRepository) FindByTemplateID(ctx context.Context, websiteID, templateID uuid.UUID) (*magento.TemplateReference, error) {
	var model models.TemplateReferenceModel
	if err := r.db.WithContext(ctx).
		Where("website_id = ? AND template_id = ?", websiteID, templateID).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// CountByWebsite counts references recorded for a website
func (r *GormTemplateReferenceRepository) CountByWebsite(ctx context.Context, websiteID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.TemplateReferenceModel{}).
		Where("website_id = ?", websiteID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a reference
func (r *GormTemplateReferenceRepository) Save(ctx context.Context, ref *magento.TemplateReference) error {
	return translateError(r.db.WithContext(ctx).Save(models.TemplateReferenceModelFromDomain(ref)).Error)
}

// Ensure the GORM repositories implement the domain interfaces
var (
	_ magento.InstanceRepository          = (*GormInstanceRepository)(nil)
	_ magento.WebsiteRepository           = (*GormWebsiteRepository)(nil)
	_ magento.CategoryReferenceRepository = (*GormCategoryReferenceRepository)(nil)
	_ magento.TemplateReferenceRepository = (*GormTemplateReferenceRepository)(nil)
)
