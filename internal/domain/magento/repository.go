package magento

import (
	"context"

	"github.com/google/uuid"
)

// InstanceRepository persists instances
type InstanceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Instance, error)
	Save(ctx context.Context, instance *Instance) error
}

// WebsiteRepository persists websites
type WebsiteRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Website, error)
	FindByMagentoID(ctx context.Context, instanceID uuid.UUID, magentoID int64) (*Website, error)
	Save(ctx context.Context, website *Website) error
}

// CategoryReferenceRepository persists category cross-references
type CategoryReferenceRepository interface {
	// FindByMagentoID returns the reference for (instance, magento id)
	FindByMagentoID(ctx context.Context, instanceID uuid.UUID, magentoID int64) (*CategoryReference, error)

	// FindByCategoryID returns every reference pointing at a local category
	FindByCategoryID(ctx context.Context, categoryID uuid.UUID) ([]CategoryReference, error)

	// CountByInstance counts references recorded for an instance
	CountByInstance(ctx context.Context, instanceID uuid.UUID) (int64, error)

	Save(ctx context.Context, ref *CategoryReference) error
}

// TemplateReferenceRepository persists product template cross-references
type TemplateReferenceRepository interface {
	// FindByMagentoID returns the reference for (website, magento id)
	FindByMagentoID(ctx context.Context, websiteID uuid.UUID, magentoID int64) (*TemplateReference, error)

	// FindByTemplateID returns the reference of a template within a website
	FindByTemplateID(ctx context.Context, websiteID, templateID uuid.UUID) (*TemplateReference, error)

	// CountByWebsite counts references recorded for a website
	CountByWebsite(ctx context.Context, websiteID uuid.UUID) (int64, error)

	Save(ctx context.Context, ref *TemplateReference) error
}
