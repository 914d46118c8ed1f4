package magento

import (
	"time"

	"github.com/erp/magento-connector/internal/domain/catalog"
	"github.com/google/uuid"
)

// EntityKind names the kind of remote entity
type EntityKind string

const (
	EntityCategory EntityKind = "category"
	EntityProduct  EntityKind = "product"
)

// CategoryReference links a local category to a Magento category id.
// At most one reference exists per (instance, magento id).
type CategoryReference struct {
	ID         uuid.UUID
	CategoryID uuid.UUID
	InstanceID uuid.UUID
	MagentoID  int64
	CreatedAt  time.Time
}

// NewCategoryReference creates a new category reference
func NewCategoryReference(categoryID, instanceID uuid.UUID, magentoID int64) (*CategoryReference, error) {
	if categoryID == uuid.Nil {
		return nil, ErrReferenceInvalidLocalID
	}
	if instanceID == uuid.Nil {
		return nil, ErrReferenceInvalidInstance
	}
	if magentoID <= 0 {
		return nil, ErrReferenceInvalidRemoteID
	}
	return &CategoryReference{
		ID:         uuid.New(),
		CategoryID: categoryID,
		InstanceID: instanceID,
		MagentoID:  magentoID,
		CreatedAt:  time.Now(),
	}, nil
}

// TemplateReference links a local product template to a Magento product id
// within one website. Each website the product is imported into gets its own
// reference; references are never shared between websites.
type TemplateReference struct {
	ID         uuid.UUID
	TemplateID uuid.UUID
	InstanceID uuid.UUID
	WebsiteID  uuid.UUID
	MagentoID  int64
	Subtype    catalog.Subtype
	// LinkedMagentoIDs holds the child ids read for the subtype
	// (associated, grouped or downloadable link ids)
	LinkedMagentoIDs []int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewTemplateReference creates a new template reference
func NewTemplateReference(templateID uuid.UUID, scope Scope, magentoID int64, subtype catalog.Subtype) (*TemplateReference, error) {
	if templateID == uuid.Nil {
		return nil, ErrReferenceInvalidLocalID
	}
	if scope.InstanceID == uuid.Nil {
		return nil, ErrReferenceInvalidInstance
	}
	if !scope.HasWebsite() {
		return nil, ErrReferenceInvalidWebsite
	}
	if magentoID <= 0 {
		return nil, ErrReferenceInvalidRemoteID
	}

	now := time.Now()
	return &TemplateReference{
		ID:               uuid.New(),
		TemplateID:       templateID,
		InstanceID:       scope.InstanceID,
		WebsiteID:        scope.WebsiteID,
		MagentoID:        magentoID,
		Subtype:          subtype,
		LinkedMagentoIDs: make([]int64, 0),
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// SetLinkedMagentoIDs replaces the recorded child ids
func (r *TemplateReference) SetLinkedMagentoIDs(ids []int64) {
	if ids == nil {
		ids = make([]int64, 0)
	}
	r.LinkedMagentoIDs = ids
	r.UpdatedAt = time.Now()
}
