package models

import (
	"encoding/json"
	"time"

	"github.com/erp/magento-connector/internal/domain/catalog"
	"github.com/erp/magento-connector/internal/domain/magento"
	"github.com/google/uuid"
)

// InstanceModel is the persistence model for the Instance domain entity.
type InstanceModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(100);not null"`
	URL       string    `gorm:"type:varchar(255);not null"`
	APIUser   string    `gorm:"type:varchar(100);not null"`
	APIKey    string    `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InstanceModel) TableName() string {
	return "magento_instances"
}

// ToDomain converts the persistence model to a domain Instance.
func (m *InstanceModel) ToDomain() *magento.Instance {
	return &magento.Instance{
		ID:        m.ID,
		TenantID:  m.TenantID,
		Name:      m.Name,
		URL:       m.URL,
		APIUser:   m.APIUser,
		APIKey:    m.APIKey,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// InstanceModelFromDomain creates a persistence model from a domain Instance.
func InstanceModelFromDomain(i *magento.Instance) *InstanceModel {
	return &InstanceModel{
		ID:        i.ID,
		TenantID:  i.TenantID,
		Name:      i.Name,
		URL:       i.URL,
		APIUser:   i.APIUser,
		APIKey:    i.APIKey,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}

// WebsiteModel is the persistence model for the Website domain entity.
type WebsiteModel struct {
	ID                uuid.UUID  `gorm:"type:uuid;primary_key"`
	InstanceID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_magento_website_instance_magento,priority:1"`
	MagentoID         int64      `gorm:"not null;uniqueIndex:idx_magento_website_instance_magento,priority:2"`
	Name              string     `gorm:"type:varchar(100);not null"`
	Code              string     `gorm:"type:varchar(50);not null"`
	DefaultCategoryID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt         time.Time  `gorm:"not null"`
	UpdatedAt         time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (WebsiteModel) TableName() string {
	return "magento_websites"
}

// ToDomain converts the persistence model to a domain Website.
func (m *WebsiteModel) ToDomain() *magento.Website {
	return &magento.Website{
		ID:                m.ID,
		InstanceID:        m.InstanceID,
		MagentoID:         m.MagentoID,
		Name:              m.Name,
		Code:              m.Code,
		DefaultCategoryID: m.DefaultCategoryID,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// WebsiteModelFromDomain creates a persistence model from a domain Website.
func WebsiteModelFromDomain(w *magento.Website) *WebsiteModel {
	return &WebsiteModel{
		ID:                w.ID,
		InstanceID:        w.InstanceID,
		MagentoID:         w.MagentoID,
		Name:              w.Name,
		Code:              w.Code,
		DefaultCategoryID: w.DefaultCategoryID,
		CreatedAt:         w.CreatedAt,
		UpdatedAt:         w.UpdatedAt,
	}
}

// CategoryReferenceModel is the persistence model for CategoryReference.
// The unique index enforces one reference per (instance, magento id).
type CategoryReferenceModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	CategoryID uuid.UUID `gorm:"type:uuid;not null;index"`
	InstanceID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_magento_category_ref_instance_magento,priority:1"`
	MagentoID  int64     `gorm:"not null;uniqueIndex:idx_magento_category_ref_instance_magento,priority:2"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CategoryReferenceModel) TableName() string {
	return "magento_category_references"
}

// ToDomain converts the persistence model to a domain CategoryReference.
func (m *CategoryReferenceModel) ToDomain() *magento.CategoryReference {
	return &magento.CategoryReference{
		ID:         m.ID,
		CategoryID: m.CategoryID,
		InstanceID: m.InstanceID,
		MagentoID:  m.MagentoID,
		CreatedAt:  m.CreatedAt,
	}
}

// CategoryReferenceModelFromDomain creates a persistence model from a domain CategoryReference.
func CategoryReferenceModelFromDomain(r *magento.CategoryReference) *CategoryReferenceModel {
	return &CategoryReferenceModel{
		ID:         r.ID,
		CategoryID: r.CategoryID,
		InstanceID: r.InstanceID,
		MagentoID:  r.MagentoID,
		CreatedAt:  r.CreatedAt,
	}
}

// TemplateReferenceModel is the persistence model for TemplateReference.
// The unique index enforces one reference per (website, magento id).
type TemplateReferenceModel struct {
	ID                   uuid.UUID       `gorm:"type:uuid;primary_key"`
	TemplateID           uuid.UUID       `gorm:"type:uuid;not null;index:idx_magento_template_ref_template,priority:2"`
	InstanceID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	WebsiteID            uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_magento_template_ref_website_magento,priority:1;index:idx_magento_template_ref_template,priority:1"`
	MagentoID            int64           `gorm:"not null;uniqueIndex:idx_magento_template_ref_website_magento,priority:2"`
	Subtype              catalog.Subtype `gorm:"type:varchar(20);not null"`
	LinkedMagentoIDsJSON string          `gorm:"type:text;column:linked_magento_ids"`
	CreatedAt            time.Time       `gorm:"not null"`
	UpdatedAt            time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TemplateReferenceModel) TableName() string {
	return "magento_template_references"
}

// ToDomain converts the persistence model to a domain TemplateReference.
func (m *TemplateReferenceModel) ToDomain() *magento.TemplateReference {
	ref := &magento.TemplateReference{
		ID:               m.ID,
		TemplateID:       m.TemplateID,
		InstanceID:       m.InstanceID,
		WebsiteID:        m.WebsiteID,
		MagentoID:        m.MagentoID,
		Subtype:          m.Subtype,
		LinkedMagentoIDs: make([]int64, 0),
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}

	if m.LinkedMagentoIDsJSON != "" {
		var ids []int64
		if err := json.Unmarshal([]byte(m.LinkedMagentoIDsJSON), &ids); err == nil && ids != nil {
			ref.LinkedMagentoIDs = ids
		}
	}

	return ref
}

// TemplateReferenceModelFromDomain creates a persistence model from a domain TemplateReference.
func TemplateReferenceModelFromDomain(r *magento.TemplateReference) *TemplateReferenceModel {
	m := &TemplateReferenceModel{
		ID:                   r.ID,
		TemplateID:           r.TemplateID,
		InstanceID:           r.InstanceID,
		WebsiteID:            r.WebsiteID,
		MagentoID:            r.MagentoID,
		Subtype:              r.Subtype,
		LinkedMagentoIDsJSON: "[]",
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}

	if len(r.LinkedMagentoIDs) > 0 {
		if jsonBytes, err := json.Marshal(r.LinkedMagentoIDs); err == nil {
			m.LinkedMagentoIDsJSON = string(jsonBytes)
		}
	}

	return m
}

// AllModels lists every model owned by the connector, in creation order.
func AllModels() []any {
	return []any{
		&catalog.Category{},
		&catalog.ProductTemplate{},
		&catalog.ProductVariant{},
		&InstanceModel{},
		&WebsiteModel{},
		&CategoryReferenceModel{},
		&TemplateReferenceModel{},
	}
}
