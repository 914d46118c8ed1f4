package catalog

import (
	"slices"
	"strings"

	"github.com/erp/magento-connector/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductType distinguishes stockable goods from services
type ProductType string

const (
	ProductTypeGoods   ProductType = "goods"
	ProductTypeService ProductType = "service"
)

// Subtype is the storefront product kind a template was imported as
type Subtype string

const (
	SubtypeSimple       Subtype = "simple"
	SubtypeConfigurable Subtype = "configurable"
	SubtypeGrouped      Subtype = "grouped"
	SubtypeDownloadable Subtype = "downloadable"
)

// IsValid reports whether s is a known subtype
func (s Subtype) IsValid() bool {
	switch s {
	case SubtypeSimple, SubtypeConfigurable, SubtypeGrouped, SubtypeDownloadable:
		return true
	}
	return false
}

// ProductTemplate is a sellable product line. Variants are the concrete
// purchasable units and are ordered by Sequence.
type ProductTemplate struct {
	shared.TenantAggregateRoot
	Name        string           `gorm:"type:varchar(200);not null"`
	Description string           `gorm:"type:text"`
	CategoryID  *uuid.UUID       `gorm:"type:uuid;index"`
	Type        ProductType      `gorm:"type:varchar(20);not null;default:'goods'"`
	Subtype     Subtype          `gorm:"type:varchar(20);not null"`
	ListPrice   decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	CostPrice   decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	Salable     bool             `gorm:"not null;default:true"`
	Variants    []ProductVariant `gorm:"foreignKey:TemplateID"`
}

// TableName returns the table name for GORM
func (ProductTemplate) TableName() string {
	return "product_templates"
}

// ProductVariant is a concrete sellable unit of a template
type ProductVariant struct {
	shared.BaseEntity
	TenantID    uuid.UUID `gorm:"type:uuid;not null;index"`
	TemplateID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Code        string    `gorm:"type:varchar(64);not null;index"`
	Description string    `gorm:"type:text"`
	Sequence    int       `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductVariant) TableName() string {
	return "product_variants"
}

// NewProductTemplate creates a new template without variants
func NewProductTemplate(tenantID uuid.UUID, name string, subtype Subtype, productType ProductType) (*ProductTemplate, error) {
	if err := validateTemplateName(name); err != nil {
		return nil, err
	}
	if !subtype.IsValid() {
		return nil, shared.NewDomainError("INVALID_SUBTYPE", "Unknown product subtype: "+string(subtype))
	}
	if productType != ProductTypeGoods && productType != ProductTypeService {
		return nil, shared.NewDomainError("INVALID_TYPE", "Unknown product type: "+string(productType))
	}

	return &ProductTemplate{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Type:                productType,
		Subtype:             subtype,
		ListPrice:           decimal.Zero,
		CostPrice:           decimal.Zero,
		Salable:             true,
	}, nil
}

// AddVariant appends a variant with the next sequence number
func (t *ProductTemplate) AddVariant(code, description string) (*ProductVariant, error) {
	if err := validateVariantCode(code); err != nil {
		return nil, err
	}

	variant := ProductVariant{
		BaseEntity:  shared.NewBaseEntity(),
		TenantID:    t.TenantID,
		TemplateID:  t.ID,
		Code:        code,
		Description: description,
		Sequence:    len(t.Variants) + 1,
	}
	t.Variants = append(t.Variants, variant)
	t.IncrementVersion()

	return &t.Variants[len(t.Variants)-1], nil
}

// PrimaryVariant returns the first variant, or nil when the template has none
func (t *ProductTemplate) PrimaryVariant() *ProductVariant {
	if len(t.Variants) == 0 {
		return nil
	}
	return &t.Variants[0]
}

// Clone returns a copy of t that shares no variants or category pointer
// with it
func (t *ProductTemplate) Clone() *ProductTemplate {
	c := *t
	c.Variants = slices.Clone(t.Variants)
	if t.CategoryID != nil {
		id := *t.CategoryID
		c.CategoryID = &id
	}
	return &c
}

// Rename changes the template name
func (t *ProductTemplate) Rename(name string) error {
	if err := validateTemplateName(name); err != nil {
		return err
	}
	t.Name = name
	t.IncrementVersion()
	return nil
}

// SetDescription changes the template description
func (t *ProductTemplate) SetDescription(description string) {
	t.Description = description
	t.IncrementVersion()
}

// AssignCategory assigns the template to a category
func (t *ProductTemplate) AssignCategory(categoryID uuid.UUID) {
	t.CategoryID = &categoryID
	t.IncrementVersion()
}

// SetPrices sets list and cost prices
func (t *ProductTemplate) SetPrices(listPrice, costPrice decimal.Decimal) error {
	if listPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "List price cannot be negative")
	}
	if costPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Cost price cannot be negative")
	}
	t.ListPrice = listPrice
	t.CostPrice = costPrice
	t.IncrementVersion()
	return nil
}

// SetCode changes the variant code
func (v *ProductVariant) SetCode(code string) error {
	if err := validateVariantCode(code); err != nil {
		return err
	}
	v.Code = code
	v.Touch()
	return nil
}

// SetDescription changes the variant description
func (v *ProductVariant) SetDescription(description string) {
	v.Description = description
	v.Touch()
}

func validateTemplateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}

func validateVariantCode(code string) error {
	if strings.TrimSpace(code) == "" {
		return shared.NewDomainError("INVALID_CODE", "Variant code cannot be empty")
	}
	if len(code) > 64 {
		return shared.NewDomainError("INVALID_CODE", "Variant code cannot exceed 64 characters")
	}
	return nil
}
