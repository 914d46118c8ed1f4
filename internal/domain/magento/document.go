package magento

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// FlexInt is an integer that Magento may encode either as a JSON number or
// as a quoted string. null and "" decode to zero.
type FlexInt int64

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(strings.TrimSpace(s))
		if len(data) == 0 {
			*f = 0
			return nil
		}
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("magento: %q is not an integer id", data)
	}
	*f = FlexInt(n)
	return nil
}

// Int64 returns the value as int64
func (f FlexInt) Int64() int64 {
	return int64(f)
}

// FlexIDs is a list of ids encoded as numbers or strings
type FlexIDs []FlexInt

// Int64s returns the ids as int64 values, skipping zeros
func (ids FlexIDs) Int64s() []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id > 0 {
			out = append(out, int64(id))
		}
	}
	return out
}

// First returns the first non-zero id
func (ids FlexIDs) First() (int64, bool) {
	for _, id := range ids {
		if id > 0 {
			return int64(id), true
		}
	}
	return 0, false
}

// CategoryDocument is a node of a Magento category tree, as returned by
// catalog_category.tree (with children) or catalog_category.info (without).
type CategoryDocument struct {
	CategoryID FlexInt            `json:"category_id" validate:"required,gt=0"`
	ParentID   FlexInt            `json:"parent_id"`
	Name       string             `json:"name" validate:"required,max=255"`
	IsActive   FlexInt            `json:"is_active"`
	Position   FlexInt            `json:"position"`
	Level      FlexInt            `json:"level"`
	Children   []CategoryDocument `json:"children,omitempty"`
}

// ParseCategoryDocument decodes a category document
func ParseCategoryDocument(data []byte) (*CategoryDocument, error) {
	var doc CategoryDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ValidationError{Entity: EntityCategory, Field: "document", Reason: err.Error()}
	}
	return &doc, nil
}

// Validate validates this node only, ignoring children
func (d *CategoryDocument) Validate() error {
	if d == nil {
		return &ValidationError{Entity: EntityCategory, Field: "document", Reason: "is missing"}
	}
	return toValidationError(EntityCategory, documentValidator().Struct(d))
}

// ValidateTree validates this node and every descendant
func (d *CategoryDocument) ValidateTree() error {
	if err := d.Validate(); err != nil {
		return err
	}
	for i := range d.Children {
		if err := d.Children[i].ValidateTree(); err != nil {
			return err
		}
	}
	return nil
}

// DownloadableLink is a link attached to a downloadable product
type DownloadableLink struct {
	LinkID FlexInt `json:"link_id"`
	Title  string  `json:"title"`
}

// ProductDocument is a Magento product as returned by catalog_product.info.
// Optional fields are pointers so that an absent field can be told apart
// from an empty one.
type ProductDocument struct {
	ProductID          FlexInt            `json:"product_id" validate:"required,gt=0"`
	SKU                *string            `json:"sku"`
	Type               string             `json:"type"`
	Set                FlexInt            `json:"set"`
	Name               *string            `json:"name"`
	Description        *string            `json:"description"`
	ShortDescription   *string            `json:"short_description"`
	Categories         FlexIDs            `json:"categories"`
	Websites           FlexIDs            `json:"websites"`
	Price              *decimal.Decimal   `json:"price"`
	SpecialPrice       *decimal.Decimal   `json:"special_price"`
	Cost               *decimal.Decimal   `json:"cost"`
	Weight             *decimal.Decimal   `json:"weight"`
	AssociatedProducts FlexIDs            `json:"associated_products,omitempty"`
	GroupedProducts    FlexIDs            `json:"grouped_products,omitempty"`
	DownloadableLinks  []DownloadableLink `json:"downloadable_links,omitempty"`
}

// productCreateFields are the fields a product document must carry for a
// new template to be created from it
type productCreateFields struct {
	SKU  string `json:"sku" validate:"required,max=64"`
	Name string `json:"name" validate:"required,max=200"`
	Type string `json:"type" validate:"required,oneof=simple configurable grouped downloadable"`
}

// ParseProductDocument decodes a product document
func ParseProductDocument(data []byte) (*ProductDocument, error) {
	var doc ProductDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ValidationError{Entity: EntityProduct, Field: "document", Reason: err.Error()}
	}
	return &doc, nil
}

// Validate checks the fields every product document must carry
func (d *ProductDocument) Validate() error {
	if d == nil {
		return &ValidationError{Entity: EntityProduct, Field: "document", Reason: "is missing"}
	}
	return toValidationError(EntityProduct, documentValidator().Struct(d))
}

// ValidateForCreate additionally checks the fields required to create a template
func (d *ProductDocument) ValidateForCreate() error {
	if err := d.Validate(); err != nil {
		return err
	}
	fields := productCreateFields{
		SKU:  strings.TrimSpace(deref(d.SKU)),
		Name: strings.TrimSpace(deref(d.Name)),
		Type: d.Type,
	}
	return toValidationError(EntityProduct, documentValidator().Struct(fields))
}

// ListPrice returns special_price, then price, then zero
func (d *ProductDocument) ListPrice() decimal.Decimal {
	if d.SpecialPrice != nil && d.SpecialPrice.IsPositive() {
		return *d.SpecialPrice
	}
	if d.Price != nil {
		return *d.Price
	}
	return decimal.Zero
}

// CostPrice returns cost or zero
func (d *ProductDocument) CostPrice() decimal.Decimal {
	if d.Cost != nil {
		return *d.Cost
	}
	return decimal.Zero
}

// HasPrices reports whether any price field is present
func (d *ProductDocument) HasPrices() bool {
	return d.Price != nil || d.SpecialPrice != nil || d.Cost != nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// documentValidator returns the shared validator, reporting json field names
func documentValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

func toValidationError(entity EntityKind, err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ValidationError{Entity: entity, Field: fe.Field(), Reason: validationReason(fe)}
	}
	return &ValidationError{Entity: entity, Field: "document", Reason: err.Error()}
}

func validationReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fe.Value())
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
