package magento

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Instance is a configured Magento store connection. Every import runs
// under exactly one instance, which in turn belongs to one ERP tenant.
type Instance struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Name      string
	URL       string
	APIUser   string
	APIKey    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewInstance creates a new instance
func NewInstance(tenantID uuid.UUID, name, url, apiUser, apiKey string) (*Instance, error) {
	if tenantID == uuid.Nil {
		return nil, errors.New("magento: invalid tenant ID")
	}
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("magento: instance name is required")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("magento: instance url %q must be http or https", url)
	}

	now := time.Now()
	return &Instance{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      name,
		URL:       strings.TrimRight(url, "/"),
		APIUser:   apiUser,
		APIKey:    apiKey,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CodePrefix is the prefix used for local codes generated for this instance
func (i *Instance) CodePrefix() string {
	return "MG" + strings.ToUpper(strings.ReplaceAll(i.ID.String(), "-", "")[:8])
}

// Website is a sales channel inside an instance
type Website struct {
	ID         uuid.UUID
	InstanceID uuid.UUID
	MagentoID  int64
	Name       string
	Code       string
	// DefaultCategoryID points to the "Unclassified Magento Products" category
	// of this website once it has been created
	DefaultCategoryID *uuid.UUID
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewWebsite creates a new website under an instance
func NewWebsite(instanceID uuid.UUID, magentoID int64, name, code string) (*Website, error) {
	if instanceID == uuid.Nil {
		return nil, ErrReferenceInvalidInstance
	}
	if magentoID <= 0 {
		return nil, ErrReferenceInvalidRemoteID
	}
	if strings.TrimSpace(code) == "" {
		return nil, errors.New("magento: website code is required")
	}

	now := time.Now()
	return &Website{
		ID:         uuid.New(),
		InstanceID: instanceID,
		MagentoID:  magentoID,
		Name:       name,
		Code:       code,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// SetDefaultCategory records the website's fallback category
func (w *Website) SetDefaultCategory(categoryID uuid.UUID) {
	w.DefaultCategoryID = &categoryID
	w.UpdatedAt = time.Now()
}

// Scope identifies the instance and, optionally, the website an operation runs under
type Scope struct {
	InstanceID uuid.UUID
	WebsiteID  uuid.UUID
}

// NewScope creates a scope for an instance and website
func NewScope(instanceID, websiteID uuid.UUID) Scope {
	return Scope{InstanceID: instanceID, WebsiteID: websiteID}
}

// InstanceScope creates a scope without a website
func InstanceScope(instanceID uuid.UUID) Scope {
	return Scope{InstanceID: instanceID}
}

// HasWebsite reports whether a website is part of the scope
func (s Scope) HasWebsite() bool {
	return s.WebsiteID != uuid.Nil
}
