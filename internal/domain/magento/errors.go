package magento

import (
	"errors"
	"fmt"

	"github.com/erp/magento-connector/internal/domain/shared"
	"github.com/google/uuid"
)

// Sentinel errors matched with errors.Is
var (
	ErrInvalidDocument = errors.New("magento: invalid document")
	ErrScopeUnresolved = errors.New("magento: unresolvable instance or website scope")
	ErrNotFound        = errors.New("magento: no matching local record")
	ErrRemoteFetch     = errors.New("magento: remote fetch failed")

	ErrReferenceInvalidInstance = errors.New("magento: invalid instance ID")
	ErrReferenceInvalidWebsite  = errors.New("magento: invalid website ID")
	ErrReferenceInvalidLocalID  = errors.New("magento: invalid local record ID")
	ErrReferenceInvalidRemoteID = errors.New("magento: invalid magento ID")
)

// ValidationError reports a malformed or incomplete remote document
type ValidationError struct {
	Entity EntityKind
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("magento: invalid %s document: field %q %s", e.Entity, e.Field, e.Reason)
}

// Is matches ErrInvalidDocument
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidDocument
}

// ScopeError reports that the instance or website an operation runs under
// cannot be resolved
type ScopeError struct {
	InstanceID uuid.UUID
	WebsiteID  uuid.UUID
	Reason     string
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("magento: scope (instance=%s, website=%s): %s", e.InstanceID, e.WebsiteID, e.Reason)
}

// Is matches ErrScopeUnresolved
func (e *ScopeError) Is(target error) bool {
	return target == ErrScopeUnresolved
}

// NotFoundError reports that no local record is referenced by a remote id
type NotFoundError struct {
	Entity    EntityKind
	MagentoID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("magento: no local %s for magento id %d", e.Entity, e.MagentoID)
}

// Is matches both ErrNotFound and shared.ErrNotFound
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound || target == shared.ErrNotFound
}

// RemoteFetchError wraps a failure of the remote accessor
type RemoteFetchError struct {
	Entity    EntityKind
	MagentoID int64
	Err       error
}

func (e *RemoteFetchError) Error() string {
	if e.MagentoID == 0 {
		return fmt.Sprintf("magento: fetch %s: %v", e.Entity, e.Err)
	}
	return fmt.Sprintf("magento: fetch %s %d: %v", e.Entity, e.MagentoID, e.Err)
}

// Is matches ErrRemoteFetch
func (e *RemoteFetchError) Is(target error) bool {
	return target == ErrRemoteFetch
}

// Unwrap returns the accessor error
func (e *RemoteFetchError) Unwrap() error {
	return e.Err
}
