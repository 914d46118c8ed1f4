package magento

import (
	"context"
)

// RemoteAccessor fetches entity documents from a Magento instance.
// Implementations open and close their remote session per call.
type RemoteAccessor interface {
	// FetchCategoryTree returns the full category tree of the instance
	FetchCategoryTree(ctx context.Context, instance *Instance) (*CategoryDocument, error)

	// FetchCategory returns a single category without children
	FetchCategory(ctx context.Context, instance *Instance, magentoID int64) (*CategoryDocument, error)

	// FetchProduct returns a single product
	FetchProduct(ctx context.Context, instance *Instance, magentoID int64) (*ProductDocument, error)
}
