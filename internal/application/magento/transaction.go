package magento

import (
	"context"

	"github.com/erp/magento-connector/internal/domain/catalog"
	"github.com/erp/magento-connector/internal/domain/magento"
)

// TransactionScope runs a unit of work atomically. If fn returns an error
// every write made through repos is rolled back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories gives access to repositories bound to the
// current transaction.
type TransactionalRepositories interface {
	Instances() magento.InstanceRepository
	Websites() magento.WebsiteRepository
	Categories() catalog.CategoryRepository
	Templates() catalog.ProductTemplateRepository
	CategoryReferences() magento.CategoryReferenceRepository
	TemplateReferences() magento.TemplateReferenceRepository
}
