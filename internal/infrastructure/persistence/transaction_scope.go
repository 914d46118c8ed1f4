package persistence

import (
	"context"

	appmagento "github.com/erp/magento-connector/internal/application/magento"
	"github.com/erp/magento-connector/internal/domain/catalog"
	"github.com/erp/magento-connector/internal/domain/magento"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appmagento.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) Instances() magento.InstanceRepository {
	return NewGormInstanceRepository(r.tx)
}

func (r *gormTransactionalRepositories) Websites() magento.WebsiteRepository {
	return NewGormWebsiteRepository(r.tx)
}

func (r *gormTransactionalRepositories) Categories() catalog.CategoryRepository {
	return NewGormCategoryRepository(r.tx)
}

func (r *gormTransactionalRepositories) Templates() catalog.ProductTemplateRepository {
	return NewGormProductTemplateRepository(r.tx)
}

func (r *gormTransactionalRepositories) CategoryReferences() magento.CategoryReferenceRepository {
	return NewGormCategoryReferenceRepository(r.tx)
}

func (r *gormTransactionalRepositories) TemplateReferences() magento.TemplateReferenceRepository {
	return NewGormTemplateReferenceRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appmagento.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appmagento.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
