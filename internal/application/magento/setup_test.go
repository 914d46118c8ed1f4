package magento_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	appmagento "github.com/erp/magento-connector/internal/application/magento"
	"github.com/erp/magento-connector/internal/domain/catalog"
	"github.com/erp/magento-connector/internal/domain/magento"
	"github.com/erp/magento-connector/internal/infrastructure/config"
	"github.com/erp/magento-connector/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

// MockRemoteAccessor is a mock implementation of RemoteAccessor
type MockRemoteAccessor struct {
	mock.Mock
}

func (m *MockRemoteAccessor) FetchCategoryTree(ctx context.Context, instance *magento.Instance) (*magento.CategoryDocument, error) {
	args := m.Called(ctx, instance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*magento.CategoryDocument), args.Error(1)
}

func (m *MockRemoteAccessor) FetchCategory(ctx context.Context, instance *magento.Instance, magentoID int64) (*magento.CategoryDocument, error) {
	args := m.Called(ctx, instance, magentoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*magento.CategoryDocument), args.Error(1)
}

func (m *MockRemoteAccessor) FetchProduct(ctx context.Context, instance *magento.Instance, magentoID int64) (*magento.ProductDocument, error) {
	args := m.Called(ctx, instance, magentoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*magento.ProductDocument), args.Error(1)
}

// testEnv holds two instances of one tenant; instance1 has two websites
type testEnv struct {
	db         *gorm.DB
	accessor   *MockRemoteAccessor
	categories *appmagento.CategoryImporter
	products   *appmagento.ProductImporter

	instance1 *magento.Instance
	instance2 *magento.Instance
	website1  *magento.Website
	website2  *magento.Website
}

func (e *testEnv) scope1() magento.Scope {
	return magento.NewScope(e.instance1.ID, e.website1.ID)
}

func (e *testEnv) scope2() magento.Scope {
	return magento.NewScope(e.instance1.ID, e.website2.ID)
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := t.Context()
	log := zaptest.NewLogger(t)

	database, err := persistence.NewDatabase(&config.DatabaseConfig{
		Driver:   "sqlite",
		Path:     ":memory:",
		LogLevel: "silent",
	}, log)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate())
	t.Cleanup(func() { _ = database.Close() })
	db := database.DB

	tenantID := uuid.New()
	instance1, err := magento.NewInstance(tenantID, "Instance 1", "https://store1.example.com", "api", "key")
	require.NoError(t, err)
	instance2, err := magento.NewInstance(tenantID, "Instance 2", "https://store2.example.com", "api", "key")
	require.NoError(t, err)
	instances := persistence.NewGormInstanceRepository(db)
	require.NoError(t, instances.Save(ctx, instance1))
	require.NoError(t, instances.Save(ctx, instance2))

	website1, err := magento.NewWebsite(instance1.ID, 1, "Main Website", "base")
	require.NoError(t, err)
	website2, err := magento.NewWebsite(instance1.ID, 2, "Wholesale", "wholesale")
	require.NoError(t, err)
	websites := persistence.NewGormWebsiteRepository(db)
	require.NoError(t, websites.Save(ctx, website1))
	require.NoError(t, websites.Save(ctx, website2))

	accessor := new(MockRemoteAccessor)
	txScope := persistence.NewGormTransactionScope(db)
	categories := appmagento.NewCategoryImporter(txScope, accessor, log)

	return &testEnv{
		db:         db,
		accessor:   accessor,
		categories: categories,
		products:   appmagento.NewProductImporter(txScope, accessor, categories, log),
		instance1:  instance1,
		instance2:  instance2,
		website1:   website1,
		website2:   website2,
	}
}

func loadJSON(t *testing.T, kind, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", kind, name+".json"))
	require.NoError(t, err)
	return data
}

func loadCategory(t *testing.T, name string) *magento.CategoryDocument {
	t.Helper()
	doc, err := magento.ParseCategoryDocument(loadJSON(t, "categories", name))
	require.NoError(t, err)
	return doc
}

func loadProduct(t *testing.T, name string) *magento.ProductDocument {
	t.Helper()
	doc, err := magento.ParseProductDocument(loadJSON(t, "products", name))
	require.NoError(t, err)
	return doc
}

func (e *testEnv) countCategories(t *testing.T) int64 {
	t.Helper()
	count, err := persistence.NewGormCategoryRepository(e.db).CountForTenant(t.Context(), e.instance1.TenantID)
	require.NoError(t, err)
	return count
}

func (e *testEnv) countTemplates(t *testing.T) int64 {
	t.Helper()
	count, err := persistence.NewGormProductTemplateRepository(e.db).CountForTenant(t.Context(), e.instance1.TenantID)
	require.NoError(t, err)
	return count
}

func (e *testEnv) countCategoryRefs(t *testing.T, instance *magento.Instance) int64 {
	t.Helper()
	count, err := persistence.NewGormCategoryReferenceRepository(e.db).CountByInstance(t.Context(), instance.ID)
	require.NoError(t, err)
	return count
}

func (e *testEnv) countTemplateRefs(t *testing.T, website *magento.Website) int64 {
	t.Helper()
	count, err := persistence.NewGormTemplateReferenceRepository(e.db).CountByWebsite(t.Context(), website.ID)
	require.NoError(t, err)
	return count
}

// categoryMagentoIDs returns the magento ids referencing a local category
func (e *testEnv) categoryMagentoIDs(t *testing.T, categoryID uuid.UUID) []int64 {
	t.Helper()
	refs, err := persistence.NewGormCategoryReferenceRepository(e.db).FindByCategoryID(t.Context(), categoryID)
	require.NoError(t, err)
	ids := make([]int64, len(refs))
	for i, ref := range refs {
		ids[i] = ref.MagentoID
	}
	return ids
}

func (e *testEnv) reloadTemplate(t *testing.T, id uuid.UUID) *catalog.ProductTemplate {
	t.Helper()
	template, err := persistence.NewGormProductTemplateRepository(e.db).FindByIDForTenant(t.Context(), e.instance1.TenantID, id)
	require.NoError(t, err)
	return template
}

func (e *testEnv) reloadCategory(t *testing.T, id uuid.UUID) *catalog.Category {
	t.Helper()
	category, err := persistence.NewGormCategoryRepository(e.db).FindByIDForTenant(t.Context(), e.instance1.TenantID, id)
	require.NoError(t, err)
	return category
}
