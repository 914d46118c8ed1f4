package persistence

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/magento-connector/internal/domain/catalog"
	"github.com/erp/magento-connector/internal/domain/magento"
	"github.com/erp/magento-connector/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupTestDB opens a migrated in-memory sqlite database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := NewDatabase(&config.DatabaseConfig{
		Driver:   "sqlite",
		Path:     ":memory:",
		LogLevel: "silent",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate())
	t.Cleanup(func() { _ = database.Close() })

	return database.DB
}

// newMockDatabase creates a Database backed by sqlmock using the postgres dialect.
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	database, err := NewDatabaseFromDialector(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), nil, "silent")
	require.NoError(t, err)

	return database, mock, mockDB
}

type fixture struct {
	instance *magento.Instance
	website  *magento.Website
	root     *catalog.Category
}

// seedFixture stores one instance with one website and one root category.
func seedFixture(t *testing.T, db *gorm.DB) fixture {
	t.Helper()
	ctx := t.Context()

	instance, err := magento.NewInstance(uuid.New(), "Main store", "https://shop.example.com/", "api", "secret")
	require.NoError(t, err)
	require.NoError(t, NewGormInstanceRepository(db).Save(ctx, instance))

	website, err := magento.NewWebsite(instance.ID, 1, "Main Website", "base")
	require.NoError(t, err)
	require.NoError(t, NewGormWebsiteRepository(db).Save(ctx, website))

	root, err := catalog.NewCategory(instance.TenantID, "MG-ROOT", "Root Catalog")
	require.NoError(t, err)
	require.NoError(t, NewGormCategoryRepository(db).Save(ctx, root))

	return fixture{instance: instance, website: website, root: root}
}
