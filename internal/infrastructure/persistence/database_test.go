package persistence

import (
	"testing"

	"github.com/erp/magento-connector/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewDatabase(t *testing.T) {
	t.Run("opens sqlite with a single connection", func(t *testing.T) {
		database, err := NewDatabase(&config.DatabaseConfig{
			Driver:       "sqlite",
			Path:         ":memory:",
			MaxOpenConns: 10,
			MaxIdleConns: 2,
		}, zaptest.NewLogger(t))
		require.NoError(t, err)
		defer database.Close()

		require.NoError(t, database.Ping())
		stats, err := database.Stats()
		require.NoError(t, err)
		assert.Equal(t, 1, stats.MaxOpenConnections)
	})

	t.Run("rejects unknown drivers", func(t *testing.T) {
		_, err := NewDatabase(&config.DatabaseConfig{Driver: "mysql"}, zaptest.NewLogger(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported database driver")
	})

	t.Run("creates every connector table", func(t *testing.T) {
		db := setupTestDB(t)
		for _, table := range []string{
			"categories",
			"product_templates",
			"product_variants",
			"magento_instances",
			"magento_websites",
			"magento_category_references",
			"magento_template_references",
		} {
			assert.True(t, db.Migrator().HasTable(table), table)
		}
		assert.True(t, db.Migrator().HasIndex("magento_category_references", "idx_magento_category_ref_instance_magento"))
		assert.True(t, db.Migrator().HasIndex("magento_template_references", "idx_magento_template_ref_website_magento"))
	})
}

func TestDatabase_Close(t *testing.T) {
	database, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	mock.ExpectClose()
	require.NoError(t, database.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
