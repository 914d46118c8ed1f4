//go:build integration

package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	appmagento "github.com/erp/magento-connector/internal/application/magento"
	"github.com/erp/magento-connector/internal/domain/catalog"
	"github.com/erp/magento-connector/internal/domain/magento"
	"github.com/erp/magento-connector/internal/domain/shared"
	"github.com/erp/magento-connector/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/postgres"
)

// newPostgresDB starts a disposable postgres, applies the embedded
// migrations and returns a Database connected to it.
func newPostgresDB(t *testing.T) (*Database, *migration.Migrator) {
	t.Helper()
	ctx := t.Context()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("connector_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	sqlDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	migrator, err := migration.New(sqlDB, "", zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, migrator.Up())

	database, err := NewDatabaseFromDialector(postgres.Open(dsn), zaptest.NewLogger(t), "warn")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	return database, migrator
}

func TestPostgres_Repositories(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	database, migrator := newPostgresDB(t)
	db := database.DB
	ctx := t.Context()

	version, dirty, err := migrator.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	fx := seedFixture(t, db)
	tenantID := fx.instance.TenantID

	t.Run("category references are unique per instance", func(t *testing.T) {
		repo := NewGormCategoryReferenceRepository(db)
		ref, err := magento.NewCategoryReference(fx.root.ID, fx.instance.ID, 1)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, ref))

		dup, err := magento.NewCategoryReference(fx.root.ID, fx.instance.ID, 1)
		require.NoError(t, err)
		assert.ErrorIs(t, repo.Save(ctx, dup), shared.ErrAlreadyExists)
	})

	t.Run("templates and references round-trip", func(t *testing.T) {
		template, err := catalog.NewProductTemplate(tenantID, "Nine West Women's Lucero Pump", catalog.SubtypeConfigurable, catalog.ProductTypeGoods)
		require.NoError(t, err)
		template.AssignCategory(fx.root.ID)
		require.NoError(t, template.SetPrices(decimal.RequireFromString("89.99"), decimal.Zero))
		_, err = template.AddVariant("nine", "")
		require.NoError(t, err)
		require.NoError(t, NewGormProductTemplateRepository(db).Save(ctx, template))

		ref, err := magento.NewTemplateReference(template.ID, magento.NewScope(fx.instance.ID, fx.website.ID), 135, catalog.SubtypeConfigurable)
		require.NoError(t, err)
		ref.SetLinkedMagentoIDs([]int64{135001})
		refs := NewGormTemplateReferenceRepository(db)
		require.NoError(t, refs.Save(ctx, ref))

		found, err := refs.FindByMagentoID(ctx, fx.website.ID, 135)
		require.NoError(t, err)
		assert.Equal(t, template.ID, found.TemplateID)
		assert.Equal(t, []int64{135001}, found.LinkedMagentoIDs)

		loaded, err := NewGormProductTemplateRepository(db).FindByIDForTenant(ctx, tenantID, template.ID)
		require.NoError(t, err)
		assert.True(t, loaded.ListPrice.Equal(decimal.RequireFromString("89.99")))
		assert.Len(t, loaded.Variants, 1)
	})

	t.Run("transaction scope rolls back", func(t *testing.T) {
		scopeErr := NewGormTransactionScope(db).Execute(ctx, func(repos appmagento.TransactionalRepositories) error {
			category, err := catalog.NewChildCategory(tenantID, "MG-99", "Rolled back", fx.root)
			require.NoError(t, err)
			require.NoError(t, repos.Categories().Save(ctx, category))
			return assert.AnError
		})
		assert.ErrorIs(t, scopeErr, assert.AnError)

		count, err := NewGormCategoryRepository(db).CountForTenant(ctx, tenantID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	require.NoError(t, migrator.Down())
	assert.False(t, db.Migrator().HasTable("magento_template_references"))
}
