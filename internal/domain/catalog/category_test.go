package catalog

import (
	"strings"
	"testing"

	"github.com/erp/magento-connector/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCategory(t *testing.T) {
	tenantID := uuid.New()

	t.Run("creates root category with valid inputs", func(t *testing.T) {
		category, err := NewCategory(tenantID, "MG1A2B3C4D-8", "Cell Phones")
		require.NoError(t, err)
		require.NotNil(t, category)

		assert.Equal(t, tenantID, category.TenantID)
		assert.Equal(t, "MG1A2B3C4D-8", category.Code)
		assert.Equal(t, "Cell Phones", category.Name)
		assert.Nil(t, category.ParentID)
		assert.Equal(t, 0, category.Level)
		assert.Equal(t, CategoryStatusActive, category.Status)
		assert.Equal(t, 1, category.Version)
		assert.True(t, category.IsRoot())
		assert.Equal(t, category.ID.String(), category.Path)
	})

	t.Run("converts code to uppercase", func(t *testing.T) {
		category, err := NewCategory(tenantID, "mg1a2b3c4d-8", "Cell Phones")
		require.NoError(t, err)
		assert.Equal(t, "MG1A2B3C4D-8", category.Code)
	})

	t.Run("fails with empty code", func(t *testing.T) {
		_, err := NewCategory(tenantID, "", "Cell Phones")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "code cannot be empty")
	})

	t.Run("fails with code too long", func(t *testing.T) {
		_, err := NewCategory(tenantID, strings.Repeat("A", 51), "Cell Phones")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed 50 characters")
	})

	t.Run("fails with invalid code characters", func(t *testing.T) {
		_, err := NewCategory(tenantID, "MG 8", "Cell Phones")
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_CODE", domainErr.Code)
	})

	t.Run("fails with blank name", func(t *testing.T) {
		_, err := NewCategory(tenantID, "MG-8", "   ")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name cannot be empty")
	})
}

func TestNewChildCategory(t *testing.T) {
	tenantID := uuid.New()
	root, err := NewCategory(tenantID, "MG-1", "Root Catalog")
	require.NoError(t, err)

	t.Run("links child to parent path", func(t *testing.T) {
		child, err := NewChildCategory(tenantID, "MG-3", "Electronics", root)
		require.NoError(t, err)

		require.NotNil(t, child.ParentID)
		assert.Equal(t, root.ID, *child.ParentID)
		assert.Equal(t, 1, child.Level)
		assert.Equal(t, root.Path+"/"+child.ID.String(), child.Path)
		assert.True(t, root.IsAncestorOf(child))
		assert.False(t, child.IsAncestorOf(root))
	})

	t.Run("fails without parent", func(t *testing.T) {
		_, err := NewChildCategory(tenantID, "MG-3", "Electronics", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Parent category is required")
	})

	t.Run("fails with parent from another tenant", func(t *testing.T) {
		_, err := NewChildCategory(uuid.New(), "MG-3", "Electronics", root)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "another tenant")
	})

	t.Run("fails beyond max depth", func(t *testing.T) {
		parent := root
		for i := 1; i < MaxCategoryDepth; i++ {
			parent, err = NewChildCategory(tenantID, "MG-D", "Deep", parent)
			require.NoError(t, err)
		}

		_, err := NewChildCategory(tenantID, "MG-D", "Too Deep", parent)
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "MAX_DEPTH_EXCEEDED", domainErr.Code)
	})
}

func TestCategory_SetSortOrder(t *testing.T) {
	category, err := NewCategory(uuid.New(), "MG-8", "Cell Phones")
	require.NoError(t, err)

	category.SetSortOrder(4)

	assert.Equal(t, 4, category.SortOrder)
	assert.Equal(t, 2, category.Version)
}
