package magento_test

import (
	"testing"

	"github.com/erp/magento-connector/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// createdTotals sums magento_import_created_total per entity attribute
func createdTotals(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(t.Context(), &rm))

	totals := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "magento_import_created_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				entity, _ := dp.Attributes.Value(attribute.Key("entity"))
				totals[entity.AsString()] += dp.Value
			}
		}
	}
	return totals
}

func TestImporters_RecordCreatedMetrics(t *testing.T) {
	env := setupTestEnv(t)
	ctx := t.Context()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(t.Context()) })
	metrics, err := telemetry.NewImportMetrics(provider.Meter("test"))
	require.NoError(t, err)
	env.categories.SetMetrics(metrics)
	env.products.SetMetrics(metrics)

	_, err = env.categories.ImportTree(ctx, loadCategory(t, "category_tree"), env.instance1.ID)
	require.NoError(t, err)
	_, err = env.categories.ImportTree(ctx, loadCategory(t, "category_tree"), env.instance1.ID)
	require.NoError(t, err)

	_, err = env.products.FindOrCreate(ctx, loadProduct(t, "17"), env.scope1())
	require.NoError(t, err)
	_, err = env.products.FindOrCreate(ctx, loadProduct(t, "17"), env.scope1())
	require.NoError(t, err)

	totals := createdTotals(t, reader)
	assert.Equal(t, int64(9), totals["category"], "repeated tree import adds nothing")
	assert.Equal(t, int64(1), totals["product"])
}
