package magento

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/erp/magento-connector/internal/domain/catalog"
	"github.com/erp/magento-connector/internal/domain/magento"
	"github.com/erp/magento-connector/internal/domain/shared"
	"github.com/erp/magento-connector/internal/infrastructure/logger"
	"github.com/erp/magento-connector/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const categoryImporterSpan = "category_importer"

// CategoryImporter creates local categories from Magento category documents
// and tracks them with category references
type CategoryImporter struct {
	txScope TransactionScope
	remote  magento.RemoteAccessor
	logger  *zap.Logger
	metrics *telemetry.ImportMetrics
}

// NewCategoryImporter creates a new CategoryImporter
func NewCategoryImporter(txScope TransactionScope, remote magento.RemoteAccessor, zapLogger *zap.Logger) *CategoryImporter {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return &CategoryImporter{
		txScope: txScope,
		remote:  remote,
		logger:  zapLogger.Named("category_importer"),
	}
}

// SetMetrics sets the recorder for committed category creations
func (i *CategoryImporter) SetMetrics(metrics *telemetry.ImportMetrics) {
	i.metrics = metrics
}

// ImportTree imports every node of tree under the instance, keeping the
// parent/child shape. Nodes already referenced are left unchanged, so a
// repeated import creates nothing. Returns the category of the root node.
func (i *CategoryImporter) ImportTree(ctx context.Context, tree *magento.CategoryDocument, instanceID uuid.UUID) (*catalog.Category, error) {
	scope := magento.InstanceScope(instanceID)
	ctx = withScopeLogging(ctx, scope)
	ctx, span := telemetry.StartServiceSpan(ctx, categoryImporterSpan, "import_tree")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrInstanceID, instanceID.String())

	if err := tree.ValidateTree(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var (
		root    *catalog.Category
		created int
	)
	err := i.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		resolved, err := resolveScope(ctx, repos, scope, false)
		if err != nil {
			return err
		}
		root, created, err = i.importTree(ctx, repos, resolved.instance, tree, nil)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	i.metrics.RecordCategoriesCreated(ctx, created)
	return root, nil
}

// ImportRemoteTree fetches the category tree of the instance and imports it
func (i *CategoryImporter) ImportRemoteTree(ctx context.Context, instanceID uuid.UUID) (*catalog.Category, error) {
	scope := magento.InstanceScope(instanceID)
	ctx = withScopeLogging(ctx, scope)
	ctx, span := telemetry.StartServiceSpan(ctx, categoryImporterSpan, "import_remote_tree")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrInstanceID, instanceID.String())

	var (
		root    *catalog.Category
		created int
	)
	err := i.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		resolved, err := resolveScope(ctx, repos, scope, false)
		if err != nil {
			return err
		}
		tree, err := i.remote.FetchCategoryTree(ctx, resolved.instance)
		if err != nil {
			return asRemoteFetchError(err, magento.EntityCategory, 0)
		}
		if err := tree.ValidateTree(); err != nil {
			return err
		}
		root, created, err = i.importTree(ctx, repos, resolved.instance, tree, nil)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrCreated, created > 0)
	i.metrics.RecordCategoriesCreated(ctx, created)
	return root, nil
}

// ImportNode returns the category referenced by node under the scope's
// instance, or creates it. A new category is attached under its parent when
// the parent is already referenced, otherwise it becomes a root.
func (i *CategoryImporter) ImportNode(ctx context.Context, node *magento.CategoryDocument, scope magento.Scope) (*catalog.Category, error) {
	ctx = withScopeLogging(ctx, scope)
	ctx, span := telemetry.StartServiceSpan(ctx, categoryImporterSpan, "import_node")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrInstanceID, scope.InstanceID.String())

	if err := node.Validate(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var (
		category *catalog.Category
		created  bool
	)
	err := i.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		resolved, err := resolveScope(ctx, repos, scope, false)
		if err != nil {
			return err
		}
		category, created, err = i.importNode(ctx, repos, resolved.instance, node, nil)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if created {
		i.metrics.RecordCategoriesCreated(ctx, 1)
	}
	return category, nil
}

// FindOrCreateByID resolves a category by Magento id, fetching the node from
// the store when it is not referenced locally yet
func (i *CategoryImporter) FindOrCreateByID(ctx context.Context, magentoID int64, scope magento.Scope) (*catalog.Category, error) {
	ctx = withScopeLogging(ctx, scope)
	ctx, span := telemetry.StartServiceSpan(ctx, categoryImporterSpan, "find_or_create_by_id")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrInstanceID, scope.InstanceID.String(),
		telemetry.SpanAttrMagentoID, magentoID,
	)

	var category *catalog.Category
	err := i.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		resolved, err := resolveScope(ctx, repos, scope, false)
		if err != nil {
			return err
		}
		category, err = i.findOrCreateByID(ctx, repos, resolved.instance, magentoID)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return category, nil
}

// importTree imports node and its descendants depth first and returns the
// number of categories created
func (i *CategoryImporter) importTree(ctx context.Context, repos TransactionalRepositories, instance *magento.Instance, node *magento.CategoryDocument, parent *catalog.Category) (*catalog.Category, int, error) {
	category, created, err := i.importNode(ctx, repos, instance, node, parent)
	if err != nil {
		return nil, 0, err
	}
	count := 0
	if created {
		count++
	}
	for idx := range node.Children {
		_, n, err := i.importTree(ctx, repos, instance, &node.Children[idx], category)
		if err != nil {
			return nil, 0, err
		}
		count += n
	}
	return category, count, nil
}

// importNode finds or creates the category of node. parent, when given,
// takes precedence over the node's parent_id. The bool reports creation.
func (i *CategoryImporter) importNode(ctx context.Context, repos TransactionalRepositories, instance *magento.Instance, node *magento.CategoryDocument, parent *catalog.Category) (*catalog.Category, bool, error) {
	magentoID := node.CategoryID.Int64()
	log := logger.WithLogger(ctx, i.logger).With(zap.Int64("magento_id", magentoID))

	existing, err := i.findByMagentoID(ctx, repos, instance, magentoID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		log.Debug("category already imported", zap.String("category_id", existing.ID.String()))
		return existing, false, nil
	}

	if parent == nil && node.ParentID > 0 {
		parent, err = i.findByMagentoID(ctx, repos, instance, node.ParentID.Int64())
		if err != nil {
			return nil, false, err
		}
	}

	code := categoryCode(instance, magentoID)
	name := strings.TrimSpace(node.Name)
	var category *catalog.Category
	if parent != nil {
		category, err = catalog.NewChildCategory(instance.TenantID, code, name, parent)
	} else {
		category, err = catalog.NewCategory(instance.TenantID, code, name)
	}
	if err != nil {
		return nil, false, err
	}
	if node.Position > 0 {
		category.SetSortOrder(int(node.Position))
	}

	if err := repos.Categories().Save(ctx, category); err != nil {
		return nil, false, err
	}
	ref, err := magento.NewCategoryReference(category.ID, instance.ID, magentoID)
	if err != nil {
		return nil, false, err
	}
	if err := repos.CategoryReferences().Save(ctx, ref); err != nil {
		return nil, false, err
	}

	telemetry.AddEvent(trace.SpanFromContext(ctx), "category.created",
		telemetry.SpanAttrMagentoID, magentoID,
		telemetry.SpanAttrCategoryID, category.ID.String(),
	)
	log.Info("category imported",
		zap.String("category_id", category.ID.String()),
		zap.String("code", category.Code),
		zap.Bool("root", category.IsRoot()),
	)
	return category, true, nil
}

func (i *CategoryImporter) findOrCreateByID(ctx context.Context, repos TransactionalRepositories, instance *magento.Instance, magentoID int64) (*catalog.Category, error) {
	existing, err := i.findByMagentoID(ctx, repos, instance, magentoID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	node, err := i.remote.FetchCategory(ctx, instance, magentoID)
	if err != nil {
		return nil, asRemoteFetchError(err, magento.EntityCategory, magentoID)
	}
	if err := node.Validate(); err != nil {
		return nil, err
	}
	if node.CategoryID.Int64() != magentoID {
		return nil, &magento.ValidationError{
			Entity: magento.EntityCategory,
			Field:  "category_id",
			Reason: "does not match requested id " + strconv.FormatInt(magentoID, 10),
		}
	}
	category, _, err := i.importNode(ctx, repos, instance, node, nil)
	return category, err
}

// findByMagentoID returns the referenced category, or nil when the id is not
// referenced under the instance
func (i *CategoryImporter) findByMagentoID(ctx context.Context, repos TransactionalRepositories, instance *magento.Instance, magentoID int64) (*catalog.Category, error) {
	ref, err := repos.CategoryReferences().FindByMagentoID(ctx, instance.ID, magentoID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return repos.Categories().FindByIDForTenant(ctx, instance.TenantID, ref.CategoryID)
}

// categoryCode derives the local code of a Magento category
func categoryCode(instance *magento.Instance, magentoID int64) string {
	return instance.CodePrefix() + "-" + strconv.FormatInt(magentoID, 10)
}

// asRemoteFetchError keeps validation and fetch errors from the accessor and
// wraps anything else as a RemoteFetchError
func asRemoteFetchError(err error, entity magento.EntityKind, magentoID int64) error {
	if errors.Is(err, magento.ErrRemoteFetch) || errors.Is(err, magento.ErrInvalidDocument) {
		return err
	}
	return &magento.RemoteFetchError{Entity: entity, MagentoID: magentoID, Err: err}
}
