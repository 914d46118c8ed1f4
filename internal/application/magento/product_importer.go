package magento

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"

	"github.com/erp/magento-connector/internal/domain/catalog"
	"github.com/erp/magento-connector/internal/domain/magento"
	"github.com/erp/magento-connector/internal/domain/shared"
	"github.com/erp/magento-connector/internal/infrastructure/logger"
	"github.com/erp/magento-connector/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const productImporterSpan = "product_importer"

// DefaultCategoryName names the per-website category of products imported
// without any Magento category
const DefaultCategoryName = "Unclassified Magento Products"

// ProductImporter creates and updates product templates from Magento
// product documents. Templates are tracked per website.
type ProductImporter struct {
	txScope    TransactionScope
	remote     magento.RemoteAccessor
	categories *CategoryImporter
	logger     *zap.Logger
	metrics    *telemetry.ImportMetrics
}

// NewProductImporter creates a new ProductImporter
func NewProductImporter(txScope TransactionScope, remote magento.RemoteAccessor, categories *CategoryImporter, zapLogger *zap.Logger) *ProductImporter {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	if categories == nil {
		categories = NewCategoryImporter(txScope, remote, zapLogger)
	}
	return &ProductImporter{
		txScope:    txScope,
		remote:     remote,
		categories: categories,
		logger:     zapLogger.Named("product_importer"),
	}
}

// SetMetrics sets the recorder for committed template creations
func (p *ProductImporter) SetMetrics(metrics *telemetry.ImportMetrics) {
	p.metrics = metrics
}

// FindOrCreate returns the template referenced by the document within the
// scope's website unchanged, or creates it with a single variant
func (p *ProductImporter) FindOrCreate(ctx context.Context, doc *magento.ProductDocument, scope magento.Scope) (*catalog.ProductTemplate, error) {
	ctx = withScopeLogging(ctx, scope)
	ctx, span := telemetry.StartServiceSpan(ctx, productImporterSpan, "find_or_create")
	defer span.End()

	if err := doc.Validate(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrInstanceID, scope.InstanceID.String(),
		telemetry.SpanAttrWebsiteID, scope.WebsiteID.String(),
		telemetry.SpanAttrMagentoID, doc.ProductID.Int64(),
		telemetry.SpanAttrSubtype, doc.Type,
	)

	var (
		template *catalog.ProductTemplate
		created  bool
	)
	err := p.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		resolved, err := resolveScope(ctx, repos, scope, true)
		if err != nil {
			return err
		}
		template, err = p.findTemplate(ctx, repos, resolved, doc.ProductID.Int64())
		if err != nil || template != nil {
			return err
		}
		template, err = p.createTemplate(ctx, repos, resolved, doc)
		created = err == nil
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrTemplateID, template.ID.String(),
		telemetry.SpanAttrCreated, created,
	)
	if created {
		p.metrics.RecordTemplateCreated(ctx, doc.Type)
	}
	return template, nil
}

// FindByRemoteData returns the template referenced by the document within
// the scope's website, or a NotFoundError
func (p *ProductImporter) FindByRemoteData(ctx context.Context, doc *magento.ProductDocument, scope magento.Scope) (*catalog.ProductTemplate, error) {
	ctx = withScopeLogging(ctx, scope)
	ctx, span := telemetry.StartServiceSpan(ctx, productImporterSpan, "find_by_remote_data")
	defer span.End()

	if err := doc.Validate(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	magentoID := doc.ProductID.Int64()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrWebsiteID, scope.WebsiteID.String(),
		telemetry.SpanAttrMagentoID, magentoID,
	)

	var template *catalog.ProductTemplate
	err := p.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		resolved, err := resolveScope(ctx, repos, scope, true)
		if err != nil {
			return err
		}
		template, err = p.findTemplate(ctx, repos, resolved, magentoID)
		if err != nil {
			return err
		}
		if template == nil {
			return &magento.NotFoundError{Entity: magento.EntityProduct, MagentoID: magentoID}
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return template, nil
}

// UpdateFromData applies name, description, sku and prices from the document
// to template and its primary variant, then saves it. Fields absent from the
// document are left as they are. Identity and category never change.
// template must already be stored; template is changed only once the update
// commits.
func (p *ProductImporter) UpdateFromData(ctx context.Context, template *catalog.ProductTemplate, doc *magento.ProductDocument) (*catalog.ProductTemplate, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, productImporterSpan, "update_from_data")
	defer span.End()

	if template == nil {
		err := &magento.NotFoundError{Entity: magento.EntityProduct, MagentoID: productIDOf(doc)}
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrTemplateID, template.ID.String())
	if doc == nil {
		err := &magento.ValidationError{Entity: magento.EntityProduct, Field: "document", Reason: "is missing"}
		telemetry.RecordError(span, err)
		return nil, err
	}

	var updated *catalog.ProductTemplate
	err := p.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		updated, err = p.applyAndSave(ctx, repos, template, doc)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	*template = *updated
	return template, nil
}

// UpdateFromRemote fetches the product tracked for template within the
// scope's website and applies it with the same rules as UpdateFromData
func (p *ProductImporter) UpdateFromRemote(ctx context.Context, template *catalog.ProductTemplate, scope magento.Scope) (*catalog.ProductTemplate, error) {
	ctx = withScopeLogging(ctx, scope)
	ctx, span := telemetry.StartServiceSpan(ctx, productImporterSpan, "update_from_remote")
	defer span.End()

	if template == nil {
		err := &magento.NotFoundError{Entity: magento.EntityProduct}
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrWebsiteID, scope.WebsiteID.String(),
		telemetry.SpanAttrTemplateID, template.ID.String(),
	)

	var updated *catalog.ProductTemplate
	err := p.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		resolved, err := resolveScope(ctx, repos, scope, true)
		if err != nil {
			return err
		}
		ref, err := repos.TemplateReferences().FindByTemplateID(ctx, resolved.website.ID, template.ID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return &magento.NotFoundError{Entity: magento.EntityProduct}
			}
			return err
		}
		telemetry.SetAttributes(span, telemetry.SpanAttrMagentoID, ref.MagentoID)

		doc, err := p.remote.FetchProduct(ctx, resolved.instance, ref.MagentoID)
		if err != nil {
			return asRemoteFetchError(err, magento.EntityProduct, ref.MagentoID)
		}
		if err := doc.Validate(); err != nil {
			return err
		}
		if updated, err = p.applyAndSave(ctx, repos, template, doc); err != nil {
			return err
		}

		if subtype, rule, err := magento.RuleFor(doc); err == nil && subtype == ref.Subtype {
			ref.SetLinkedMagentoIDs(rule.LinkedIDs(doc))
			return repos.TemplateReferences().Save(ctx, ref)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	*template = *updated
	return template, nil
}

// findTemplate returns the template referenced by magentoID within the
// website, or nil when there is no reference
func (p *ProductImporter) findTemplate(ctx context.Context, repos TransactionalRepositories, resolved *resolvedScope, magentoID int64) (*catalog.ProductTemplate, error) {
	ref, err := repos.TemplateReferences().FindByMagentoID(ctx, resolved.website.ID, magentoID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	template, err := repos.Templates().FindByIDForTenant(ctx, resolved.instance.TenantID, ref.TemplateID)
	if err != nil {
		return nil, err
	}
	logger.WithLogger(ctx, p.logger).Debug("product already imported",
		zap.Int64("magento_id", magentoID),
		zap.String("template_id", template.ID.String()),
	)
	return template, nil
}

func (p *ProductImporter) createTemplate(ctx context.Context, repos TransactionalRepositories, resolved *resolvedScope, doc *magento.ProductDocument) (*catalog.ProductTemplate, error) {
	if err := doc.ValidateForCreate(); err != nil {
		return nil, err
	}
	subtype, rule, err := magento.RuleFor(doc)
	if err != nil {
		return nil, err
	}
	magentoID := doc.ProductID.Int64()
	log := logger.WithLogger(ctx, p.logger).With(zap.Int64("magento_id", magentoID))

	if len(doc.Websites) > 0 && !slices.Contains(doc.Websites.Int64s(), resolved.website.MagentoID) {
		log.Warn("product is not assigned to the importing website",
			zap.Int64("website_magento_id", resolved.website.MagentoID),
			zap.Int64s("product_websites", doc.Websites.Int64s()),
		)
	}

	var category *catalog.Category
	if categoryID, ok := doc.Categories.First(); ok {
		category, err = p.categories.findOrCreateByID(ctx, repos, resolved.instance, categoryID)
	} else {
		category, err = p.defaultCategory(ctx, repos, resolved)
	}
	if err != nil {
		return nil, err
	}

	description := strings.TrimSpace(deref(doc.Description))
	template, err := catalog.NewProductTemplate(resolved.instance.TenantID, strings.TrimSpace(*doc.Name), subtype, rule.ProductType)
	if err != nil {
		return nil, err
	}
	template.SetDescription(description)
	template.AssignCategory(category.ID)
	if doc.HasPrices() {
		if err := template.SetPrices(doc.ListPrice(), doc.CostPrice()); err != nil {
			return nil, err
		}
	}
	if _, err := template.AddVariant(strings.TrimSpace(*doc.SKU), description); err != nil {
		return nil, err
	}
	if err := repos.Templates().Save(ctx, template); err != nil {
		return nil, err
	}

	ref, err := magento.NewTemplateReference(template.ID, resolved.scope, magentoID, subtype)
	if err != nil {
		return nil, err
	}
	ref.SetLinkedMagentoIDs(rule.LinkedIDs(doc))
	if err := repos.TemplateReferences().Save(ctx, ref); err != nil {
		return nil, err
	}

	log.Info("product imported",
		zap.String("template_id", template.ID.String()),
		zap.String("subtype", string(subtype)),
		zap.String("category_id", category.ID.String()),
		zap.Int("linked_ids", len(ref.LinkedMagentoIDs)),
	)
	return template, nil
}

// defaultCategory returns the website's "Unclassified Magento Products"
// category, creating it as a root category on first use
func (p *ProductImporter) defaultCategory(ctx context.Context, repos TransactionalRepositories, resolved *resolvedScope) (*catalog.Category, error) {
	website := resolved.website
	if website.DefaultCategoryID != nil {
		category, err := repos.Categories().FindByIDForTenant(ctx, resolved.instance.TenantID, *website.DefaultCategoryID)
		if err == nil {
			return category, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}

	code := resolved.instance.CodePrefix() + "-W" + strconv.FormatInt(website.MagentoID, 10) + "-UNCLASSIFIED"
	category, err := catalog.NewCategory(resolved.instance.TenantID, code, DefaultCategoryName)
	if err != nil {
		return nil, err
	}
	if err := repos.Categories().Save(ctx, category); err != nil {
		return nil, err
	}
	website.SetDefaultCategory(category.ID)
	if err := repos.Websites().Save(ctx, website); err != nil {
		return nil, err
	}

	logger.WithLogger(ctx, p.logger).Info("default category created",
		zap.String("category_id", category.ID.String()),
		zap.String("website", website.Code),
	)
	return category, nil
}

// applyAndSave checks that template is stored, then applies doc to a copy of
// it and saves the copy. template itself is not modified.
func (p *ProductImporter) applyAndSave(ctx context.Context, repos TransactionalRepositories, template *catalog.ProductTemplate, doc *magento.ProductDocument) (*catalog.ProductTemplate, error) {
	if _, err := repos.Templates().FindByIDForTenant(ctx, template.TenantID, template.ID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, &magento.NotFoundError{Entity: magento.EntityProduct, MagentoID: productIDOf(doc)}
		}
		return nil, err
	}

	updated := template.Clone()
	if err := applyDocument(updated, doc); err != nil {
		return nil, err
	}
	if err := repos.Templates().Save(ctx, updated); err != nil {
		return nil, err
	}
	logger.WithLogger(ctx, p.logger).Info("product updated",
		zap.String("template_id", updated.ID.String()),
		zap.Int("version", updated.Version),
	)
	return updated, nil
}

// applyDocument copies the updatable fields present in doc onto template
func applyDocument(template *catalog.ProductTemplate, doc *magento.ProductDocument) error {
	if doc.Name != nil {
		if name := strings.TrimSpace(*doc.Name); name != "" {
			if err := template.Rename(name); err != nil {
				return err
			}
		}
	}

	variant := template.PrimaryVariant()
	if doc.SKU != nil {
		if sku := strings.TrimSpace(*doc.SKU); sku != "" {
			if variant == nil {
				var err error
				if variant, err = template.AddVariant(sku, template.Description); err != nil {
					return err
				}
			} else if err := variant.SetCode(sku); err != nil {
				return err
			}
		}
	}

	if doc.Description != nil {
		description := strings.TrimSpace(*doc.Description)
		template.SetDescription(description)
		if variant != nil {
			variant.SetDescription(description)
		}
	}

	if doc.HasPrices() {
		listPrice := template.ListPrice
		if doc.SpecialPrice != nil && doc.SpecialPrice.IsPositive() {
			listPrice = *doc.SpecialPrice
		} else if doc.Price != nil {
			listPrice = *doc.Price
		}
		costPrice := template.CostPrice
		if doc.Cost != nil {
			costPrice = *doc.Cost
		}
		if err := template.SetPrices(listPrice, costPrice); err != nil {
			return err
		}
	}
	return nil
}

func productIDOf(doc *magento.ProductDocument) int64 {
	if doc == nil {
		return 0
	}
	return doc.ProductID.Int64()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
