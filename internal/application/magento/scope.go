package magento

import (
	"context"
	"errors"

	"github.com/erp/magento-connector/internal/domain/magento"
	"github.com/erp/magento-connector/internal/domain/shared"
	"github.com/erp/magento-connector/internal/infrastructure/logger"
)

// resolvedScope holds the records an operation runs under.
// website is nil when the scope carries no website.
type resolvedScope struct {
	scope    magento.Scope
	instance *magento.Instance
	website  *magento.Website
}

// resolveScope loads the instance and, when present, the website of scope.
// Missing records and websites of another instance fail with ScopeError.
func resolveScope(ctx context.Context, repos TransactionalRepositories, scope magento.Scope, requireWebsite bool) (*resolvedScope, error) {
	instance, err := repos.Instances().FindByID(ctx, scope.InstanceID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, &magento.ScopeError{InstanceID: scope.InstanceID, WebsiteID: scope.WebsiteID, Reason: "instance not found"}
		}
		return nil, err
	}

	resolved := &resolvedScope{scope: scope, instance: instance}
	if !scope.HasWebsite() {
		if requireWebsite {
			return nil, &magento.ScopeError{InstanceID: scope.InstanceID, Reason: "website is required"}
		}
		return resolved, nil
	}

	website, err := repos.Websites().FindByID(ctx, scope.WebsiteID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, &magento.ScopeError{InstanceID: scope.InstanceID, WebsiteID: scope.WebsiteID, Reason: "website not found"}
		}
		return nil, err
	}
	if website.InstanceID != instance.ID {
		return nil, &magento.ScopeError{InstanceID: scope.InstanceID, WebsiteID: scope.WebsiteID, Reason: "website belongs to another instance"}
	}
	resolved.website = website
	return resolved, nil
}

// withScopeLogging tags log entries written under ctx with the scope ids
func withScopeLogging(ctx context.Context, scope magento.Scope) context.Context {
	websiteID := ""
	if scope.HasWebsite() {
		websiteID = scope.WebsiteID.String()
	}
	return logger.WithScope(ctx, scope.InstanceID.String(), websiteID)
}
