package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool // include bound variables in db.statement
	SlowQueryThresh time.Duration
	DBSystem        string // postgresql or sqlite
}

// DBTracingPlugin registers otelgorm plus a slow query marker on a GORM DB.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a new database tracing plugin.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.DBSystem == "" {
		cfg.DBSystem = "postgresql"
	}
	return &DBTracingPlugin{config: cfg, logger: logger}
}

type queryStartKey struct{}

type gormRegister interface {
	Register(name string, fn func(*gorm.DB)) error
}

// Register installs otelgorm and the timing callbacks. It is a no-op when
// tracing is disabled.
func (p *DBTracingPlugin) Register(db *gorm.DB) error {
	if !p.config.Enabled {
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	// The timing hooks wrap gorm's own callbacks inside otelgorm's span so
	// the slow query marker lands on the span before it ends.
	cb := db.Callback()
	hooks := []struct {
		callback gormRegister
		hook     func(*gorm.DB)
		name     string
	}{
		{cb.Create().Before("gorm:create").After("otel:before:create"), p.before, "before:create"},
		{cb.Create().After("gorm:create").Before("otel:after:create"), p.after, "after:create"},
		{cb.Query().Before("gorm:query").After("otel:before:select"), p.before, "before:select"},
		{cb.Query().After("gorm:query").Before("otel:after:select"), p.after, "after:select"},
		{cb.Update().Before("gorm:update").After("otel:before:update"), p.before, "before:update"},
		{cb.Update().After("gorm:update").Before("otel:after:update"), p.after, "after:update"},
		{cb.Delete().Before("gorm:delete").After("otel:before:delete"), p.before, "before:delete"},
		{cb.Delete().After("gorm:delete").Before("otel:after:delete"), p.after, "after:delete"},
		{cb.Row().Before("gorm:row").After("otel:before:row"), p.before, "before:row"},
		{cb.Row().After("gorm:row").Before("otel:after:row"), p.after, "after:row"},
		{cb.Raw().Before("gorm:raw").After("otel:before:raw"), p.before, "before:raw"},
		{cb.Raw().After("gorm:raw").Before("otel:after:raw"), p.after, "after:raw"},
	}
	for _, h := range hooks {
		if err := h.callback.Register("connector_timing:"+h.name, h.hook); err != nil {
			return fmt.Errorf("register %s callback: %w", h.name, err)
		}
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
		zap.String("db_system", p.config.DBSystem),
	)
	return nil
}

func (p *DBTracingPlugin) before(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (p *DBTracingPlugin) after(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
	}

	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > p.config.SlowQueryThresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
}
