package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	appmagento "github.com/erp/magento-connector/internal/application/magento"
	"github.com/erp/magento-connector/internal/domain/magento"
	"github.com/erp/magento-connector/internal/infrastructure/config"
	"github.com/erp/magento-connector/internal/infrastructure/logger"
	"github.com/erp/magento-connector/internal/infrastructure/magentoapi"
	"github.com/erp/magento-connector/internal/infrastructure/migration"
	"github.com/erp/magento-connector/internal/infrastructure/persistence"
	"github.com/erp/magento-connector/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	var (
		configPath string
		migrate    bool
	)
	flag.StringVar(&configPath, "config", "", "Path to a config.toml file")
	flag.BoolVar(&migrate, "migrate", false, "Apply pending schema migrations before running the command")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, log, migrate, args[0], args[1:])
	stop()
	_ = log.Sync()
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "%s: %v\n", args[0], err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// app holds the wired dependencies of one connector run
type app struct {
	log        *zap.Logger
	db         *persistence.Database
	categories *appmagento.CategoryImporter
	products   *appmagento.ProductImporter
	remote     magento.RemoteAccessor
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger, migrate bool, command string, args []string) error {
	ctx = logger.WithContext(ctx, log)
	ctx = logger.WithRunID(ctx, uuid.NewString())

	log.Info("Starting Magento connector",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
		zap.String("command", command),
	)

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to initialize log export: %w", err)
	}
	defer func() {
		if err := lp.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down logger provider", zap.Error(err))
		}
	}()
	log = telemetry.Bridge(log, telemetry.NewZapOTELCore(lp, cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level)))
	ctx = logger.WithContext(ctx, log)

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	defer func() {
		if err := mp.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()
	metrics, err := telemetry.NewImportMetrics(mp.Meter("magento-connector"))
	if err != nil {
		return fmt.Errorf("failed to register import metrics: %w", err)
	}

	a, err := newApp(ctx, cfg, log, migrate, metrics)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	switch command {
	case "register-instance":
		return a.registerInstance(ctx, args)
	case "register-website":
		return a.registerWebsite(ctx, args)
	case "import-categories":
		return a.importCategories(ctx, args)
	case "import-product":
		return a.importProduct(ctx, args)
	case "update-product":
		return a.updateProduct(ctx, args)
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger, migrate bool, metrics *telemetry.ImportMetrics) (*app, error) {
	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	dbSystem := "postgresql"
	if cfg.Database.Driver == "sqlite" {
		dbSystem = "sqlite"
	}
	plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        dbSystem,
	}, log)

	if err := prepareSchema(db, cfg.Database.Driver, migrate, log); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := plugin.Register(db.DB); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to register database tracing: %w", err)
	}

	client, err := magentoapi.NewClient(&magentoapi.Config{
		Timeout:          cfg.Magento.Timeout,
		MaxResponseBytes: cfg.Magento.MaxResponseBytes,
		UserAgent:        cfg.Magento.UserAgent,
	}, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	client.SetMetrics(metrics)

	txScope := persistence.NewGormTransactionScope(db.DB)
	categories := appmagento.NewCategoryImporter(txScope, client, log)
	categories.SetMetrics(metrics)
	products := appmagento.NewProductImporter(txScope, client, categories, log)
	products.SetMetrics(metrics)
	return &app{
		log:        log,
		db:         db,
		categories: categories,
		products:   products,
		remote:     client,
	}, nil
}

// prepareSchema creates the sqlite schema in place, and applies the
// embedded migrations to postgres when requested
func prepareSchema(db *persistence.Database, driver string, migrate bool, log *zap.Logger) error {
	if driver == "sqlite" {
		return db.AutoMigrate()
	}
	if !migrate {
		return nil
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, "", log)
	if err != nil {
		return err
	}
	// Close would also close sqlDB, which the connector keeps using
	return m.Up()
}

func (a *app) registerInstance(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register-instance", flag.ContinueOnError)
	tenant := fs.String("tenant", "", "ERP tenant ID")
	name := fs.String("name", "", "Instance name")
	url := fs.String("url", "", "Magento store URL")
	apiUser := fs.String("api-user", "", "Magento API user")
	apiKey := fs.String("api-key", "", "Magento API key")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tenantID, err := uuid.Parse(*tenant)
	if err != nil {
		return fmt.Errorf("invalid -tenant: %w", err)
	}
	instance, err := magento.NewInstance(tenantID, *name, *url, *apiUser, *apiKey)
	if err != nil {
		return err
	}
	if err := persistence.NewGormInstanceRepository(a.db.DB).Save(ctx, instance); err != nil {
		return err
	}

	logger.L(ctx).Info("Instance registered",
		zap.String("instance_id", instance.ID.String()),
		zap.String("url", instance.URL),
	)
	fmt.Println(instance.ID)
	return nil
}

func (a *app) registerWebsite(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register-website", flag.ContinueOnError)
	instanceFlag := fs.String("instance", "", "Instance ID")
	magentoID := fs.Int64("magento-id", 0, "Magento website ID")
	name := fs.String("name", "", "Website name")
	code := fs.String("code", "", "Magento website code")
	if err := fs.Parse(args); err != nil {
		return err
	}

	instanceID, err := uuid.Parse(*instanceFlag)
	if err != nil {
		return fmt.Errorf("invalid -instance: %w", err)
	}
	if _, err := persistence.NewGormInstanceRepository(a.db.DB).FindByID(ctx, instanceID); err != nil {
		return fmt.Errorf("instance %s: %w", instanceID, err)
	}
	website, err := magento.NewWebsite(instanceID, *magentoID, *name, *code)
	if err != nil {
		return err
	}
	if err := persistence.NewGormWebsiteRepository(a.db.DB).Save(ctx, website); err != nil {
		return err
	}

	logger.L(ctx).Info("Website registered",
		zap.String("website_id", website.ID.String()),
		zap.String("code", website.Code),
	)
	fmt.Println(website.ID)
	return nil
}

func (a *app) importCategories(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import-categories", flag.ContinueOnError)
	instanceFlag := fs.String("instance", "", "Instance ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	instanceID, err := uuid.Parse(*instanceFlag)
	if err != nil {
		return fmt.Errorf("invalid -instance: %w", err)
	}

	root, err := a.categories.ImportRemoteTree(ctx, instanceID)
	if err != nil {
		return err
	}
	count, err := persistence.NewGormCategoryReferenceRepository(a.db.DB).CountByInstance(ctx, instanceID)
	if err != nil {
		return err
	}

	logger.L(ctx).Info("Category tree imported",
		zap.String("root_category_id", root.ID.String()),
		zap.Int64("referenced_categories", count),
	)
	return nil
}

func (a *app) importProduct(ctx context.Context, args []string) error {
	scope, productID, err := parseProductFlags("import-product", args)
	if err != nil {
		return err
	}

	instance, err := persistence.NewGormInstanceRepository(a.db.DB).FindByID(ctx, scope.InstanceID)
	if err != nil {
		return &magento.ScopeError{InstanceID: scope.InstanceID, WebsiteID: scope.WebsiteID, Reason: err.Error()}
	}
	doc, err := a.remote.FetchProduct(ctx, instance, productID)
	if err != nil {
		return err
	}

	template, err := a.products.FindOrCreate(ctx, doc, scope)
	if err != nil {
		return err
	}

	logger.L(ctx).Info("Product imported",
		zap.Int64("magento_id", productID),
		zap.String("template_id", template.ID.String()),
		zap.String("subtype", string(template.Subtype)),
	)
	return nil
}

func (a *app) updateProduct(ctx context.Context, args []string) error {
	scope, productID, err := parseProductFlags("update-product", args)
	if err != nil {
		return err
	}

	template, err := a.products.FindByRemoteData(ctx, &magento.ProductDocument{ProductID: magento.FlexInt(productID)}, scope)
	if err != nil {
		return err
	}
	template, err = a.products.UpdateFromRemote(ctx, template, scope)
	if err != nil {
		return err
	}

	logger.L(ctx).Info("Product updated",
		zap.Int64("magento_id", productID),
		zap.String("template_id", template.ID.String()),
		zap.Int("version", template.Version),
	)
	return nil
}

func parseProductFlags(command string, args []string) (magento.Scope, int64, error) {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	instanceFlag := fs.String("instance", "", "Instance ID")
	websiteFlag := fs.String("website", "", "Website ID")
	productID := fs.Int64("product", 0, "Magento product ID")
	if err := fs.Parse(args); err != nil {
		return magento.Scope{}, 0, err
	}

	instanceID, err := uuid.Parse(*instanceFlag)
	if err != nil {
		return magento.Scope{}, 0, fmt.Errorf("invalid -instance: %w", err)
	}
	websiteID, err := uuid.Parse(*websiteFlag)
	if err != nil {
		return magento.Scope{}, 0, fmt.Errorf("invalid -website: %w", err)
	}
	if *productID <= 0 {
		return magento.Scope{}, 0, errors.New("-product must be a positive Magento product ID")
	}
	return magento.NewScope(instanceID, websiteID), *productID, nil
}

func printUsage() {
	fmt.Println(`Magento Catalog Connector

Usage:
  connector [flags] <command> [command flags]

Commands:
  register-instance  -tenant <id> -name <name> -url <url> -api-user <user> -api-key <key>
  register-website   -instance <id> -magento-id <n> -name <name> -code <code>
  import-categories  -instance <id>
  import-product     -instance <id> -website <id> -product <magento id>
  update-product     -instance <id> -website <id> -product <magento id>

Flags:
  -config string     Path to a config.toml file (default: ./config.toml, ./config/config.toml, /app/config.toml)
  -migrate           Apply pending schema migrations (postgres) before running the command

Environment Variables:
  Every setting can be overridden with CONNECTOR_<SECTION>_<KEY>,
  e.g. CONNECTOR_DATABASE_PASSWORD or CONNECTOR_MAGENTO_TIMEOUT`)
}
