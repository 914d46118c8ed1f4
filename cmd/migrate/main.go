package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/erp/magento-connector/internal/infrastructure/config"
	"github.com/erp/magento-connector/internal/infrastructure/logger"
	"github.com/erp/magento-connector/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	var (
		migrationsPath string
		configPath     string
		logLevel       string
	)
	flag.StringVar(&migrationsPath, "path", "", "Path to a migrations directory (default: migrations built into the binary)")
	flag.StringVar(&configPath, "config", "", "Path to a config.toml file")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	err = run(log, migrationsPath, configPath, args[0], args[1:])
	_ = log.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", args[0], err)
		os.Exit(1)
	}
}

func run(log *zap.Logger, migrationsPath, configPath, command string, args []string) error {
	if migrationsPath != "" {
		abs, err := filepath.Abs(migrationsPath)
		if err != nil {
			return fmt.Errorf("resolve migrations path: %w", err)
		}
		migrationsPath = abs
	}
	log.Info("Running schema command",
		zap.String("command", command),
		zap.String("migrations", sourceName(migrationsPath)),
	)

	if command == "list" {
		return listMigrations(migrationsPath)
	}

	m, err := openMigrator(log, migrationsPath, configPath)
	if err != nil {
		return err
	}
	// Closing the migrator also closes the database handle.
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()

	switch command {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "steps":
		n, err := intArg(args, "steps <n>")
		if err != nil {
			return err
		}
		return m.Steps(n)
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if version == 0 {
			log.Info("Schema has no migrations applied")
			return nil
		}
		log.Info("Schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	case "force":
		version, err := intArg(args, "force <version>")
		if err != nil {
			return err
		}
		log.Warn("Forcing schema version without running migrations", zap.Int("version", version))
		return m.Force(version)
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

// listMigrations prints the available migrations without touching a database
func listMigrations(migrationsPath string) error {
	names, err := migration.ListMigrations(migrationsPath)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("no migrations found")
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func openMigrator(log *zap.Logger, migrationsPath, configPath string) (*migration.Migrator, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if cfg.Database.Driver != "postgres" {
		return nil, fmt.Errorf("database driver %q has no migrations; sqlite schemas are created by the connector", cfg.Database.Driver)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	m, err := migration.New(db, migrationsPath, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return m, nil
}

func intArg(args []string, usage string) (int, error) {
	if len(args) == 0 {
		return 0, errors.New("missing argument, usage: migrate " + usage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid number %q, usage: migrate %s", args[0], usage)
	}
	return n, nil
}

func sourceName(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Schema migrations for the Magento connector (postgres)

Usage:
  migrate [flags] <command> [argument]

Commands:
  up                Apply all pending migrations
  down              Roll back every migration
  steps <n>         Apply n migrations, negative n rolls back
  version           Print the current schema version
  force <version>   Set the schema version without running migrations
  list              List the available migrations

Flags:
  -path string        Migrations directory (default: built into the binary)
  -config string      Path to a config.toml file
  -log-level string   debug, info, warn or error (default: info)

Database settings come from config.toml or CONNECTOR_DATABASE_* variables.
`)
}
