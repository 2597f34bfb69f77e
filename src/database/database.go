package database

import (
	"database/sql"
	"errors"
	"fmt"
	stdlog "log"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/username/folioledger/backend/src/logger"
	_ "modernc.org/sqlite"
)

// DB is the process-wide connection pool. SQLite gets a single connection;
// WAL plus busy_timeout handles the one-writer constraint.
var DB *sql.DB

func InitDB(databasePath string) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)", databasePath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}
	db.SetMaxOpenConns(1)

	if err = db.Ping(); err != nil {
		stdlog.Fatalf("failed to ping database: %v", err)
	}
	DB = db
	logger.L.Info("Database connection established", "path", databasePath, "journalMode", "WAL")
}

// RunMigrations applies any pending migrations from db/migrations. A schema
// that is already current is not an error.
func RunMigrations(databasePath string) {
	if DB == nil {
		stdlog.Fatal("database connection is not initialized before running migrations")
	}

	driver, err := sqlite.WithInstance(DB, &sqlite.Config{})
	if err != nil {
		stdlog.Fatalf("could not create sqlite migration driver: %v", err)
	}

	sourceURL := migrationsSourceURL()
	m, err := migrate.NewWithDatabaseInstance(sourceURL, databasePath, driver)
	if err != nil {
		stdlog.Fatalf("migration instance creation failed (source %s): %v", sourceURL, err)
	}

	logger.L.Info("Applying database migrations...", "source", sourceURL)
	switch err := m.Up(); {
	case err == nil:
		logger.L.Info("Database migrations applied successfully.")
	case errors.Is(err, migrate.ErrNoChange):
		logger.L.Info("No new database migrations to apply.")
	default:
		stdlog.Fatalf("failed to apply migrations: %v", err)
	}
}

// migrationsSourceURL resolves the migrations directory: a fixed container
// path in production, the working directory otherwise.
func migrationsSourceURL() string {
	if os.Getenv("GO_ENV") == "PRO" {
		return "file:///app/db/migrations"
	}
	cwd, err := os.Getwd()
	if err != nil {
		stdlog.Fatalf("failed to get current working directory: %v", err)
	}
	return fmt.Sprintf("file://%s", filepath.ToSlash(filepath.Join(cwd, "db", "migrations")))
}
