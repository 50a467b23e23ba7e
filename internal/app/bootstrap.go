package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/avast/retry-go/v4"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	"docschat/internal/config"
	"docschat/internal/vector"
)

// Dependencies holds the external connections the API server needs. Both
// Postgres and Weaviate usually start alongside this process, so every
// bootstrap step that talks to them retries before giving up.
type Dependencies struct {
	DB       *sql.DB
	Weaviate *weaviate.Client
}

func Bootstrap(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	db, err := OpenDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(db, cfg.MigrationPath); err != nil {
		db.Close()
		return nil, err
	}

	wClient, err := ConnectWeaviate(ctx, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Dependencies{DB: db, Weaviate: wClient}, nil
}

func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}

func OpenDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPass, cfg.DBName)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	err = retry.Do(
		func() error { return db.PingContext(ctx) },
		retry.Context(ctx),
		retry.Attempts(cfg.BootstrapRetryAttempts),
		retry.Delay(cfg.BootstrapRetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("failed to ping db, retrying", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db after retries: %w", err)
	}
	return db, nil
}

func runMigrations(db *sql.DB, migrationPath string) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(migrationPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("migrations applied successfully")
	return nil
}

// ConnectWeaviate builds the client and provisions the collection schema,
// retrying while Weaviate finishes starting up.
func ConnectWeaviate(ctx context.Context, cfg *config.Config) (*weaviate.Client, error) {
	wClient, err := weaviate.NewClient(weaviate.Config{
		Host:   cfg.WeaviateHost,
		Scheme: cfg.WeaviateScheme,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %w", err)
	}

	wAdapter := vector.NewSchemaAdapter(wClient)
	err = retry.Do(
		func() error { return vector.EnsureSchema(ctx, wAdapter, cfg.CollectionName) },
		retry.Context(ctx),
		retry.Attempts(cfg.BootstrapRetryAttempts),
		retry.Delay(cfg.BootstrapRetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("failed to ensure weaviate schema, retrying", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure weaviate schema after retries: %w", err)
	}
	slog.Info("weaviate schema ensured", "collection", cfg.CollectionName)
	return wClient, nil
}
