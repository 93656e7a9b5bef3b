//go:build integration

// Package testdb starts a throwaway PostgreSQL container with the schema applied.
package testdb

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/noah-isme/school-portal-api/migrations"
	"github.com/noah-isme/school-portal-api/pkg/database"
)

// Handle owns the container and its connection.
type Handle struct {
	DB   *sqlx.DB
	stop func(context.Context) error
}

// Close releases the connection and terminates the container.
func (h *Handle) Close() {
	if h.DB != nil {
		_ = h.DB.Close()
	}
	if h.stop != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = h.stop(ctx)
	}
}

// Start runs postgres, waits for it and applies every goose migration.
func Start(ctx context.Context) (*Handle, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	pg, err := postgres.RunContainer(ctx,
		tc.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("school"),
		postgres.WithUsername("school"),
		postgres.WithPassword("school"),
		tc.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(time.Minute)),
	)
	if err != nil {
		return nil, err
	}

	uri, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pg.Terminate(ctx)
		return nil, err
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", uri)
	if err != nil {
		_ = pg.Terminate(ctx)
		return nil, err
	}

	if err := database.Migrate(db, migrations.FS, "up"); err != nil {
		_ = db.Close()
		_ = pg.Terminate(ctx)
		return nil, err
	}

	return &Handle{DB: db, stop: pg.Terminate}, nil
}
