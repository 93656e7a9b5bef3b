package database

import (
	"fmt"
	"io/fs"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
)

// Migrate applies goose migrations from fsys. Supported commands: up, down, status.
func Migrate(db *sqlx.DB, fsys fs.FS, command string) error {
	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	switch command {
	case "", "up":
		return goose.Up(db.DB, ".")
	case "down":
		return goose.Down(db.DB, ".")
	case "status":
		return goose.Status(db.DB, ".")
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
}
