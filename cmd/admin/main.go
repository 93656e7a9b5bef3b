package main

import (
	"errors"
	"log"
	"os"

	"github.com/noah-isme/school-portal-api/internal/repository"
	"github.com/noah-isme/school-portal-api/internal/service"
	"github.com/noah-isme/school-portal-api/migrations"
	"github.com/noah-isme/school-portal-api/pkg/config"
	"github.com/noah-isme/school-portal-api/pkg/database"
	"github.com/noah-isme/school-portal-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close()

	cli := &commandLine{
		migrate: func(command string) error {
			return database.Migrate(db, migrations.FS, command)
		},
		users: service.NewUserService(repository.NewUserRepository(db), nil, logr),
		out:   os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if errors.Is(err, errHelp) {
			os.Exit(2)
		}
		logr.Sugar().Errorw("command failed", "error", err)
		os.Exit(1)
	}
}
