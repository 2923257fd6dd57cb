package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/siliya-electrical-api/internal/repository"
	"github.com/noah-isme/siliya-electrical-api/internal/service"
	"github.com/noah-isme/siliya-electrical-api/pkg/config"
	"github.com/noah-isme/siliya-electrical-api/pkg/database"
	"github.com/noah-isme/siliya-electrical-api/pkg/logger"
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
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logr.Fatal("failed to apply migrations", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created, err := service.SeedAdmin(ctx, repository.NewUserRepository(db), service.AdminSeed{
		Name:     cfg.Admin.Name,
		Email:    cfg.Admin.Email,
		Phone:    cfg.Admin.Phone,
		Password: cfg.Admin.Password,
	})
	if err != nil {
		logr.Fatal("failed to seed admin", zap.Error(err))
	}
	logr.Info("admin seeded", zap.String("email", cfg.Admin.Email), zap.Bool("created", created))
}
