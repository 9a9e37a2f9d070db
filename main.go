package main

import (
	"log/slog"
	"os"

	"github.com/prepwise/backend/repository"
	"github.com/prepwise/backend/services"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	// Setup structured logging with JSON format
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	config := services.LoadConfig()

	server := services.NewServer(config)

	if config.Database.URL != "" {
		db, err := gorm.Open(postgres.Open(config.Database.URL), &gorm.Config{
			Logger: gormLogger(config.Database.LogLevel),
		})
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}

		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxIdleConns(config.Database.MaxIdleConns)
			sqlDB.SetMaxOpenConns(config.Database.MaxOpenConns)
		}

		repo := repository.NewGORMRepository(db)
		if err := repo.AutoMigrate(); err != nil {
			slog.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("Connected to database")

		server.SetDatabase(repo, db)

		if config.Database.Seed {
			seeder := services.NewDatabaseSeeder(repo)
			if err := seeder.SeedDatabase(); err != nil {
				slog.Error("Failed to seed database", "error", err)
			}
		}
	} else {
		slog.Warn("Database URL not configured, running without durable history")
	}

	if err := server.InitializeServices(); err != nil {
		slog.Error("Failed to initialize services", "error", err)
		os.Exit(1)
	}

	server.Start()
}

func gormLogger(level string) gormlogger.Interface {
	switch level {
	case "info":
		return gormlogger.Default.LogMode(gormlogger.Info)
	case "warn":
		return gormlogger.Default.LogMode(gormlogger.Warn)
	case "error":
		return gormlogger.Default.LogMode(gormlogger.Error)
	default:
		return gormlogger.Default.LogMode(gormlogger.Silent)
	}
}
