package main

import (
	"github.com/onurcolak/edubot-service/environments"
	"github.com/onurcolak/edubot-service/pkg/database"
	"github.com/onurcolak/edubot-service/pkg/logger"
)

func main() {
	_, dotEnvErr := environments.LoadDotEnv()
	cfg := environments.Load()

	if err := logger.Init(cfg.Log.Level, "console"); err != nil {
		panic("failed to initialise logger: " + err.Error())
	}
	defer logger.Sync()

	if dotEnvErr != nil {
		logger.Warnf("Ignoring .env: %v", dotEnvErr)
	}

	db, err := database.NewMySQLDB(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	defer func() {
		if err := db.Close(); err != nil {
			logger.Warnf("Failed to close database: %v", err)
		}
	}()

	if err := database.RunMigrations(db); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	if err := database.SeedTestData(db); err != nil {
		logger.Fatalf("Failed to seed test data: %v", err)
	}

	logger.Infof("Seed completed successfully")
}
