package main

import (
	"context"
	"time"

	"hotelbooking/internal/config"
	"hotelbooking/internal/database"
	"hotelbooking/internal/pkg/logger"
	"hotelbooking/internal/repository"

	"github.com/sirupsen/logrus"
)

// revoked tokens are kept this long so a replay can still be recognised
const revokedRetention = 30 * 24 * time.Hour

// Deletes expired refresh tokens and old revoked ones. Meant to run from cron.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logger.New(cfg.LogLevel)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("db connect failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	now := time.Now().UTC()
	deleted, err := repository.NewRefreshTokenRepository(db).DeleteExpired(ctx, now, now.Add(-revokedRetention))
	if err != nil {
		log.WithError(err).Fatal("cleanup refresh_tokens failed")
	}
	log.WithFields(logrus.Fields{"refresh_tokens": deleted}).Info("auth cleanup completed")
}
