package main

import (
	"context"
	"math/rand"
	"time"

	"hotelbooking/internal/config"
	"hotelbooking/internal/database"
	"hotelbooking/internal/jobs"
	"hotelbooking/internal/modules/booking"
	"hotelbooking/internal/modules/payment"
	"hotelbooking/internal/notification"
	"hotelbooking/internal/pkg/logger"
	"hotelbooking/internal/repository"

	"github.com/sirupsen/logrus"
)

// One-shot run of the no-show and stale payment sweeps for deployments that
// schedule batch work outside the API process.
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

	var notifiers []notification.Notifier
	var kafkaPub *notification.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub = notification.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafkaPub.Close()
		notifiers = append(notifiers, kafkaPub)
	}
	notifier := notification.NewMulti(log, notifiers...)

	roomRepo := repository.NewRoomRepository(db)
	bookingService := booking.NewService(
		repository.NewBookingRepository(db), roomRepo, repository.NewTransactor(db), notifier, nil, log,
	)
	// the sweep never charges, so the gateway is only there to satisfy the service
	gateway := payment.NewSimulatedGateway(0, rand.NewSource(time.Now().UnixNano()))
	paymentService := payment.NewService(repository.NewPaymentRepository(db), bookingService, gateway, notifier, cfg.GatewayTimeout, log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	noShows, stale, err := jobs.NewSweeper(bookingService, paymentService, cfg.StalePaymentAfter, log).RunOnce(ctx)
	if err != nil {
		log.WithError(err).Fatal("sweep failed")
	}
	log.WithFields(logrus.Fields{"no_shows": noShows, "stale_payments": stale}).Info("booking sweep completed")
}
