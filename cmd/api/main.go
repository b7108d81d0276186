package main

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hotelbooking/internal/config"
	"hotelbooking/internal/database"
	"hotelbooking/internal/jobs"
	"hotelbooking/internal/lock"
	"hotelbooking/internal/modules/payment"
	"hotelbooking/internal/notification"
	"hotelbooking/internal/pkg/logger"
	"hotelbooking/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logger.New(cfg.LogLevel)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("db connect failed")
	}
	if cfg.AutoMigrate {
		if err := repository.AutoMigrate(db); err != nil {
			log.WithError(err).Fatal("auto migrate failed")
		}
	}

	deps := appDeps{
		gateway: payment.NewSimulatedGateway(cfg.GatewayFailureRate, rand.NewSource(time.Now().UnixNano())),
	}

	if cfg.SMTPHost != "" {
		deps.notifiers = append(deps.notifiers, notification.NewEmailSender(notification.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			Timeout:  cfg.SMTPTimeout,
		}))
	}
	var kafkaPub *notification.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub = notification.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		deps.notifiers = append(deps.notifiers, kafkaPub)
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.WithError(err).Fatal("redis ping failed")
		}
		deps.locker = lock.NewRoomLock(redisClient, cfg.RoomLockTTL, log)
	} else {
		log.Info("REDIS_ADDR not set, room lock disabled")
	}
	deps.health = healthCheck(db, redisClient)

	a := newApp(cfg, db, log, deps)
	if err := a.scheduler.Start(jobs.Schedules{NoShow: cfg.NoShowCron, StalePayment: cfg.StalePaymentCron}); err != nil {
		log.WithError(err).Fatal("cron setup failed")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("http server shutdown failed")
	}
	a.scheduler.Stop(ctx)
	if err := a.dispatcher.Close(ctx); err != nil {
		log.WithError(err).Warn("pending notifications dropped")
	}
	a.hub.Close()
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			log.WithError(err).Warn("kafka writer close failed")
		}
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("server exited")
}

func healthCheck(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		checks := gin.H{"database": "ok"}
		healthy := true
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			checks["database"] = "down"
			healthy = false
		}
		if rdb != nil {
			checks["redis"] = "ok"
			if err := rdb.Ping(ctx).Err(); err != nil {
				checks["redis"] = "down"
				healthy = false
			}
		}

		code := http.StatusOK
		if !healthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"healthy": healthy, "checks": checks})
	}
}
