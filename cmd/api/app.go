package main

import (
	"hotelbooking/internal/config"
	"hotelbooking/internal/jobs"
	"hotelbooking/internal/middleware"
	"hotelbooking/internal/modules/auth"
	"hotelbooking/internal/modules/booking"
	"hotelbooking/internal/modules/catalog"
	"hotelbooking/internal/modules/payment"
	"hotelbooking/internal/modules/roomservice"
	"hotelbooking/internal/notification"
	jwtsvc "hotelbooking/internal/pkg/jwt"
	"hotelbooking/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// appDeps are the pieces that differ between production and tests.
type appDeps struct {
	notifiers []notification.Notifier
	locker    booking.RoomLocker
	gateway   payment.Gateway
	health    gin.HandlerFunc
}

type app struct {
	router     *gin.Engine
	hub        *notification.Hub
	dispatcher *notification.Dispatcher
	scheduler  *jobs.Scheduler
	jwt        *jwtsvc.Service
}

const notifyWorkers = 2

func newApp(cfg *config.Config, db *gorm.DB, log logrus.FieldLogger, deps appDeps) *app {
	userRepo := repository.NewUserRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	transactor := repository.NewTransactor(db)

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTAccessTTL)

	// the front desk feed always receives events; email and kafka are optional
	hub := notification.NewHub(j, log)
	fanout := notification.NewMulti(log, append([]notification.Notifier{hub}, deps.notifiers...)...)
	notifier := notification.NewDispatcher(fanout, cfg.NotifyQueueSize, notifyWorkers, cfg.SMTPTimeout, log)

	authService := auth.NewService(
		userRepo,
		repository.NewRefreshTokenRepository(db),
		transactor,
		j,
		auth.SessionConfig{RefreshTTL: cfg.JWTRefreshTTL, Pepper: cfg.RefreshTokenPepper},
		log,
	)
	authHandler := auth.NewHandler(authService, j.TTL())

	catalogService := catalog.NewService(roomRepo, log)
	catalogHandler := catalog.NewHandler(catalogService)

	bookingService := booking.NewService(bookingRepo, roomRepo, transactor, notifier, deps.locker, log)
	bookingHandler := booking.NewHandler(bookingService)

	paymentService := payment.NewService(paymentRepo, bookingService, deps.gateway, notifier, cfg.GatewayTimeout, log)
	paymentHandler := payment.NewHandler(paymentService)

	roomService := roomservice.NewService(
		repository.NewMenuRepository(db),
		repository.NewFoodOrderRepository(db),
		repository.NewHousekeepingRepository(db),
		bookingService,
		roomRepo,
		notifier,
		log,
	)
	roomServiceHandler := roomservice.NewHandler(roomService)

	sweeper := jobs.NewSweeper(bookingService, paymentService, cfg.StalePaymentAfter, log)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.RequestLogger(log), middleware.CORS(cfg.CORSAllowedOrigins))

	if deps.health != nil {
		r.GET("/health", deps.health)
	}
	r.GET("/ws/front-desk", hub.HandleWebSocket)

	v1 := r.Group("/api/v1")
	{
		// public
		authHandler.RegisterPublicRoutes(v1)

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(j))

		staff := protected.Group("")
		staff.Use(middleware.StaffOnly())

		admin := protected.Group("")
		admin.Use(middleware.AdminOnly())

		authHandler.RegisterProtectedRoutes(protected, admin)
		catalogHandler.RegisterRoutes(v1, staff, admin)
		bookingHandler.RegisterRoutes(v1, protected, staff)
		paymentHandler.RegisterRoutes(protected, staff)
		roomServiceHandler.RegisterRoutes(v1, protected, staff)
	}

	internal := r.Group("/internal")
	internal.Use(middleware.InternalTokenAuth(cfg.InternalToken, cfg.InternalAllowedIPs, log))
	jobs.NewHandler(sweeper).RegisterRoutes(internal)

	return &app{
		router:     r,
		hub:        hub,
		dispatcher: notifier,
		scheduler:  jobs.NewScheduler(sweeper, log),
		jwt:        j,
	}
}
