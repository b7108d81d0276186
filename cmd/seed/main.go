package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"hotelbooking/internal/config"
	"hotelbooking/internal/database"
	"hotelbooking/internal/domain"
	"hotelbooking/internal/modules/auth"
	"hotelbooking/internal/modules/booking"
	"hotelbooking/internal/modules/catalog"
	"hotelbooking/internal/modules/roomservice"
	jwtsvc "hotelbooking/internal/pkg/jwt"
	"hotelbooking/internal/pkg/logger"
	"hotelbooking/internal/repository"

	"github.com/sirupsen/logrus"
)

type roomPlan struct {
	floor    int
	count    int
	roomType domain.RoomType
	price    int64
	capacity int
	view     string
}

var inventory = []roomPlan{
	{1, 6, domain.RoomSingle, 6500, 1, "courtyard"},
	{1, 4, domain.RoomTwin, 9000, 2, "courtyard"},
	{2, 6, domain.RoomDouble, 11000, 2, "city"},
	{2, 2, domain.RoomFamily, 16000, 4, "city"},
	{3, 4, domain.RoomDeluxe, 18500, 2, "sea"},
	{4, 2, domain.RoomSuite, 32000, 3, "sea"},
	{5, 1, domain.RoomPresidential, 95000, 4, "sea"},
}

var menu = []roomservice.CreateMenuItemRequest{
	{Name: "Continental breakfast", Category: domain.MenuBreakfast, Price: 2200, PreparationMinutes: 15, Vegetarian: true},
	{Name: "Club sandwich", Category: domain.MenuLunch, Price: 1800, PreparationMinutes: 20, Allergens: "gluten,egg"},
	{Name: "Grilled salmon", Category: domain.MenuDinner, Price: 3900, PreparationMinutes: 30, GlutenFree: true, Allergens: "fish"},
	{Name: "Garden salad", Category: domain.MenuAppetizers, Price: 1200, PreparationMinutes: 10, Vegan: true, GlutenFree: true},
	{Name: "Chocolate fondant", Category: domain.MenuDesserts, Price: 1100, PreparationMinutes: 20, Vegetarian: true, Allergens: "gluten,dairy,egg"},
	{Name: "Espresso", Category: domain.MenuCoffeeTea, Price: 450, PreparationMinutes: 5, Vegan: true, GlutenFree: true},
	{Name: "House red, bottle", Category: domain.MenuAlcoholicBeverages, Price: 4800, Vegan: true, GlutenFree: true},
}

// Seeds an admin, a front desk account, a guest, the room inventory, the room
// service menu and a couple of sample stays. Running it twice leaves existing rows alone.
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
	if err := repository.AutoMigrate(db); err != nil {
		log.WithError(err).Fatal("auto migrate failed")
	}

	ctx := context.Background()
	roomRepo := repository.NewRoomRepository(db)
	transactor := repository.NewTransactor(db)
	authService := auth.NewService(
		repository.NewUserRepository(db),
		repository.NewRefreshTokenRepository(db),
		transactor,
		jwtsvc.New(cfg.JWTSecret, cfg.JWTAccessTTL),
		auth.SessionConfig{RefreshTTL: cfg.JWTRefreshTTL, Pepper: cfg.RefreshTokenPepper},
		log,
	)
	catalogService := catalog.NewService(roomRepo, log)
	bookingService := booking.NewService(
		repository.NewBookingRepository(db), roomRepo, transactor, nil, nil, log,
	)

	log.Info("creating users...")
	adminPassword := getEnv("SEED_ADMIN_PASSWORD", "admin12345")
	accounts := []auth.CreateStaffRequest{
		{RegisterRequest: auth.RegisterRequest{Email: "admin@hotel.local", Password: adminPassword, Name: "Hotel Admin"}, Role: domain.RoleAdmin},
		{RegisterRequest: auth.RegisterRequest{Email: "frontdesk@hotel.local", Password: "desk12345", Name: "Front Desk"}, Role: domain.RoleStaff},
	}
	for _, acc := range accounts {
		_, err := authService.CreateStaff(ctx, acc)
		skipExisting(log, err, "user "+acc.Email)
	}
	guest := auth.RegisterRequest{Email: "guest@hotel.local", Password: "guest12345", Name: "Sample Guest", Phone: "+1 555 0100"}
	_, err = authService.Register(ctx, guest)
	skipExisting(log, err, "user "+guest.Email)

	log.Info("creating rooms...")
	created := 0
	var rooms []*domain.Room
	for _, plan := range inventory {
		for i := 1; i <= plan.count; i++ {
			number := fmt.Sprintf("%d%02d", plan.floor, len(roomsOnFloor(rooms, plan.floor))+1)
			room, err := catalogService.CreateRoom(ctx, catalog.CreateRoomRequest{
				RoomNumber:    number,
				RoomType:      plan.roomType,
				PricePerNight: plan.price,
				Capacity:      plan.capacity,
				FloorNumber:   plan.floor,
				View:          plan.view,
				Amenities:     "wifi,tv,minibar",
				PetFriendly:   plan.roomType == domain.RoomFamily,
			})
			if errors.Is(err, domain.ErrConflict) {
				room, err = catalogService.GetRoomByNumber(ctx, number)
			} else if err == nil {
				created++
			}
			if err != nil {
				log.WithError(err).WithField("room_number", number).Fatal("room seed failed")
			}
			rooms = append(rooms, room)
		}
	}
	log.WithFields(logrus.Fields{"created": created, "total": len(rooms)}).Info("rooms ready")

	log.Info("creating room service menu...")
	roomService := roomservice.NewService(
		repository.NewMenuRepository(db),
		repository.NewFoodOrderRepository(db),
		repository.NewHousekeepingRepository(db),
		bookingService, roomRepo, nil, log,
	)
	existing, err := roomService.ListMenu(ctx, repository.MenuFilter{})
	if err != nil {
		log.WithError(err).Fatal("menu lookup failed")
	}
	if len(existing) == 0 {
		for _, item := range menu {
			if _, err := roomService.CreateMenuItem(ctx, item); err != nil {
				log.WithError(err).WithField("item", item.Name).Fatal("menu seed failed")
			}
		}
		log.WithField("items", len(menu)).Info("menu ready")
	} else {
		log.WithField("items", len(existing)).Info("menu already present")
	}

	log.Info("creating sample bookings...")
	today := domain.Date(time.Now())
	samples := []struct {
		room    *domain.Room
		in, out int
		confirm bool
	}{
		{rooms[0], 1, 3, true},
		{rooms[len(rooms)-1], 7, 10, false},
	}
	for _, s := range samples {
		b, err := bookingService.CreateBooking(ctx, booking.NewBooking{
			RoomID:         s.room.ID,
			GuestName:      guest.Name,
			GuestEmail:     guest.Email,
			GuestPhone:     guest.Phone,
			CheckIn:        today.AddDate(0, 0, s.in),
			CheckOut:       today.AddDate(0, 0, s.out),
			NumberOfGuests: 1,
		})
		if errors.Is(err, domain.ErrUnavailable) {
			log.WithField("room_number", s.room.RoomNumber).Info("sample stay already present")
			continue
		}
		if err != nil {
			log.WithError(err).Fatal("booking seed failed")
		}
		if s.confirm {
			if _, err := bookingService.Confirm(ctx, b.ID); err != nil {
				log.WithError(err).Fatal("booking confirm failed")
			}
		}
	}

	log.Info("seed completed")
}

func roomsOnFloor(rooms []*domain.Room, floor int) []*domain.Room {
	var out []*domain.Room
	for _, r := range rooms {
		if r.FloorNumber == floor {
			out = append(out, r)
		}
	}
	return out
}

func skipExisting(log logrus.FieldLogger, err error, what string) {
	switch {
	case err == nil:
		log.WithField("what", what).Info("created")
	case errors.Is(err, domain.ErrConflict):
		log.WithField("what", what).Info("already exists")
	default:
		log.WithError(err).WithField("what", what).Fatal("seed failed")
	}
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
