package roomservice

import (
	"context"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/notification"
	"hotelbooking/internal/repository"
)

type MenuRepository interface {
	Create(ctx context.Context, item *domain.MenuItem) error
	GetByID(ctx context.Context, id int64) (*domain.MenuItem, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*domain.MenuItem, error)
	Update(ctx context.Context, item *domain.MenuItem) error
	List(ctx context.Context, f repository.MenuFilter) ([]domain.MenuItem, error)
}

type FoodOrderRepository interface {
	Create(ctx context.Context, o *domain.FoodOrder) error
	GetByID(ctx context.Context, id int64) (*domain.FoodOrder, error)
	UpdateStatus(ctx context.Context, o *domain.FoodOrder) error
	List(ctx context.Context, f repository.FoodOrderFilter) ([]domain.FoodOrder, error)
}

type HousekeepingRepository interface {
	Create(ctx context.Context, h *domain.HousekeepingRequest) error
	GetByID(ctx context.Context, id int64) (*domain.HousekeepingRequest, error)
	Update(ctx context.Context, h *domain.HousekeepingRequest) error
	List(ctx context.Context, f repository.HousekeepingFilter) ([]domain.HousekeepingRequest, error)
}

// BookingLookup resolves the stay an order or request is charged to.
type BookingLookup interface {
	GetBooking(ctx context.Context, id int64) (*domain.Booking, error)
}

type RoomLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.Room, error)
}

type NotificationSender interface {
	Notify(ctx context.Context, e notification.Event) error
}
