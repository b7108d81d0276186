package booking

import (
	"context"
	"time"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/notification"
	"hotelbooking/internal/repository"
)

type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	Update(ctx context.Context, b *domain.Booking) error
	FindConflicts(ctx context.Context, roomID int64, checkIn, checkOut time.Time, excludeID int64) ([]domain.Booking, error)
	CountClaims(ctx context.Context, roomID, excludeID int64) (int64, error)
	Search(ctx context.Context, f repository.BookingFilter) ([]domain.Booking, error)
	CountByStatus(ctx context.Context, from, to time.Time) (map[domain.BookingStatus]int64, error)
	Revenue(ctx context.Context, from, to time.Time) (*domain.Revenue, error)
}

type RoomRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Room, error)
	UpdateStatus(ctx context.Context, room *domain.Room, status domain.RoomStatus) error
}

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// RoomLocker is an optional cross-instance guard around create and confirm.
type RoomLocker interface {
	Acquire(ctx context.Context, roomID int64) (release func(), err error)
}

type NotificationSender interface {
	Notify(ctx context.Context, e notification.Event) error
}
