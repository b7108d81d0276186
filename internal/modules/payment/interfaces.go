package payment

import (
	"context"
	"time"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/notification"
)

type PaymentRepository interface {
	Create(ctx context.Context, p *domain.Payment) error
	GetByID(ctx context.Context, id int64) (*domain.Payment, error)
	GetByTransactionID(ctx context.Context, txnID string) (*domain.Payment, error)
	Update(ctx context.Context, p *domain.Payment) error
	ListByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error)
	TotalPaidForBooking(ctx context.Context, bookingID int64) (int64, error)
	ListStale(ctx context.Context, cutoff time.Time) ([]domain.Payment, error)
	Stats(ctx context.Context) (*domain.PaymentStats, error)
}

// BookingLookup resolves the booking a payment refers to. Payments keep only
// the booking id; the booking itself is owned elsewhere.
type BookingLookup interface {
	GetBooking(ctx context.Context, id int64) (*domain.Booking, error)
}

type NotificationSender interface {
	Notify(ctx context.Context, e notification.Event) error
}

type refundFunc func(ctx context.Context, id, amount int64, reason string) (*domain.Payment, error)
