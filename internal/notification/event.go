package notification

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// Event type constants
const (
	TypeBookingCreated    = "booking.created"
	TypeBookingConfirmed  = "booking.confirmed"
	TypeBookingCheckedIn  = "booking.checked_in"
	TypeBookingCheckedOut = "booking.checked_out"
	TypeBookingCancelled  = "booking.cancelled"
	TypeBookingNoShow     = "booking.no_show"
	TypePaymentCompleted  = "payment.completed"
	TypePaymentFailed     = "payment.failed"
	TypePaymentRefunded   = "payment.refunded"

	TypeFoodOrderPlaced       = "food_order.placed"
	TypeFoodOrderUpdated      = "food_order.status_changed"
	TypeHousekeepingRequested = "housekeeping.requested"
	TypeHousekeepingUpdated   = "housekeeping.status_changed"
)

// Event describes one committed state change.
type Event struct {
	Type          string    `json:"type"`
	BookingID     int64     `json:"booking_id,omitempty"`
	RoomID        int64     `json:"room_id,omitempty"`
	PaymentID     int64     `json:"payment_id,omitempty"`
	RequestID     int64     `json:"request_id,omitempty"` // food order or housekeeping request
	RoomNumber    string    `json:"room_number,omitempty"`
	Status        string    `json:"status"`
	GuestName     string    `json:"guest_name,omitempty"`
	GuestEmail    string    `json:"guest_email,omitempty"`
	CheckInDate   string    `json:"check_in_date,omitempty"`
	CheckOutDate  string    `json:"check_out_date,omitempty"`
	Amount        int64     `json:"amount,omitempty"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// Multi fans an event out to every notifier. One channel failing never stops
// the others; failures are logged and joined into the returned error.
type Multi struct {
	notifiers []Notifier
	log       logrus.FieldLogger
}

func NewMulti(log logrus.FieldLogger, notifiers ...Notifier) *Multi {
	return &Multi{notifiers: notifiers, log: log}
}

func (m *Multi) Notify(ctx context.Context, e Event) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, e); err != nil {
			m.log.WithError(err).WithFields(logrus.Fields{
				"event":      e.Type,
				"booking_id": e.BookingID,
				"payment_id": e.PaymentID,
			}).Warn("notification delivery failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Noop struct{}

func (Noop) Notify(context.Context, Event) error { return nil }
