package booking

import (
	"hotelbooking/internal/domain"
	"hotelbooking/internal/notification"
)

var transitions = map[domain.BookingStatus][]domain.BookingStatus{
	domain.BookingPending:   {domain.BookingConfirmed, domain.BookingCancelled},
	domain.BookingConfirmed: {domain.BookingCheckedIn, domain.BookingNoShow, domain.BookingCancelled},
	domain.BookingCheckedIn: {domain.BookingCheckedOut, domain.BookingCancelled},
}

// CanTransition reports whether a booking may move from one status to another.
// Terminal statuses have no outgoing edges.
func CanTransition(from, to domain.BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func AllowedTransitions(from domain.BookingStatus) []domain.BookingStatus {
	out := make([]domain.BookingStatus, len(transitions[from]))
	copy(out, transitions[from])
	return out
}

func eventType(status domain.BookingStatus) string {
	switch status {
	case domain.BookingPending:
		return notification.TypeBookingCreated
	case domain.BookingConfirmed:
		return notification.TypeBookingConfirmed
	case domain.BookingCheckedIn:
		return notification.TypeBookingCheckedIn
	case domain.BookingCheckedOut:
		return notification.TypeBookingCheckedOut
	case domain.BookingCancelled:
		return notification.TypeBookingCancelled
	case domain.BookingNoShow:
		return notification.TypeBookingNoShow
	}
	return "booking." + string(status)
}
