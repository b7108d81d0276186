package domain

import (
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingPending    BookingStatus = "PENDING"
	BookingConfirmed  BookingStatus = "CONFIRMED"
	BookingCheckedIn  BookingStatus = "CHECKED_IN"
	BookingCheckedOut BookingStatus = "CHECKED_OUT"
	BookingCancelled  BookingStatus = "CANCELLED"
	BookingNoShow     BookingStatus = "NO_SHOW"
)

var bookingStatuses = map[BookingStatus]bool{
	BookingPending: true, BookingConfirmed: true, BookingCheckedIn: true,
	BookingCheckedOut: true, BookingCancelled: true, BookingNoShow: true,
}

func (s BookingStatus) Valid() bool { return bookingStatuses[s] }

// BlockingStatuses are the booking states that hold a room's dates.
var BlockingStatuses = []BookingStatus{BookingConfirmed, BookingCheckedIn}

// ClaimingStatuses are the states in which a booking still has a claim on its room.
var ClaimingStatuses = []BookingStatus{BookingPending, BookingConfirmed, BookingCheckedIn}

func BlocksAvailability(s BookingStatus) bool {
	return s == BookingConfirmed || s == BookingCheckedIn
}

func IsBookingTerminal(s BookingStatus) bool {
	return s == BookingCheckedOut || s == BookingCancelled || s == BookingNoShow
}

type Booking struct {
	ID                 int64         `json:"id"`
	RoomID             int64         `json:"room_id"`
	GuestID            int64         `json:"guest_id,omitempty"`
	GuestName          string        `json:"guest_name"`
	GuestEmail         string        `json:"guest_email"`
	GuestPhone         string        `json:"guest_phone,omitempty"`
	CheckInDate        time.Time     `json:"check_in_date"`
	CheckOutDate       time.Time     `json:"check_out_date"`
	NumberOfNights     int           `json:"number_of_nights"`
	NumberOfGuests     int           `json:"number_of_guests"`
	TotalAmount        int64         `json:"total_amount"` // minor units (cents)
	PaidAmount         int64         `json:"paid_amount"`
	Status             BookingStatus `json:"status"`
	SpecialRequests    string        `json:"special_requests,omitempty"`
	CancellationReason string        `json:"cancellation_reason,omitempty"`
	CheckInTime        *time.Time    `json:"check_in_time,omitempty"`
	CheckOutTime       *time.Time    `json:"check_out_time,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
	Version            int64         `json:"version"`
}

// AccessibleBy reports whether the caller may see and act on b. Staff and
// admins reach every booking; guests only those linked to their account or
// email.
func (b *Booking) AccessibleBy(p Principal) bool {
	if p.IsStaff() {
		return true
	}
	email := strings.ToLower(strings.TrimSpace(p.Email))
	return (b.GuestID != 0 && b.GuestID == p.UserID) || (email != "" && b.GuestEmail == email)
}

// BookingStats aggregates bookings per status.
type BookingStats struct {
	Total    int64                   `json:"total"`
	ByStatus map[BookingStatus]int64 `json:"by_status"`
}

type Revenue struct {
	Bookings    int64 `json:"bookings"`
	TotalAmount int64 `json:"total_amount"`
	PaidAmount  int64 `json:"paid_amount"`
}
