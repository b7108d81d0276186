package booking

import (
	"fmt"
	"time"

	"hotelbooking/internal/domain"
)

// NewBooking is the input of CreateBooking.
type NewBooking struct {
	RoomID          int64
	GuestID         int64
	GuestName       string
	GuestEmail      string
	GuestPhone      string
	CheckIn         time.Time
	CheckOut        time.Time
	NumberOfGuests  int
	SpecialRequests string
}

type CreateBookingRequest struct {
	RoomID          int64  `json:"room_id" binding:"required,gt=0"`
	GuestName       string `json:"guest_name" binding:"required,max=100"`
	GuestEmail      string `json:"guest_email" binding:"required,email"`
	GuestPhone      string `json:"guest_phone" binding:"omitempty,max=20"`
	CheckInDate     string `json:"check_in_date" binding:"required"`
	CheckOutDate    string `json:"check_out_date" binding:"required"`
	NumberOfGuests  int    `json:"number_of_guests" binding:"omitempty,gte=1"`
	SpecialRequests string `json:"special_requests" binding:"omitempty,max=1000"`
}

func (r CreateBookingRequest) toNewBooking(guestID int64) (NewBooking, error) {
	in, err := domain.ParseDate(r.CheckInDate)
	if err != nil {
		return NewBooking{}, fmt.Errorf("%w: check_in_date must be YYYY-MM-DD", ErrValidation)
	}
	out, err := domain.ParseDate(r.CheckOutDate)
	if err != nil {
		return NewBooking{}, fmt.Errorf("%w: check_out_date must be YYYY-MM-DD", ErrValidation)
	}
	return NewBooking{
		RoomID:          r.RoomID,
		GuestID:         guestID,
		GuestName:       r.GuestName,
		GuestEmail:      r.GuestEmail,
		GuestPhone:      r.GuestPhone,
		CheckIn:         in,
		CheckOut:        out,
		NumberOfGuests:  r.NumberOfGuests,
		SpecialRequests: r.SpecialRequests,
	}, nil
}

type TransitionRequest struct {
	Status domain.BookingStatus `json:"status" binding:"required"`
	Reason string               `json:"reason" binding:"omitempty,max=500"`
}

type CancelRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

type AvailabilityResponse struct {
	RoomID       int64  `json:"room_id"`
	CheckInDate  string `json:"check_in_date"`
	CheckOutDate string `json:"check_out_date"`
	Available    bool   `json:"available"`
}

type StatsResponse struct {
	From    string               `json:"from"`
	To      string               `json:"to"`
	Stats   *domain.BookingStats `json:"stats"`
	Revenue *domain.Revenue      `json:"revenue"`
}
