package catalog

import "hotelbooking/internal/domain"

// ---------- ROOMS ----------

type CreateRoomRequest struct {
	RoomNumber     string          `json:"room_number" validate:"required,max=10"`
	RoomType       domain.RoomType `json:"room_type" validate:"required"`
	PricePerNight  int64           `json:"price_per_night" validate:"required,gt=0"`
	Description    string          `json:"description" validate:"max=1000"`
	Capacity       int             `json:"capacity" validate:"required,gt=0,lte=20"`
	FloorNumber    int             `json:"floor_number" validate:"gte=0"`
	Amenities      string          `json:"amenities"`
	View           string          `json:"view" validate:"max=50"`
	SmokingAllowed bool            `json:"smoking_allowed"`
	PetFriendly    bool            `json:"pet_friendly"`
}

// UpdateRoomRequest patches the fields that are set. When Version is given the
// update fails with a conflict unless it matches the stored version.
type UpdateRoomRequest struct {
	RoomType       *domain.RoomType `json:"room_type,omitempty"`
	PricePerNight  *int64           `json:"price_per_night,omitempty" validate:"omitempty,gt=0"`
	Description    *string          `json:"description,omitempty" validate:"omitempty,max=1000"`
	Capacity       *int             `json:"capacity,omitempty" validate:"omitempty,gt=0,lte=20"`
	FloorNumber    *int             `json:"floor_number,omitempty" validate:"omitempty,gte=0"`
	Amenities      *string          `json:"amenities,omitempty"`
	View           *string          `json:"view,omitempty" validate:"omitempty,max=50"`
	SmokingAllowed *bool            `json:"smoking_allowed,omitempty"`
	PetFriendly    *bool            `json:"pet_friendly,omitempty"`
	Version        *int64           `json:"version,omitempty"`
}

type UpdateRoomStatusRequest struct {
	Status  domain.RoomStatus `json:"status" validate:"required"`
	Version *int64            `json:"version,omitempty"`
}

type AvailableRoomsResponse struct {
	CheckInDate  string      `json:"check_in_date"`
	CheckOutDate string      `json:"check_out_date"`
	Nights       int         `json:"nights"`
	Rooms        []RoomQuote `json:"rooms"`
}

// RoomQuote is a free room with the price of the requested stay.
type RoomQuote struct {
	domain.Room
	StayTotal int64 `json:"stay_total"`
}
