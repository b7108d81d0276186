package domain

import "time"

type RoomType string

const (
	RoomStandard     RoomType = "STANDARD"
	RoomDeluxe       RoomType = "DELUXE"
	RoomSuite        RoomType = "SUITE"
	RoomPresidential RoomType = "PRESIDENTIAL"
	RoomFamily       RoomType = "FAMILY"
	RoomTwin         RoomType = "TWIN"
	RoomDouble       RoomType = "DOUBLE"
	RoomSingle       RoomType = "SINGLE"
)

var roomTypes = map[RoomType]bool{
	RoomStandard: true, RoomDeluxe: true, RoomSuite: true, RoomPresidential: true,
	RoomFamily: true, RoomTwin: true, RoomDouble: true, RoomSingle: true,
}

func (t RoomType) Valid() bool { return roomTypes[t] }

type RoomStatus string

const (
	RoomAvailable   RoomStatus = "AVAILABLE"
	RoomOccupied    RoomStatus = "OCCUPIED"
	RoomReserved    RoomStatus = "RESERVED"
	RoomOutOfOrder  RoomStatus = "OUT_OF_ORDER"
	RoomMaintenance RoomStatus = "MAINTENANCE"
	RoomCleaning    RoomStatus = "CLEANING"
)

var roomStatuses = map[RoomStatus]bool{
	RoomAvailable: true, RoomOccupied: true, RoomReserved: true,
	RoomOutOfOrder: true, RoomMaintenance: true, RoomCleaning: true,
}

func (s RoomStatus) Valid() bool { return roomStatuses[s] }

// IsBookable reports whether new stays may be taken for a room in this status.
// Occupied, reserved and cleaning rooms still accept future dates.
func IsBookable(s RoomStatus) bool {
	return s != RoomOutOfOrder && s != RoomMaintenance
}

type Room struct {
	ID             int64      `json:"id"`
	RoomNumber     string     `json:"room_number" validate:"required"`
	RoomType       RoomType   `json:"room_type" validate:"required"`
	PricePerNight  int64      `json:"price_per_night" validate:"required,gt=0"` // minor units (cents)
	Status         RoomStatus `json:"status"`
	Description    string     `json:"description,omitempty"`
	Capacity       int        `json:"capacity" validate:"required,gt=0"`
	FloorNumber    int        `json:"floor_number"`
	Amenities      string     `json:"amenities,omitempty"`
	View           string     `json:"view,omitempty"`
	SmokingAllowed bool       `json:"smoking_allowed"`
	PetFriendly    bool       `json:"pet_friendly"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Version        int64      `json:"version"`
}
