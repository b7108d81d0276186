package roomservice

import (
	"time"

	"hotelbooking/internal/domain"
)

// ---------- MENU ----------

type CreateMenuItemRequest struct {
	Name               string              `json:"name" validate:"required,max=100"`
	Description        string              `json:"description" validate:"max=500"`
	Category           domain.MenuCategory `json:"category" validate:"required"`
	Price              int64               `json:"price" validate:"required,gt=0"`
	ImageURL           string              `json:"image_url" validate:"omitempty,url,max=255"`
	Available          *bool               `json:"available,omitempty"`
	PreparationMinutes int                 `json:"preparation_minutes" validate:"gte=0,lte=240"`
	Ingredients        string              `json:"ingredients" validate:"max=1000"`
	Allergens          string              `json:"allergens" validate:"max=500"`
	Vegetarian         bool                `json:"vegetarian"`
	Vegan              bool                `json:"vegan"`
	GlutenFree         bool                `json:"gluten_free"`
}

// UpdateMenuItemRequest patches the fields that are set.
type UpdateMenuItemRequest struct {
	Name               *string              `json:"name,omitempty" validate:"omitempty,max=100"`
	Description        *string              `json:"description,omitempty" validate:"omitempty,max=500"`
	Category           *domain.MenuCategory `json:"category,omitempty"`
	Price              *int64               `json:"price,omitempty" validate:"omitempty,gt=0"`
	ImageURL           *string              `json:"image_url,omitempty" validate:"omitempty,url,max=255"`
	Available          *bool                `json:"available,omitempty"`
	PreparationMinutes *int                 `json:"preparation_minutes,omitempty" validate:"omitempty,gte=0,lte=240"`
	Ingredients        *string              `json:"ingredients,omitempty" validate:"omitempty,max=1000"`
	Allergens          *string              `json:"allergens,omitempty" validate:"omitempty,max=500"`
	Vegetarian         *bool                `json:"vegetarian,omitempty"`
	Vegan              *bool                `json:"vegan,omitempty"`
	GlutenFree         *bool                `json:"gluten_free,omitempty"`
}

// ---------- FOOD ORDERS ----------

type OrderLine struct {
	MenuItemID      int64  `json:"menu_item_id" validate:"required,gt=0"`
	Quantity        int    `json:"quantity" validate:"required,gt=0,lte=20"`
	SpecialRequests string `json:"special_requests" validate:"max=255"`
}

type PlaceOrderRequest struct {
	BookingID             int64       `json:"booking_id" validate:"required,gt=0"`
	Items                 []OrderLine `json:"items" validate:"required,min=1,max=30,dive"`
	GuestPhone            string      `json:"guest_phone" validate:"max=20"`
	SpecialInstructions   string      `json:"special_instructions" validate:"max=500"`
	RequestedDeliveryTime *time.Time  `json:"requested_delivery_time,omitempty"`
}

type UpdateOrderStatusRequest struct {
	Status        domain.FoodOrderStatus `json:"status" validate:"required"`
	DeliveryStaff string                 `json:"delivery_staff" validate:"max=100"`
	Reason        string                 `json:"reason" validate:"max=500"`
}

type CancelRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// ---------- HOUSEKEEPING ----------

type CreateHousekeepingRequest struct {
	BookingID           int64                   `json:"booking_id" validate:"required,gt=0"`
	RequestType         domain.HousekeepingType `json:"request_type" validate:"required"`
	Priority            domain.Priority         `json:"priority"`
	Description         string                  `json:"description" validate:"required,max=1000"`
	SpecialInstructions string                  `json:"special_instructions" validate:"max=500"`
	GuestPhone          string                  `json:"guest_phone" validate:"max=20"`
	PreferredTime       *time.Time              `json:"preferred_time,omitempty"`
}

type AssignHousekeepingRequest struct {
	Staff         string     `json:"staff" validate:"required,max=100"`
	ScheduledTime *time.Time `json:"scheduled_time,omitempty"`
}

type UpdateHousekeepingStatusRequest struct {
	Status          domain.HousekeepingStatus `json:"status" validate:"required"`
	CompletionNotes string                    `json:"completion_notes" validate:"max=1000"`
}
