package domain

import "time"

type MenuCategory string

const (
	MenuAppetizers         MenuCategory = "APPETIZERS"
	MenuMainCourse         MenuCategory = "MAIN_COURSE"
	MenuDesserts           MenuCategory = "DESSERTS"
	MenuBeverages          MenuCategory = "BEVERAGES"
	MenuAlcoholicBeverages MenuCategory = "ALCOHOLIC_BEVERAGES"
	MenuBreakfast          MenuCategory = "BREAKFAST"
	MenuLunch              MenuCategory = "LUNCH"
	MenuDinner             MenuCategory = "DINNER"
	MenuSnacks             MenuCategory = "SNACKS"
	MenuCoffeeTea          MenuCategory = "COFFEE_TEA"
)

var MenuCategories = []MenuCategory{
	MenuAppetizers, MenuMainCourse, MenuDesserts, MenuBeverages, MenuAlcoholicBeverages,
	MenuBreakfast, MenuLunch, MenuDinner, MenuSnacks, MenuCoffeeTea,
}

func (c MenuCategory) Valid() bool {
	for _, v := range MenuCategories {
		if c == v {
			return true
		}
	}
	return false
}

type MenuItem struct {
	ID                 int64        `json:"id"`
	Name               string       `json:"name" validate:"required,max=100"`
	Description        string       `json:"description,omitempty" validate:"max=500"`
	Category           MenuCategory `json:"category" validate:"required"`
	Price              int64        `json:"price" validate:"required,gt=0"` // minor units (cents)
	ImageURL           string       `json:"image_url,omitempty" validate:"omitempty,url,max=255"`
	Available          bool         `json:"available"`
	PreparationMinutes int          `json:"preparation_minutes,omitempty" validate:"gte=0,lte=240"`
	Ingredients        string       `json:"ingredients,omitempty"`
	Allergens          string       `json:"allergens,omitempty"`
	Vegetarian         bool         `json:"vegetarian"`
	Vegan              bool         `json:"vegan"`
	GlutenFree         bool         `json:"gluten_free"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

type FoodOrderStatus string

const (
	FoodOrderPending          FoodOrderStatus = "PENDING"
	FoodOrderConfirmed        FoodOrderStatus = "CONFIRMED"
	FoodOrderPreparing        FoodOrderStatus = "PREPARING"
	FoodOrderReadyForDelivery FoodOrderStatus = "READY_FOR_DELIVERY"
	FoodOrderOutForDelivery   FoodOrderStatus = "OUT_FOR_DELIVERY"
	FoodOrderDelivered        FoodOrderStatus = "DELIVERED"
	FoodOrderCancelled        FoodOrderStatus = "CANCELLED"
)

func (s FoodOrderStatus) Valid() bool {
	switch s {
	case FoodOrderPending, FoodOrderConfirmed, FoodOrderPreparing, FoodOrderReadyForDelivery,
		FoodOrderOutForDelivery, FoodOrderDelivered, FoodOrderCancelled:
		return true
	}
	return false
}

// Room service charges on top of the item subtotal.
const (
	RoomServiceTaxPercent  = 10
	RoomServiceDeliveryFee = 5000
	RoomServiceLeadTime    = 45 * time.Minute
)

type FoodOrderItem struct {
	ID              int64  `json:"id"`
	MenuItemID      int64  `json:"menu_item_id"`
	Name            string `json:"name"`
	Quantity        int    `json:"quantity"`
	UnitPrice       int64  `json:"unit_price"`
	TotalPrice      int64  `json:"total_price"`
	SpecialRequests string `json:"special_requests,omitempty"`
}

type FoodOrder struct {
	ID                    int64           `json:"id"`
	BookingID             int64           `json:"booking_id"`
	RoomNumber            string          `json:"room_number"`
	GuestName             string          `json:"guest_name"`
	GuestPhone            string          `json:"guest_phone,omitempty"`
	Items                 []FoodOrderItem `json:"items"`
	Subtotal              int64           `json:"subtotal"`
	Tax                   int64           `json:"tax"`
	DeliveryFee           int64           `json:"delivery_fee"`
	Total                 int64           `json:"total"`
	Status                FoodOrderStatus `json:"status"`
	SpecialInstructions   string          `json:"special_instructions,omitempty"`
	RequestedDeliveryTime *time.Time      `json:"requested_delivery_time,omitempty"`
	EstimatedDeliveryTime *time.Time      `json:"estimated_delivery_time,omitempty"`
	ActualDeliveryTime    *time.Time      `json:"actual_delivery_time,omitempty"`
	DeliveryStaff         string          `json:"delivery_staff,omitempty"`
	CancellationReason    string          `json:"cancellation_reason,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
	Version               int64           `json:"version"`
}

// Price fills line totals, tax and the order total from the item unit prices.
// Tax is rounded half up to the cent.
func (o *FoodOrder) Price() {
	var subtotal int64
	for i := range o.Items {
		o.Items[i].TotalPrice = o.Items[i].UnitPrice * int64(o.Items[i].Quantity)
		subtotal += o.Items[i].TotalPrice
	}
	o.Subtotal = subtotal
	o.Tax = (subtotal*RoomServiceTaxPercent + 50) / 100
	o.DeliveryFee = RoomServiceDeliveryFee
	o.Total = o.Subtotal + o.Tax + o.DeliveryFee
}

type HousekeepingType string

const (
	HousekeepingCleaning       HousekeepingType = "CLEANING"
	HousekeepingMaintenance    HousekeepingType = "MAINTENANCE"
	HousekeepingAmenities      HousekeepingType = "AMENITIES"
	HousekeepingLaundry        HousekeepingType = "LAUNDRY"
	HousekeepingSpecialRequest HousekeepingType = "SPECIAL_REQUEST"
)

func (t HousekeepingType) Valid() bool {
	switch t {
	case HousekeepingCleaning, HousekeepingMaintenance, HousekeepingAmenities, HousekeepingLaundry, HousekeepingSpecialRequest:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Rank orders priorities, URGENT highest. Unknown values rank zero.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityUrgent:
		return 4
	}
	return 0
}

func (p Priority) Valid() bool { return p.Rank() > 0 }

type HousekeepingStatus string

const (
	HousekeepingPending    HousekeepingStatus = "PENDING"
	HousekeepingInProgress HousekeepingStatus = "IN_PROGRESS"
	HousekeepingCompleted  HousekeepingStatus = "COMPLETED"
	HousekeepingCancelled  HousekeepingStatus = "CANCELLED"
)

func (s HousekeepingStatus) Valid() bool {
	switch s {
	case HousekeepingPending, HousekeepingInProgress, HousekeepingCompleted, HousekeepingCancelled:
		return true
	}
	return false
}

type HousekeepingRequest struct {
	ID                  int64              `json:"id"`
	BookingID           int64              `json:"booking_id"`
	RoomNumber          string             `json:"room_number"`
	GuestName           string             `json:"guest_name"`
	GuestPhone          string             `json:"guest_phone,omitempty"`
	RequestType         HousekeepingType   `json:"request_type"`
	Priority            Priority           `json:"priority"`
	Description         string             `json:"description"`
	SpecialInstructions string             `json:"special_instructions,omitempty"`
	Status              HousekeepingStatus `json:"status"`
	PreferredTime       *time.Time         `json:"preferred_time,omitempty"`
	ScheduledTime       *time.Time         `json:"scheduled_time,omitempty"`
	StartedAt           *time.Time         `json:"started_at,omitempty"`
	CompletedAt         *time.Time         `json:"completed_at,omitempty"`
	AssignedStaff       string             `json:"assigned_staff,omitempty"`
	CompletionNotes     string             `json:"completion_notes,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
	Version             int64              `json:"version"`
}
