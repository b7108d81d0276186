package repository

import (
	"context"
	"time"

	"hotelbooking/internal/domain"

	"gorm.io/gorm"
)

type FoodOrderRepository struct {
	db *gorm.DB
}

func NewFoodOrderRepository(db *gorm.DB) *FoodOrderRepository {
	return &FoodOrderRepository{db: db}
}

type foodOrderModel struct {
	ID                    int64                `gorm:"column:id;primaryKey"`
	BookingID             int64                `gorm:"column:booking_id;index;not null"`
	RoomNumber            string               `gorm:"column:room_number;size:20;index;not null"`
	GuestName             string               `gorm:"column:guest_name;size:100;not null"`
	GuestPhone            *string              `gorm:"column:guest_phone;size:20"`
	Items                 []foodOrderItemModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Subtotal              int64                `gorm:"column:subtotal;not null"`
	Tax                   int64                `gorm:"column:tax;not null"`
	DeliveryFee           int64                `gorm:"column:delivery_fee;not null"`
	Total                 int64                `gorm:"column:total;not null"`
	Status                string               `gorm:"column:status;size:20;index;not null"`
	SpecialInstructions   *string              `gorm:"column:special_instructions;type:text"`
	RequestedDeliveryTime *time.Time           `gorm:"column:requested_delivery_time"`
	EstimatedDeliveryTime *time.Time           `gorm:"column:estimated_delivery_time"`
	ActualDeliveryTime    *time.Time           `gorm:"column:actual_delivery_time"`
	DeliveryStaff         *string              `gorm:"column:delivery_staff;size:100"`
	CancellationReason    *string              `gorm:"column:cancellation_reason;type:text"`
	CreatedAt             time.Time            `gorm:"column:created_at;index"`
	UpdatedAt             time.Time            `gorm:"column:updated_at"`
	Version               int64                `gorm:"column:version;not null"`
}

func (foodOrderModel) TableName() string { return "food_orders" }

type foodOrderItemModel struct {
	ID              int64   `gorm:"column:id;primaryKey"`
	OrderID         int64   `gorm:"column:order_id;index;not null"`
	MenuItemID      int64   `gorm:"column:menu_item_id;not null"`
	Name            string  `gorm:"column:name;size:100;not null"`
	Quantity        int     `gorm:"column:quantity;not null"`
	UnitPrice       int64   `gorm:"column:unit_price;not null"`
	TotalPrice      int64   `gorm:"column:total_price;not null"`
	SpecialRequests *string `gorm:"column:special_requests;type:text"`
}

func (foodOrderItemModel) TableName() string { return "food_order_items" }

func toDomainFoodOrder(m foodOrderModel) *domain.FoodOrder {
	o := &domain.FoodOrder{
		ID:                    m.ID,
		BookingID:             m.BookingID,
		RoomNumber:            m.RoomNumber,
		GuestName:             m.GuestName,
		GuestPhone:            deref(m.GuestPhone),
		Subtotal:              m.Subtotal,
		Tax:                   m.Tax,
		DeliveryFee:           m.DeliveryFee,
		Total:                 m.Total,
		Status:                domain.FoodOrderStatus(m.Status),
		SpecialInstructions:   deref(m.SpecialInstructions),
		RequestedDeliveryTime: m.RequestedDeliveryTime,
		EstimatedDeliveryTime: m.EstimatedDeliveryTime,
		ActualDeliveryTime:    m.ActualDeliveryTime,
		DeliveryStaff:         deref(m.DeliveryStaff),
		CancellationReason:    deref(m.CancellationReason),
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
		Version:               m.Version,
		Items:                 make([]domain.FoodOrderItem, 0, len(m.Items)),
	}
	for _, it := range m.Items {
		o.Items = append(o.Items, domain.FoodOrderItem{
			ID:              it.ID,
			MenuItemID:      it.MenuItemID,
			Name:            it.Name,
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice,
			TotalPrice:      it.TotalPrice,
			SpecialRequests: deref(it.SpecialRequests),
		})
	}
	return o
}

type FoodOrderFilter struct {
	BookingID  int64
	RoomNumber string
	Status     domain.FoodOrderStatus
}

// Create stores the order and its lines together.
func (r *FoodOrderRepository) Create(ctx context.Context, o *domain.FoodOrder) error {
	m := foodOrderModel{
		BookingID:             o.BookingID,
		RoomNumber:            o.RoomNumber,
		GuestName:             o.GuestName,
		GuestPhone:            optional(o.GuestPhone),
		Subtotal:              o.Subtotal,
		Tax:                   o.Tax,
		DeliveryFee:           o.DeliveryFee,
		Total:                 o.Total,
		Status:                string(o.Status),
		SpecialInstructions:   optional(o.SpecialInstructions),
		RequestedDeliveryTime: o.RequestedDeliveryTime,
		EstimatedDeliveryTime: o.EstimatedDeliveryTime,
	}
	for _, it := range o.Items {
		m.Items = append(m.Items, foodOrderItemModel{
			MenuItemID:      it.MenuItemID,
			Name:            it.Name,
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice,
			TotalPrice:      it.TotalPrice,
			SpecialRequests: optional(it.SpecialRequests),
		})
	}
	if err := conn(ctx, r.db).Create(&m).Error; err != nil {
		return translateError(err, "food order")
	}
	*o = *toDomainFoodOrder(m)
	return nil
}

func (r *FoodOrderRepository) GetByID(ctx context.Context, id int64) (*domain.FoodOrder, error) {
	var m foodOrderModel
	if err := conn(ctx, r.db).Preload("Items").First(&m, id).Error; err != nil {
		return nil, translateError(err, "food order")
	}
	return toDomainFoodOrder(m), nil
}

// UpdateStatus persists the status and delivery fields when the stored version
// still equals o.Version. Lines and prices never change after placement.
func (r *FoodOrderRepository) UpdateStatus(ctx context.Context, o *domain.FoodOrder) error {
	now := time.Now().UTC()
	res := conn(ctx, r.db).Model(&foodOrderModel{}).
		Where("id = ? AND version = ?", o.ID, o.Version).
		Updates(map[string]interface{}{
			"status":               string(o.Status),
			"actual_delivery_time": o.ActualDeliveryTime,
			"delivery_staff":       optional(o.DeliveryStaff),
			"cancellation_reason":  optional(o.CancellationReason),
			"updated_at":           now,
			"version":              gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return translateError(res.Error, "food order")
	}
	if res.RowsAffected == 0 {
		return missingOrStale(ctx, r.db, &foodOrderModel{}, "food order", o.ID)
	}
	o.Version++
	o.UpdatedAt = now
	return nil
}

func (r *FoodOrderRepository) List(ctx context.Context, f FoodOrderFilter) ([]domain.FoodOrder, error) {
	q := conn(ctx, r.db).Model(&foodOrderModel{}).Preload("Items")
	if f.BookingID != 0 {
		q = q.Where("booking_id = ?", f.BookingID)
	}
	if f.RoomNumber != "" {
		q = q.Where("room_number = ?", f.RoomNumber)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var rows []foodOrderModel
	if err := q.Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.FoodOrder, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainFoodOrder(m))
	}
	return out, nil
}
