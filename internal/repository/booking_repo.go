package repository

import (
	"context"
	"time"

	"hotelbooking/internal/domain"

	"gorm.io/gorm"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type bookingModel struct {
	ID                 int64      `gorm:"column:id;primaryKey"`
	RoomID             int64      `gorm:"column:room_id;not null;index:idx_bookings_room_dates,priority:1"`
	GuestID            *int64     `gorm:"column:guest_id;index"`
	GuestName          string     `gorm:"column:guest_name;size:100;not null"`
	GuestEmail         string     `gorm:"column:guest_email;size:255;not null;index"`
	GuestPhone         *string    `gorm:"column:guest_phone;size:20"`
	CheckInDate        time.Time  `gorm:"column:check_in_date;type:date;not null;index:idx_bookings_room_dates,priority:2"`
	CheckOutDate       time.Time  `gorm:"column:check_out_date;type:date;not null;index:idx_bookings_room_dates,priority:3"`
	NumberOfNights     int        `gorm:"column:number_of_nights;not null"`
	NumberOfGuests     int        `gorm:"column:number_of_guests;not null"`
	TotalAmount        int64      `gorm:"column:total_amount;not null"`
	PaidAmount         int64      `gorm:"column:paid_amount;not null"`
	Status             string     `gorm:"column:status;size:20;not null;index"`
	SpecialRequests    *string    `gorm:"column:special_requests;type:text"`
	CancellationReason *string    `gorm:"column:cancellation_reason;type:text"`
	CheckInTime        *time.Time `gorm:"column:check_in_time"`
	CheckOutTime       *time.Time `gorm:"column:check_out_time"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
	Version            int64      `gorm:"column:version;not null"`
}

func (bookingModel) TableName() string { return "bookings" }

func toDomainBooking(m bookingModel) *domain.Booking {
	var guestID int64
	if m.GuestID != nil {
		guestID = *m.GuestID
	}

	return &domain.Booking{
		ID:                 m.ID,
		RoomID:             m.RoomID,
		GuestID:            guestID,
		GuestName:          m.GuestName,
		GuestEmail:         m.GuestEmail,
		GuestPhone:         deref(m.GuestPhone),
		CheckInDate:        domain.Date(m.CheckInDate),
		CheckOutDate:       domain.Date(m.CheckOutDate),
		NumberOfNights:     m.NumberOfNights,
		NumberOfGuests:     m.NumberOfGuests,
		TotalAmount:        m.TotalAmount,
		PaidAmount:         m.PaidAmount,
		Status:             domain.BookingStatus(m.Status),
		SpecialRequests:    deref(m.SpecialRequests),
		CancellationReason: deref(m.CancellationReason),
		CheckInTime:        m.CheckInTime,
		CheckOutTime:       m.CheckOutTime,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
		Version:            m.Version,
	}
}

func toBookingModel(b *domain.Booking) bookingModel {
	var guestID *int64
	if b.GuestID != 0 {
		v := b.GuestID
		guestID = &v
	}

	return bookingModel{
		ID:                 b.ID,
		RoomID:             b.RoomID,
		GuestID:            guestID,
		GuestName:          b.GuestName,
		GuestEmail:         b.GuestEmail,
		GuestPhone:         optional(b.GuestPhone),
		CheckInDate:        domain.Date(b.CheckInDate),
		CheckOutDate:       domain.Date(b.CheckOutDate),
		NumberOfNights:     b.NumberOfNights,
		NumberOfGuests:     b.NumberOfGuests,
		TotalAmount:        b.TotalAmount,
		PaidAmount:         b.PaidAmount,
		Status:             string(b.Status),
		SpecialRequests:    optional(b.SpecialRequests),
		CancellationReason: optional(b.CancellationReason),
		CheckInTime:        b.CheckInTime,
		CheckOutTime:       b.CheckOutTime,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
		Version:            b.Version,
	}
}

// BookingFilter narrows Search. Zero fields are ignored; check-in bounds are half-open.
type BookingFilter struct {
	GuestEmail  string
	GuestID     int64
	RoomID      int64
	Statuses    []domain.BookingStatus
	CheckInFrom *time.Time
	CheckInTo   *time.Time
	CheckOutOn  *time.Time
	Limit       int
	Offset      int
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	m := toBookingModel(b)
	if err := conn(ctx, r.db).Create(&m).Error; err != nil {
		return translateError(err, "booking")
	}
	*b = *toDomainBooking(m)
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var m bookingModel
	if err := conn(ctx, r.db).First(&m, id).Error; err != nil {
		return nil, translateError(err, "booking")
	}
	return toDomainBooking(m), nil
}

// Update persists lifecycle fields when the stored version still equals
// b.Version and advances b.Version on success.
func (r *BookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	now := time.Now().UTC()
	res := conn(ctx, r.db).Model(&bookingModel{}).
		Where("id = ? AND version = ?", b.ID, b.Version).
		Updates(map[string]interface{}{
			"status":              string(b.Status),
			"paid_amount":         b.PaidAmount,
			"special_requests":    optional(b.SpecialRequests),
			"cancellation_reason": optional(b.CancellationReason),
			"check_in_time":       b.CheckInTime,
			"check_out_time":      b.CheckOutTime,
			"updated_at":          now,
			"version":             gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return translateError(res.Error, "booking")
	}
	if res.RowsAffected == 0 {
		var cnt int64
		if err := conn(ctx, r.db).Model(&bookingModel{}).Where("id = ?", b.ID).Count(&cnt).Error; err != nil {
			return err
		}
		if cnt == 0 {
			return translateError(gorm.ErrRecordNotFound, "booking")
		}
		return staleVersion("booking", b.ID)
	}
	b.Version++
	b.UpdatedAt = now
	return nil
}

// FindConflicts lists confirmed or checked-in bookings of roomID whose stay
// shares a night with [checkIn, checkOut). excludeID skips one booking.
func (r *BookingRepository) FindConflicts(ctx context.Context, roomID int64, checkIn, checkOut time.Time, excludeID int64) ([]domain.Booking, error) {
	q := conn(ctx, r.db).
		Where("room_id = ?", roomID).
		Where("status IN ?", domain.BlockingStatuses).
		Where("check_in_date < ? AND check_out_date > ?", domain.Date(checkOut), domain.Date(checkIn))
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var rows []bookingModel
	if err := q.Order("check_in_date ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainBookings(rows), nil
}

// CountClaims counts bookings other than excludeID that still hold roomID.
func (r *BookingRepository) CountClaims(ctx context.Context, roomID, excludeID int64) (int64, error) {
	var cnt int64
	err := conn(ctx, r.db).Model(&bookingModel{}).
		Where("room_id = ? AND id <> ?", roomID, excludeID).
		Where("status IN ?", domain.ClaimingStatuses).
		Count(&cnt).Error
	return cnt, err
}

func (r *BookingRepository) Search(ctx context.Context, f BookingFilter) ([]domain.Booking, error) {
	q := conn(ctx, r.db).Model(&bookingModel{})
	if f.GuestEmail != "" {
		q = q.Where("guest_email = ?", f.GuestEmail)
	}
	if f.GuestID > 0 {
		q = q.Where("guest_id = ?", f.GuestID)
	}
	if f.RoomID > 0 {
		q = q.Where("room_id = ?", f.RoomID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.CheckInFrom != nil {
		q = q.Where("check_in_date >= ?", domain.Date(*f.CheckInFrom))
	}
	if f.CheckInTo != nil {
		q = q.Where("check_in_date < ?", domain.Date(*f.CheckInTo))
	}
	if f.CheckOutOn != nil {
		q = q.Where("check_out_date = ?", domain.Date(*f.CheckOutOn))
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}

	var rows []bookingModel
	if err := q.Order("check_in_date ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainBookings(rows), nil
}

// CountByStatus groups bookings checking in within [from, to).
func (r *BookingRepository) CountByStatus(ctx context.Context, from, to time.Time) (map[domain.BookingStatus]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := conn(ctx, r.db).Model(&bookingModel{}).
		Select("status, COUNT(*) AS count").
		Where("check_in_date >= ? AND check_in_date < ?", domain.Date(from), domain.Date(to)).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[domain.BookingStatus]int64, len(rows))
	for _, row := range rows {
		out[domain.BookingStatus(row.Status)] = row.Count
	}
	return out, nil
}

// Revenue sums confirmed, in-house and completed stays checking in within [from, to).
func (r *BookingRepository) Revenue(ctx context.Context, from, to time.Time) (*domain.Revenue, error) {
	var out domain.Revenue
	err := conn(ctx, r.db).Model(&bookingModel{}).
		Select("COUNT(*) AS bookings, COALESCE(SUM(total_amount), 0) AS total_amount, COALESCE(SUM(paid_amount), 0) AS paid_amount").
		Where("status IN ?", []domain.BookingStatus{domain.BookingConfirmed, domain.BookingCheckedIn, domain.BookingCheckedOut}).
		Where("check_in_date >= ? AND check_in_date < ?", domain.Date(from), domain.Date(to)).
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func toDomainBookings(rows []bookingModel) []domain.Booking {
	out := make([]domain.Booking, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainBooking(m))
	}
	return out
}
