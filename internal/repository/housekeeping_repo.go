package repository

import (
	"context"
	"time"

	"hotelbooking/internal/domain"

	"gorm.io/gorm"
)

type HousekeepingRepository struct {
	db *gorm.DB
}

func NewHousekeepingRepository(db *gorm.DB) *HousekeepingRepository {
	return &HousekeepingRepository{db: db}
}

type housekeepingModel struct {
	ID                  int64      `gorm:"column:id;primaryKey"`
	BookingID           int64      `gorm:"column:booking_id;index;not null"`
	RoomNumber          string     `gorm:"column:room_number;size:20;index;not null"`
	GuestName           string     `gorm:"column:guest_name;size:100;not null"`
	GuestPhone          *string    `gorm:"column:guest_phone;size:20"`
	RequestType         string     `gorm:"column:request_type;size:20;index;not null"`
	Priority            string     `gorm:"column:priority;size:10;not null"`
	Description         string     `gorm:"column:description;type:text;not null"`
	SpecialInstructions *string    `gorm:"column:special_instructions;type:text"`
	Status              string     `gorm:"column:status;size:20;index;not null"`
	PreferredTime       *time.Time `gorm:"column:preferred_time"`
	ScheduledTime       *time.Time `gorm:"column:scheduled_time"`
	StartedAt           *time.Time `gorm:"column:started_at"`
	CompletedAt         *time.Time `gorm:"column:completed_at"`
	AssignedStaff       *string    `gorm:"column:assigned_staff;size:100"`
	CompletionNotes     *string    `gorm:"column:completion_notes;type:text"`
	CreatedAt           time.Time  `gorm:"column:created_at;index"`
	UpdatedAt           time.Time  `gorm:"column:updated_at"`
	Version             int64      `gorm:"column:version;not null"`
}

func (housekeepingModel) TableName() string { return "housekeeping_requests" }

func toDomainHousekeeping(m housekeepingModel) *domain.HousekeepingRequest {
	return &domain.HousekeepingRequest{
		ID:                  m.ID,
		BookingID:           m.BookingID,
		RoomNumber:          m.RoomNumber,
		GuestName:           m.GuestName,
		GuestPhone:          deref(m.GuestPhone),
		RequestType:         domain.HousekeepingType(m.RequestType),
		Priority:            domain.Priority(m.Priority),
		Description:         m.Description,
		SpecialInstructions: deref(m.SpecialInstructions),
		Status:              domain.HousekeepingStatus(m.Status),
		PreferredTime:       m.PreferredTime,
		ScheduledTime:       m.ScheduledTime,
		StartedAt:           m.StartedAt,
		CompletedAt:         m.CompletedAt,
		AssignedStaff:       deref(m.AssignedStaff),
		CompletionNotes:     deref(m.CompletionNotes),
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
		Version:             m.Version,
	}
}

type HousekeepingFilter struct {
	BookingID   int64
	RoomNumber  string
	Status      domain.HousekeepingStatus
	RequestType domain.HousekeepingType
}

func (r *HousekeepingRepository) Create(ctx context.Context, h *domain.HousekeepingRequest) error {
	m := housekeepingModel{
		BookingID:           h.BookingID,
		RoomNumber:          h.RoomNumber,
		GuestName:           h.GuestName,
		GuestPhone:          optional(h.GuestPhone),
		RequestType:         string(h.RequestType),
		Priority:            string(h.Priority),
		Description:         h.Description,
		SpecialInstructions: optional(h.SpecialInstructions),
		Status:              string(h.Status),
		PreferredTime:       h.PreferredTime,
	}
	if err := conn(ctx, r.db).Create(&m).Error; err != nil {
		return translateError(err, "housekeeping request")
	}
	*h = *toDomainHousekeeping(m)
	return nil
}

func (r *HousekeepingRepository) GetByID(ctx context.Context, id int64) (*domain.HousekeepingRequest, error) {
	var m housekeepingModel
	if err := conn(ctx, r.db).First(&m, id).Error; err != nil {
		return nil, translateError(err, "housekeeping request")
	}
	return toDomainHousekeeping(m), nil
}

// Update writes the workflow fields under the version check.
func (r *HousekeepingRepository) Update(ctx context.Context, h *domain.HousekeepingRequest) error {
	now := time.Now().UTC()
	res := conn(ctx, r.db).Model(&housekeepingModel{}).
		Where("id = ? AND version = ?", h.ID, h.Version).
		Updates(map[string]interface{}{
			"status":           string(h.Status),
			"scheduled_time":   h.ScheduledTime,
			"started_at":       h.StartedAt,
			"completed_at":     h.CompletedAt,
			"assigned_staff":   optional(h.AssignedStaff),
			"completion_notes": optional(h.CompletionNotes),
			"updated_at":       now,
			"version":          gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return translateError(res.Error, "housekeeping request")
	}
	if res.RowsAffected == 0 {
		return missingOrStale(ctx, r.db, &housekeepingModel{}, "housekeeping request", h.ID)
	}
	h.Version++
	h.UpdatedAt = now
	return nil
}

func (r *HousekeepingRepository) List(ctx context.Context, f HousekeepingFilter) ([]domain.HousekeepingRequest, error) {
	q := conn(ctx, r.db).Model(&housekeepingModel{})
	if f.BookingID != 0 {
		q = q.Where("booking_id = ?", f.BookingID)
	}
	if f.RoomNumber != "" {
		q = q.Where("room_number = ?", f.RoomNumber)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.RequestType != "" {
		q = q.Where("request_type = ?", f.RequestType)
	}

	var rows []housekeepingModel
	if err := q.Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.HousekeepingRequest, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainHousekeeping(m))
	}
	return out, nil
}
