package repository

import (
	"context"
	"time"

	"hotelbooking/internal/domain"

	"gorm.io/gorm"
)

type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

type roomModel struct {
	ID             int64     `gorm:"column:id;primaryKey"`
	RoomNumber     string    `gorm:"column:room_number;size:20;uniqueIndex;not null"`
	RoomType       string    `gorm:"column:room_type;size:20;not null"`
	PricePerNight  int64     `gorm:"column:price_per_night;not null"`
	Status         string    `gorm:"column:status;size:20;index;not null"`
	Description    *string   `gorm:"column:description;type:text"`
	Capacity       int       `gorm:"column:capacity;not null"`
	FloorNumber    int       `gorm:"column:floor_number"`
	Amenities      *string   `gorm:"column:amenities;type:text"`
	View           *string   `gorm:"column:view;size:50"`
	SmokingAllowed bool      `gorm:"column:smoking_allowed"`
	PetFriendly    bool      `gorm:"column:pet_friendly"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
	Version        int64     `gorm:"column:version;not null"`
}

func (roomModel) TableName() string { return "rooms" }

func toDomainRoom(m roomModel) *domain.Room {
	return &domain.Room{
		ID:             m.ID,
		RoomNumber:     m.RoomNumber,
		RoomType:       domain.RoomType(m.RoomType),
		PricePerNight:  m.PricePerNight,
		Status:         domain.RoomStatus(m.Status),
		Description:    deref(m.Description),
		Capacity:       m.Capacity,
		FloorNumber:    m.FloorNumber,
		Amenities:      deref(m.Amenities),
		View:           deref(m.View),
		SmokingAllowed: m.SmokingAllowed,
		PetFriendly:    m.PetFriendly,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
		Version:        m.Version,
	}
}

func toRoomModel(r *domain.Room) roomModel {
	return roomModel{
		ID:             r.ID,
		RoomNumber:     r.RoomNumber,
		RoomType:       string(r.RoomType),
		PricePerNight:  r.PricePerNight,
		Status:         string(r.Status),
		Description:    optional(r.Description),
		Capacity:       r.Capacity,
		FloorNumber:    r.FloorNumber,
		Amenities:      optional(r.Amenities),
		View:           optional(r.View),
		SmokingAllowed: r.SmokingAllowed,
		PetFriendly:    r.PetFriendly,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		Version:        r.Version,
	}
}

type RoomFilter struct {
	Status      domain.RoomStatus
	RoomType    domain.RoomType
	MinCapacity int
	FloorNumber *int
}

func (r *RoomRepository) Create(ctx context.Context, room *domain.Room) error {
	m := toRoomModel(room)
	if err := conn(ctx, r.db).Create(&m).Error; err != nil {
		return translateError(err, "room "+room.RoomNumber)
	}
	*room = *toDomainRoom(m)
	return nil
}

func (r *RoomRepository) GetByID(ctx context.Context, id int64) (*domain.Room, error) {
	var m roomModel
	if err := conn(ctx, r.db).First(&m, id).Error; err != nil {
		return nil, translateError(err, "room")
	}
	return toDomainRoom(m), nil
}

func (r *RoomRepository) GetByNumber(ctx context.Context, number string) (*domain.Room, error) {
	var m roomModel
	if err := conn(ctx, r.db).Where("room_number = ?", number).First(&m).Error; err != nil {
		return nil, translateError(err, "room")
	}
	return toDomainRoom(m), nil
}

func (r *RoomRepository) List(ctx context.Context, f RoomFilter) ([]domain.Room, error) {
	q := conn(ctx, r.db).Model(&roomModel{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.RoomType != "" {
		q = q.Where("room_type = ?", f.RoomType)
	}
	if f.MinCapacity > 0 {
		q = q.Where("capacity >= ?", f.MinCapacity)
	}
	if f.FloorNumber != nil {
		q = q.Where("floor_number = ?", *f.FloorNumber)
	}

	var rows []roomModel
	if err := q.Order("room_number ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainRooms(rows), nil
}

// ListAvailable returns bookable rooms with no confirmed or checked-in stay
// overlapping [checkIn, checkOut).
func (r *RoomRepository) ListAvailable(ctx context.Context, checkIn, checkOut time.Time, minCapacity int) ([]domain.Room, error) {
	blocking := conn(ctx, r.db).Model(&bookingModel{}).
		Select("1").
		Where("bookings.room_id = rooms.id").
		Where("bookings.status IN ?", domain.BlockingStatuses).
		Where("bookings.check_in_date < ? AND bookings.check_out_date > ?", checkOut, checkIn)

	q := conn(ctx, r.db).Model(&roomModel{}).
		Where("status NOT IN ?", []domain.RoomStatus{domain.RoomOutOfOrder, domain.RoomMaintenance}).
		Where("NOT EXISTS (?)", blocking)
	if minCapacity > 0 {
		q = q.Where("capacity >= ?", minCapacity)
	}

	var rows []roomModel
	if err := q.Order("price_per_night ASC, room_number ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainRooms(rows), nil
}

// Update writes every mutable attribute if the stored version still matches
// room.Version, then advances room.Version.
func (r *RoomRepository) Update(ctx context.Context, room *domain.Room) error {
	return r.compareAndSwap(ctx, room, map[string]interface{}{
		"room_type":       string(room.RoomType),
		"price_per_night": room.PricePerNight,
		"status":          string(room.Status),
		"description":     optional(room.Description),
		"capacity":        room.Capacity,
		"floor_number":    room.FloorNumber,
		"amenities":       optional(room.Amenities),
		"view":            optional(room.View),
		"smoking_allowed": room.SmokingAllowed,
		"pet_friendly":    room.PetFriendly,
	})
}

// UpdateStatus sets the status under the same version check as Update. Writing
// the current status again still bumps the version, which serialises writers
// that touch the room.
func (r *RoomRepository) UpdateStatus(ctx context.Context, room *domain.Room, status domain.RoomStatus) error {
	if err := r.compareAndSwap(ctx, room, map[string]interface{}{"status": string(status)}); err != nil {
		return err
	}
	room.Status = status
	return nil
}

func (r *RoomRepository) compareAndSwap(ctx context.Context, room *domain.Room, updates map[string]interface{}) error {
	now := time.Now().UTC()
	updates["version"] = gorm.Expr("version + 1")
	updates["updated_at"] = now

	res := conn(ctx, r.db).Model(&roomModel{}).
		Where("id = ? AND version = ?", room.ID, room.Version).
		Updates(updates)
	if res.Error != nil {
		return translateError(res.Error, "room")
	}
	if res.RowsAffected == 0 {
		return r.missingOrStale(ctx, room.ID)
	}
	room.Version++
	room.UpdatedAt = now
	return nil
}

func (r *RoomRepository) missingOrStale(ctx context.Context, id int64) error {
	var cnt int64
	if err := conn(ctx, r.db).Model(&roomModel{}).Where("id = ?", id).Count(&cnt).Error; err != nil {
		return err
	}
	if cnt == 0 {
		return translateError(gorm.ErrRecordNotFound, "room")
	}
	return staleVersion("room", id)
}

func toDomainRooms(rows []roomModel) []domain.Room {
	out := make([]domain.Room, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainRoom(m))
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	v := s
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
