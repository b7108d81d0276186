package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/pkg/validator"
	"hotelbooking/internal/repository"

	"github.com/sirupsen/logrus"
)

var (
	ErrValidation = fmt.Errorf("%w: room validation failed", domain.ErrInvalidArgument)
)

type RoomRepository interface {
	Create(ctx context.Context, room *domain.Room) error
	GetByID(ctx context.Context, id int64) (*domain.Room, error)
	GetByNumber(ctx context.Context, number string) (*domain.Room, error)
	List(ctx context.Context, f repository.RoomFilter) ([]domain.Room, error)
	ListAvailable(ctx context.Context, checkIn, checkOut time.Time, minCapacity int) ([]domain.Room, error)
	Update(ctx context.Context, room *domain.Room) error
	UpdateStatus(ctx context.Context, room *domain.Room, status domain.RoomStatus) error
}

type Service struct {
	rooms RoomRepository
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewService(rooms RoomRepository, log logrus.FieldLogger) *Service {
	return &Service{rooms: rooms, log: log, now: time.Now}
}

/* ---------- ROOMS ---------- */

func (s *Service) CreateRoom(ctx context.Context, req CreateRoomRequest) (*domain.Room, error) {
	if errs := validator.Validate(req); errs != nil {
		return nil, fieldError(errs)
	}
	if !req.RoomType.Valid() {
		return nil, fmt.Errorf("%w: unknown room type %q", ErrValidation, req.RoomType)
	}

	room := &domain.Room{
		RoomNumber:     strings.TrimSpace(req.RoomNumber),
		RoomType:       req.RoomType,
		PricePerNight:  req.PricePerNight,
		Status:         domain.RoomAvailable,
		Description:    req.Description,
		Capacity:       req.Capacity,
		FloorNumber:    req.FloorNumber,
		Amenities:      req.Amenities,
		View:           req.View,
		SmokingAllowed: req.SmokingAllowed,
		PetFriendly:    req.PetFriendly,
	}
	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"room_id": room.ID, "room_number": room.RoomNumber}).Info("room created")
	return room, nil
}

func (s *Service) GetRoom(ctx context.Context, id int64) (*domain.Room, error) {
	return s.rooms.GetByID(ctx, id)
}

func (s *Service) GetRoomByNumber(ctx context.Context, number string) (*domain.Room, error) {
	return s.rooms.GetByNumber(ctx, strings.TrimSpace(number))
}

func (s *Service) ListRooms(ctx context.Context, f repository.RoomFilter) ([]domain.Room, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown room status %q", ErrValidation, f.Status)
	}
	if f.RoomType != "" && !f.RoomType.Valid() {
		return nil, fmt.Errorf("%w: unknown room type %q", ErrValidation, f.RoomType)
	}
	return s.rooms.List(ctx, f)
}

func (s *Service) UpdateRoom(ctx context.Context, id int64, req UpdateRoomRequest) (*domain.Room, error) {
	if errs := validator.Validate(req); errs != nil {
		return nil, fieldError(errs)
	}

	room, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Version != nil {
		room.Version = *req.Version
	}

	if req.RoomType != nil {
		if !req.RoomType.Valid() {
			return nil, fmt.Errorf("%w: unknown room type %q", ErrValidation, *req.RoomType)
		}
		room.RoomType = *req.RoomType
	}
	if req.PricePerNight != nil {
		room.PricePerNight = *req.PricePerNight
	}
	if req.Description != nil {
		room.Description = *req.Description
	}
	if req.Capacity != nil {
		room.Capacity = *req.Capacity
	}
	if req.FloorNumber != nil {
		room.FloorNumber = *req.FloorNumber
	}
	if req.Amenities != nil {
		room.Amenities = *req.Amenities
	}
	if req.View != nil {
		room.View = *req.View
	}
	if req.SmokingAllowed != nil {
		room.SmokingAllowed = *req.SmokingAllowed
	}
	if req.PetFriendly != nil {
		room.PetFriendly = *req.PetFriendly
	}

	if errs := validator.Validate(room); errs != nil {
		return nil, fieldError(errs)
	}
	if err := s.rooms.Update(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

// SetRoomStatus is the manual housekeeping override (MAINTENANCE, CLEANING,
// OUT_OF_ORDER and back). Booking flows change status through their own paths.
func (s *Service) SetRoomStatus(ctx context.Context, id int64, req UpdateRoomStatusRequest) (*domain.Room, error) {
	if !req.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown room status %q", ErrValidation, req.Status)
	}

	room, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Version != nil {
		room.Version = *req.Version
	}

	from := room.Status
	if err := s.rooms.UpdateStatus(ctx, room, req.Status); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"room_id": room.ID,
		"from":    from,
		"to":      req.Status,
	}).Info("room status changed")
	return room, nil
}

// AvailableRooms quotes every bookable room free for the whole stay, cheapest first.
func (s *Service) AvailableRooms(ctx context.Context, checkIn, checkOut time.Time, guests int) (*AvailableRoomsResponse, error) {
	in, out := domain.Date(checkIn), domain.Date(checkOut)
	if !out.After(in) {
		return nil, fmt.Errorf("%w: check-out date must be after check-in date", ErrValidation)
	}
	if in.Before(domain.Date(s.now())) {
		return nil, fmt.Errorf("%w: check-in date cannot be in the past", ErrValidation)
	}

	rooms, err := s.rooms.ListAvailable(ctx, in, out, guests)
	if err != nil {
		return nil, err
	}

	nights := domain.Nights(in, out)
	quotes := make([]RoomQuote, 0, len(rooms))
	for _, r := range rooms {
		quotes = append(quotes, RoomQuote{Room: r, StayTotal: r.PricePerNight * int64(nights)})
	}
	sort.SliceStable(quotes, func(i, j int) bool { return quotes[i].StayTotal < quotes[j].StayTotal })

	return &AvailableRoomsResponse{
		CheckInDate:  in.Format(domain.DateLayout),
		CheckOutDate: out.Format(domain.DateLayout),
		Nights:       nights,
		Rooms:        quotes,
	}, nil
}

func fieldError(errs map[string]string) error {
	fields := make([]string, 0, len(errs))
	for field, tag := range errs {
		fields = append(fields, field+" ("+tag+")")
	}
	sort.Strings(fields)
	return fmt.Errorf("%w: invalid %s", ErrValidation, strings.Join(fields, ", "))
}
