package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/notification"
	"hotelbooking/internal/repository"

	"github.com/sirupsen/logrus"
)

type Service struct {
	bookings     BookingRepository
	rooms        RoomRepository
	tx           Transactor
	availability *AvailabilityChecker
	notifs       NotificationSender
	locker       RoomLocker
	log          logrus.FieldLogger
	now          func() time.Time
}

// NewService wires the lifecycle manager. notifs and locker may be nil.
func NewService(
	bookings BookingRepository,
	rooms RoomRepository,
	tx Transactor,
	notifs NotificationSender,
	locker RoomLocker,
	log logrus.FieldLogger,
) *Service {
	return &Service{
		bookings:     bookings,
		rooms:        rooms,
		tx:           tx,
		availability: NewAvailabilityChecker(bookings),
		notifs:       notifs,
		locker:       locker,
		log:          log,
		now:          time.Now,
	}
}

func (s *Service) today() time.Time { return domain.Date(s.now()) }

// CheckAvailability validates the range and asks the availability checker.
func (s *Service) CheckAvailability(ctx context.Context, roomID int64, checkIn, checkOut time.Time) (bool, error) {
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		return false, err
	}
	return s.availability.IsAvailable(ctx, roomID, checkIn, checkOut)
}

func (s *Service) FindConflicts(ctx context.Context, roomID int64, checkIn, checkOut time.Time) ([]domain.Booking, error) {
	return s.availability.FindConflicts(ctx, roomID, checkIn, checkOut)
}

// CreateBooking stores a PENDING booking priced at price_per_night * nights
// and reserves an AVAILABLE room. The availability check is repeated inside
// the transaction after the room version is bumped, so a writer that raced the
// first check fails with a conflict instead of double booking.
func (s *Service) CreateBooking(ctx context.Context, req NewBooking) (*domain.Booking, error) {
	checkIn, checkOut := domain.Date(req.CheckIn), domain.Date(req.CheckOut)
	if !checkOut.After(checkIn) {
		return nil, fmt.Errorf("%w: check-out date must be after check-in date", ErrValidation)
	}
	if checkIn.Before(s.today()) {
		return nil, fmt.Errorf("%w: check-in date cannot be in the past", ErrValidation)
	}
	if strings.TrimSpace(req.GuestName) == "" || strings.TrimSpace(req.GuestEmail) == "" {
		return nil, fmt.Errorf("%w: guest name and email are required", ErrValidation)
	}
	guests := req.NumberOfGuests
	if guests == 0 {
		guests = 1
	}
	if guests < 0 {
		return nil, fmt.Errorf("%w: number of guests must be positive", ErrValidation)
	}

	room, err := s.rooms.GetByID(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	if !domain.IsBookable(room.Status) {
		return nil, fmt.Errorf("%w: room %s is %s", ErrNotAvailable, room.RoomNumber, room.Status)
	}
	if guests > room.Capacity {
		return nil, fmt.Errorf("%w: room %s sleeps at most %d guests", ErrValidation, room.RoomNumber, room.Capacity)
	}

	release, err := s.lockRoom(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	ok, err := s.availability.IsAvailable(ctx, room.ID, checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: room %s, %s to %s", ErrNotAvailable, room.RoomNumber,
			checkIn.Format(domain.DateLayout), checkOut.Format(domain.DateLayout))
	}

	var b *domain.Booking
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		room, err := s.rooms.GetByID(ctx, req.RoomID)
		if err != nil {
			return err
		}
		next := room.Status
		if room.Status == domain.RoomAvailable {
			next = domain.RoomReserved
		}
		if err := s.rooms.UpdateStatus(ctx, room, next); err != nil {
			return err
		}

		conflicts, err := s.availability.findConflicts(ctx, room.ID, checkIn, checkOut, 0)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return fmt.Errorf("%w: room %s was taken by booking %d", ErrNotAvailable, room.RoomNumber, conflicts[0].ID)
		}

		nights := domain.Nights(checkIn, checkOut)
		b = &domain.Booking{
			RoomID:          room.ID,
			GuestID:         req.GuestID,
			GuestName:       strings.TrimSpace(req.GuestName),
			GuestEmail:      strings.ToLower(strings.TrimSpace(req.GuestEmail)),
			GuestPhone:      strings.TrimSpace(req.GuestPhone),
			CheckInDate:     checkIn,
			CheckOutDate:    checkOut,
			NumberOfNights:  nights,
			NumberOfGuests:  guests,
			TotalAmount:     room.PricePerNight * int64(nights),
			PaidAmount:      0,
			Status:          domain.BookingPending,
			SpecialRequests: req.SpecialRequests,
		}
		return s.bookings.Create(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"booking_id": b.ID,
		"room_id":    b.RoomID,
		"check_in":   b.CheckInDate.Format(domain.DateLayout),
		"nights":     b.NumberOfNights,
		"total":      b.TotalAmount,
	}).Info("booking created")
	s.notify(ctx, b, "")
	return b, nil
}

// TransitionBooking moves a booking along the lifecycle table and applies the
// matching room side effect in the same transaction.
func (s *Service) TransitionBooking(ctx context.Context, id int64, target domain.BookingStatus, reason string) (*domain.Booking, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("%w: unknown booking status %q", ErrValidation, target)
	}
	reason = strings.TrimSpace(reason)

	if target == domain.BookingConfirmed {
		current, err := s.bookings.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		release, err := s.lockRoom(ctx, current.RoomID)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	var out *domain.Booking
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		b, err := s.bookings.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !CanTransition(b.Status, target) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, target)
		}
		if target == domain.BookingCancelled && reason == "" {
			return fmt.Errorf("%w: cancellation reason is required", ErrValidation)
		}
		room, err := s.rooms.GetByID(ctx, b.RoomID)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		switch target {
		case domain.BookingConfirmed:
			if !domain.IsBookable(room.Status) {
				return fmt.Errorf("%w: room %s is %s", ErrNotAvailable, room.RoomNumber, room.Status)
			}
			if err := s.rooms.UpdateStatus(ctx, room, domain.RoomOccupied); err != nil {
				return err
			}
			conflicts, err := s.availability.findConflicts(ctx, b.RoomID, b.CheckInDate, b.CheckOutDate, b.ID)
			if err != nil {
				return err
			}
			if len(conflicts) > 0 {
				return fmt.Errorf("%w: booking %d already holds room %s", ErrNotAvailable, conflicts[0].ID, room.RoomNumber)
			}
			b.PaidAmount = b.TotalAmount

		case domain.BookingCheckedIn:
			b.CheckInTime = &now

		case domain.BookingCheckedOut:
			b.CheckOutTime = &now
			if err := s.rooms.UpdateStatus(ctx, room, domain.RoomAvailable); err != nil {
				return err
			}

		case domain.BookingNoShow:
			if s.today().Before(b.CheckInDate) {
				return fmt.Errorf("%w: booking %d is not due until %s", ErrInvalidTransition, b.ID, b.CheckInDate.Format(domain.DateLayout))
			}
			if err := s.releaseRoom(ctx, room, b.ID); err != nil {
				return err
			}

		case domain.BookingCancelled:
			b.CancellationReason = reason
			if err := s.releaseRoom(ctx, room, b.ID); err != nil {
				return err
			}
		}

		from := b.Status
		b.Status = target
		if err := s.bookings.Update(ctx, b); err != nil {
			return err
		}
		s.log.WithFields(logrus.Fields{
			"booking_id": b.ID,
			"room_id":    b.RoomID,
			"from":       from,
			"to":         target,
		}).Info("booking status changed")
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, out, reason)
	return out, nil
}

// releaseRoom hands a reserved or occupied room back once no other pending,
// confirmed or checked-in booking still claims it. Rooms parked in
// maintenance, cleaning or out of order keep their status.
func (s *Service) releaseRoom(ctx context.Context, room *domain.Room, bookingID int64) error {
	if room.Status != domain.RoomReserved && room.Status != domain.RoomOccupied {
		return nil
	}
	claims, err := s.bookings.CountClaims(ctx, room.ID, bookingID)
	if err != nil {
		return err
	}
	if claims > 0 {
		return nil
	}
	return s.rooms.UpdateStatus(ctx, room, domain.RoomAvailable)
}

func (s *Service) Confirm(ctx context.Context, id int64) (*domain.Booking, error) {
	return s.TransitionBooking(ctx, id, domain.BookingConfirmed, "")
}

func (s *Service) CheckIn(ctx context.Context, id int64) (*domain.Booking, error) {
	return s.TransitionBooking(ctx, id, domain.BookingCheckedIn, "")
}

func (s *Service) CheckOut(ctx context.Context, id int64) (*domain.Booking, error) {
	return s.TransitionBooking(ctx, id, domain.BookingCheckedOut, "")
}

func (s *Service) Cancel(ctx context.Context, id int64, reason string) (*domain.Booking, error) {
	return s.TransitionBooking(ctx, id, domain.BookingCancelled, reason)
}

func (s *Service) MarkNoShow(ctx context.Context, id int64) (*domain.Booking, error) {
	return s.TransitionBooking(ctx, id, domain.BookingNoShow, "")
}

// MarkOverdueNoShows moves every confirmed booking whose check-in day has
// passed to NO_SHOW. Bookings that changed underneath the sweep are skipped.
func (s *Service) MarkOverdueNoShows(ctx context.Context) (int, error) {
	overdue, err := s.Overdue(ctx)
	if err != nil {
		return 0, err
	}

	marked := 0
	for _, b := range overdue {
		if _, err := s.MarkNoShow(ctx, b.ID); err != nil {
			if errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrInvalidState) {
				s.log.WithError(err).WithField("booking_id", b.ID).Warn("skipping no-show")
				continue
			}
			return marked, err
		}
		marked++
	}
	return marked, nil
}

func (s *Service) GetBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

func (s *Service) ListGuestBookings(ctx context.Context, email string, limit, offset int) ([]domain.Booking, error) {
	return s.bookings.Search(ctx, repository.BookingFilter{
		GuestEmail: strings.ToLower(strings.TrimSpace(email)),
		Limit:      limit,
		Offset:     offset,
	})
}

func (s *Service) ListRoomBookings(ctx context.Context, roomID int64) ([]domain.Booking, error) {
	return s.bookings.Search(ctx, repository.BookingFilter{RoomID: roomID})
}

func (s *Service) Search(ctx context.Context, f repository.BookingFilter) ([]domain.Booking, error) {
	return s.bookings.Search(ctx, f)
}

// TodayCheckIns lists confirmed arrivals due today.
func (s *Service) TodayCheckIns(ctx context.Context) ([]domain.Booking, error) {
	today := s.today()
	tomorrow := today.AddDate(0, 0, 1)
	return s.bookings.Search(ctx, repository.BookingFilter{
		Statuses:    []domain.BookingStatus{domain.BookingConfirmed},
		CheckInFrom: &today,
		CheckInTo:   &tomorrow,
	})
}

// TodayCheckOuts lists in-house guests due to leave today.
func (s *Service) TodayCheckOuts(ctx context.Context) ([]domain.Booking, error) {
	today := s.today()
	return s.bookings.Search(ctx, repository.BookingFilter{
		Statuses:   []domain.BookingStatus{domain.BookingCheckedIn},
		CheckOutOn: &today,
	})
}

func (s *Service) ActiveBookings(ctx context.Context) ([]domain.Booking, error) {
	return s.bookings.Search(ctx, repository.BookingFilter{Statuses: domain.BlockingStatuses})
}

// Overdue lists confirmed bookings whose check-in day is already behind us.
func (s *Service) Overdue(ctx context.Context) ([]domain.Booking, error) {
	today := s.today()
	return s.bookings.Search(ctx, repository.BookingFilter{
		Statuses:  []domain.BookingStatus{domain.BookingConfirmed},
		CheckInTo: &today,
	})
}

func (s *Service) Stats(ctx context.Context, from, to time.Time) (*domain.BookingStats, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("%w: 'to' must be after 'from'", ErrValidation)
	}
	byStatus, err := s.bookings.CountByStatus(ctx, from, to)
	if err != nil {
		return nil, err
	}
	stats := &domain.BookingStats{ByStatus: byStatus}
	for _, n := range byStatus {
		stats.Total += n
	}
	return stats, nil
}

func (s *Service) Revenue(ctx context.Context, from, to time.Time) (*domain.Revenue, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("%w: 'to' must be after 'from'", ErrValidation)
	}
	return s.bookings.Revenue(ctx, from, to)
}

func (s *Service) lockRoom(ctx context.Context, roomID int64) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	release, err := s.locker.Acquire(ctx, roomID)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("%w: room %d", ErrRoomBusy, roomID)
		}
		return nil, err
	}
	return release, nil
}

// notify is fire-and-forget: delivery problems are logged, never returned.
func (s *Service) notify(ctx context.Context, b *domain.Booking, reason string) {
	if s.notifs == nil {
		return
	}
	e := notification.Event{
		Type:         eventType(b.Status),
		BookingID:    b.ID,
		RoomID:       b.RoomID,
		Status:       string(b.Status),
		GuestName:    b.GuestName,
		GuestEmail:   b.GuestEmail,
		CheckInDate:  b.CheckInDate.Format(domain.DateLayout),
		CheckOutDate: b.CheckOutDate.Format(domain.DateLayout),
		Amount:       b.TotalAmount,
		Reason:       reason,
		OccurredAt:   s.now().UTC(),
	}
	if err := s.notifs.Notify(ctx, e); err != nil {
		s.log.WithError(err).WithField("booking_id", b.ID).Warn("booking notification failed")
	}
}
