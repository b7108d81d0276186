package booking

import (
	"context"
	"fmt"
	"time"

	"hotelbooking/internal/domain"
)

type ConflictFinder interface {
	FindConflicts(ctx context.Context, roomID int64, checkIn, checkOut time.Time, excludeID int64) ([]domain.Booking, error)
}

// AvailabilityChecker answers whether a room is free for [checkIn, checkOut).
// Only confirmed and checked-in bookings of that one room can block it;
// pending, cancelled, no-show and checked-out stays never do.
type AvailabilityChecker struct {
	bookings ConflictFinder
}

func NewAvailabilityChecker(bookings ConflictFinder) *AvailabilityChecker {
	return &AvailabilityChecker{bookings: bookings}
}

func (a *AvailabilityChecker) IsAvailable(ctx context.Context, roomID int64, checkIn, checkOut time.Time) (bool, error) {
	conflicts, err := a.FindConflicts(ctx, roomID, checkIn, checkOut)
	if err != nil {
		return false, err
	}
	return len(conflicts) == 0, nil
}

func (a *AvailabilityChecker) FindConflicts(ctx context.Context, roomID int64, checkIn, checkOut time.Time) ([]domain.Booking, error) {
	return a.findConflicts(ctx, roomID, checkIn, checkOut, 0)
}

func (a *AvailabilityChecker) findConflicts(ctx context.Context, roomID int64, checkIn, checkOut time.Time, excludeID int64) ([]domain.Booking, error) {
	in, out := domain.Date(checkIn), domain.Date(checkOut)
	if !out.After(in) {
		return nil, fmt.Errorf("%w: check-out date must be after check-in date", ErrValidation)
	}

	rows, err := a.bookings.FindConflicts(ctx, roomID, in, out, excludeID)
	if err != nil {
		return nil, err
	}

	// the store already filters; re-applying the predicate keeps any
	// ConflictFinder honest about status and half-open bounds
	conflicts := rows[:0]
	for _, b := range rows {
		if b.RoomID == roomID && b.ID != excludeID && domain.BlocksAvailability(b.Status) &&
			domain.Overlaps(b.CheckInDate, b.CheckOutDate, in, out) {
			conflicts = append(conflicts, b)
		}
	}
	return conflicts, nil
}
