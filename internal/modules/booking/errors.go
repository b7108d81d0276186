package booking

import (
	"fmt"

	"hotelbooking/internal/domain"
)

var (
	ErrValidation        = fmt.Errorf("%w: booking validation failed", domain.ErrInvalidArgument)
	ErrNotAvailable      = fmt.Errorf("%w: room is not available for the selected dates", domain.ErrUnavailable)
	ErrInvalidTransition = fmt.Errorf("%w: booking status transition not allowed", domain.ErrInvalidState)
	ErrRoomBusy          = fmt.Errorf("%w: room is being booked by another request, retry", domain.ErrConflict)
)
