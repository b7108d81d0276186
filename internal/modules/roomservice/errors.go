package roomservice

import (
	"fmt"

	"hotelbooking/internal/domain"
)

var (
	ErrValidation        = fmt.Errorf("%w: room service validation failed", domain.ErrInvalidArgument)
	ErrItemUnavailable   = fmt.Errorf("%w: menu item is not available", domain.ErrUnavailable)
	ErrGuestNotInHouse   = fmt.Errorf("%w: booking is not checked in", domain.ErrInvalidState)
	ErrStayNotActive     = fmt.Errorf("%w: booking has no active stay", domain.ErrInvalidState)
	ErrInvalidTransition = fmt.Errorf("%w: status transition not allowed", domain.ErrInvalidState)
)
