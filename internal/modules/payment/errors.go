package payment

import (
	"fmt"

	"hotelbooking/internal/domain"
)

var (
	ErrValidation    = fmt.Errorf("%w: payment validation failed", domain.ErrInvalidArgument)
	ErrInvalidState  = fmt.Errorf("%w: payment status does not allow this operation", domain.ErrInvalidState)
	ErrRefundTooHigh = fmt.Errorf("%w: refund exceeds the amount still held", domain.ErrInvalidArgument)
	ErrGateway       = fmt.Errorf("%w: payment gateway", domain.ErrExternalFailure)
)
