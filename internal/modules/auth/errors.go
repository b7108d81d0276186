package auth

import (
	"fmt"

	"hotelbooking/internal/domain"
)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	ErrEmailAlreadyExists = fmt.Errorf("%w: email already exists", domain.ErrConflict)
	ErrInvalidRole        = fmt.Errorf("%w: unknown role", domain.ErrInvalidArgument)
	ErrSamePassword       = fmt.Errorf("%w: new password must differ from the current one", domain.ErrInvalidArgument)

	ErrInvalidRefreshToken = fmt.Errorf("%w: invalid or expired refresh token", domain.ErrUnauthorized)
	ErrRefreshTokenReused  = fmt.Errorf("%w: refresh token reuse detected", domain.ErrUnauthorized)
)
