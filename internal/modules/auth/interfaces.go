package auth

import (
	"context"
	"time"

	"hotelbooking/internal/domain"
)

// UserRepository lists only the methods the auth service uses.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, t *domain.RefreshToken) error
	GetByHash(ctx context.Context, hash string) (*domain.RefreshToken, error)
	Consume(ctx context.Context, id int64, now time.Time) (bool, error)
	SetReplacedBy(ctx context.Context, id, replacedByID int64) error
	Revoke(ctx context.Context, id int64) error
	RevokeFamily(ctx context.Context, familyID string) (int64, error)
	RevokeByUser(ctx context.Context, userID int64) (int64, error)
}

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type TokenIssuer interface {
	GenerateToken(userID int64, email, role string) (string, error)
}
