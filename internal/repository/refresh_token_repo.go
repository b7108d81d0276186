package repository

import (
	"context"
	"time"

	"hotelbooking/internal/domain"

	"gorm.io/gorm"
)

// RefreshTokenRepository stores hashed refresh tokens.
type RefreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

type refreshTokenModel struct {
	ID           int64      `gorm:"column:id;primaryKey"`
	UserID       int64      `gorm:"column:user_id;index;not null"`
	TokenHash    string     `gorm:"column:token_hash;size:64;uniqueIndex;not null"`
	FamilyID     string     `gorm:"column:family_id;size:36;index;not null"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	ExpiresAt    time.Time  `gorm:"column:expires_at;index;not null"`
	UsedAt       *time.Time `gorm:"column:used_at"`
	RevokedAt    *time.Time `gorm:"column:revoked_at;index"`
	ReplacedByID *int64     `gorm:"column:replaced_by_id"`
}

func (refreshTokenModel) TableName() string { return "refresh_tokens" }

func toDomainRefreshToken(m refreshTokenModel) *domain.RefreshToken {
	return &domain.RefreshToken{
		ID:           m.ID,
		UserID:       m.UserID,
		TokenHash:    m.TokenHash,
		FamilyID:     m.FamilyID,
		CreatedAt:    m.CreatedAt,
		ExpiresAt:    m.ExpiresAt,
		UsedAt:       m.UsedAt,
		RevokedAt:    m.RevokedAt,
		ReplacedByID: m.ReplacedByID,
	}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, t *domain.RefreshToken) error {
	m := refreshTokenModel{
		UserID:    t.UserID,
		TokenHash: t.TokenHash,
		FamilyID:  t.FamilyID,
		ExpiresAt: t.ExpiresAt.UTC(),
	}
	if err := conn(ctx, r.db).Create(&m).Error; err != nil {
		return translateError(err, "refresh token")
	}
	*t = *toDomainRefreshToken(m)
	return nil
}

func (r *RefreshTokenRepository) GetByHash(ctx context.Context, hash string) (*domain.RefreshToken, error) {
	var m refreshTokenModel
	if err := conn(ctx, r.db).Where("token_hash = ?", hash).First(&m).Error; err != nil {
		return nil, translateError(err, "refresh token")
	}
	return toDomainRefreshToken(m), nil
}

// Consume marks a live token used and revoked. It reports false when another
// request got there first, which is how concurrent replays are told apart
// without a row lock.
func (r *RefreshTokenRepository) Consume(ctx context.Context, id int64, now time.Time) (bool, error) {
	now = now.UTC()
	res := conn(ctx, r.db).Model(&refreshTokenModel{}).
		Where("id = ? AND used_at IS NULL AND revoked_at IS NULL", id).
		Updates(map[string]interface{}{"used_at": now, "revoked_at": now})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *RefreshTokenRepository) SetReplacedBy(ctx context.Context, id, replacedByID int64) error {
	return conn(ctx, r.db).Model(&refreshTokenModel{}).
		Where("id = ?", id).
		Update("replaced_by_id", replacedByID).Error
}

func (r *RefreshTokenRepository) Revoke(ctx context.Context, id int64) error {
	return conn(ctx, r.db).Model(&refreshTokenModel{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", time.Now().UTC()).Error
}

// RevokeFamily ends every live token rotated from the same login.
func (r *RefreshTokenRepository) RevokeFamily(ctx context.Context, familyID string) (int64, error) {
	res := conn(ctx, r.db).Model(&refreshTokenModel{}).
		Where("family_id = ? AND revoked_at IS NULL", familyID).
		Update("revoked_at", time.Now().UTC())
	return res.RowsAffected, res.Error
}

func (r *RefreshTokenRepository) RevokeByUser(ctx context.Context, userID int64) (int64, error) {
	res := conn(ctx, r.db).Model(&refreshTokenModel{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", time.Now().UTC())
	return res.RowsAffected, res.Error
}

// DeleteExpired removes tokens past their expiry and revoked tokens older than
// revokedBefore. Recently revoked rows are kept so replays stay detectable.
func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, now, revokedBefore time.Time) (int64, error) {
	res := conn(ctx, r.db).
		Where("expires_at < ? OR (revoked_at IS NOT NULL AND revoked_at < ?)", now.UTC(), revokedBefore.UTC()).
		Delete(&refreshTokenModel{})
	return res.RowsAffected, res.Error
}
