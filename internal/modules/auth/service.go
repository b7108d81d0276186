package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"hotelbooking/internal/domain"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const defaultRefreshTTL = 30 * 24 * time.Hour

// SessionConfig controls refresh tokens.
type SessionConfig struct {
	RefreshTTL time.Duration
	// Pepper is mixed into every stored token hash, so a leaked table alone
	// cannot be replayed.
	Pepper string
}

// dummyHash is compared against when the email is unknown so that a miss
// costs as much as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

// Service contains the account and token logic
type Service struct {
	users      UserRepository
	sessions   RefreshTokenRepository
	tx         Transactor
	tokens     TokenIssuer
	refreshTTL time.Duration
	pepper     string
	log        logrus.FieldLogger
	bcryptCost int
	now        func() time.Time
}

func NewService(
	users UserRepository,
	sessions RefreshTokenRepository,
	tx Transactor,
	tokens TokenIssuer,
	cfg SessionConfig,
	log logrus.FieldLogger,
) *Service {
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}
	return &Service{
		users:      users,
		sessions:   sessions,
		tx:         tx,
		tokens:     tokens,
		refreshTTL: cfg.RefreshTTL,
		pepper:     cfg.Pepper,
		log:        log,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// Register creates a GUEST account.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	return s.create(ctx, req, domain.RoleGuest)
}

// CreateStaff creates STAFF or ADMIN accounts on behalf of an admin.
func (s *Service) CreateStaff(ctx context.Context, req CreateStaffRequest) (*domain.User, error) {
	role := domain.UserRole(strings.ToUpper(string(req.Role)))
	if role != domain.RoleStaff && role != domain.RoleAdmin {
		return nil, fmt.Errorf("%w %q", ErrInvalidRole, req.Role)
	}
	return s.create(ctx, req.RegisterRequest, role)
}

func (s *Service) create(ctx context.Context, req RegisterRequest, role domain.UserRole) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		Role:         role,
		Name:         strings.TrimSpace(req.Name),
		Phone:        strings.TrimSpace(req.Phone),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("account created")
	user.PasswordHash = ""
	return user, nil
}

// Login checks credentials and opens a new refresh token family.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.log.WithField("user_id", user.ID).Warn("failed login attempt")
		return nil, ErrInvalidCredentials
	}

	access, err := s.tokens.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}
	refresh, err := s.openRefreshToken(ctx, user.ID, uuid.NewString())
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return &LoginResult{User: user, AccessToken: access, RefreshToken: refresh.raw, RefreshExpiresAt: refresh.token.ExpiresAt}, nil
}

// RefreshSession trades a live refresh token for a new pair. The presented
// token is consumed; presenting it again revokes its whole family.
func (s *Service) RefreshSession(ctx context.Context, raw string) (*LoginResult, error) {
	now := s.now().UTC()
	current, err := s.sessions.GetByHash(ctx, hashToken(raw, s.pepper))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	if current.UsedAt != nil {
		return nil, s.reuseDetected(ctx, current)
	}
	if current.IsRevoked() || current.IsExpired(now) {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.users.GetByID(ctx, current.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	var next *issuedToken
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		ok, err := s.sessions.Consume(ctx, current.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrRefreshTokenReused
		}
		next, err = s.openRefreshToken(ctx, current.UserID, current.FamilyID)
		if err != nil {
			return err
		}
		return s.sessions.SetReplacedBy(ctx, current.ID, next.token.ID)
	})
	if errors.Is(err, ErrRefreshTokenReused) {
		// lost the race to a concurrent refresh with the same token
		return nil, s.reuseDetected(ctx, current)
	}
	if err != nil {
		return nil, err
	}

	access, err := s.tokens.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return &LoginResult{User: user, AccessToken: access, RefreshToken: next.raw, RefreshExpiresAt: next.token.ExpiresAt}, nil
}

func (s *Service) reuseDetected(ctx context.Context, t *domain.RefreshToken) error {
	revoked, err := s.sessions.RevokeFamily(ctx, t.FamilyID)
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{
		"user_id":   t.UserID,
		"family_id": t.FamilyID,
		"revoked":   revoked,
	}).Warn("refresh token reuse detected, session family revoked")
	return ErrRefreshTokenReused
}

// Logout revokes one refresh token. Unknown tokens are ignored so logout is
// idempotent.
func (s *Service) Logout(ctx context.Context, raw string) error {
	t, err := s.sessions.GetByHash(ctx, hashToken(raw, s.pepper))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	return s.sessions.Revoke(ctx, t.ID)
}

// LogoutAll revokes every refresh token of userID. Access tokens already
// issued stay valid until they expire.
func (s *Service) LogoutAll(ctx context.Context, userID int64) error {
	n, err := s.sessions.RevokeByUser(ctx, userID)
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "revoked": n}).Info("all sessions revoked")
	return nil
}

// ChangePassword replaces the password after checking the current one and
// ends every session of the account.
func (s *Service) ChangePassword(ctx context.Context, userID int64, req ChangePasswordRequest) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		s.log.WithField("user_id", userID).Warn("password change with wrong current password")
		return ErrInvalidCredentials
	}
	if req.CurrentPassword == req.NewPassword {
		return ErrSamePassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		return err
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
			return err
		}
		_, err := s.sessions.RevokeByUser(ctx, userID)
		return err
	})
	if err != nil {
		return err
	}
	s.log.WithField("user_id", userID).Info("password changed")
	return nil
}

type issuedToken struct {
	raw   string
	token *domain.RefreshToken
}

func (s *Service) openRefreshToken(ctx context.Context, userID int64, familyID string) (*issuedToken, error) {
	raw, hash, err := generateRefreshToken(s.pepper)
	if err != nil {
		return nil, err
	}
	t := &domain.RefreshToken{
		UserID:    userID,
		TokenHash: hash,
		FamilyID:  familyID,
		ExpiresAt: s.now().UTC().Add(s.refreshTTL),
	}
	if err := s.sessions.Create(ctx, t); err != nil {
		return nil, err
	}
	return &issuedToken{raw: raw, token: t}, nil
}

func (s *Service) GetMe(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func generateRefreshToken(pepper string) (raw, hash string, err error) {
	buf := make([]byte, 32)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}
	raw = hex.EncodeToString(buf)
	return raw, hashToken(raw, pepper), nil
}

func hashToken(raw, pepper string) string {
	sum := sha256.Sum256([]byte(raw + pepper))
	return hex.EncodeToString(sum[:])
}
