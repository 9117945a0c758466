package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/auth"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/domain"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/repository"
	apperrors "github.com/SherMuhammadgithub/perfume-site-sub000/pkg/errors"
)

// bcryptCost is the cost factor for password hashes. Tests lower it.
var bcryptCost = 12

// minPasswordLength is the minimum password length for admin accounts.
const minPasswordLength = 10

// dummyHash is compared against when the email is unknown so that both
// failure paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("perfume-store-dummy-password"), bcrypt.MinCost)

// AuthService authenticates back-office users.
type AuthService struct {
	admins repository.AdminRepository
	jwt    *auth.JWTManager
	logger *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(admins repository.AdminRepository, jwt *auth.JWTManager, logger *slog.Logger) *AuthService {
	return &AuthService{
		admins: admins,
		jwt:    jwt,
		logger: logger,
	}
}

// Session is an issued admin session.
type Session struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
	Admin     *domain.AdminUser `json:"admin"`
}

// Login checks the credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperrors.InvalidInput("email and password are required")
	}

	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("get admin by email: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		s.logger.WarnContext(ctx, "admin login failed", slog.String("reason", "unknown email"))
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		s.logger.WarnContext(ctx, "admin login failed",
			slog.String("admin_id", admin.ID),
			slog.String("reason", "wrong password"),
		)
		return nil, apperrors.Unauthorized("invalid email or password")
	}
	if admin.Role != domain.RoleAdmin {
		return nil, apperrors.Forbidden("account has no admin access")
	}

	token, expires, err := s.jwt.Generate(admin.ID, admin.Email, admin.Role)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	s.logger.InfoContext(ctx, "admin logged in", slog.String("admin_id", admin.ID))
	return &Session{Token: token, ExpiresAt: expires, Admin: admin}, nil
}

// Me returns the account behind an authenticated session.
func (s *AuthService) Me(ctx context.Context, adminID string) (*domain.AdminUser, error) {
	admin, err := s.admins.GetByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("session no longer valid")
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return admin, nil
}

// EnsureAdmin creates or resets an admin account. It is used by the seed
// command.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, name, password string) (*domain.AdminUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperrors.InvalidInput("admin email is required")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	admin := &domain.AdminUser{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.admins.Upsert(ctx, admin); err != nil {
		return nil, fmt.Errorf("upsert admin: %w", err)
	}

	s.logger.InfoContext(ctx, "admin account ensured",
		slog.String("admin_id", admin.ID),
		slog.String("email", admin.Email),
	)
	return admin, nil
}

// HashPassword validates and bcrypt-hashes a password.
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
