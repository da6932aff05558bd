package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"complaint_desk/internal/common"
	"complaint_desk/internal/common/security"
	"complaint_desk/internal/domain/model"
	"complaint_desk/internal/domain/repository"
	"complaint_desk/internal/platform/metrics"
	"complaint_desk/internal/platform/ratelimit"

	"github.com/google/uuid"
)

// dummySalt keeps the unknown-email path doing the same hashing work as a wrong password.
var dummySalt = []byte("complaint-desk-0")

type AuthService struct {
	userRepo repository.UserRepository
	issuer   *security.TokenIssuer
	limiter  ratelimit.Limiter
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewAuthService wires the authenticator. limiter and m may be nil.
func NewAuthService(userRepo repository.UserRepository, issuer *security.TokenIssuer, limiter ratelimit.Limiter, m *metrics.Metrics, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		userRepo: userRepo,
		issuer:   issuer,
		limiter:  limiter,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

type RegisterRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6,max=128"`
	Department string `json:"department" validate:"max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	// ClientIP is filled by the handler, never decoded from the body.
	ClientIP string `json:"-"`
}

type AuthResponse struct {
	User      *model.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = model.NormalizeEmail(req.Email)
	req.Department = strings.TrimSpace(req.Department)
	if err := common.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.newUser(req, model.RoleMember)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	req.Email = model.NormalizeEmail(req.Email)
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	if err := s.throttle(ctx, req.Email, req.ClientIP); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			security.DeriveHash(req.Password, dummySalt)
			s.metrics.AuthFailure("invalid_credentials")
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPassword(req.Password, user.PasswordHash, user.PasswordSalt) {
		s.metrics.AuthFailure("invalid_credentials")
		return nil, common.ErrInvalidCredentials
	}
	return s.issue(user)
}

// throttle counts attempts per email and client address. It fails open when
// the limiter backend errors.
func (s *AuthService) throttle(ctx context.Context, email, clientIP string) error {
	if s.limiter == nil {
		return nil
	}
	allowed, err := s.limiter.Allow(ctx, loginThrottleKey(email, clientIP))
	if err != nil {
		s.logger.WarnContext(ctx, "login rate limiter unavailable", "error", err)
		return nil
	}
	if !allowed {
		s.metrics.AuthFailure("throttled")
		return common.ErrTooManyRequests
	}
	return nil
}

func loginThrottleKey(email, clientIP string) string {
	if clientIP == "" {
		return "login:" + email
	}
	return "login:" + email + "|" + clientIP
}

// SeedAdmin creates an admin account unless the email is already registered,
// in which case the existing user is returned with created=false.
func (s *AuthService) SeedAdmin(ctx context.Context, name, email, password string) (*model.User, bool, error) {
	req := RegisterRequest{
		Name:     strings.TrimSpace(name),
		Email:    model.NormalizeEmail(email),
		Password: password,
	}
	if err := common.Validate(req); err != nil {
		return nil, false, err
	}

	existing, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to look up admin: %w", err)
	}

	user, err := s.newUser(req, model.RoleAdmin)
	if err != nil {
		return nil, false, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			existing, findErr := s.userRepo.FindByEmail(ctx, req.Email)
			if findErr != nil {
				return nil, false, fmt.Errorf("failed to look up admin: %w", findErr)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create admin: %w", err)
	}
	return user, true, nil
}

func (s *AuthService) Me(ctx context.Context, identity model.Identity) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", identity.UserID, err)
	}
	return user, nil
}

func (s *AuthService) newUser(req RegisterRequest, role model.Role) (*model.User, error) {
	hash, salt, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	now := s.now().UTC()
	return &model.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		PasswordSalt: salt,
		Role:         role,
		Department:   req.Department,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (s *AuthService) issue(user *model.User) (*AuthResponse, error) {
	token, expiresAt, err := s.issuer.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResponse{User: user, Token: token, ExpiresAt: expiresAt}, nil
}
