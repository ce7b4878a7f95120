package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/embassygq/consular-api/internal/model"
	"github.com/embassygq/consular-api/internal/repository"
	"github.com/embassygq/consular-api/internal/service/audit"
	"github.com/embassygq/consular-api/pkg/auth"
	"github.com/embassygq/consular-api/pkg/security"
)

const (
	refreshTokenExpiry = 7 * 24 * time.Hour
	maxLoginAttempts   = 5
	lockoutDuration    = 15 * time.Minute
)

type Service struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	jwtSvc    auth.JWTService
	hasher    security.PasswordHasher
	auditor   *audit.Service
	now       func() time.Time
}

func NewService(userRepo repository.UserRepository, tokenRepo repository.TokenRepository,
	jwtSvc auth.JWTService, hasher security.PasswordHasher, auditor *audit.Service) *Service {
	return &Service{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		jwtSvc:    jwtSvc,
		hasher:    hasher,
		auditor:   auditor,
		now:       time.Now,
	}
}

// Register creates a citizen account. Staff accounts are provisioned
// through the staff registry, not self-service.
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	if _, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil {
		verr := &model.ValidationError{}
		verr.Add("email", "is already registered")
		return nil, verr
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        &req.Phone,
		Role:         model.RoleCitizen,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	actor := model.Actor{ID: user.ID, Role: user.Role}
	s.auditor.Log(ctx, actor, model.AuditActionRegister, model.AuditEntityUser, user.ID, &audit.LogOptions{
		Metadata: map[string]interface{}{"email": user.Email},
	})
	return user, nil
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	if !user.IsActive {
		return nil, model.ErrAccountDeactivated
	}
	if user.LockedUntil != nil && user.LockedUntil.After(s.now()) {
		return nil, model.ErrAccountDeactivated
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		user.FailedLoginAttempts++
		if user.FailedLoginAttempts >= maxLoginAttempts {
			until := s.now().Add(lockoutDuration)
			user.LockedUntil = &until
			user.FailedLoginAttempts = 0
		}
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to record login attempt: %w", err)
		}
		return nil, model.ErrInvalidCredentials
	}

	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	now := s.now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	actor := model.Actor{ID: user.ID, Role: user.Role}
	s.auditor.Log(ctx, actor, model.AuditActionLogin, model.AuditEntityUser, user.ID, nil)
	return tokens, nil
}

// Refresh exchanges a valid refresh token for a new token pair. The
// used token is invalidated so it cannot be replayed.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	claims, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, model.ErrInvalidCredentials
	}
	userID, err := s.tokenRepo.ValidateRefreshToken(ctx, refreshToken)
	if err != nil || userID != claims.UserID {
		return nil, model.ErrInvalidCredentials
	}

	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return nil, model.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, model.ErrAccountDeactivated
	}

	if err := s.tokenRepo.InvalidateRefreshToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	return s.issueTokens(ctx, user)
}

func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, req *model.ChangePasswordRequest) error {
	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.hasher.Compare(user.PasswordHash, req.CurrentPassword); err != nil {
		return model.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = hash
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	// all sessions are revoked after a password change
	return s.tokenRepo.InvalidateUserTokens(ctx, userID)
}

func (s *Service) issueTokens(ctx context.Context, user *model.User) (*model.TokenResponse, error) {
	access, err := s.jwtSvc.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := s.jwtSvc.GenerateRefreshToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	if err := s.tokenRepo.StoreRefreshToken(ctx, user.ID, refresh, s.now().Add(refreshTokenExpiry)); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	return &model.TokenResponse{AccessToken: access, RefreshToken: refresh}, nil
}
