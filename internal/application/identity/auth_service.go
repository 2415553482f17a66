package identity

import (
	"context"
	"errors"
	"time"

	"github.com/cobranzas/backend/internal/domain/identity"
	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/cobranzas/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenIssuer issues and validates token pairs
type TokenIssuer interface {
	GenerateTokenPair(input auth.GenerateTokenInput) (*auth.TokenPair, error)
	ValidateRefreshToken(token string) (*auth.Claims, error)
}

var errInvalidCredentials = shared.NewDomainError(shared.CodeUnauthorized, "Invalid username or password")

// AuthService handles authentication operations
type AuthService struct {
	userRepo    identity.UserRepository
	tokens      TokenIssuer
	revocations auth.RevocationList
	logger      *zap.Logger
}

// NewAuthService creates a new authentication service. revocations may be nil,
// in which case logout and refresh rotation are not enforced.
func NewAuthService(
	userRepo identity.UserRepository,
	tokens TokenIssuer,
	revocations auth.RevocationList,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		tokens:      tokens,
		revocations: revocations,
		logger:      logger,
	}
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.userRepo.FindByUsername(ctx, input.Username)
	if err != nil {
		if shared.IsNotFound(err) {
			s.logger.Warn("Login for unknown user", zap.String("username", input.Username))
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	if !user.VerifyPassword(input.Password) {
		s.logger.Warn("Invalid password", zap.String("username", input.Username))
		return nil, errInvalidCredentials
	}
	if !user.CanLogin() {
		s.logger.Warn("Login for deactivated user", zap.String("username", input.Username))
		return nil, shared.NewPermissionError("Account has been deactivated")
	}

	pair, err := s.tokens.GenerateTokenPair(auth.GenerateTokenInput{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	})
	if err != nil {
		return nil, err
	}

	user.RecordLogin()
	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("Failed to stamp last login", zap.Error(err))
	}
	if err := s.userRepo.SaveLoginLog(ctx, identity.NewLoginLog(user.ID, input.IP, input.UserAgent)); err != nil {
		s.logger.Error("Failed to store login log", zap.Error(err))
	}

	s.logger.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("role", user.Role.String()))

	return &LoginResult{Token: pair, User: ToUserResponse(user)}, nil
}

// Refresh exchanges a refresh token for a new pair. The user is reloaded so a
// deactivated account or changed role takes effect immediately, and the used
// refresh token is revoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeUnauthorized, "Invalid refresh token")
	}
	if err := auth.CheckRevoked(ctx, s.revocations, claims); err != nil {
		if errors.Is(err, auth.ErrTokenRevoked) {
			return nil, shared.NewDomainError(shared.CodeUnauthorized, "Refresh token has been revoked")
		}
		return nil, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeUnauthorized, "Invalid refresh token")
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewDomainError(shared.CodeUnauthorized, "Invalid refresh token")
		}
		return nil, err
	}
	if !user.CanLogin() {
		return nil, shared.NewPermissionError("Account has been deactivated")
	}

	pair, err := s.tokens.GenerateTokenPair(auth.GenerateTokenInput{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	})
	if err != nil {
		return nil, err
	}
	s.revoke(ctx, claims.ID, claims.RemainingTTL())
	return pair, nil
}

// Logout revokes the access token described by claims
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if s.revocations == nil || claims == nil {
		return nil
	}
	if err := s.revocations.Revoke(ctx, claims.ID, claims.RemainingTTL()); err != nil {
		return err
	}
	s.logger.Info("User logged out", zap.String("user_id", claims.UserID))
	return nil
}

func (s *AuthService) revoke(ctx context.Context, jti string, ttl time.Duration) {
	if s.revocations == nil || ttl <= 0 {
		return
	}
	if err := s.revocations.Revoke(ctx, jti, ttl); err != nil {
		s.logger.Error("Failed to revoke refresh token", zap.Error(err))
	}
}
