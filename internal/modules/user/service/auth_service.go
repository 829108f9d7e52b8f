package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anoa.com/softdesk/internal/metrics"
	"anoa.com/softdesk/internal/modules/user/dto"
	"anoa.com/softdesk/internal/modules/user/repository"
	"anoa.com/softdesk/pkg/apperror"
	"anoa.com/softdesk/pkg/logger"
	"anoa.com/softdesk/pkg/token"
	"anoa.com/softdesk/pkg/tokenstore"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error)
	Refresh(ctx context.Context, req dto.RefreshRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, actorID uuid.UUID, req dto.RefreshRequest) error
}

type authService struct {
	repo    repository.UserRepository
	tokens  *token.Manager
	revoked tokenstore.Store
	users   *userService
	now     func() time.Time
}

func NewAuthService(repo repository.UserRepository, tokens *token.Manager, revoked tokenstore.Store) AuthService {
	return &authService{
		repo:    repo,
		tokens:  tokens,
		revoked: revoked,
		users:   &userService{repo: repo, now: time.Now},
		now:     time.Now,
	}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.AuthAttemptsTotal.WithLabelValues("login", "failure").Inc()
			return nil, fmt.Errorf("invalid credentials: %w", apperror.ErrUnauthorized)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "failure").Inc()
		return nil, fmt.Errorf("invalid credentials: %w", apperror.ErrUnauthorized)
	}

	now := s.now()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		log := logger.Get()
		log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to update last login")
	} else {
		user.LastLogin = &now
	}

	access, _, err := s.tokens.Issue(user.ID, token.TypeAccess)
	if err != nil {
		return nil, err
	}
	refresh, _, err := s.tokens.Issue(user.ID, token.TypeRefresh)
	if err != nil {
		return nil, err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("login", "success").Inc()

	return &dto.AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
		User:         s.users.toResponse(user),
	}, nil
}

func (s *authService) Refresh(ctx context.Context, req dto.RefreshRequest) (*dto.TokenResponse, error) {
	claims, err := s.tokens.Parse(req.Refresh, token.TypeRefresh)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("refresh", "failure").Inc()
		return nil, fmt.Errorf("%s: %w", err.Error(), apperror.ErrUnauthorized)
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		metrics.AuthAttemptsTotal.WithLabelValues("refresh", "failure").Inc()
		return nil, fmt.Errorf("token has been revoked: %w", apperror.ErrUnauthorized)
	}

	if _, err := s.repo.FindByID(ctx, claims.UserID()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user no longer exists: %w", apperror.ErrUnauthorized)
		}
		return nil, err
	}

	access, _, err := s.tokens.Issue(claims.UserID(), token.TypeAccess)
	if err != nil {
		return nil, err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("refresh", "success").Inc()

	return &dto.TokenResponse{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

// Logout revokes a refresh token belonging to the caller.
func (s *authService) Logout(ctx context.Context, actorID uuid.UUID, req dto.RefreshRequest) error {
	claims, err := s.tokens.Parse(req.Refresh, token.TypeRefresh)
	if err != nil || claims.UserID() != actorID {
		return fmt.Errorf("invalid refresh token: %w", apperror.ErrBadRequest)
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.revoked.Revoke(ctx, claims.ID, ttl); err != nil {
		return err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("logout", "success").Inc()
	return nil
}
