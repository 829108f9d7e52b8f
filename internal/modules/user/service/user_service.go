package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anoa.com/softdesk/internal/entity"
	"anoa.com/softdesk/internal/metrics"
	"anoa.com/softdesk/internal/modules/user/dto"
	"anoa.com/softdesk/internal/modules/user/repository"
	"anoa.com/softdesk/pkg/apperror"
	"anoa.com/softdesk/pkg/logger"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService interface {
	Signup(ctx context.Context, req dto.SignupRequest) (*dto.UserResponse, error)
	GetUser(ctx context.Context, actorID, userID uuid.UUID) (*dto.UserResponse, error)
	UpdateUser(ctx context.Context, actorID, userID uuid.UUID, req dto.UpdateUserRequest) (*dto.UserResponse, error)
	DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error
	ExportUser(ctx context.Context, actorID, userID uuid.UUID) ([]byte, error)
}

type userService struct {
	repo repository.UserRepository
	now  func() time.Time
}

func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo, now: time.Now}
}

func (s *userService) Signup(ctx context.Context, req dto.SignupRequest) (*dto.UserResponse, error) {
	if err := s.ensureUnique(ctx, uuid.Nil, &req.Username, &req.Email); err != nil {
		return nil, err
	}

	dob, err := s.parseBirthDate(req.DateOfBirth)
	if err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entity.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hashed),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		DateOfBirth:  dob,
		Consent:      req.Consent != nil && *req.Consent,
	}

	// A user with a known birth date consents only when old enough and
	// when consent was given explicitly.
	if dob != nil && (req.Consent == nil || !user.CanConsent(s.now())) {
		user.Consent = false
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Validation("a user with that username or email already exists")
		}
		return nil, err
	}

	metrics.ResourcesCreatedTotal.WithLabelValues("user").Inc()
	log := logger.Get()
	log.Info().Str("user_id", user.ID.String()).Msg("user signed up")

	return s.toResponse(user), nil
}

func (s *userService) GetUser(ctx context.Context, actorID, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.findSelf(ctx, actorID, userID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(user), nil
}

func (s *userService) UpdateUser(ctx context.Context, actorID, userID uuid.UUID, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := s.findSelf(ctx, actorID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.ensureUnique(ctx, user.ID, req.Username, req.Email); err != nil {
		return nil, err
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hashed)
	}
	if req.Consent != nil {
		user.Consent = *req.Consent
	}

	if req.DateOfBirth != nil {
		dob, err := s.parseBirthDate(req.DateOfBirth)
		if err != nil {
			return nil, err
		}
		user.DateOfBirth = dob
	}

	if user.DateOfBirth != nil && !user.CanConsent(s.now()) {
		user.Consent = false
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Validation("a user with that username or email already exists")
		}
		return nil, err
	}

	return s.toResponse(user), nil
}

func (s *userService) DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error {
	user, err := s.findSelf(ctx, actorID, userID)
	if err != nil {
		return err
	}

	count, err := s.repo.CountAuthoredProjects(ctx, user.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperror.Validation("cannot delete a user who still owns projects; transfer or delete them first")
	}

	if err := s.repo.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return apperror.Validation("cannot delete a user who still owns projects; transfer or delete them first")
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user not found: %w", apperror.ErrNotFound)
		}
		return err
	}

	log := logger.Get()
	log.Info().Str("user_id", user.ID.String()).Msg("user deleted")
	return nil
}

// findSelf loads the target user and allows access only to the user themself.
func (s *userService) findSelf(ctx context.Context, actorID, userID uuid.UUID) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}

	if user.ID != actorID {
		metrics.AccessDeniedTotal.WithLabelValues("forbidden").Inc()
		return nil, fmt.Errorf("you can only access your own account: %w", apperror.ErrForbidden)
	}

	return user, nil
}

func (s *userService) ensureUnique(ctx context.Context, selfID uuid.UUID, username, email *string) error {
	if username != nil {
		existing, err := s.repo.FindByUsername(ctx, *username)
		if err == nil && existing.ID != selfID {
			return apperror.Validation("a user with that username already exists")
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}

	if email != nil {
		existing, err := s.repo.FindByEmail(ctx, *email)
		if err == nil && existing.ID != selfID {
			return apperror.Validation("a user with that email already exists")
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}

	return nil
}

func (s *userService) parseBirthDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}

	dob, err := time.Parse(dto.DateLayout, *raw)
	if err != nil {
		return nil, apperror.Validation("date_of_birth must be a date formatted as YYYY-MM-DD")
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if dob.After(today) {
		return nil, apperror.Validation("date of birth cannot be in the future")
	}

	return &dob, nil
}

func (s *userService) toResponse(user *entity.User) *dto.UserResponse {
	resp := &dto.UserResponse{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		Consent:    user.Consent,
		DateJoined: user.DateJoined,
		LastLogin:  user.LastLogin,
	}

	if user.DateOfBirth != nil {
		formatted := user.DateOfBirth.Format(dto.DateLayout)
		resp.DateOfBirth = &formatted
		age, _ := user.Age(s.now())
		resp.Age = &age
	}

	return resp
}
