package services

import (
	"context"
	"errors"
	"fmt"

	"userreg/internal/models"
	"userreg/internal/repositories"
	"userreg/internal/validation"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHashCost is the bcrypt cost factor for stored passwords.
const PasswordHashCost = 12

// UserService validates user payloads and persists user records.
type UserService struct {
	repo      repositories.UserRepository
	validator *validation.Validator
	events    EventPublisher
	logger    *zap.Logger
	hashCost  int
}

// Option configures a UserService.
type Option func(*UserService)

// WithEventPublisher sends lifecycle events after each successful mutation.
func WithEventPublisher(p EventPublisher) Option {
	return func(s *UserService) {
		s.events = p
	}
}

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) Option {
	return func(s *UserService) {
		s.hashCost = cost
	}
}

// NewUserService creates a new UserService.
func NewUserService(repo repositories.UserRepository, logger *zap.Logger, opts ...Option) *UserService {
	s := &UserService{
		repo:      repo,
		validator: validation.New(),
		logger:    logger,
		hashCost:  PasswordHashCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every user without password hashes.
func (s *UserService) List(ctx context.Context) ([]models.UserView, error) {
	users, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to list users", zap.Error(err))
		return nil, ErrInternal
	}

	views := make([]models.UserView, 0, len(users))
	for i := range users {
		views = append(views, users[i].View())
	}
	return views, nil
}

// Get returns one user or ErrUserNotFound.
func (s *UserService) Get(ctx context.Context, id uint) (*models.UserView, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("failed to get user", zap.Uint("user_id", id), zap.Error(err))
		return nil, ErrInternal
	}
	view := user.View()
	return &view, nil
}

// Create validates in, rejects a taken email, hashes the password and
// stores a new record.
func (s *UserService) Create(ctx context.Context, in models.UserInput) (*models.UserView, error) {
	l := s.logger.With(zap.String("method", "Create"))

	in.Normalize()
	if violations := s.validator.User(in, true); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	taken, err := s.emailOwnedByOther(ctx, in.Email, 0)
	if err != nil {
		l.Error("failed to check email", zap.Error(err))
		return nil, ErrInternal
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		l.Error("failed to hash password", zap.Error(err))
		return nil, ErrInternal
	}

	user := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Phone:        in.Phone,
		Role:         in.Role,
		Skills:       in.Skills.List(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		// the unique index is the final word when two creates race
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		l.Error("failed to create user", zap.Error(err))
		return nil, ErrInternal
	}

	l.Info("user created", zap.Uint("user_id", user.ID))
	s.publish(ctx, EventUserCreated, user)
	view := user.View()
	return &view, nil
}

// Update rewrites the record with the given id. An empty password keeps the
// stored hash untouched; any other password is validated and re-hashed.
func (s *UserService) Update(ctx context.Context, id uint, in models.UserInput) (*models.UserView, error) {
	l := s.logger.With(zap.String("method", "Update"), zap.Uint("user_id", id))

	in.Normalize()
	withPassword := in.Password != ""
	if violations := s.validator.User(in, withPassword); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		l.Error("failed to load user", zap.Error(err))
		return nil, ErrInternal
	}

	if in.Email != existing.Email {
		taken, err := s.emailOwnedByOther(ctx, in.Email, id)
		if err != nil {
			l.Error("failed to check email", zap.Error(err))
			return nil, ErrInternal
		}
		if taken {
			return nil, ErrEmailTaken
		}
	}

	user := &models.User{
		ID:           id,
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: existing.PasswordHash,
		Phone:        in.Phone,
		Role:         in.Role,
		Skills:       in.Skills.List(),
	}
	if withPassword {
		if user.PasswordHash, err = s.hashPassword(in.Password); err != nil {
			l.Error("failed to hash password", zap.Error(err))
			return nil, ErrInternal
		}
	}

	if err := s.repo.Update(ctx, user, withPassword); err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repositories.ErrDuplicateEmail):
			return nil, ErrEmailTaken
		}
		l.Error("failed to update user", zap.Error(err))
		return nil, ErrInternal
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		l.Error("failed to reload user", zap.Error(err))
		return nil, ErrInternal
	}

	l.Info("user updated", zap.Bool("password_changed", withPassword))
	s.publish(ctx, EventUserUpdated, updated)
	view := updated.View()
	return &view, nil
}

// Delete removes the record with the given id.
func (s *UserService) Delete(ctx context.Context, id uint) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		s.logger.Error("failed to load user", zap.Uint("user_id", id), zap.Error(err))
		return ErrInternal
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("failed to delete user", zap.Uint("user_id", id), zap.Error(err))
		return ErrInternal
	}

	s.logger.Info("user deleted", zap.Uint("user_id", id))
	if existing == nil {
		existing = &models.User{ID: id}
	}
	s.publish(ctx, EventUserDeleted, existing)
	return nil
}

func (s *UserService) emailOwnedByOther(ctx context.Context, email string, selfID uint) (bool, error) {
	other, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return other.ID != selfID, nil
}

func (s *UserService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (s *UserService) publish(ctx context.Context, routingKey string, u *models.User) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, routingKey, newUserEvent(routingKey, u)); err != nil {
		s.logger.Warn("failed to publish user event",
			zap.String("routing_key", routingKey),
			zap.Uint("user_id", u.ID),
			zap.Error(err),
		)
	}
}
