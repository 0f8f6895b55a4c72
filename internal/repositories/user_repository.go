package repositories

import (
	"context"
	"errors"

	"userreg/internal/models"
)

// Errors returned by every UserRepository implementation.
var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	GetAll(ctx context.Context) ([]models.User, error)
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Create assigns user.ID and the timestamps.
	Create(ctx context.Context, user *models.User) error
	// Update writes the profile fields of user. The stored password hash is
	// only replaced when withPassword is set.
	Update(ctx context.Context, user *models.User, withPassword bool) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}
