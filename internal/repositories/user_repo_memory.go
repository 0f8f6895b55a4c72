package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"userreg/internal/models"
)

// MemoryUserRepository is an in-memory implementation of UserRepository.
// IDs come from a counter and are never handed out twice.
type MemoryUserRepository struct {
	users  map[uint]models.User
	nextID uint
	mu     sync.RWMutex
}

// NewMemoryUserRepository creates a new instance of MemoryUserRepository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[uint]models.User),
	}
}

// GetAll returns all users ordered by id.
func (r *MemoryUserRepository) GetAll(_ context.Context) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userList := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		userList = append(userList, clone(u))
	}
	sort.Slice(userList, func(i, j int) bool { return userList[i].ID < userList[j].ID })
	return userList, nil
}

// GetByID returns a user by its ID.
func (r *MemoryUserRepository) GetByID(_ context.Context, id uint) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user with ID %d: %w", id, ErrNotFound)
	}
	u = clone(u)
	return &u, nil
}

// GetByEmail returns a user by its email.
func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			u = clone(u)
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user with email %s: %w", email, ErrNotFound)
}

// Create adds a new user.
func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTakenLocked(user.Email, 0) {
		return fmt.Errorf("failed to create user %s: %w", user.Email, ErrDuplicateEmail)
	}
	r.nextID++
	now := time.Now()
	user.ID = r.nextID
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = clone(*user)
	return nil
}

// Update modifies an existing user.
func (r *MemoryUserRepository) Update(_ context.Context, user *models.User, withPassword bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[user.ID]
	if !ok {
		return fmt.Errorf("user with ID %d not updated: %w", user.ID, ErrNotFound)
	}
	if r.emailTakenLocked(user.Email, user.ID) {
		return fmt.Errorf("failed to update user %d: %w", user.ID, ErrDuplicateEmail)
	}

	existing.Name = user.Name
	existing.Email = user.Email
	existing.Phone = user.Phone
	existing.Role = user.Role
	existing.Skills = user.Skills
	if withPassword {
		existing.PasswordHash = user.PasswordHash
	}
	existing.UpdatedAt = time.Now()
	r.users[user.ID] = clone(existing)
	return nil
}

// Delete removes a user by its ID.
func (r *MemoryUserRepository) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return fmt.Errorf("user with ID %d not deleted: %w", id, ErrNotFound)
	}
	delete(r.users, id)
	return nil
}

// Count returns the number of stored users.
func (r *MemoryUserRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.users)), nil
}

func (r *MemoryUserRepository) emailTakenLocked(email string, exceptID uint) bool {
	for id, u := range r.users {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}

func clone(u models.User) models.User {
	if u.Skills != nil {
		u.Skills = append([]string(nil), u.Skills...)
	}
	return u
}
