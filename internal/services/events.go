package services

import (
	"context"
	"time"

	"userreg/internal/models"

	"github.com/google/uuid"
)

// Routing keys of the lifecycle events.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// EventPublisher delivers lifecycle events to a broker.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// UserEvent is the body of a lifecycle event. It never carries the password hash.
type UserEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	UserID     uint      `json:"user_id"`
	Email      string    `json:"email,omitempty"`
	Role       string    `json:"role,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func newUserEvent(eventType string, u *models.User) UserEvent {
	return UserEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		UserID:     u.ID,
		Email:      u.Email,
		Role:       u.Role,
		OccurredAt: time.Now().UTC(),
	}
}
