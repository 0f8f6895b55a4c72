package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Roles a user record may hold.
const (
	RoleUser      = "user"
	RoleAdmin     = "admin"
	RoleDeveloper = "developer"
)

// Roles lists the accepted role values in display order.
var Roles = []string{RoleUser, RoleAdmin, RoleDeveloper}

// User is the persisted user record.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Name         string    `json:"name" gorm:"type:varchar(100);not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255);not null"` // never serialized
	Phone        string    `json:"phone" gorm:"type:varchar(32)"`
	Role         string    `json:"role" gorm:"type:varchar(16);not null;default:user;check:chk_users_role,role IN ('user','admin','developer')"`
	Skills       []string  `json:"skills" gorm:"type:text;serializer:json"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// View returns the outward shape of the record.
func (u *User) View() UserView {
	skills := make([]string, len(u.Skills))
	copy(skills, u.Skills)
	return UserView{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
		Skills:    skills,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UserView is what list and fetch responses carry. It has no password field
// and Skills is never null.
type UserView struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	Skills    []string  `json:"skills"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserInput is the create/update request body. Field order matches the order
// violations are reported in.
type UserInput struct {
	Name     string `json:"name" validate:"min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password,omitempty" validate:"password"`
	Role     string `json:"role" validate:"oneof=user admin developer"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,phone"`
	Skills   Skills `json:"skills"`
}

// Normalize trims the text fields, lower-cases the email and applies the
// default role.
func (in *UserInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.Role = strings.TrimSpace(in.Role)
	if in.Role == "" {
		in.Role = RoleUser
	}
}

// Skills is the skills field of a request. A value that is present but not an
// array decodes as Malformed, and an array holding anything but strings as
// NonString, instead of failing the whole body, so either can be reported
// next to the other field violations. Absent and null both mean no skills.
type Skills struct {
	Items     []string
	Malformed bool
	NonString bool
}

// NewSkills wraps a plain list.
func NewSkills(items ...string) Skills {
	return Skills{Items: items}
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Skills) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		var raw []json.RawMessage
		if json.Unmarshal(data, &raw) == nil {
			*s = Skills{NonString: true}
			return nil
		}
		*s = Skills{Malformed: true}
		return nil
	}
	*s = Skills{Items: items}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s Skills) MarshalJSON() ([]byte, error) {
	if s.Items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.Items)
}

// List returns the items, never nil.
func (s Skills) List() []string {
	out := make([]string, len(s.Items))
	copy(out, s.Items)
	return out
}
