package services

import (
	"errors"
	"strings"

	"userreg/internal/validation"
)

// Errors returned by UserService. Storage failures are logged where they
// happen and collapse into ErrInternal so no detail reaches the caller.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
	ErrInternal     = errors.New("internal error")
)

// ValidationError carries every rule the payload failed, in rule order.
type ValidationError struct {
	Violations []validation.Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Msg)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}
