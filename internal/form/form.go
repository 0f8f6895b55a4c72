// Package form holds the state of the registration form: the draft being
// edited, live password feedback, submission gating and the list of known
// users.
package form

import (
	"context"
	"errors"
	"slices"
	"sync"

	"userreg/internal/client"
	"userreg/internal/models"
	"userreg/internal/policy"
)

// FallbackMessage is shown when the server gave no usable message.
const FallbackMessage = "Something went wrong. Please try again."

// SkillVocabulary is the fixed set of skills the form offers.
var SkillVocabulary = []string{
	"JavaScript", "TypeScript", "React", "Node.js", "Python", "Go",
	"Java", "SQL", "Docker", "Kubernetes", "AWS", "GraphQL",
}

var (
	ErrInvalidPassword = errors.New("please meet all password requirements")
	ErrBusy            = errors.New("a submission is already in progress")
)

// SubmitError is a rejected or failed request. Message is what the user sees.
type SubmitError struct {
	Message string
	Err     error
}

func (e *SubmitError) Error() string { return e.Message }

func (e *SubmitError) Unwrap() error { return e.Err }

func submitError(err error) *SubmitError {
	msg := FallbackMessage
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		if first := apiErr.FirstMessage(); first != "" {
			msg = first
		}
	}
	return &SubmitError{Message: msg, Err: err}
}

// API is the part of the REST client the form uses.
type API interface {
	ListUsers(ctx context.Context) ([]models.UserView, error)
	CreateUser(ctx context.Context, in models.UserInput) (*models.UserView, error)
	UpdateUser(ctx context.Context, id uint, in models.UserInput) (*models.UserView, error)
	DeleteUser(ctx context.Context, id uint) error
}

// Draft is the unsaved form content. EditingID is nil when creating.
type Draft struct {
	Name      string
	Email     string
	Password  string
	Phone     string
	Role      string
	Skills    []string
	EditingID *uint
}

func emptyDraft() Draft {
	return Draft{Role: models.RoleUser, Skills: []string{}}
}

func (d Draft) input() models.UserInput {
	return models.UserInput{
		Name:     d.Name,
		Email:    d.Email,
		Password: d.Password,
		Phone:    d.Phone,
		Role:     d.Role,
		Skills:   models.NewSkills(d.Skills...),
	}
}

func (d Draft) clone() Draft {
	d.Skills = slices.Clone(d.Skills)
	if d.EditingID != nil {
		id := *d.EditingID
		d.EditingID = &id
	}
	return d
}

// Form is safe for concurrent use.
type Form struct {
	api API

	mu     sync.Mutex
	draft  Draft
	checks policy.Checks
	busy   bool
	users  []models.UserView
}

func New(api API) *Form {
	f := &Form{api: api, draft: emptyDraft()}
	f.checks = policy.Check("")
	return f
}

// Draft returns a copy of the current draft.
func (f *Form) Draft() Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft.clone()
}

func (f *Form) SetName(v string) {
	f.mu.Lock()
	f.draft.Name = v
	f.mu.Unlock()
}

func (f *Form) SetEmail(v string) {
	f.mu.Lock()
	f.draft.Email = v
	f.mu.Unlock()
}

func (f *Form) SetPhone(v string) {
	f.mu.Lock()
	f.draft.Phone = v
	f.mu.Unlock()
}

func (f *Form) SetRole(v string) {
	f.mu.Lock()
	f.draft.Role = v
	f.mu.Unlock()
}

// SetPassword updates the password and recomputes the policy checks.
func (f *Form) SetPassword(v string) policy.Checks {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.Password = v
	f.checks = policy.Check(v)
	return f.checks
}

// PasswordChecks returns the checks for the current password.
func (f *Form) PasswordChecks() policy.Checks {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checks
}

// IsPasswordValid reports whether the draft may be submitted. While editing,
// an empty password means "keep the current one" and is accepted.
func (f *Form) IsPasswordValid() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.passwordValidLocked()
}

func (f *Form) passwordValidLocked() bool {
	if f.draft.EditingID != nil && f.draft.Password == "" {
		return true
	}
	return f.checks.Valid()
}

// ToggleSkill adds or removes a vocabulary skill and reports whether it is
// now selected. Skills outside the vocabulary are ignored.
func (f *Form) ToggleSkill(skill string) bool {
	if !slices.Contains(SkillVocabulary, skill) {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if i := slices.Index(f.draft.Skills, skill); i >= 0 {
		f.draft.Skills = slices.Delete(f.draft.Skills, i, i+1)
		return false
	}
	f.draft.Skills = append(f.draft.Skills, skill)
	return true
}

func (f *Form) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

// Submit creates or updates the record in the draft. On success the draft is
// reset and the returned record replaces or joins the local list. On failure
// the draft is left as it was.
func (f *Form) Submit(ctx context.Context) (*models.UserView, error) {
	f.mu.Lock()
	if !f.passwordValidLocked() {
		f.mu.Unlock()
		return nil, ErrInvalidPassword
	}
	if f.busy {
		f.mu.Unlock()
		return nil, ErrBusy
	}
	f.busy = true
	draft := f.draft.clone()
	f.mu.Unlock()

	var (
		user *models.UserView
		err  error
	)
	if draft.EditingID != nil {
		user, err = f.api.UpdateUser(ctx, *draft.EditingID, draft.input())
	} else {
		user, err = f.api.CreateUser(ctx, draft.input())
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
	if err != nil {
		return nil, submitError(err)
	}

	f.upsertLocked(*user)
	f.resetLocked()
	return user, nil
}

// Edit loads user into the draft with an empty password.
func (f *Form) Edit(user models.UserView) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := user.ID
	f.draft = Draft{
		Name:      user.Name,
		Email:     user.Email,
		Phone:     user.Phone,
		Role:      user.Role,
		Skills:    slices.Clone(user.Skills),
		EditingID: &id,
	}
	if f.draft.Skills == nil {
		f.draft.Skills = []string{}
	}
	f.checks = policy.Check("")
}

// Cancel discards the draft.
func (f *Form) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked()
}

func (f *Form) resetLocked() {
	f.draft = emptyDraft()
	f.checks = policy.Check("")
}

// Users returns a copy of the local list.
func (f *Form) Users() []models.UserView {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.users)
}

// Refresh replaces the local list with the server's. The list is kept on
// failure.
func (f *Form) Refresh(ctx context.Context) error {
	users, err := f.api.ListUsers(ctx)
	if err != nil {
		return submitError(err)
	}
	f.mu.Lock()
	f.users = users
	f.mu.Unlock()
	return nil
}

// Delete removes the record on the server and then locally. A draft editing
// that record is discarded.
func (f *Form) Delete(ctx context.Context, id uint) error {
	if err := f.api.DeleteUser(ctx, id); err != nil {
		return submitError(err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = slices.DeleteFunc(f.users, func(u models.UserView) bool { return u.ID == id })
	if f.draft.EditingID != nil && *f.draft.EditingID == id {
		f.resetLocked()
	}
	return nil
}

func (f *Form) upsertLocked(user models.UserView) {
	for i := range f.users {
		if f.users[i].ID == user.ID {
			f.users[i] = user
			return
		}
	}
	f.users = append(f.users, user)
}
