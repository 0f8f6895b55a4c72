// Package validation checks user payloads with go-playground/validator and
// reports every failed rule as an ordered list of violations.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"userreg/internal/models"
	"userreg/internal/policy"

	"github.com/go-playground/validator/v10"
)

// Messages reported for each failed field.
const (
	MsgName      = "Name must be at least 2 characters long"
	MsgEmail     = "Please provide a valid email"
	MsgPassword  = "Password must be at least 8 characters long and include an uppercase letter, a lowercase letter, a number and a special character"
	MsgRole      = "Role must be one of: user, admin, developer"
	MsgPhone     = "Please provide a valid phone number"
	MsgSkills    = "Skills must be an array"
	MsgSkillItem = "Each skill must be a string"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9\s\-().]{7,20}$`)

var fieldMessages = map[string]string{
	"Name":     MsgName,
	"Email":    MsgEmail,
	"Password": MsgPassword,
	"Role":     MsgRole,
	"Phone":    MsgPhone,
}

// Violation is one failed rule, shaped like the entries of the
// `{ errors: [...] }` response body.
type Violation struct {
	Type     string `json:"type"`
	Msg      string `json:"msg"`
	Path     string `json:"path"`
	Location string `json:"location"`
}

// FieldViolation builds a body field violation.
func FieldViolation(path, msg string) Violation {
	return Violation{Type: "field", Msg: msg, Path: path, Location: "body"}
}

// Validator validates user payloads. It is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator with the custom password and phone tags registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return policy.IsValid(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return &Validator{validate: v}
}

// User validates a normalized payload. The password rule is applied only
// when checkPassword is set; an update with an empty password keeps the
// stored hash and skips it.
func (v *Validator) User(in models.UserInput, checkPassword bool) []Violation {
	var err error
	if checkPassword {
		err = v.validate.Struct(in)
	} else {
		err = v.validate.StructExcept(in, "Password")
	}

	var violations []Violation
	if err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return []Violation{FieldViolation("", err.Error())}
		}
		for _, fe := range verrs {
			msg, ok := fieldMessages[fe.StructField()]
			if !ok {
				msg = "Invalid value"
			}
			violations = append(violations, FieldViolation(fe.Field(), msg))
		}
	}

	switch {
	case in.Skills.Malformed:
		violations = append(violations, FieldViolation("skills", MsgSkills))
	case in.Skills.NonString:
		violations = append(violations, FieldViolation("skills", MsgSkillItem))
	}
	return violations
}
