// Package policy holds the password strength rules shared by the form
// client and the record service.
package policy

import (
	"strings"
	"unicode/utf8"
)

// MinPasswordLength is the shortest password the policy accepts.
const MinPasswordLength = 8

// SpecialCharacters is the set a password must draw at least one character from.
const SpecialCharacters = `!@#$%^&*(),.?":{}|<>`

// Checks reports each password predicate independently so a form can show
// which rules are still unmet.
type Checks struct {
	MinLength    bool `json:"minLength"`
	HasUppercase bool `json:"hasUppercase"`
	HasLowercase bool `json:"hasLowercase"`
	HasNumber    bool `json:"hasNumber"`
	HasSpecial   bool `json:"hasSpecial"`
}

// Check evaluates every predicate against password.
func Check(password string) Checks {
	var c Checks
	c.MinLength = utf8.RuneCountInString(password) >= MinPasswordLength
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			c.HasUppercase = true
		case r >= 'a' && r <= 'z':
			c.HasLowercase = true
		case r >= '0' && r <= '9':
			c.HasNumber = true
		case strings.ContainsRune(SpecialCharacters, r):
			c.HasSpecial = true
		}
	}
	return c
}

// Valid is true when all predicates hold.
func (c Checks) Valid() bool {
	return c.MinLength && c.HasUppercase && c.HasLowercase && c.HasNumber && c.HasSpecial
}

// IsValid is shorthand for Check(password).Valid().
func IsValid(password string) bool {
	return Check(password).Valid()
}
