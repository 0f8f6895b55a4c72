package policy_test

import (
	"testing"

	"userreg/internal/policy"

	"github.com/stretchr/testify/assert"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     policy.Checks
	}{
		{
			name:     "empty",
			password: "",
			want:     policy.Checks{},
		},
		{
			name:     "only lowercase",
			password: "abcdefgh",
			want:     policy.Checks{MinLength: true, HasLowercase: true},
		},
		{
			name:     "short but mixed",
			password: "Ab1!",
			want:     policy.Checks{HasUppercase: true, HasLowercase: true, HasNumber: true, HasSpecial: true},
		},
		{
			name:     "all rules",
			password: "Secret1!",
			want:     policy.Checks{MinLength: true, HasUppercase: true, HasLowercase: true, HasNumber: true, HasSpecial: true},
		},
		{
			name:     "special outside the set",
			password: "Secret12-",
			want:     policy.Checks{MinLength: true, HasUppercase: true, HasLowercase: true, HasNumber: true},
		},
		{
			name:     "non ascii letters do not count as case",
			password: "ÄÖÜäöü1!",
			want:     policy.Checks{MinLength: true, HasNumber: true, HasSpecial: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := policy.Check(tt.password)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChecksValid(t *testing.T) {
	assert.True(t, policy.IsValid("Str0ng{pass}"))
	assert.False(t, policy.IsValid("Str0ngpass"))
	assert.False(t, policy.IsValid("str0ng{pass}"))
	assert.False(t, policy.IsValid("STR0NG{PASS}"))
	assert.False(t, policy.IsValid("Strong{pass}"))
	assert.False(t, policy.IsValid("S0{p}"))

	// every special character in the set satisfies the rule on its own
	for _, r := range policy.SpecialCharacters {
		assert.True(t, policy.IsValid("Passw0rd"+string(r)), "special %q", r)
	}
}
