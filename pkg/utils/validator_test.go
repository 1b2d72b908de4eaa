package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Email      string `json:"email" validate:"required,email"`
	NationalID string `json:"nationalId" validate:"omitempty,national_id"`
	Country    string `json:"country" validate:"omitempty,iso3166_1_alpha2"`
	Nickname   string `validate:"max=3"`
}

func TestValidateStructUsesJSONNames(t *testing.T) {
	errs := ValidateStruct(&sample{Email: "nope", NationalID: "123", Country: "XX", Nickname: "toolong"})

	assert.Equal(t, "Invalid email format", errs["email"])
	assert.Equal(t, "Must be a 14 digit national ID", errs["nationalId"])
	assert.Equal(t, "Must be an ISO 3166 two-letter country code", errs["country"])
	assert.Equal(t, "Maximum length is 3", errs["Nickname"])
}

func TestValidateStructPasses(t *testing.T) {
	errs := ValidateStruct(&sample{Email: "a@b.io", NationalID: "29801011234567", Country: "EG"})
	assert.Empty(t, errs)
}

func TestFormatValidationErrorsIsSorted(t *testing.T) {
	got := FormatValidationErrors(map[string]string{
		"phone": "Invalid phone number for the given country",
		"email": "Invalid email format",
	})
	assert.Equal(t, "email: Invalid email format; phone: Invalid phone number for the given country", got)
}

func TestValidPhone(t *testing.T) {
	cases := []struct {
		phone  string
		region string
		want   bool
	}{
		{"01012345678", "EG", true},
		{"+201012345678", "", true},
		{"01012345678", "eg", true},
		{"12345", "EG", false},
		{"not a phone", "EG", false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, ValidPhone(tc.phone, tc.region), "%s/%s", tc.phone, tc.region)
	}
}

func TestPasswordMeetsPolicy(t *testing.T) {
	assert.True(t, PasswordMeetsPolicy("secret", true))
	assert.False(t, PasswordMeetsPolicy("short", true))

	assert.True(t, PasswordMeetsPolicy("hunter2!x", false))
	assert.False(t, PasswordMeetsPolicy("hunter22x", false), "missing symbol")
	assert.False(t, PasswordMeetsPolicy("hunter!!x", false), "missing digit")
	assert.False(t, PasswordMeetsPolicy("h2!", false), "too short")
}

func TestBcryptLenCountsBytes(t *testing.T) {
	type body struct {
		Password string `json:"password" validate:"required,bcrypt_len"`
	}

	assert.Empty(t, ValidateStruct(&body{Password: strings.Repeat("a", 72)}))
	assert.Empty(t, ValidateStruct(&body{Password: strings.Repeat("é", 36)}))

	errs := ValidateStruct(&body{Password: strings.Repeat("é", 60) + "1!"})
	assert.Equal(t, "Must be at most 72 bytes", errs["password"])
}
