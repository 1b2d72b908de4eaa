package utils

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"
)

const (
	StrictPasswordMinLength  = 8
	RelaxedPasswordMinLength = 6

	// MaxPasswordBytes is the bcrypt input limit. It counts bytes, not runes.
	MaxPasswordBytes = 72

	// DefaultPhoneRegion is used when a request carries no country.
	DefaultPhoneRegion = "EG"
)

var nationalIDPattern = regexp.MustCompile(`^[0-9]{14}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report json field names so error maps line up with request bodies
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("national_id", func(fl validator.FieldLevel) bool {
		return nationalIDPattern.MatchString(fl.Field().String())
	})

	_ = v.RegisterValidation("bcrypt_len", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= MaxPasswordBytes
	})

	return v
}

// RegisterStructValidation attaches a cross-field rule to the shared validator.
func RegisterStructValidation(fn validator.StructLevelFunc, types ...any) {
	validate.RegisterStructValidation(fn, types...)
}

func ValidateStruct(data any) map[string]string {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, err := range validationErrors {
			errors[err.Field()] = getErrorMessage(err)
		}
	}

	return errors
}

// converts validator errors to human-readable messages
func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required", "required_without", "required_with":
		return "This field is required"
	case "required_if", "required_unless":
		return "This field is required for this role"
	case "email":
		return "Invalid email format"
	case "min":
		return fmt.Sprintf("Minimum length is %s", err.Param())
	case "max":
		return fmt.Sprintf("Maximum length is %s", err.Param())
	case "len":
		return fmt.Sprintf("Must be exactly %s characters", err.Param())
	case "eqfield":
		return fmt.Sprintf("Must match %s", err.Param())
	case "oneof":
		options := strings.ReplaceAll(err.Param(), " ", ", ")
		return fmt.Sprintf("Must be one of: %s", options)
	case "iso3166_1_alpha2":
		return "Must be an ISO 3166 two-letter country code"
	case "bcrypt_len":
		return fmt.Sprintf("Must be at most %d bytes", MaxPasswordBytes)
	case "national_id":
		return "Must be a 14 digit national ID"
	case "phone":
		return "Invalid phone number for the given country"
	case "strong_password":
		return PasswordRuleDescription(err.Param() == "relaxed")
	default:
		return fmt.Sprintf("Invalid %s field", err.Field())
	}
}

// formats validation errors map into single string
func FormatValidationErrors(errors map[string]string) string {
	fields := make([]string, 0, len(errors))
	for field := range errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(fields))
	for _, field := range fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, errors[field]))
	}
	return strings.Join(msgs, "; ")
}

// ValidPhone reports whether phone is a valid number in the given ISO region.
func ValidPhone(phone, region string) bool {
	if region == "" {
		region = DefaultPhoneRegion
	}
	num, err := phonenumbers.Parse(phone, strings.ToUpper(region))
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(num)
}

// PasswordMeetsPolicy applies the relaxed rule (length only) or the strict
// rule (length, a digit and a symbol).
func PasswordMeetsPolicy(password string, relaxed bool) bool {
	length := len([]rune(password))
	if relaxed {
		return length >= RelaxedPasswordMinLength
	}
	if length < StrictPasswordMinLength {
		return false
	}

	var hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasDigit && hasSymbol
}

func PasswordRuleDescription(relaxed bool) string {
	if relaxed {
		return fmt.Sprintf("Password must be at least %d characters", RelaxedPasswordMinLength)
	}
	return fmt.Sprintf("Password must be at least %d characters and contain a digit and a symbol", StrictPasswordMinLength)
}
