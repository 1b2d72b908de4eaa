package request

import (
	"strings"

	"account-provisioning/internal/data/entity"
	"account-provisioning/pkg/utils"

	"github.com/go-playground/validator/v10"
)

func init() {
	utils.RegisterStructValidation(registerRules, RegisterRequest{})
}

// RegisterRequest accepts either name or firstName/lastName as the display name.
type RegisterRequest struct {
	Name            string      `json:"name" validate:"omitempty,max=100"`
	FirstName       string      `json:"firstName" validate:"omitempty,max=50"`
	LastName        string      `json:"lastName" validate:"omitempty,max=50"`
	Email           string      `json:"email" validate:"required,email,max=255"`
	Password        string      `json:"password" validate:"required,bcrypt_len"`
	ConfirmPassword string      `json:"confirmPassword" validate:"required,eqfield=Password"`
	Role            entity.Role `json:"role" validate:"required,oneof=customer vendor admin"`
	Country         string      `json:"country" validate:"omitempty,iso3166_1_alpha2"`
	Governorate     string      `json:"governorate" validate:"omitempty,max=100"`
	Phone           string      `json:"phone" validate:"omitempty,max=20"`
	NationalID      string      `json:"nationalId" validate:"omitempty,national_id"`
}

func (r *RegisterRequest) DisplayName() string {
	if name := strings.TrimSpace(r.Name); name != "" {
		return name
	}
	return strings.TrimSpace(strings.TrimSpace(r.FirstName) + " " + strings.TrimSpace(r.LastName))
}

// Normalize trims free-text fields and upper-cases the country code before validation.
func (r *RegisterRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.Country = strings.ToUpper(strings.TrimSpace(r.Country))
	r.Governorate = strings.TrimSpace(r.Governorate)
	r.Phone = strings.TrimSpace(r.Phone)
	r.NationalID = strings.TrimSpace(r.NationalID)
}

// role dependent presence, phone format and password strength
func registerRules(sl validator.StructLevel) {
	r := sl.Current().Interface().(RegisterRequest)

	if r.DisplayName() == "" {
		sl.ReportError(r.Name, "name", "Name", "required", "")
	}

	if r.Role != entity.RoleAdmin {
		if r.Country == "" {
			sl.ReportError(r.Country, "country", "Country", "required_if", "")
		}
		if r.Governorate == "" {
			sl.ReportError(r.Governorate, "governorate", "Governorate", "required_if", "")
		}
		if r.Phone == "" {
			sl.ReportError(r.Phone, "phone", "Phone", "required_if", "")
		}
	}
	if r.Role == entity.RoleVendor && r.NationalID == "" {
		sl.ReportError(r.NationalID, "nationalId", "NationalID", "required_if", "")
	}

	if r.Phone != "" && !utils.ValidPhone(r.Phone, r.Country) {
		sl.ReportError(r.Phone, "phone", "Phone", "phone", r.Country)
	}

	relaxed := r.Role == entity.RoleAdmin
	if r.Password != "" && len(r.Password) <= utils.MaxPasswordBytes && !utils.PasswordMeetsPolicy(r.Password, relaxed) {
		sl.ReportError(r.Password, "password", "Password", "strong_password", passwordRuleParam(relaxed))
	}
}

func passwordRuleParam(relaxed bool) string {
	if relaxed {
		return "relaxed"
	}
	return "strict"
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required,bcrypt_len"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}
