package response

import (
	"time"

	"account-provisioning/internal/data/entity"
)

type AuthResponse struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expiresAt"`
	Principal PrincipalResponse `json:"principal"`
}

// PrincipalResponse is the sanitized principal view; the password hash and
// reset/lockout state never leave the service.
type PrincipalResponse struct {
	ID          int64                 `json:"id"`
	Name        string                `json:"name"`
	Email       string                `json:"email"`
	Role        entity.Role           `json:"role"`
	VendorID    *int64                `json:"vendorId"`
	IsActive    bool                  `json:"isActive"`
	Country     *string               `json:"country,omitempty"`
	Governorate *string               `json:"governorate,omitempty"`
	Phone       *string               `json:"phone,omitempty"`
	CreatedAt   time.Time             `json:"createdAt"`
	Vendor      *entity.VendorProfile `json:"vendor,omitempty"`
}

type ForgotPasswordResponse struct {
	ResetToken string     `json:"resetToken,omitempty"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

// Helper converters
func PrincipalToResponse(p *entity.Principal, vendor *entity.VendorProfile) PrincipalResponse {
	return PrincipalResponse{
		ID:          p.ID,
		Name:        p.Name,
		Email:       p.Email,
		Role:        p.Role,
		VendorID:    p.VendorID,
		IsActive:    p.IsActive,
		Country:     p.Country,
		Governorate: p.Governorate,
		Phone:       p.Phone,
		CreatedAt:   p.CreatedAt,
		Vendor:      vendor,
	}
}

func AuthToResponse(p *entity.Principal, vendor *entity.VendorProfile, token string, expiresAt time.Time) AuthResponse {
	return AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Principal: PrincipalToResponse(p, vendor),
	}
}
