package entity

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleVendor, RoleAdmin:
		return true
	}
	return false
}

// Principal is an account record. VendorID is only set for vendors whose
// profile was provisioned; a vendor with a nil VendorID is mid-saga or orphaned.
type Principal struct {
	Base
	Name         string  `db:"name"`
	Email        string  `db:"email"`
	PasswordHash string  `db:"password_hash"`
	Role         Role    `db:"role"`
	VendorID     *int64  `db:"vendor_id"`
	IsActive     bool    `db:"is_active"`
	Country      *string `db:"country"`
	Governorate  *string `db:"governorate"`
	Phone        *string `db:"phone"`
	NationalID   *string `db:"national_id"`

	FailedAttempts int        `db:"failed_attempts"`
	LockUntil      *time.Time `db:"lock_until"`

	ResetTokenHash      *string    `db:"reset_token_hash"`
	ResetTokenExpiresAt *time.Time `db:"reset_token_expires_at"`
}

func (p *Principal) IsVendor() bool {
	return p.Role == RoleVendor
}
