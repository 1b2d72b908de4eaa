package utils

import (
	"context"
)

type contextKey string

const (
	PrincipalIDKey contextKey = "principal_id"
	RoleKey        contextKey = "role"
	VendorIDKey    contextKey = "vendor_id"
)

// SetPrincipalContext stores the verified session claims for downstream handlers.
func SetPrincipalContext(ctx context.Context, principalID int64, role string, vendorID *int64) context.Context {
	ctx = context.WithValue(ctx, PrincipalIDKey, principalID)
	ctx = context.WithValue(ctx, RoleKey, role)
	if vendorID != nil {
		ctx = context.WithValue(ctx, VendorIDKey, *vendorID)
	}
	return ctx
}

func GetPrincipalIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(PrincipalIDKey).(int64)
	return id, ok && id > 0
}

func GetRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleKey).(string)
	return role, ok
}

func GetVendorIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(VendorIDKey).(int64)
	return id, ok
}
