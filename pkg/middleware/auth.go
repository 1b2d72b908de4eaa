package middleware

import (
	"errors"
	"net/http"
	"strings"

	"account-provisioning/internal/data/entity"
	"account-provisioning/pkg/token"
	"account-provisioning/pkg/utils"

	"go.uber.org/zap"
)

// AuthSession verifies the bearer session token and stores its claims in the
// request context. Only session tokens pass; service trust tokens are rejected.
func AuthSession(sessions *token.SessionIssuer, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.ResponseUnauthorized(w, "Missing authorization token")
				return
			}

			scheme, raw, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
				utils.ResponseUnauthorized(w, "Invalid token format. Use: Bearer <token>")
				return
			}

			claims, err := sessions.Verify(strings.TrimSpace(raw))
			if err != nil {
				msg := "Invalid session token"
				if errors.Is(err, token.ErrTokenExpired) {
					msg = "Session expired"
				}
				logger.Warn("Session rejected", zap.Error(err), zap.String("path", r.URL.Path))
				utils.ResponseUnauthorized(w, msg)
				return
			}

			ctx := utils.SetPrincipalContext(r.Context(), claims.PrincipalID, claims.Role, claims.VendorID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Admin requires AuthSession to have run and the session role to be admin.
func Admin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principalID, ok := utils.GetPrincipalIDFromContext(r.Context())
			if !ok {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			role, _ := utils.GetRoleFromContext(r.Context())
			if role != string(entity.RoleAdmin) {
				logger.Warn("Admin check: non-admin access attempt",
					zap.Int64("principal_id", principalID),
					zap.String("role", role),
					zap.String("path", r.URL.Path))
				utils.ResponseForbidden(w, "Admin access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
