package wire

import (
	"account-provisioning/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireAuth(r chi.Router, authHandler *adaptor.AuthHandler) {
	// ==================== PUBLIC ROUTES ====================
	r.Post("/register", authHandler.Register)
	r.Post("/login", authHandler.Login)
	r.Post("/forgotPassword", authHandler.ForgotPassword)
	r.Post("/resetPassword", authHandler.ResetPassword)
}
