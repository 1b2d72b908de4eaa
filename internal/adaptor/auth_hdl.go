package adaptor

import (
	"encoding/json"
	"net/http"

	"account-provisioning/internal/dto/request"
	"account-provisioning/internal/usecase"
	"account-provisioning/pkg/utils"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 16

type AuthHandler struct {
	register usecase.RegisterService
	auth     usecase.AuthService
	reset    usecase.ResetService
	log      *zap.Logger
}

func NewAuthHandler(register usecase.RegisterService, auth usecase.AuthService, reset usecase.ResetService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		register: register,
		auth:     auth,
		reset:    reset,
		log:      log,
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return false
	}
	return true
}

// Register handles POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	response, err := h.register.Register(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "register")
		return
	}

	utils.ResponseCreated(w, "Registration successful", response)
}

// Login handles POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	response, err := h.auth.Login(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "login")
		return
	}

	utils.ResponseSuccess(w, "Login successful", response)
}

// ForgotPassword handles POST /forgotPassword. The reply is the same whether
// or not the email exists.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req request.ForgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	response, err := h.reset.ForgotPassword(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "forgot password")
		return
	}

	utils.ResponseSuccess(w, "If the email is registered, a reset token has been issued", response)
}

// ResetPassword handles POST /resetPassword
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req request.ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.reset.ResetPassword(r.Context(), &req); err != nil {
		// a bad ticket is a client input problem here, not a session failure
		if usecase.KindOf(err) == usecase.KindAuthentication {
			h.log.Warn("reset password failed - invalid ticket")
			utils.ResponseBadRequest(w, usecase.MsgInvalidResetToken, nil)
			return
		}
		handleServiceError(w, h.log, err, "reset password")
		return
	}

	utils.ResponseSuccess(w, "Password has been reset", nil)
}
