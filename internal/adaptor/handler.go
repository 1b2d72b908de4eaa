package adaptor

import (
	"account-provisioning/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Auth      *AuthHandler
	Principal *PrincipalHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Auth:      NewAuthHandler(service.Register, service.Auth, service.Reset, log),
		Principal: NewPrincipalHandler(service.Principal, service.Reconcile, log),
	}
}
