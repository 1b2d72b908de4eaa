package wire

import (
	"account-provisioning/internal/adaptor"
	"account-provisioning/pkg/middleware"
	"account-provisioning/pkg/token"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// wirePrincipal configures session and admin protected principal routes
func wirePrincipal(
	r chi.Router,
	principalHandler *adaptor.PrincipalHandler,
	sessions *token.SessionIssuer,
	log *zap.Logger,
) {
	// ==================== PROTECTED ROUTES ====================
	r.With(middleware.AuthSession(sessions, log)).Get("/api/principal/me", principalHandler.Me)

	// ==================== ADMIN ROUTES ====================
	r.With(
		middleware.AuthSession(sessions, log),
		middleware.Admin(log),
	).Route("/api/admin", func(r chi.Router) {
		r.Get("/principals/orphans", principalHandler.ListOrphans)      // GET /api/admin/principals/orphans
		r.Patch("/principals/{id}/status", principalHandler.SetStatus) // PATCH /api/admin/principals/{id}/status
		r.Post("/reconcile", principalHandler.Reconcile)               // POST /api/admin/reconcile
	})
}
