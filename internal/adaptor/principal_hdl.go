package adaptor

import (
	"net/http"
	"strconv"

	"account-provisioning/internal/dto/request"
	"account-provisioning/internal/usecase"
	"account-provisioning/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type PrincipalHandler struct {
	principal usecase.PrincipalService
	reconcile usecase.ReconcileService
	log       *zap.Logger
}

func NewPrincipalHandler(principal usecase.PrincipalService, reconcile usecase.ReconcileService, log *zap.Logger) *PrincipalHandler {
	return &PrincipalHandler{
		principal: principal,
		reconcile: reconcile,
		log:       log,
	}
}

// Me handles GET /api/principal/me
func (h *PrincipalHandler) Me(w http.ResponseWriter, r *http.Request) {
	principalID, ok := utils.GetPrincipalIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	response, err := h.principal.GetProfile(r.Context(), principalID)
	if err != nil {
		handleServiceError(w, h.log, err, "get principal")
		return
	}

	utils.ResponseSuccess(w, "Principal retrieved", response)
}

// SetStatus handles PATCH /api/admin/principals/{id}/status
func (h *PrincipalHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		utils.ResponseBadRequest(w, "Invalid principal ID", nil)
		return
	}

	var req request.UpdateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseValidation(w, validationErrors)
		return
	}

	response, err := h.principal.SetActive(r.Context(), id, *req.Active)
	if err != nil {
		handleServiceError(w, h.log, err, "update principal status")
		return
	}

	utils.ResponseSuccess(w, "Principal status updated", response)
}

// ListOrphans handles GET /api/admin/principals/orphans
func (h *PrincipalHandler) ListOrphans(w http.ResponseWriter, r *http.Request) {
	orphans, err := h.reconcile.ListOrphans(r.Context())
	if err != nil {
		handleServiceError(w, h.log, err, "list orphans")
		return
	}

	utils.ResponseSuccess(w, "Orphaned vendor principals", orphans)
}

// Reconcile handles POST /api/admin/reconcile
func (h *PrincipalHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconcile.Reconcile(r.Context())
	if err != nil {
		handleServiceError(w, h.log, err, "reconcile")
		return
	}

	utils.ResponseSuccess(w, "Reconciliation pass finished", report)
}
