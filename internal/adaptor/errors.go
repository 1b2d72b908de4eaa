package adaptor

import (
	"errors"
	"net/http"

	"account-provisioning/internal/usecase"
	"account-provisioning/pkg/utils"

	"go.uber.org/zap"
)

// handleServiceError maps usecase errors onto HTTP responses. Client errors
// are logged at warn, everything else at error.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var appErr *usecase.AppError
	if !errors.As(err, &appErr) {
		log.Error("Failed to "+operation, zap.Error(err), zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error", nil)
		return
	}

	switch appErr.Kind {
	case usecase.KindValidation:
		log.Warn(operation+" validation failed", zap.Any("errors", appErr.Fields))
		utils.ResponseValidation(w, appErr.Fields)

	case usecase.KindConflict:
		log.Warn(operation+" failed - already exists", zap.Error(err))
		utils.ResponseBadRequest(w, appErr.Message, map[string]string{"email": appErr.Message})

	case usecase.KindAuthentication:
		log.Warn(operation+" failed - unauthenticated", zap.Error(err))
		utils.ResponseUnauthorized(w, appErr.Message)

	case usecase.KindLocked:
		log.Warn(operation+" failed - account locked", zap.String("locked_until", appErr.LockedUntil))
		utils.ResponseLocked(w, appErr.Message, map[string]string{"lockedUntil": appErr.LockedUntil})

	case usecase.KindInactiveAccount:
		log.Warn(operation+" failed - account deactivated", zap.Error(err))
		utils.ResponseForbidden(w, appErr.Message)

	case usecase.KindNotFound:
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, appErr.Message)

	case usecase.KindUpstreamProvisioning:
		log.Error(operation+" failed - vendor provisioning", zap.Error(err))
		utils.ResponseInternalError(w, appErr.Message, nil)

	default:
		log.Error("Failed to "+operation, zap.Error(err), zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error", nil)
	}
}
