package usecase

import (
	"account-provisioning/internal/data/cache"
	"account-provisioning/internal/data/remote"
	"account-provisioning/internal/data/repository"
	"account-provisioning/pkg/token"
	"account-provisioning/pkg/utils"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type Service struct {
	Register  RegisterService
	Auth      AuthService
	Reset     ResetService
	Principal PrincipalService
	Reconcile ReconcileService
}

// Dependencies groups the collaborators every service is built from.
type Dependencies struct {
	Repo        *repository.Repository
	Vendors     remote.VendorClient
	VendorCache cache.VendorCache
	Sessions    *token.SessionIssuer
	Trust       *token.ServiceTrustMinter
	Clock       clockwork.Clock
}

func NewService(deps Dependencies, config *utils.Config, log *zap.Logger) *Service {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.VendorCache == nil {
		deps.VendorCache = cache.NewNopVendorCache()
	}

	principals := deps.Repo.Principal
	lockout := NewLockoutPolicy(config.Lockout.Threshold, config.LockoutDuration())

	return &Service{
		Register:  NewRegisterService(principals, deps.Vendors, deps.Sessions, deps.Trust, log),
		Auth:      NewAuthService(principals, deps.Sessions, lockout, deps.Vendors, deps.VendorCache, deps.Clock, log),
		Reset:     NewResetService(principals, config.ResetTTL(), deps.Clock, log),
		Principal: NewPrincipalService(principals, deps.Vendors, deps.VendorCache, log),
		Reconcile: NewReconcileService(principals, deps.Vendors, config.Reconcile.Grace, config.Reconcile.Batch, deps.Clock, log),
	}
}
