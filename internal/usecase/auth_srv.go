package usecase

import (
	"context"

	"account-provisioning/internal/data/cache"
	"account-provisioning/internal/data/entity"
	"account-provisioning/internal/data/remote"
	"account-provisioning/internal/data/repository"
	"account-provisioning/internal/dto/request"
	"account-provisioning/internal/dto/response"
	"account-provisioning/pkg/metrics"
	"account-provisioning/pkg/token"
	"account-provisioning/pkg/utils"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type AuthService interface {
	Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error)
}

type authService struct {
	repo     repository.PrincipalRepository
	sessions *token.SessionIssuer
	lockout  LockoutPolicy
	enricher *vendorEnricher
	clock    clockwork.Clock
	log      *zap.Logger
}

func NewAuthService(
	repo repository.PrincipalRepository,
	sessions *token.SessionIssuer,
	lockout LockoutPolicy,
	vendors remote.VendorClient,
	vendorCache cache.VendorCache,
	clock clockwork.Clock,
	log *zap.Logger,
) AuthService {
	log = log.With(zap.String("service", "auth"))
	return &authService{
		repo:     repo,
		sessions: sessions,
		lockout:  lockout,
		enricher: &vendorEnricher{vendors: vendors, cache: vendorCache, log: log},
		clock:    clock,
		log:      log,
	}
}

func (s *authService) Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error) {
	// 1. Validate
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Login validation failed", zap.Any("errors", errs))
		return nil, newValidationError(errs)
	}

	// 2. Find principal
	principal, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		s.log.Error("Failed to find principal", zap.Error(err))
		return nil, newInternalError("failed to find account", err)
	}
	if principal == nil {
		s.log.Warn("Principal not found for login", zap.String("email", repository.NormalizeEmail(req.Email)))
		metrics.ObserveLogin("invalid_credentials")
		return nil, newAuthenticationError(MsgInvalidCredentials)
	}

	log := s.log.With(zap.Int64("principal_id", principal.ID))
	now := s.clock.Now()
	state := LockoutState{FailedAttempts: principal.FailedAttempts, LockUntil: principal.LockUntil}

	// 3. Locked accounts are refused before the password is checked
	if s.lockout.IsLocked(state, now) {
		log.Warn("Login attempt on locked account", zap.Timep("lock_until", principal.LockUntil))
		metrics.ObserveLogin("locked")
		return nil, newLockedError(*principal.LockUntil)
	}

	// 4. Check password
	if !utils.CheckPasswordHash(req.Password, principal.PasswordHash) {
		next := s.lockout.RegisterFailure(state, now)
		if err := s.repo.UpdateLockout(ctx, principal.ID, next.FailedAttempts, next.LockUntil); err != nil {
			log.Error("Failed to record failed login", zap.Error(err))
			return nil, newInternalError("failed to process login", err)
		}

		log.Warn("Invalid password", zap.Int("failed_attempts", next.FailedAttempts), zap.Timep("lock_until", next.LockUntil))
		metrics.ObserveLogin("invalid_credentials")
		return nil, newAuthenticationError(MsgInvalidCredentials)
	}

	// 5. Reset lockout
	if !state.IsZero() {
		reset := s.lockout.RegisterSuccess()
		if err := s.repo.UpdateLockout(ctx, principal.ID, reset.FailedAttempts, reset.LockUntil); err != nil {
			log.Error("Failed to reset lockout state", zap.Error(err))
			return nil, newInternalError("failed to process login", err)
		}
		principal.FailedAttempts, principal.LockUntil = reset.FailedAttempts, reset.LockUntil
	}

	// 6. Check if principal is active
	if !principal.IsActive {
		log.Warn("Inactive principal tried to login")
		metrics.ObserveLogin("inactive")
		return nil, newInactiveError()
	}

	// 7. Best-effort vendor enrichment
	var vendor *entity.VendorProfile
	if principal.IsVendor() && principal.VendorID != nil {
		vendor = s.enricher.lookup(ctx, *principal.VendorID)
	}

	// 8. Issue session
	signed, expiresAt, err := s.sessions.Issue(principal.ID, string(principal.Role), principal.VendorID)
	if err != nil {
		log.Error("Failed to issue session", zap.Error(err))
		return nil, newInternalError("failed to issue session", err)
	}

	log.Info("Principal logged in", zap.String("role", string(principal.Role)))
	metrics.ObserveLogin("success")

	resp := response.AuthToResponse(principal, vendor, signed, expiresAt)
	return &resp, nil
}
