package usecase

import (
	"context"
	"errors"
	"time"

	"account-provisioning/internal/data/entity"
	"account-provisioning/internal/data/repository"
	"account-provisioning/internal/dto/request"
	"account-provisioning/internal/dto/response"
	"account-provisioning/pkg/utils"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type ResetService interface {
	ForgotPassword(ctx context.Context, req *request.ForgotPasswordRequest) (*response.ForgotPasswordResponse, error)
	ResetPassword(ctx context.Context, req *request.ResetPasswordRequest) error
}

type resetService struct {
	repo  repository.PrincipalRepository
	ttl   time.Duration
	clock clockwork.Clock
	log   *zap.Logger
}

func NewResetService(repo repository.PrincipalRepository, ttl time.Duration, clock clockwork.Clock, log *zap.Logger) ResetService {
	return &resetService{
		repo:  repo,
		ttl:   ttl,
		clock: clock,
		log:   log.With(zap.String("service", "reset")),
	}
}

// ForgotPassword issues a new reset ticket, replacing any previous one.
// Unknown emails get an empty response so callers cannot probe for accounts.
func (s *resetService) ForgotPassword(ctx context.Context, req *request.ForgotPasswordRequest) (*response.ForgotPasswordResponse, error) {
	// 1. Validate
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Forgot password validation failed", zap.Any("errors", errs))
		return nil, newValidationError(errs)
	}

	// 2. Find principal
	principal, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		s.log.Error("Failed to find principal for reset", zap.Error(err))
		return nil, newInternalError("failed to process request", err)
	}
	if principal == nil {
		s.log.Info("Reset requested for unknown email", zap.String("email", repository.NormalizeEmail(req.Email)))
		return &response.ForgotPasswordResponse{}, nil
	}

	// 3. Generate secret, only its digest is stored
	secret, err := utils.GenerateResetSecret()
	if err != nil {
		s.log.Error("Failed to generate reset secret", zap.Error(err))
		return nil, newInternalError("failed to process request", err)
	}
	expiresAt := s.clock.Now().Add(s.ttl)

	// 4. Store ticket
	if err := s.repo.SetResetTicket(ctx, principal.ID, utils.HashResetSecret(secret), expiresAt); err != nil {
		s.log.Error("Failed to store reset ticket", zap.Error(err), zap.Int64("principal_id", principal.ID))
		return nil, newInternalError("failed to process request", err)
	}

	s.log.Info("Reset ticket issued", zap.Int64("principal_id", principal.ID), zap.Time("expires_at", expiresAt))

	return &response.ForgotPasswordResponse{ResetToken: secret, ExpiresAt: &expiresAt}, nil
}

// ResetPassword redeems a ticket. Failed attempts leave the ticket in place.
func (s *resetService) ResetPassword(ctx context.Context, req *request.ResetPasswordRequest) error {
	// 1. Validate
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Reset password validation failed", zap.Any("errors", errs))
		return newValidationError(errs)
	}

	// 2. Match ticket
	tokenHash := utils.HashResetSecret(req.Token)
	principal, err := s.repo.FindByResetTokenHash(ctx, tokenHash)
	if err != nil {
		s.log.Error("Failed to look up reset ticket", zap.Error(err))
		return newInternalError("failed to reset password", err)
	}
	if principal == nil || principal.ResetTokenExpiresAt == nil || !principal.ResetTokenExpiresAt.After(s.clock.Now()) {
		s.log.Warn("Invalid or expired reset ticket")
		return newAuthenticationError(MsgInvalidResetToken)
	}

	log := s.log.With(zap.Int64("principal_id", principal.ID))

	// 3. Password strength follows the principal's role
	relaxed := principal.Role == entity.RoleAdmin
	if !utils.PasswordMeetsPolicy(req.Password, relaxed) {
		log.Warn("Weak password on reset")
		return newValidationError(map[string]string{"password": utils.PasswordRuleDescription(relaxed)})
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return newInternalError("failed to reset password", err)
	}

	// 4. Redeem
	if err := s.repo.RedeemResetTicket(ctx, principal.ID, tokenHash, hashedPassword); err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			log.Warn("Reset ticket already redeemed")
			return newAuthenticationError(MsgInvalidResetToken)
		}
		log.Error("Failed to redeem reset ticket", zap.Error(err))
		return newInternalError("failed to reset password", err)
	}

	log.Info("Password reset")
	return nil
}
