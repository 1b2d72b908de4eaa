package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"account-provisioning/internal/data/entity"
	"account-provisioning/internal/data/remote"
	"account-provisioning/internal/data/repository"
	"account-provisioning/internal/dto/request"
	"account-provisioning/internal/dto/response"
	"account-provisioning/pkg/metrics"
	"account-provisioning/pkg/token"
	"account-provisioning/pkg/tracing"
	"account-provisioning/pkg/utils"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// saga states, recorded as span events and log fields
const (
	stateValidating         = "Validating"
	stateCheckingUniqueness = "CheckingUniqueness"
	stateCreatingAccount    = "CreatingAccount"
	stateProvisioning       = "ProvisioningVendorProfile"
	stateCompensating       = "CompensatingRollback"
	stateCompleted          = "Completed"
)

const (
	defaultRollbackTimeout  = 10 * time.Second
	defaultRollbackAttempts = 3
)

type RegisterService interface {
	Register(ctx context.Context, req *request.RegisterRequest) (*response.AuthResponse, error)
}

type registerService struct {
	repo     repository.PrincipalRepository
	vendors  remote.VendorClient
	sessions *token.SessionIssuer
	trust    *token.ServiceTrustMinter
	log      *zap.Logger

	rollbackTimeout  time.Duration
	rollbackAttempts uint
	rollbackBackOff  func() backoff.BackOff
}

func NewRegisterService(
	repo repository.PrincipalRepository,
	vendors remote.VendorClient,
	sessions *token.SessionIssuer,
	trust *token.ServiceTrustMinter,
	log *zap.Logger,
) RegisterService {
	return &registerService{
		repo:             repo,
		vendors:          vendors,
		sessions:         sessions,
		trust:            trust,
		log:              log.With(zap.String("service", "register")),
		rollbackTimeout:  defaultRollbackTimeout,
		rollbackAttempts: defaultRollbackAttempts,
		rollbackBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			return b
		},
	}
}

func (s *registerService) Register(ctx context.Context, req *request.RegisterRequest) (*response.AuthResponse, error) {
	ctx, span := tracing.Tracer().Start(ctx, "registration.saga")
	defer span.End()

	// 1. Validating
	req.Normalize()
	log := s.log.With(zap.String("email", repository.NormalizeEmail(req.Email)), zap.String("role", string(req.Role)))
	enterState(span, stateValidating)

	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		log.Warn("Register validation failed", zap.Any("errors", errs))
		metrics.ObserveRegistration(roleLabel(req.Role), "rejected")
		return nil, newValidationError(errs)
	}
	span.SetAttributes(attribute.String("principal.role", string(req.Role)))

	// 2. CheckingUniqueness
	enterState(span, stateCheckingUniqueness)
	existing, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		log.Error("Failed to check email", zap.Error(err))
		metrics.ObserveRegistration(string(req.Role), "failed")
		return nil, failSpan(span, newInternalError("failed to check email", err))
	}
	if existing != nil {
		log.Warn("Email already registered")
		metrics.ObserveRegistration(string(req.Role), "conflict")
		return nil, newConflictError("email already registered")
	}

	// 3. CreatingAccount
	enterState(span, stateCreatingAccount)
	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		metrics.ObserveRegistration(string(req.Role), "failed")
		return nil, failSpan(span, newInternalError("failed to process password", err))
	}

	principal := &entity.Principal{
		Name:         req.DisplayName(),
		Email:        req.Email,
		PasswordHash: hashedPassword,
		Role:         req.Role,
		IsActive:     true,
		Country:      optional(req.Country),
		Governorate:  optional(req.Governorate),
		Phone:        optional(req.Phone),
		NationalID:   optional(req.NationalID),
	}

	if err := s.repo.Create(ctx, principal); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			// lost the race against a concurrent registration
			log.Warn("Email registered concurrently")
			metrics.ObserveRegistration(string(req.Role), "conflict")
			return nil, newConflictError("email already registered")
		}
		log.Error("Failed to create principal", zap.Error(err))
		metrics.ObserveRegistration(string(req.Role), "failed")
		return nil, failSpan(span, newInternalError("failed to create account", err))
	}

	log = log.With(zap.Int64("principal_id", principal.ID))
	span.SetAttributes(attribute.Int64("principal.id", principal.ID))

	// the rest of the saga must finish even if the caller goes away
	sagaCtx := context.WithoutCancel(ctx)

	// 4. ProvisioningVendorProfile
	var vendor *entity.VendorProfile
	if principal.IsVendor() {
		enterState(span, stateProvisioning)
		vendor, err = s.provisionVendor(sagaCtx, principal)
		if err != nil {
			// 5. CompensatingRollback
			enterState(span, stateCompensating)
			log.Warn("Vendor provisioning failed, rolling back", zap.Error(err))
			s.compensate(sagaCtx, log, principal)

			metrics.ObserveRegistration(string(req.Role), "rolled_back")
			return nil, failSpan(span, newUpstreamError(provisioningReason(err), err))
		}
	}

	// 6. Completed
	signed, expiresAt, err := s.sessions.Issue(principal.ID, string(principal.Role), principal.VendorID)
	if err != nil {
		log.Error("Failed to issue session", zap.Error(err))
		metrics.ObserveRegistration(string(req.Role), "failed")
		return nil, failSpan(span, newInternalError("failed to issue session", err))
	}
	enterState(span, stateCompleted)

	log.Info("Principal registered", zap.Int64p("vendor_id", principal.VendorID))
	metrics.ObserveRegistration(string(req.Role), "completed")

	resp := response.AuthToResponse(principal, vendor, signed, expiresAt)
	return &resp, nil
}

// provisionVendor creates the vendor profile and links it. The principal's
// VendorID is only set once the link is stored.
func (s *registerService) provisionVendor(ctx context.Context, p *entity.Principal) (*entity.VendorProfile, error) {
	trustToken, err := s.trust.Mint(p.ID)
	if err != nil {
		return nil, fmt.Errorf("mint service trust token: %w", err)
	}

	body := remote.CreateProfileRequest{
		UserID:      p.ID,
		StoreName:   p.Name + "'s Store",
		Email:       p.Email,
		Phone:       deref(p.Phone),
		Country:     deref(p.Country),
		Governorate: deref(p.Governorate),
	}

	start := time.Now()
	profile, err := s.vendors.CreateProfile(ctx, body, trustToken)
	if err != nil {
		metrics.ObserveVendorProvision("error", time.Since(start))
		return nil, err
	}
	metrics.ObserveVendorProvision("success", time.Since(start))

	if err := s.repo.LinkVendor(ctx, p.ID, profile.ID); err != nil {
		return nil, fmt.Errorf("link vendor profile %d: %w", profile.ID, err)
	}

	vendorID := profile.ID
	p.VendorID = &vendorID
	return profile, nil
}

// compensate deletes the half-created principal. A failure here leaves an
// orphan for the reconciliation sweep and never replaces the provisioning error.
func (s *registerService) compensate(ctx context.Context, log *zap.Logger, p *entity.Principal) {
	ctx, cancel := context.WithTimeout(ctx, s.rollbackTimeout)
	defer cancel()

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, s.repo.Delete(ctx, p.ID)
	},
		backoff.WithBackOff(s.rollbackBackOff()),
		backoff.WithMaxTries(s.rollbackAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Warn("Rollback attempt failed, retrying", zap.Error(err), zap.Duration("backoff", next))
		}),
	)
	if err != nil {
		log.Error("Rollback failed, orphaned account left behind",
			zap.String("email", p.Email),
			zap.Error(err),
		)
		metrics.ObserveCompensation("error")
		metrics.IncOrphaned()
		return
	}

	log.Info("Rolled back principal after provisioning failure")
	metrics.ObserveCompensation("success")
}

func provisioningReason(err error) string {
	var perr *remote.ProvisioningError
	if errors.As(err, &perr) {
		return perr.Message
	}
	return err.Error()
}

func enterState(span trace.Span, state string) {
	span.AddEvent("saga.state", trace.WithAttributes(attribute.String("state", state)))
}

func failSpan(span trace.Span, err *AppError) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Message)
	return err
}

// roleLabel keeps unvalidated input out of metric labels.
func roleLabel(role entity.Role) string {
	if role.Valid() {
		return string(role)
	}
	return "unknown"
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
