package usecase

import (
	"context"
	"errors"
	"time"

	"account-provisioning/internal/data/entity"
	"account-provisioning/internal/data/remote"
	"account-provisioning/internal/data/repository"
	"account-provisioning/internal/dto/response"
	"account-provisioning/pkg/metrics"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const (
	DefaultReconcileGrace = 10 * time.Minute
	DefaultReconcileBatch = 50
)

// ReconcileService finishes or undoes vendor registrations whose saga never
// completed: vendor principals without a linked profile.
type ReconcileService interface {
	ListOrphans(ctx context.Context) ([]response.OrphanResponse, error)
	Reconcile(ctx context.Context) (*response.ReconcileResponse, error)
}

type reconcileService struct {
	repo    repository.PrincipalRepository
	vendors remote.VendorClient
	grace   time.Duration
	batch   int
	clock   clockwork.Clock
	log     *zap.Logger
}

func NewReconcileService(
	repo repository.PrincipalRepository,
	vendors remote.VendorClient,
	grace time.Duration,
	batch int,
	clock clockwork.Clock,
	log *zap.Logger,
) ReconcileService {
	if grace <= 0 {
		grace = DefaultReconcileGrace
	}
	if batch < 1 {
		batch = DefaultReconcileBatch
	}
	return &reconcileService{
		repo:    repo,
		vendors: vendors,
		grace:   grace,
		batch:   batch,
		clock:   clock,
		log:     log.With(zap.String("service", "reconcile")),
	}
}

// candidates only includes principals older than the grace period, so a
// registration still in flight is never touched.
func (s *reconcileService) candidates(ctx context.Context) ([]*entity.Principal, error) {
	return s.repo.FindUnlinkedVendors(ctx, s.clock.Now().Add(-s.grace), s.batch)
}

func (s *reconcileService) ListOrphans(ctx context.Context) ([]response.OrphanResponse, error) {
	principals, err := s.candidates(ctx)
	if err != nil {
		s.log.Error("Failed to list orphaned vendors", zap.Error(err))
		return nil, newInternalError("failed to list orphans", err)
	}
	return response.OrphansToResponse(principals), nil
}

// Reconcile runs one pass. A remote profile owned by the principal means
// provisioning succeeded and only the link was lost; anything else is rolled back.
// Principals whose lookup fails stay for the next pass.
func (s *reconcileService) Reconcile(ctx context.Context) (*response.ReconcileResponse, error) {
	principals, err := s.candidates(ctx)
	if err != nil {
		s.log.Error("Failed to list orphaned vendors", zap.Error(err))
		return nil, newInternalError("failed to list orphans", err)
	}

	report := &response.ReconcileResponse{Scanned: len(principals)}
	for _, p := range principals {
		switch s.reconcileOne(ctx, p) {
		case outcomeLinked:
			report.Linked++
		case outcomeDeleted:
			report.Deleted++
		default:
			report.Skipped++
		}
	}

	if report.Scanned > 0 {
		s.log.Info("Reconciliation pass finished",
			zap.Int("scanned", report.Scanned),
			zap.Int("linked", report.Linked),
			zap.Int("deleted", report.Deleted),
			zap.Int("skipped", report.Skipped),
		)
	}
	return report, nil
}

const (
	outcomeLinked  = "linked"
	outcomeDeleted = "deleted"
	outcomeSkipped = "skipped"
)

func (s *reconcileService) reconcileOne(ctx context.Context, p *entity.Principal) string {
	log := s.log.With(zap.Int64("principal_id", p.ID), zap.String("email", p.Email))

	profile, err := s.vendors.FindProfileByEmail(ctx, p.Email)
	if err != nil {
		log.Warn("Vendor lookup failed, leaving principal for next pass", zap.Error(err))
		metrics.ObserveReconcile(outcomeSkipped)
		return outcomeSkipped
	}

	if profile != nil && profile.ID > 0 && profile.UserID == p.ID {
		if err := s.repo.LinkVendor(ctx, p.ID, profile.ID); err != nil {
			if errors.Is(err, repository.ErrPrincipalNotFound) {
				log.Info("Principal linked or removed concurrently")
			} else {
				log.Error("Failed to link recovered vendor profile", zap.Int64("vendor_id", profile.ID), zap.Error(err))
			}
			metrics.ObserveReconcile(outcomeSkipped)
			return outcomeSkipped
		}
		log.Info("Linked recovered vendor profile", zap.Int64("vendor_id", profile.ID))
		metrics.ObserveReconcile(outcomeLinked)
		return outcomeLinked
	}

	if err := s.repo.DeleteUnlinkedVendor(ctx, p.ID); err != nil {
		if errors.Is(err, repository.ErrPrincipalNotFound) {
			log.Info("Principal linked or removed concurrently")
		} else {
			log.Error("Failed to delete orphaned principal", zap.Error(err))
		}
		metrics.ObserveReconcile(outcomeSkipped)
		return outcomeSkipped
	}
	log.Info("Deleted orphaned principal")
	metrics.ObserveReconcile(outcomeDeleted)
	return outcomeDeleted
}
