package usecase

import (
	"context"
	"errors"

	"account-provisioning/internal/data/cache"
	"account-provisioning/internal/data/entity"
	"account-provisioning/internal/data/remote"
	"account-provisioning/internal/data/repository"
	"account-provisioning/internal/dto/response"

	"go.uber.org/zap"
)

type PrincipalService interface {
	GetProfile(ctx context.Context, id int64) (*response.PrincipalResponse, error)
	SetActive(ctx context.Context, id int64, active bool) (*response.PrincipalResponse, error)
}

type principalService struct {
	repo     repository.PrincipalRepository
	enricher *vendorEnricher
	log      *zap.Logger
}

func NewPrincipalService(
	repo repository.PrincipalRepository,
	vendors remote.VendorClient,
	vendorCache cache.VendorCache,
	log *zap.Logger,
) PrincipalService {
	log = log.With(zap.String("service", "principal"))
	return &principalService{
		repo:     repo,
		enricher: &vendorEnricher{vendors: vendors, cache: vendorCache, log: log},
		log:      log,
	}
}

func (s *principalService) GetProfile(ctx context.Context, id int64) (*response.PrincipalResponse, error) {
	principal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to get principal", zap.Error(err), zap.Int64("principal_id", id))
		return nil, newInternalError("failed to get principal", err)
	}
	if principal == nil {
		return nil, newNotFoundError("principal not found")
	}

	var vendor *entity.VendorProfile
	if principal.IsVendor() && principal.VendorID != nil {
		vendor = s.enricher.lookup(ctx, *principal.VendorID)
	}

	resp := response.PrincipalToResponse(principal, vendor)
	return &resp, nil
}

func (s *principalService) SetActive(ctx context.Context, id int64, active bool) (*response.PrincipalResponse, error) {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, repository.ErrPrincipalNotFound) {
			return nil, newNotFoundError("principal not found")
		}
		s.log.Error("Failed to update principal status", zap.Error(err), zap.Int64("principal_id", id))
		return nil, newInternalError("failed to update principal", err)
	}

	principal, err := s.repo.FindByID(ctx, id)
	if err != nil || principal == nil {
		s.log.Error("Failed to reload principal", zap.Error(err), zap.Int64("principal_id", id))
		return nil, newInternalError("failed to update principal", err)
	}

	s.log.Info("Principal status updated", zap.Int64("principal_id", id), zap.Bool("active", active))

	resp := response.PrincipalToResponse(principal, nil)
	return &resp, nil
}
