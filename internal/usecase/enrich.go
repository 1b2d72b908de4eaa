package usecase

import (
	"context"

	"account-provisioning/internal/data/cache"
	"account-provisioning/internal/data/entity"
	"account-provisioning/internal/data/remote"

	"go.uber.org/zap"
)

// vendorEnricher fetches a vendor profile for display. Every failure is
// logged and swallowed; callers only lose the enrichment.
type vendorEnricher struct {
	vendors remote.VendorClient
	cache   cache.VendorCache
	log     *zap.Logger
}

func (e *vendorEnricher) lookup(ctx context.Context, vendorID int64) *entity.VendorProfile {
	if cached, err := e.cache.Get(ctx, vendorID); err != nil {
		e.log.Warn("Vendor cache read failed", zap.Int64("vendor_id", vendorID), zap.Error(err))
	} else if cached != nil {
		return cached
	}

	profile, err := e.vendors.GetProfile(ctx, vendorID)
	if err != nil || profile == nil {
		e.log.Warn("Vendor profile enrichment skipped", zap.Int64("vendor_id", vendorID), zap.Error(err))
		return nil
	}

	if err := e.cache.Set(ctx, profile); err != nil {
		e.log.Warn("Vendor cache write failed", zap.Int64("vendor_id", vendorID), zap.Error(err))
	}
	return profile
}
