package service

import (
	"context"
	"log"
	"net"
	"time"

	"marketplace-checkout/internal/client"
	"marketplace-checkout/internal/model"
	"marketplace-checkout/internal/repository"
)

// timezoneRegions maps the client-supplied timezone hint to a region. The
// hint wins over geolocation when it is recognised.
var timezoneRegions = map[string]model.Region{
	"Asia/Dubai":  model.RegionAE,
	"Asia/Riyadh": model.RegionSA,
}

// countryRegions maps geolocation country codes to supported regions.
var countryRegions = map[string]model.Region{
	"AE": model.RegionAE,
	"SA": model.RegionSA,
}

type RegionService interface {
	Resolve(ctx context.Context, timezone, ip string) model.Region
}

type regionServiceImpl struct {
	geoip         client.GeoIPClient
	cache         repository.RegionLookupRepository
	defaultRegion model.Region
	cacheTTL      time.Duration
}

func NewRegionService(
	geoip client.GeoIPClient,
	cache repository.RegionLookupRepository,
	defaultRegion model.Region,
	cacheTTL time.Duration,
) RegionService {
	if !defaultRegion.Valid() {
		defaultRegion = model.RegionGlobal
	}

	return &regionServiceImpl{
		geoip:         geoip,
		cache:         cache,
		defaultRegion: defaultRegion,
		cacheTTL:      cacheTTL,
	}
}

// Resolve never fails: timezone hint, then cached geolocation, then the
// configured default. Private and loopback addresses skip the lookup.
func (s *regionServiceImpl) Resolve(ctx context.Context, timezone, ip string) model.Region {
	if region, ok := timezoneRegions[timezone]; ok {
		return region
	}

	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.IsPrivate() || parsed.IsLoopback() || parsed.IsUnspecified() {
		return s.defaultRegion
	}

	if cached, err := s.cache.Get(ctx, ip); err == nil {
		region := model.Region(cached.Region)
		if region.Valid() {
			return region
		}
	}

	country, err := s.geoip.CountryCode(ctx, ip)
	if err != nil {
		// no retries, no circuit breaking: a flaky lookup means default
		return s.defaultRegion
	}

	region, ok := countryRegions[country]
	if !ok {
		region = model.RegionGlobal
	}

	if err := s.cache.Put(ctx, &model.RegionLookup{
		IP:        ip,
		Region:    string(region),
		ExpiresAt: time.Now().Add(s.cacheTTL),
	}); err != nil {
		log.Println("region cache write failed:", err)
	}

	return region
}
