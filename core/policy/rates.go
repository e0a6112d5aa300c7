package policy

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RateSource fetches current on-demand hourly rates per machine type
type RateSource interface {
	FetchOnDemandRates(ctx context.Context) (map[string]float64, error)
}

// RateCache caches machine-type hourly rates, seeded from the catalog
// and refreshed in the background from a RateSource. A refresh failure
// keeps the previous rates.
type RateCache struct {
	source   RateSource
	interval time.Duration
	log      *zap.Logger

	mu    sync.RWMutex
	rates map[string]float64
}

// NewRateCache creates a rate cache seeded from the catalog price list.
// source may be nil; the cache then serves catalog rates only.
func NewRateCache(catalog *Catalog, source RateSource, interval time.Duration, log *zap.Logger) *RateCache {
	seeded := make(map[string]float64, len(catalog.Machines))
	for m, r := range catalog.Machines {
		seeded[m] = r
	}
	return &RateCache{
		source:   source,
		interval: interval,
		log:      log,
		rates:    seeded,
	}
}

// Rate returns the hourly rate for a machine type
func (rc *RateCache) Rate(machineType string) (float64, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	r, ok := rc.rates[machineType]
	return r, ok
}

// StartRefreshWorker refreshes rates from the source on a ticker until
// the context is cancelled
func (rc *RateCache) StartRefreshWorker(ctx context.Context) {
	if rc.source == nil {
		return
	}

	ticker := time.NewTicker(rc.interval)
	defer ticker.Stop()

	rc.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rc.refresh(ctx)
		}
	}
}

func (rc *RateCache) refresh(ctx context.Context) {
	fetched, err := rc.source.FetchOnDemandRates(ctx)
	if err != nil {
		rc.log.Warn("rate refresh failed, keeping cached rates", zap.Error(err))
		return
	}

	rc.mu.Lock()
	for m, r := range fetched {
		if r > 0 {
			rc.rates[m] = r
		}
	}
	rc.mu.Unlock()

	rc.log.Info("machine rates refreshed", zap.Int("count", len(fetched)))
}
