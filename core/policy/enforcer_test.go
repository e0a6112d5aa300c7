package policy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/apperrors"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/models"
)

func newTestEnforcer() *Enforcer {
	catalog := DefaultCatalog()
	rates := NewRateCache(catalog, nil, 0, zap.NewNop())
	return NewEnforcer(catalog, rates)
}

func TestValidateWithinTierLimits(t *testing.T) {
	e := newTestEnforcer()

	assert.NoError(t, e.Validate(models.TierFree, "g4dn.xlarge", 1))
	assert.NoError(t, e.Validate(models.TierFree, "g4dn.xlarge", 2))
	assert.NoError(t, e.Validate(models.TierPro, "p3.2xlarge", 12))
	assert.NoError(t, e.Validate(models.TierEnterprise, "p4d.24xlarge", 72))
}

func TestValidateRejectsOverCeiling(t *testing.T) {
	e := newTestEnforcer()

	err := e.Validate(models.TierFree, "g4dn.xlarge", 10)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	err = e.Validate(models.TierPro, "g4dn.xlarge", 12.5)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestValidateRejectsDisallowedMachine(t *testing.T) {
	e := newTestEnforcer()

	err := e.Validate(models.TierFree, "p4d.24xlarge", 1)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	err = e.Validate(models.TierPro, "p4d.24xlarge", 1)
	require.Error(t, err)
}

func TestValidateRejectsBadInput(t *testing.T) {
	e := newTestEnforcer()

	assert.Error(t, e.Validate("platinum", "g4dn.xlarge", 1))
	assert.Error(t, e.Validate(models.TierFree, "g4dn.xlarge", 0))
	assert.Error(t, e.Validate(models.TierFree, "g4dn.xlarge", -2))
}

func TestEstimateUsesCatalogRate(t *testing.T) {
	e := newTestEnforcer()

	est, err := e.Estimate(models.TierPro, "p3.2xlarge", 4)
	require.NoError(t, err)
	assert.InDelta(t, 3.06, est.HourlyCost, 1e-9)
	assert.InDelta(t, 12.24, est.EstimatedMaxCost, 1e-9)
}

func TestEstimateRejectsBeforePricing(t *testing.T) {
	e := newTestEnforcer()

	_, err := e.Estimate(models.TierFree, "p3.2xlarge", 1)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

type fixedRates map[string]float64

func (f fixedRates) FetchOnDemandRates(_ context.Context) (map[string]float64, error) {
	return f, nil
}

func TestRateCacheSeededFromCatalog(t *testing.T) {
	rc := NewRateCache(DefaultCatalog(), nil, 0, zap.NewNop())

	r, ok := rc.Rate("g4dn.xlarge")
	require.True(t, ok)
	assert.InDelta(t, 0.526, r, 1e-9)

	_, ok = rc.Rate("tpu.v9000")
	assert.False(t, ok)
}

func TestRateCacheRefreshOverridesCatalog(t *testing.T) {
	src := fixedRates{"g4dn.xlarge": 0.61}
	rc := NewRateCache(DefaultCatalog(), src, time.Hour, zap.NewNop())

	rc.refresh(context.Background())

	r, ok := rc.Rate("g4dn.xlarge")
	require.True(t, ok)
	assert.InDelta(t, 0.61, r, 1e-9)

	// untouched machines keep their catalog rate
	r, ok = rc.Rate("p3.2xlarge")
	require.True(t, ok)
	assert.InDelta(t, 3.06, r, 1e-9)
}
