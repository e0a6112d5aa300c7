package policy

import (
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/apperrors"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/models"
)

// Estimate is an advisory pre-run cost figure. The hard ceiling is the
// requested max hours at the machine's hourly rate; actual cost is
// recorded post-hoc from reported runtime and never stops a running job.
type Estimate struct {
	HourlyCost       float64
	EstimatedMaxCost float64
}

// Enforcer validates job submissions against tier limits and computes
// cost estimates
type Enforcer struct {
	catalog *Catalog
	rates   *RateCache
}

// NewEnforcer creates a cost policy enforcer
func NewEnforcer(catalog *Catalog, rates *RateCache) *Enforcer {
	return &Enforcer{catalog: catalog, rates: rates}
}

// Validate rejects a submission whose requested hours exceed the tier
// ceiling or whose machine type the tier does not allow. Requests are
// rejected, never clamped.
func (e *Enforcer) Validate(tier models.Tier, machineType string, requestedHours float64) error {
	limits, ok := e.catalog.Limits(tier)
	if !ok {
		return apperrors.Validation("unknown tier %q", tier)
	}
	if requestedHours <= 0 {
		return apperrors.Validation("requested hours must be positive, got %g", requestedHours)
	}
	if requestedHours > limits.MaxTrainingHours {
		return apperrors.Validation("tier %q allows at most %g training hours, requested %g",
			tier, limits.MaxTrainingHours, requestedHours)
	}
	if !limits.Allows(machineType) {
		return apperrors.Validation("tier %q does not allow machine type %q", tier, machineType)
	}
	return nil
}

// Estimate computes the hourly cost and the estimated maximum cost for
// running maxHours on the given machine type
func (e *Enforcer) Estimate(tier models.Tier, machineType string, maxHours float64) (Estimate, error) {
	if err := e.Validate(tier, machineType, maxHours); err != nil {
		return Estimate{}, err
	}

	hourly, ok := e.rates.Rate(machineType)
	if !ok {
		return Estimate{}, apperrors.Validation("no hourly rate known for machine type %q", machineType)
	}

	return Estimate{
		HourlyCost:       hourly,
		EstimatedMaxCost: hourly * maxHours,
	}, nil
}
