// Package policy enforces per-tier training limits and computes cost
// estimates for job submissions.
package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/models"
)

// TierLimits bounds what a subscription tier may request
type TierLimits struct {
	MaxTrainingHours float64  `yaml:"max_training_hours"`
	AllowedMachines  []string `yaml:"allowed_machines"`
}

// Catalog holds the tier limits and the machine-type price list
type Catalog struct {
	Tiers    map[models.Tier]TierLimits `yaml:"tiers"`
	Machines map[string]float64         `yaml:"machines"` // machine type -> USD per hour
}

// DefaultCatalog returns the compiled-in tier and machine catalog
func DefaultCatalog() *Catalog {
	return &Catalog{
		Tiers: map[models.Tier]TierLimits{
			models.TierFree: {
				MaxTrainingHours: 2,
				AllowedMachines:  []string{"g4dn.xlarge"},
			},
			models.TierPro: {
				MaxTrainingHours: 12,
				AllowedMachines:  []string{"g4dn.xlarge", "p3.2xlarge", "p3.8xlarge"},
			},
			models.TierEnterprise: {
				MaxTrainingHours: 72,
				AllowedMachines:  []string{"g4dn.xlarge", "p3.2xlarge", "p3.8xlarge", "p3.16xlarge", "p4d.24xlarge"},
			},
		},
		Machines: map[string]float64{
			"g4dn.xlarge":  0.526,
			"p3.2xlarge":   3.06,
			"p3.8xlarge":   12.24,
			"p3.16xlarge":  24.48,
			"p4d.24xlarge": 32.77,
		},
	}
}

// LoadCatalog reads a tier catalog from a YAML file, falling back to
// defaults for the sections the file omits. An empty path returns the
// compiled-in catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tier catalog: %w", err)
	}

	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse tier catalog: %w", err)
	}

	defaults := DefaultCatalog()
	if len(cat.Tiers) == 0 {
		cat.Tiers = defaults.Tiers
	}
	if len(cat.Machines) == 0 {
		cat.Machines = defaults.Machines
	}
	return &cat, nil
}

// Limits returns the limits for a tier
func (c *Catalog) Limits(tier models.Tier) (TierLimits, bool) {
	l, ok := c.Tiers[tier]
	return l, ok
}

// Allows reports whether a tier may use a machine type
func (l TierLimits) Allows(machineType string) bool {
	for _, m := range l.AllowedMachines {
		if m == machineType {
			return true
		}
	}
	return false
}
