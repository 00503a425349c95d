package enums

import "fmt"

// CapabilityTier is the internal feature-gating classification derived from
// ProductTier. It is never set independently of the product tier mapping.
type CapabilityTier string

const (
	CapabilityTierFree       CapabilityTier = "free"
	CapabilityTierStarter    CapabilityTier = "starter"
	CapabilityTierPremium    CapabilityTier = "premium"
	CapabilityTierEnterprise CapabilityTier = "enterprise"
)

var validCapabilityTiers = []CapabilityTier{
	CapabilityTierFree,
	CapabilityTierStarter,
	CapabilityTierPremium,
	CapabilityTierEnterprise,
}

// String implements fmt.Stringer.
func (c CapabilityTier) String() string {
	return string(c)
}

// IsValid reports whether the value is known.
func (c CapabilityTier) IsValid() bool {
	for _, candidate := range validCapabilityTiers {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCapabilityTier converts raw input into a CapabilityTier.
func ParseCapabilityTier(value string) (CapabilityTier, error) {
	for _, candidate := range validCapabilityTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid capability tier %q", value)
}
