package enums

import "fmt"

// ProductTier is the customer-facing subscription label carried by the
// payment gateway notification.
type ProductTier string

const (
	ProductTierFree          ProductTier = "free"
	ProductTierParentStarter ProductTier = "parent_starter"
	ProductTierParentPlus    ProductTier = "parent_plus"
	ProductTierSchoolStarter ProductTier = "school_starter"
	ProductTierSchoolPremium ProductTier = "school_premium"
	ProductTierSchoolPro     ProductTier = "school_pro"
)

var validProductTiers = []ProductTier{
	ProductTierFree,
	ProductTierParentStarter,
	ProductTierParentPlus,
	ProductTierSchoolStarter,
	ProductTierSchoolPremium,
	ProductTierSchoolPro,
}

// String implements fmt.Stringer.
func (p ProductTier) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p ProductTier) IsValid() bool {
	for _, candidate := range validProductTiers {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProductTier converts raw input into a ProductTier.
func ParseProductTier(value string) (ProductTier, error) {
	for _, candidate := range validProductTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product tier %q", value)
}
