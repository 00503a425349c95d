package tiers

import "github.com/classpilot/classpilot-backend/pkg/enums"

// MapProductTier converts the customer-facing product tier into the internal
// capability tier. Unknown product tiers map to free so a malformed payload
// can never grant paid capabilities.
func MapProductTier(product enums.ProductTier) enums.CapabilityTier {
	switch product {
	case enums.ProductTierFree:
		return enums.CapabilityTierFree
	case enums.ProductTierParentStarter, enums.ProductTierSchoolStarter:
		return enums.CapabilityTierStarter
	case enums.ProductTierParentPlus, enums.ProductTierSchoolPremium:
		return enums.CapabilityTierPremium
	case enums.ProductTierSchoolPro:
		return enums.CapabilityTierEnterprise
	default:
		return enums.CapabilityTierFree
	}
}
