package tiers

import "github.com/classpilot/classpilot-backend/pkg/enums"

const unlimited int64 = 999999

// Limits describes what a capability tier may consume per billing period.
type Limits struct {
	ExamsPerMonth        int64 `json:"exams_per_month"`
	ExplanationsPerMonth int64 `json:"explanations_per_month"`
	ChatMessagesPerDay   int64 `json:"chat_messages_per_day"`
}

var limitsByTier = map[enums.CapabilityTier]Limits{
	enums.CapabilityTierFree:       {ExamsPerMonth: 3, ExplanationsPerMonth: 5, ChatMessagesPerDay: 10},
	enums.CapabilityTierStarter:    {ExamsPerMonth: 30, ExplanationsPerMonth: 100, ChatMessagesPerDay: 200},
	enums.CapabilityTierPremium:    {ExamsPerMonth: 100, ExplanationsPerMonth: 500, ChatMessagesPerDay: 1000},
	enums.CapabilityTierEnterprise: {ExamsPerMonth: unlimited, ExplanationsPerMonth: unlimited, ChatMessagesPerDay: unlimited},
}

// LimitsFor returns the quota limits for a capability tier. Unknown tiers
// get the free limits.
func LimitsFor(tier enums.CapabilityTier) Limits {
	if limits, ok := limitsByTier[tier]; ok {
		return limits
	}
	return limitsByTier[enums.CapabilityTierFree]
}
