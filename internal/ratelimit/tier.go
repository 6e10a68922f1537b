package ratelimit

import "strings"

type UserTier string

const (
	TierFree       UserTier = "free"
	TierPremium    UserTier = "premium"
	TierEnterprise UserTier = "enterprise"
	TierAdmin      UserTier = "admin"
)

func DefaultTierMultipliers() map[UserTier]float64 {
	return map[UserTier]float64{
		TierFree:       1.0,
		TierPremium:    2.0,
		TierEnterprise: 5.0,
		TierAdmin:      10.0,
	}
}

// ParseTier normalizes a tier name. Empty input is free; unknown names are kept
// as-is and resolve to the base multiplier at check time.
func ParseTier(s string) UserTier {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return TierFree
	}
	return UserTier(s)
}

func IsKnownTier(tier UserTier) bool {
	_, ok := DefaultTierMultipliers()[tier]
	return ok
}
