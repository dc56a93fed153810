package reliability

// Tier classifies a worker by reliability score.
type Tier string

const (
	TierDeveloping Tier = "developing"
	TierPro        Tier = "pro"
	TierElite      Tier = "elite"
)

// TierBasic is the presentation alias some surfaces use for the base tier.
const TierBasic = TierDeveloping

const (
	EliteThreshold = 85
	ProThreshold   = 70
)

// TierFor maps a score to its tier.
func TierFor(score int) Tier {
	switch {
	case score >= EliteThreshold:
		return TierElite
	case score >= ProThreshold:
		return TierPro
	default:
		return TierDeveloping
	}
}

// ParseTier accepts both base-tier labels.
func ParseTier(raw string) (Tier, bool) {
	switch raw {
	case "developing", "basic", "Developing", "Basic":
		return TierDeveloping, true
	case "pro", "Pro":
		return TierPro, true
	case "elite", "Elite":
		return TierElite, true
	default:
		return "", false
	}
}
