package models

// Risk represents a risk level attached to an envelope or a payload item.
type Risk string

const (
	// RiskNone indicates no meaningful risk.
	RiskNone Risk = "none"
	// RiskLow indicates minor, easily reversible risk.
	RiskLow Risk = "low"
	// RiskMedium indicates moderate risk requiring review.
	RiskMedium Risk = "medium"
	// RiskHigh indicates significant risk requiring close attention.
	RiskHigh Risk = "high"
)

// Valid returns true if the risk is a known value.
func (r Risk) Valid() bool {
	switch r {
	case RiskNone, RiskLow, RiskMedium, RiskHigh:
		return true
	default:
		return false
	}
}

// Severity returns the fixed ordering rank of the risk level.
// none < low < medium < high. Unknown values rank below none.
func (r Risk) Severity() int {
	switch r {
	case RiskNone:
		return 0
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	default:
		return -1
	}
}

// MaxRisk returns the more severe of two risk levels.
func MaxRisk(a, b Risk) Risk {
	if b.Severity() > a.Severity() {
		return b
	}
	return a
}
