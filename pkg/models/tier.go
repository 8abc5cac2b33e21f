package models

// Tier represents the declared strictness class of a task.
type Tier string

const (
	// TierExec is for mechanical execution tasks with hard contracts.
	TierExec Tier = "exec"
	// TierDecision is for judgment tasks that weigh alternatives.
	TierDecision Tier = "decision"
	// TierExploration is for open-ended research and discovery tasks.
	TierExploration Tier = "exploration"
)

// Valid returns true if the tier is a known value.
func (t Tier) Valid() bool {
	switch t {
	case TierExec, TierDecision, TierExploration:
		return true
	default:
		return false
	}
}

// Strictness represents how strictly a payload schema is enforced.
type Strictness string

const (
	// StrictnessHigh enforces required fields and rejects unknown top-level fields.
	StrictnessHigh Strictness = "high"
	// StrictnessMedium enforces required fields but tolerates unknown fields.
	StrictnessMedium Strictness = "medium"
	// StrictnessLow enforces required fields but tolerates unknown fields.
	StrictnessLow Strictness = "low"
)

// Valid returns true if the strictness is a known value.
func (s Strictness) Valid() bool {
	switch s {
	case StrictnessHigh, StrictnessMedium, StrictnessLow:
		return true
	default:
		return false
	}
}
