package models

// Tier represents the reasoning-service configuration class for a task.
type Tier string

const (
	// TierSimple is for file reads, status checks, and short summaries.
	TierSimple Tier = "simple"
	// TierStandard is for everyday multi-step work.
	TierStandard Tier = "standard"
	// TierComplex is for writing, analysis, and deep reasoning.
	TierComplex Tier = "complex"
	// TierPlanner is the fixed tier used by planner nodes.
	TierPlanner Tier = "planner"
)

// Valid returns true if the tier is a known value.
func (t Tier) Valid() bool {
	switch t {
	case TierSimple, TierStandard, TierComplex, TierPlanner:
		return true
	default:
		return false
	}
}
