package models

import "testing"

func TestTierValid(t *testing.T) {
	for _, tier := range []Tier{TierSimple, TierStandard, TierComplex, TierPlanner} {
		if !tier.Valid() {
			t.Errorf("tier %q should be valid", tier)
		}
	}
	for _, tier := range []Tier{"", "haiku", "SIMPLE"} {
		if tier.Valid() {
			t.Errorf("tier %q should be invalid", tier)
		}
	}
}
