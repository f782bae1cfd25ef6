package triage

import (
	"carelattice.app/triage/internal/model"
)

// EligibleFor returns the active roster entries allowed to serve a case of
// the required tier:
//
//   - bronze: caregivers whose tier is bronze or unset
//   - silver: silver or gold (gold covers silver-level cases)
//   - gold:   gold only
//
// If the filtered set is empty, the entire active roster is returned
// instead. Availability takes precedence over strict tier matching: as long
// as one active caregiver exists, an assignment can be made.
func EligibleFor(required model.Tier, roster []model.Caregiver) []model.Caregiver {
	var active, eligible []model.Caregiver

	for _, cg := range roster {
		if !cg.IsActive() {
			continue
		}
		active = append(active, cg)
		if tierEligible(required, cg.EffectiveTier()) {
			eligible = append(eligible, cg)
		}
	}

	if len(eligible) == 0 {
		return active
	}
	return eligible
}

func tierEligible(required, have model.Tier) bool {
	switch required {
	case model.TierGold:
		return have == model.TierGold
	case model.TierSilver:
		return have == model.TierSilver || have == model.TierGold
	default:
		return have == model.TierBronze
	}
}
