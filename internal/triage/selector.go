package triage

import (
	"errors"

	"carelattice.app/triage/internal/model"
)

// ErrNoCandidates is returned when selection runs against an empty candidate
// set. With the eligibility fallback in place this only happens when the
// active roster itself is empty, which requires operator intervention.
var ErrNoCandidates = errors.New("no candidate caregivers")

// SelectLeastLoaded picks the candidate with the fewest active assignments.
// workloads maps caregiver id to active assignment count; missing entries
// count as zero. Ties keep the first-encountered candidate, so the result is
// deterministic for a stable candidate ordering. MaxPatients is not
// enforced here; it is advisory.
func SelectLeastLoaded(candidates []model.Caregiver, workloads map[int64]int) (*model.Caregiver, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	best := candidates[0]
	bestLoad := workloads[best.ID]

	for _, cg := range candidates[1:] {
		if load := workloads[cg.ID]; load < bestLoad {
			best = cg
			bestLoad = load
		}
	}

	return &best, nil
}
