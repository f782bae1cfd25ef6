package triage

import (
	"strings"

	"carelattice.app/triage/internal/model"
)

// Keyword lists for the local heuristic. Matching is case-insensitive
// substring search over the description.
var (
	highSeverityTerms = []string{
		"bleeding", "blood", "fracture", "broken", "unconscious",
		"unresponsive", "severe pain", "head trauma", "chest pain",
		"seizure", "not breathing",
	}
	lowSeverityTerms = []string{
		"minor", "scrape", "bruise", "mild", "slight", "small cut",
	}
)

// heuristicAssessment is the deterministic local fallback used whenever the
// external classification service fails or returns garbage. It never errors:
// unknown descriptions get a neutral moderate assessment.
func heuristicAssessment(description string) *model.SeverityAssessment {
	lowered := strings.ToLower(description)

	for _, term := range highSeverityTerms {
		if strings.Contains(lowered, term) {
			return fallback(9, model.SeverityExtreme, model.UrgencyHigh, term)
		}
	}

	for _, term := range lowSeverityTerms {
		if strings.Contains(lowered, term) {
			return fallback(3, model.SeverityLow, model.UrgencyLow, term)
		}
	}

	return fallback(5, model.SeverityModerate, model.UrgencyMedium, "")
}

func fallback(score float64, level model.SeverityLevel, urgency model.Urgency, matched string) *model.SeverityAssessment {
	a := &model.SeverityAssessment{
		Score:           score,
		Level:           level,
		Urgency:         urgency,
		RecommendedCare: defaultCareForLevel(level),
		RequiredTier:    model.TierForLevel(level),
		IsFallback:      true,
	}
	if matched != "" {
		a.RiskFactors = []string{"keyword: " + matched}
	}
	return a
}

func defaultCareForLevel(level model.SeverityLevel) string {
	switch level {
	case model.SeverityExtreme:
		return "Immediate clinician evaluation and continuous monitoring."
	case model.SeverityModerate:
		return "Clinician evaluation within the day and a supervised care plan."
	default:
		return "Routine care and observation."
	}
}
