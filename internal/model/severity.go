package model

import "time"

type SeverityLevel string

const (
	SeverityLow      SeverityLevel = "low"
	SeverityModerate SeverityLevel = "moderate"
	SeverityExtreme  SeverityLevel = "extreme"
)

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// SeverityAssessment is the structured result of classifying an injury
// description. One is produced per triage request and attached permanently
// to the patient record that triggered it; it is never mutated.
type SeverityAssessment struct {
	ID              int64         `json:"id"`
	PatientID       int64         `json:"patient_id"`
	Score           float64       `json:"score"` // [0,10]
	Level           SeverityLevel `json:"level"`
	Urgency         Urgency       `json:"urgency"`
	RiskFactors     []string      `json:"risk_factors,omitempty"`
	RecommendedCare string        `json:"recommended_care"`
	RequiredTier    Tier          `json:"required_tier"`
	IsFallback      bool          `json:"is_fallback"` // true when the local heuristic produced it
	CreatedAt       time.Time     `json:"created_at"`
}

// LevelForScore maps a severity score onto the documented thresholds:
// score <= 5 is low, (5,8] is moderate, above 8 is extreme.
func LevelForScore(score float64) SeverityLevel {
	switch {
	case score <= 5:
		return SeverityLow
	case score <= 8:
		return SeverityModerate
	default:
		return SeverityExtreme
	}
}

// TierForLevel maps a severity level to the caregiver tier required to
// serve it.
func TierForLevel(level SeverityLevel) Tier {
	switch level {
	case SeverityExtreme:
		return TierGold
	case SeverityModerate:
		return TierSilver
	default:
		return TierBronze
	}
}

// UrgencyForLevel is the default urgency when the classification service
// does not report a usable one.
func UrgencyForLevel(level SeverityLevel) Urgency {
	switch level {
	case SeverityExtreme:
		return UrgencyHigh
	case SeverityModerate:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

func (l SeverityLevel) Valid() bool {
	switch l {
	case SeverityLow, SeverityModerate, SeverityExtreme:
		return true
	}
	return false
}

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return true
	}
	return false
}
