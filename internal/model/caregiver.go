package model

import "time"

// Tier is a caregiver's certified capability level. It determines which
// severity of case the caregiver may be assigned.
type Tier string

const (
	TierBronze Tier = "bronze"
	TierSilver Tier = "silver"
	TierGold   Tier = "gold"
)

func (t Tier) Valid() bool {
	switch t {
	case TierBronze, TierSilver, TierGold:
		return true
	}
	return false
}

type CaregiverStatus string

const (
	CaregiverStatusActive   CaregiverStatus = "active"
	CaregiverStatusInactive CaregiverStatus = "inactive"
)

// DefaultMaxPatients is the advisory caseload ceiling applied when a roster
// entry does not specify one.
const DefaultMaxPatients = 5

type Caregiver struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Tier        *Tier           `json:"tier,omitempty"` // nil is treated as bronze
	Status      CaregiverStatus `json:"status"`
	MaxPatients int             `json:"max_patients"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (c *Caregiver) IsActive() bool {
	return c.Status == CaregiverStatusActive
}

// EffectiveTier resolves an unset tier to bronze.
func (c *Caregiver) EffectiveTier() Tier {
	if c.Tier == nil {
		return TierBronze
	}
	return *c.Tier
}
