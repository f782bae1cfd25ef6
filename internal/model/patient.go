package model

import "time"

type PatientStatus string

const (
	PatientStatusActive     PatientStatus = "active"
	PatientStatusDischarged PatientStatus = "discharged"
)

type Patient struct {
	ID        int64         `json:"id"`
	Name      string        `json:"name"`
	Status    PatientStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

func (p *Patient) IsActive() bool {
	return p.Status == PatientStatusActive
}
