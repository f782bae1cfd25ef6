package model

import "time"

// Assignment records that a caregiver was put in charge of a patient.
// Assignments are append-only: a reassignment supersedes the previous row,
// it never mutates it.
type Assignment struct {
	ID           int64     `json:"id"`
	PatientID    int64     `json:"patient_id"`
	CaregiverID  int64     `json:"caregiver_id"`
	AssignedTier Tier      `json:"assigned_tier"`
	AssignedAt   time.Time `json:"assigned_at"`
}
