package model

import (
	"encoding/json"
	"time"
)

type ProgressStatus string

const (
	ProgressStatusPending  ProgressStatus = "pending_approval"
	ProgressStatusApproved ProgressStatus = "approved"
	ProgressStatusRejected ProgressStatus = "rejected"
)

// Terminal reports whether no further status transition is legal.
func (s ProgressStatus) Terminal() bool {
	return s == ProgressStatusApproved || s == ProgressStatusRejected
}

type ReviewVerdict string

const (
	VerdictApprove ReviewVerdict = "approve"
	VerdictReject  ReviewVerdict = "reject"
)

func (v ReviewVerdict) Valid() bool {
	return v == VerdictApprove || v == VerdictReject
}

// SelfReview is the submitting caregiver's own verdict on their pending
// update. It is an annotation for the audit trail; it never changes the
// authoritative status, which only the supervising clinician sets.
type SelfReview struct {
	Verdict    ReviewVerdict `json:"verdict"`
	ReviewedAt time.Time     `json:"reviewed_at"`
}

// ProgressUpdate is one caregiver-submitted progress report moving through
// the approval workflow. Rows are append-only audit history: they reach
// approved or rejected and are never deleted.
type ProgressUpdate struct {
	ID          int64           `json:"id"`
	PatientID   int64           `json:"patient_id"`
	SubmittedBy int64           `json:"submitted_by"`
	SubmittedAt time.Time       `json:"submitted_at"`
	Payload     json.RawMessage `json:"payload"` // opaque to the workflow
	Status      ProgressStatus  `json:"status"`
	SelfReview  *SelfReview     `json:"self_review,omitempty"`
	DecidedBy   *int64          `json:"decided_by,omitempty"`
	DecidedAt   *time.Time      `json:"decided_at,omitempty"`
}

func (p *ProgressUpdate) IsPending() bool {
	return p.Status == ProgressStatusPending
}
