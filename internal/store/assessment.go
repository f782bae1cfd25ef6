package store

import (
	"context"

	"carelattice.app/triage/core/db"
	"carelattice.app/triage/internal/model"
)

type assessmentStore struct {
	q db.Querier
}

const assessmentColumns = `id, patient_id, score, level, urgency, risk_factors, recommended_care, required_tier, is_fallback, created_at`

func (s *assessmentStore) Create(ctx context.Context, a *model.SeverityAssessment) error {
	return s.q.QueryRow(ctx,
		`INSERT INTO severity_assessments
		   (id, patient_id, score, level, urgency, risk_factors, recommended_care, required_tier, is_fallback)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+assessmentColumns,
		a.ID, a.PatientID, a.Score, string(a.Level), string(a.Urgency),
		a.RiskFactors, a.RecommendedCare, string(a.RequiredTier), a.IsFallback).
		Scan(&a.ID, &a.PatientID, &a.Score, &a.Level, &a.Urgency,
			&a.RiskFactors, &a.RecommendedCare, &a.RequiredTier, &a.IsFallback, &a.CreatedAt)
}

func (s *assessmentStore) ListByPatient(ctx context.Context, patientID int64) ([]model.SeverityAssessment, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+assessmentColumns+` FROM severity_assessments
		 WHERE patient_id = $1 ORDER BY created_at DESC, id DESC`,
		patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.SeverityAssessment
	for rows.Next() {
		var a model.SeverityAssessment
		if err := rows.Scan(&a.ID, &a.PatientID, &a.Score, &a.Level, &a.Urgency,
			&a.RiskFactors, &a.RecommendedCare, &a.RequiredTier, &a.IsFallback, &a.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}
