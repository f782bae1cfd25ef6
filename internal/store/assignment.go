package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"carelattice.app/triage/core/db"
	"carelattice.app/triage/internal/model"
)

type assignmentStore struct {
	q db.Querier
}

const assignmentColumns = `id, patient_id, caregiver_id, assigned_tier, assigned_at`

func (s *assignmentStore) Create(ctx context.Context, a *model.Assignment) error {
	return s.q.QueryRow(ctx,
		`INSERT INTO assignments (id, patient_id, caregiver_id, assigned_tier)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+assignmentColumns,
		a.ID, a.PatientID, a.CaregiverID, string(a.AssignedTier)).
		Scan(&a.ID, &a.PatientID, &a.CaregiverID, &a.AssignedTier, &a.AssignedAt)
}

func (s *assignmentStore) CountActiveByCaregiver(ctx context.Context, caregiverID int64) (int, error) {
	var count int
	err := s.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM assignments a
		 JOIN patients p ON p.id = a.patient_id
		 WHERE a.caregiver_id = $1 AND p.status = 'active'`,
		caregiverID).Scan(&count)
	return count, err
}

func (s *assignmentStore) ActiveCountsByCaregiver(ctx context.Context) (map[int64]int, error) {
	rows, err := s.q.Query(ctx,
		`SELECT a.caregiver_id, COUNT(*) FROM assignments a
		 JOIN patients p ON p.id = a.patient_id
		 WHERE p.status = 'active'
		 GROUP BY a.caregiver_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var (
			caregiverID int64
			count       int
		)
		if err := rows.Scan(&caregiverID, &count); err != nil {
			return nil, err
		}
		counts[caregiverID] = count
	}
	return counts, rows.Err()
}

func (s *assignmentStore) ListByCaregiver(ctx context.Context, caregiverID int64) ([]model.Assignment, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+assignmentColumns+` FROM assignments
		 WHERE caregiver_id = $1 ORDER BY assigned_at DESC, id DESC`,
		caregiverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssignments(rows)
}

func (s *assignmentStore) ListByPatient(ctx context.Context, patientID int64) ([]model.Assignment, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+assignmentColumns+` FROM assignments
		 WHERE patient_id = $1 ORDER BY assigned_at DESC, id DESC`,
		patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssignments(rows)
}

func scanAssignments(rows pgx.Rows) ([]model.Assignment, error) {
	var result []model.Assignment
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(&a.ID, &a.PatientID, &a.CaregiverID, &a.AssignedTier, &a.AssignedAt); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}
