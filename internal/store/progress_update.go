package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"carelattice.app/triage/core/db"
	"carelattice.app/triage/internal/model"
)

type progressUpdateStore struct {
	q db.Querier
}

const progressColumns = `id, patient_id, submitted_by, submitted_at, payload, status, self_review_verdict, self_reviewed_at, decided_by, decided_at`

func (s *progressUpdateStore) GetByID(ctx context.Context, id int64) (*model.ProgressUpdate, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+progressColumns+` FROM progress_updates WHERE id = $1`, id)
	pu, err := scanProgressUpdate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return pu, nil
}

func (s *progressUpdateStore) Create(ctx context.Context, pu *model.ProgressUpdate) error {
	row := s.q.QueryRow(ctx,
		`INSERT INTO progress_updates (id, patient_id, submitted_by, payload, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+progressColumns,
		pu.ID, pu.PatientID, pu.SubmittedBy, pu.Payload, string(pu.Status))
	created, err := scanProgressUpdate(row)
	if err != nil {
		return err
	}
	*pu = *created
	return nil
}

func (s *progressUpdateStore) SetSelfReview(ctx context.Context, id int64, verdict model.ReviewVerdict, at time.Time) (*model.ProgressUpdate, error) {
	row := s.q.QueryRow(ctx,
		`UPDATE progress_updates
		 SET self_review_verdict = $2, self_reviewed_at = $3
		 WHERE id = $1 AND status = 'pending_approval'
		 RETURNING `+progressColumns,
		id, string(verdict), at)
	pu, err := scanProgressUpdate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return pu, nil
}

func (s *progressUpdateStore) Decide(ctx context.Context, id int64, status model.ProgressStatus, decidedBy int64, at time.Time) (*model.ProgressUpdate, error) {
	// Compare-and-set: only a pending row transitions. A lost decide/decide
	// race matches zero rows and surfaces as ErrNotFound.
	row := s.q.QueryRow(ctx,
		`UPDATE progress_updates
		 SET status = $2, decided_by = $3, decided_at = $4
		 WHERE id = $1 AND status = 'pending_approval'
		 RETURNING `+progressColumns,
		id, string(status), decidedBy, at)
	pu, err := scanProgressUpdate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return pu, nil
}

func (s *progressUpdateStore) ListByPatient(ctx context.Context, patientID int64) ([]model.ProgressUpdate, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+progressColumns+` FROM progress_updates
		 WHERE patient_id = $1 ORDER BY submitted_at DESC, id DESC`,
		patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProgressUpdates(rows)
}

func (s *progressUpdateStore) ListPending(ctx context.Context) ([]model.ProgressUpdate, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+progressColumns+` FROM progress_updates
		 WHERE status = 'pending_approval' ORDER BY submitted_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProgressUpdates(rows)
}

func scanProgressUpdate(row pgx.Row) (*model.ProgressUpdate, error) {
	var (
		pu             model.ProgressUpdate
		reviewVerdict  *string
		selfReviewedAt *time.Time
	)
	if err := row.Scan(&pu.ID, &pu.PatientID, &pu.SubmittedBy, &pu.SubmittedAt,
		&pu.Payload, &pu.Status, &reviewVerdict, &selfReviewedAt,
		&pu.DecidedBy, &pu.DecidedAt); err != nil {
		return nil, err
	}
	if reviewVerdict != nil && selfReviewedAt != nil {
		pu.SelfReview = &model.SelfReview{
			Verdict:    model.ReviewVerdict(*reviewVerdict),
			ReviewedAt: *selfReviewedAt,
		}
	}
	return &pu, nil
}

func scanProgressUpdates(rows pgx.Rows) ([]model.ProgressUpdate, error) {
	var result []model.ProgressUpdate
	for rows.Next() {
		pu, err := scanProgressUpdate(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *pu)
	}
	return result, rows.Err()
}
