package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"carelattice.app/triage/core/db"
	"carelattice.app/triage/internal/model"
)

type patientStore struct {
	q db.Querier
}

const patientColumns = `id, name, status, created_at`

func (s *patientStore) GetByID(ctx context.Context, id int64) (*model.Patient, error) {
	var p model.Patient
	err := s.q.QueryRow(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Status, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *patientStore) Create(ctx context.Context, p *model.Patient) error {
	return s.q.QueryRow(ctx,
		`INSERT INTO patients (id, name, status)
		 VALUES ($1, $2, $3)
		 RETURNING `+patientColumns,
		p.ID, p.Name, string(p.Status)).
		Scan(&p.ID, &p.Name, &p.Status, &p.CreatedAt)
}

func (s *patientStore) List(ctx context.Context, limit, offset int32) ([]model.Patient, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+patientColumns+` FROM patients ORDER BY created_at, id LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Patient
	for rows.Next() {
		var p model.Patient
		if err := rows.Scan(&p.ID, &p.Name, &p.Status, &p.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
