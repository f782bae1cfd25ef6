package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"carelattice.app/triage/core/db"
	"carelattice.app/triage/internal/model"
)

type caregiverStore struct {
	q db.Querier
}

const caregiverColumns = `id, name, tier, status, max_patients, created_at`

func (s *caregiverStore) GetByID(ctx context.Context, id int64) (*model.Caregiver, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+caregiverColumns+` FROM caregivers WHERE id = $1`, id)
	cg, err := scanCaregiver(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return cg, nil
}

func (s *caregiverStore) Create(ctx context.Context, cg *model.Caregiver) error {
	row := s.q.QueryRow(ctx,
		`INSERT INTO caregivers (id, name, tier, status, max_patients)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+caregiverColumns,
		cg.ID, cg.Name, tierParam(cg.Tier), string(cg.Status), cg.MaxPatients)
	created, err := scanCaregiver(row)
	if err != nil {
		return err
	}
	*cg = *created
	return nil
}

func (s *caregiverStore) Update(ctx context.Context, cg *model.Caregiver) error {
	row := s.q.QueryRow(ctx,
		`UPDATE caregivers
		 SET name = $2, tier = $3, status = $4, max_patients = $5
		 WHERE id = $1
		 RETURNING `+caregiverColumns,
		cg.ID, cg.Name, tierParam(cg.Tier), string(cg.Status), cg.MaxPatients)
	updated, err := scanCaregiver(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	*cg = *updated
	return nil
}

func (s *caregiverStore) List(ctx context.Context, limit, offset int32) ([]model.Caregiver, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+caregiverColumns+` FROM caregivers ORDER BY created_at, id LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCaregivers(rows)
}

func (s *caregiverStore) ListActive(ctx context.Context) ([]model.Caregiver, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+caregiverColumns+` FROM caregivers WHERE status = 'active' ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCaregivers(rows)
}

func (s *caregiverStore) LockByID(ctx context.Context, id int64) error {
	var locked int64
	err := s.q.QueryRow(ctx,
		`SELECT id FROM caregivers WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func tierParam(t *model.Tier) *string {
	if t == nil {
		return nil
	}
	s := string(*t)
	return &s
}

func scanCaregiver(row pgx.Row) (*model.Caregiver, error) {
	var (
		cg   model.Caregiver
		tier *string
	)
	if err := row.Scan(&cg.ID, &cg.Name, &tier, &cg.Status, &cg.MaxPatients, &cg.CreatedAt); err != nil {
		return nil, err
	}
	if tier != nil {
		t := model.Tier(*tier)
		cg.Tier = &t
	}
	return &cg, nil
}

func scanCaregivers(rows pgx.Rows) ([]model.Caregiver, error) {
	var result []model.Caregiver
	for rows.Next() {
		cg, err := scanCaregiver(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *cg)
	}
	return result, rows.Err()
}
