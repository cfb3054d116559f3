package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinicbook/backend/internal/domain"
)

func (p *Postgres) GetPatient(ctx context.Context, id uuid.UUID) (*domain.Patient, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	var pt domain.Patient
	err := p.conn.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, email, phone, created_at, updated_at
		FROM patients
		WHERE id = $1`,
		id,
	).Scan(&pt.ID, &pt.FirstName, &pt.LastName, &pt.Email, &pt.Phone, &pt.CreatedAt, &pt.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return &pt, nil
}
