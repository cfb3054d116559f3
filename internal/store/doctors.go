package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/clinicbook/backend/internal/domain"
)

const doctorColumns = `id, name, specialization, email, phone, created_at, updated_at`

func scanDoctor(row interface{ Scan(...any) error }) (*domain.Doctor, error) {
	var d domain.Doctor
	err := row.Scan(&d.ID, &d.Name, &d.Specialization, &d.Email, &d.Phone, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (p *Postgres) GetDoctor(ctx context.Context, id uuid.UUID) (*domain.Doctor, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	row := p.conn.QueryRowContext(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors
		WHERE id = $1`,
		id,
	)

	doc, err := scanDoctor(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get doctor: %w", err)
	}
	return doc, nil
}

func (p *Postgres) ListDoctors(ctx context.Context) ([]*domain.Doctor, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	rows, err := p.conn.QueryContext(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors
		ORDER BY name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	defer rows.Close()

	var out []*domain.Doctor
	for rows.Next() {
		doc, err := scanDoctor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan doctor: %w", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate doctors: %w", err)
	}
	return out, nil
}

func (p *Postgres) CreateDoctor(ctx context.Context, d *domain.Doctor) (*domain.Doctor, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	row := p.conn.QueryRowContext(ctx, `
		INSERT INTO doctors (id, name, specialization, email, phone)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+doctorColumns,
		newID(), d.Name, d.Specialization, d.Email, d.Phone,
	)

	doc, err := scanDoctor(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create doctor: %w", err)
	}
	return doc, nil
}
