package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"agora/internal/errs"
	"agora/internal/model"
)

// AssemblyRepo implements AssemblyRepository using PostgreSQL.
type AssemblyRepo struct{ db *DB }

// NewAssemblyRepo constructs an assembly repository.
func NewAssemblyRepo(db *DB) *AssemblyRepo { return &AssemblyRepo{db: db} }

// Create inserts a new assembly row.
func (r *AssemblyRepo) Create(ctx context.Context, a *model.Assembly) error {
	const q = `
INSERT INTO assemblies (id, title, signup_end)
VALUES ($1, $2, $3)`
	_, err := r.db.Pool.Exec(ctx, q, a.ID, a.Title, a.SignupEnd)
	return err
}

// Get selects an assembly by ID.
func (r *AssemblyRepo) Get(ctx context.Context, id uuid.UUID) (*model.Assembly, error) {
	const q = `
SELECT id, title, signup_end, created_at
FROM assemblies WHERE id=$1`
	var a model.Assembly
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&a.ID, &a.Title, &a.SignupEnd, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// UpsertAttendee inserts an attendee with its issued secret. On conflict the
// existing row wins and its secret is returned, making registration idempotent.
func (r *AssemblyRepo) UpsertAttendee(ctx context.Context, a *model.Attendee) (string, error) {
	const q = `
INSERT INTO attendees AS att (assembly_id, persona_id, secret)
VALUES ($1, $2, $3)
ON CONFLICT (assembly_id, persona_id)
DO UPDATE SET secret = att.secret
RETURNING secret`
	var secret string
	if err := r.db.Pool.QueryRow(ctx, q, a.AssemblyID, a.PersonaID, a.Secret).Scan(&secret); err != nil {
		return "", err
	}
	return secret, nil
}

// AttendeeSecret selects the secret of a registered persona.
func (r *AssemblyRepo) AttendeeSecret(ctx context.Context, assemblyID, personaID uuid.UUID) (string, error) {
	const q = `
SELECT secret FROM attendees WHERE assembly_id=$1 AND persona_id=$2`
	var secret string
	if err := r.db.Pool.QueryRow(ctx, q, assemblyID, personaID).Scan(&secret); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", errs.ErrNotFound
		}
		return "", err
	}
	return secret, nil
}

// CountAttendees counts the eligible attendees of an assembly.
func (r *AssemblyRepo) CountAttendees(ctx context.Context, assemblyID uuid.UUID) (int, error) {
	const q = `SELECT count(*) FROM attendees WHERE assembly_id=$1`
	var n int
	if err := r.db.Pool.QueryRow(ctx, q, assemblyID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
