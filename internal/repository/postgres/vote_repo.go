package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"agora/internal/errs"
	"agora/internal/model"
)

// VoteRepo implements VoteRepository using PostgreSQL.
type VoteRepo struct{ db *DB }

// NewVoteRepo constructs a vote repository.
func NewVoteRepo(db *DB) *VoteRepo { return &VoteRepo{db: db} }

// OpenRegister creates register entries for every attendee of the ballot's
// assembly. ON CONFLICT DO NOTHING makes repeated lazy invocations free.
func (r *VoteRepo) OpenRegister(ctx context.Context, ballotID uuid.UUID) error {
	const q = `
INSERT INTO voter_register (ballot_id, persona_id)
SELECT b.id, a.persona_id
FROM ballots b
JOIN attendees a ON a.assembly_id = b.assembly_id
WHERE b.id = $1
ON CONFLICT (ballot_id, persona_id) DO NOTHING`
	_, err := r.db.Pool.Exec(ctx, q, ballotID)
	return err
}

// CountVotes counts the votes cast on a ballot.
func (r *VoteRepo) CountVotes(ctx context.Context, ballotID uuid.UUID) (int, error) {
	const q = `SELECT count(*) FROM vote_records WHERE ballot_id=$1`
	var n int
	if err := r.db.Pool.QueryRow(ctx, q, ballotID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Cast flips has_voted and appends the vote record in one transaction.
// The conditional upsert returns no row when has_voted is already true, so
// exactly one of two concurrent casts commits; the uniqueness constraint on
// (ballot_id, persona_id) is the backstop under a lost-update race.
func (r *VoteRepo) Cast(ctx context.Context, personaID uuid.UUID, rec *model.VoteRecord) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const mark = `
INSERT INTO voter_register AS vr (ballot_id, persona_id, has_voted)
VALUES ($1, $2, true)
ON CONFLICT (ballot_id, persona_id)
DO UPDATE SET has_voted = true WHERE NOT vr.has_voted
RETURNING persona_id`
	var marked uuid.UUID
	if err = tx.QueryRow(ctx, mark, rec.BallotID, personaID).Scan(&marked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isUniqueViolation(err) {
			return errs.ErrAlreadyVoted
		}
		return err
	}

	const ins = `
INSERT INTO vote_records (ballot_id, ranking, salt, commitment)
VALUES ($1, $2, $3, $4)`
	if _, err = tx.Exec(ctx, ins, rec.BallotID, rec.Ranking, rec.Salt, rec.Commitment); err != nil {
		return err
	}
	return nil
}

// Records selects the ballot's ledger in insertion order.
func (r *VoteRepo) Records(ctx context.Context, ballotID uuid.UUID) ([]model.VoteRecord, error) {
	const q = `
SELECT ballot_id, ranking, salt, commitment
FROM vote_records WHERE ballot_id=$1 ORDER BY id`
	rows, err := r.db.Pool.Query(ctx, q, ballotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.VoteRecord
	for rows.Next() {
		var rec model.VoteRecord
		if err := rows.Scan(&rec.BallotID, &rec.Ranking, &rec.Salt, &rec.Commitment); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// HasCommitment reports ledger membership of a commitment.
func (r *VoteRepo) HasCommitment(ctx context.Context, ballotID uuid.UUID, commitment string) (bool, error) {
	const q = `
SELECT EXISTS (SELECT 1 FROM vote_records WHERE ballot_id=$1 AND commitment=$2)`
	var ok bool
	if err := r.db.Pool.QueryRow(ctx, q, ballotID, commitment).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}
