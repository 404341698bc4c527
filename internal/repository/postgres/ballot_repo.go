package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"agora/internal/errs"
	"agora/internal/model"
)

// BallotRepo implements BallotRepository using PostgreSQL.
type BallotRepo struct{ db *DB }

// NewBallotRepo constructs a ballot repository.
func NewBallotRepo(db *DB) *BallotRepo { return &BallotRepo{db: db} }

const ballotColumns = `
id, assembly_id, title, use_bar, abs_quorum, rel_quorum, quorum_mode,
vote_begin, vote_end, vote_extension_end, extended, tallied, created_at`

// Create inserts a ballot and its candidate list in one transaction.
func (r *BallotRepo) Create(ctx context.Context, b *model.Ballot) (err error) {
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

	const insBallot = `
INSERT INTO ballots (id, assembly_id, title, use_bar, abs_quorum, rel_quorum, quorum_mode,
                     vote_begin, vote_end, vote_extension_end)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	if _, err = tx.Exec(ctx, insBallot,
		b.ID, b.AssemblyID, b.Title, b.UseBar,
		b.Quorum.Abs, b.Quorum.RelPercent, string(b.Quorum.Mode),
		b.VoteBegin, b.VoteEnd, b.VoteExtensionEnd,
	); err != nil {
		return err
	}

	const insCand = `
INSERT INTO candidates (ballot_id, ord, moniker, description) VALUES ($1,$2,$3,$4)`
	for i, c := range b.Candidates {
		if _, err = tx.Exec(ctx, insCand, b.ID, i, c.Moniker, c.Description); err != nil {
			return err
		}
	}
	return nil
}

// Get selects a ballot with its candidates in list order.
func (r *BallotRepo) Get(ctx context.Context, id uuid.UUID) (*model.Ballot, error) {
	const q = `SELECT ` + ballotColumns + ` FROM ballots WHERE id=$1`
	b, err := scanBallot(r.db.Pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, err
	}

	const qc = `
SELECT ballot_id, moniker, description
FROM candidates WHERE ballot_id=$1 ORDER BY ord`
	rows, err := r.db.Pool.Query(ctx, qc, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var c model.Candidate
		if err := rows.Scan(&c.BallotID, &c.Moniker, &c.Description); err != nil {
			return nil, err
		}
		b.Candidates = append(b.Candidates, c)
	}
	return b, rows.Err()
}

// ListByAssembly selects all ballots of an assembly, candidates included.
func (r *BallotRepo) ListByAssembly(ctx context.Context, assemblyID uuid.UUID) ([]model.Ballot, error) {
	const q = `SELECT ` + ballotColumns + ` FROM ballots WHERE assembly_id=$1 ORDER BY vote_begin, id`
	rows, err := r.db.Pool.Query(ctx, q, assemblyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Ballot
	for rows.Next() {
		b, err := scanBallot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		const qc = `
SELECT ballot_id, moniker, description
FROM candidates WHERE ballot_id=$1 ORDER BY ord`
		rows, err := r.db.Pool.Query(ctx, qc, out[i].ID)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var c model.Candidate
			if err := rows.Scan(&c.BallotID, &c.Moniker, &c.Description); err != nil {
				rows.Close()
				return nil, err
			}
			out[i].Candidates = append(out[i].Candidates, c)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// SetExtended records the one-time extension grant. Idempotent: concurrent
// lazy evaluations may both observe the transition.
func (r *BallotRepo) SetExtended(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE ballots SET extended=true WHERE id=$1 AND NOT extended`
	_, err := r.db.Pool.Exec(ctx, q, id)
	return err
}

// MarkTallied commits the cached result and flips the one-way tallied flag.
// The WHERE NOT tallied guard makes a lost re-tally race observable instead
// of silently overwriting a published result.
func (r *BallotRepo) MarkTallied(ctx context.Context, id uuid.UUID, result []byte) error {
	const q = `UPDATE ballots SET tallied=true, result=$2 WHERE id=$1 AND NOT tallied`
	tag, err := r.db.Pool.Exec(ctx, q, id, result)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrAlreadyTallied
	}
	return nil
}

// Result selects the cached tally result.
func (r *BallotRepo) Result(ctx context.Context, id uuid.UUID) ([]byte, error) {
	const q = `SELECT tallied, result FROM ballots WHERE id=$1`
	var tallied bool
	var result []byte
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&tallied, &result); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	if !tallied {
		return nil, errs.ErrNotTallied
	}
	return result, nil
}

// scanBallot reads one ballot row in ballotColumns order.
func scanBallot(row pgx.Row) (*model.Ballot, error) {
	var b model.Ballot
	var mode string
	err := row.Scan(
		&b.ID, &b.AssemblyID, &b.Title, &b.UseBar,
		&b.Quorum.Abs, &b.Quorum.RelPercent, &mode,
		&b.VoteBegin, &b.VoteEnd, &b.VoteExtensionEnd,
		&b.Extended, &b.Tallied, &b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	b.Quorum.Mode = model.QuorumMode(mode)
	return &b, nil
}
