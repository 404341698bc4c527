package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"agora/internal/model"
)

// VoteRepository provides the voter register and the persona-free vote ledger.
type VoteRepository interface {
	// OpenRegister creates register entries for every attendee of the
	// ballot's assembly. Idempotent; invoked lazily once voting opens.
	OpenRegister(ctx context.Context, ballotID uuid.UUID) error

	// CountVotes returns the number of votes cast on a ballot.
	CountVotes(ctx context.Context, ballotID uuid.UUID) (int, error)

	// Cast atomically flips the register's has_voted flag and appends the
	// vote record. Returns errs.ErrAlreadyVoted when the flag is already
	// set, including for the loser of a concurrent duplicate cast.
	Cast(ctx context.Context, personaID uuid.UUID, rec *model.VoteRecord) error

	// Records returns the ballot's ledger in stable (insertion) order.
	Records(ctx context.Context, ballotID uuid.UUID) ([]model.VoteRecord, error)

	// HasCommitment reports whether a commitment is present in the ledger.
	HasCommitment(ctx context.Context, ballotID uuid.UUID, commitment string) (bool, error)
}
