package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"agora/internal/model"
)

// BallotRepository provides access to ballots, their candidates and the
// monotonic lifecycle flags.
type BallotRepository interface {
	// Create inserts a ballot together with its candidate list in one
	// transaction.
	Create(ctx context.Context, b *model.Ballot) error

	// Get loads a ballot with its candidates.
	Get(ctx context.Context, id uuid.UUID) (*model.Ballot, error)

	// ListByAssembly returns the ballots of an assembly, candidates included.
	ListByAssembly(ctx context.Context, assemblyID uuid.UUID) ([]model.Ballot, error)

	// SetExtended marks the ballot's one-time extension as granted.
	// Idempotent: lazily evaluated transitions may race to record it.
	SetExtended(ctx context.Context, id uuid.UUID) error

	// MarkTallied commits the tally result and flips the one-way tallied
	// flag. Returns errs.ErrAlreadyTallied when the flag is already set.
	MarkTallied(ctx context.Context, id uuid.UUID, result []byte) error

	// Result returns the cached tally result, or errs.ErrNotTallied.
	Result(ctx context.Context, id uuid.UUID) ([]byte, error)
}
