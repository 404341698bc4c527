package ballot

import (
	"time"

	"agora/internal/model"
)

// NextState derives the lifecycle state of a ballot snapshot at the given
// instant. It is pure and idempotent: callers re-evaluate it at the top of
// every operation touching the ballot and persist only the extended flag when
// it actually flips, so no background scheduler is needed and concurrent
// evaluations agree.
//
//	Created -> Open -> (Extended)? -> Closed -> Tallied
//
// Extended is a sub-state of Open reachable only through an Extend decision;
// Tallied is reached solely by committing a tally, never by the clock.
func NextState(b *model.Ballot, votes, eligible int, now time.Time) model.BallotState {
	if b.Tallied {
		return model.StateTallied
	}
	if now.Before(b.VoteBegin) {
		return model.StateCreated
	}

	switch Decide(b.Quorum, eligible, votes, now.After(b.Deadline()), b.Extended, b.HasExtension()) {
	case Close:
		return model.StateClosed
	case Extend:
		// The extension is granted de jure at vote_end; if the extension
		// window itself is already over, the ballot is simply closed.
		if now.After(*b.VoteExtensionEnd) {
			return model.StateClosed
		}
		return model.StateExtended
	}

	if b.Extended {
		return model.StateExtended
	}
	return model.StateOpen
}
