package ballot

import (
	"testing"
	"time"

	"agora/internal/model"
)

var (
	begin  = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	end    = begin.Add(24 * time.Hour)
	extEnd = end.Add(24 * time.Hour)
)

func testBallot(q model.Quorum, withExt bool) *model.Ballot {
	b := &model.Ballot{
		Title:     "board election",
		Quorum:    q,
		VoteBegin: begin,
		VoteEnd:   end,
	}
	if withExt {
		e := extEnd
		b.VoteExtensionEnd = &e
	}
	return b
}

func TestNextState_Lifecycle(t *testing.T) {
	t.Parallel()
	b := testBallot(model.Quorum{}, false)

	if st := NextState(b, 0, 10, begin.Add(-time.Hour)); st != model.StateCreated {
		t.Fatalf("before begin: %v", st)
	}
	if st := NextState(b, 0, 10, begin.Add(time.Hour)); st != model.StateOpen {
		t.Fatalf("inside window: %v", st)
	}
	if st := NextState(b, 0, 10, end.Add(time.Hour)); st != model.StateClosed {
		t.Fatalf("after end: %v", st)
	}

	b.Tallied = true
	if st := NextState(b, 0, 10, end.Add(time.Hour)); st != model.StateTallied {
		t.Fatalf("tallied flag: %v", st)
	}
}

func TestNextState_ExtensionExactlyOnce(t *testing.T) {
	t.Parallel()
	b := testBallot(model.Quorum{Abs: 5, Mode: model.QuorumModeAll}, true)

	// 3 of 5 required votes at vote_end: the window extends.
	if st := NextState(b, 3, 10, end.Add(time.Hour)); st != model.StateExtended {
		t.Fatalf("first deadline pass: %v, want extended", st)
	}

	// Still 3 votes when the extension window runs out: closed, not extended again.
	b.Extended = true
	if st := NextState(b, 3, 10, extEnd.Add(time.Hour)); st != model.StateClosed {
		t.Fatalf("after extension end: %v, want closed", st)
	}
}

func TestNextState_ExtensionWindowAlreadyOver(t *testing.T) {
	t.Parallel()
	// First evaluation happens long after even the extension window passed:
	// the ballot is simply closed.
	b := testBallot(model.Quorum{Abs: 5, Mode: model.QuorumModeAll}, true)
	if st := NextState(b, 3, 10, extEnd.Add(time.Hour)); st != model.StateClosed {
		t.Fatalf("stale first evaluation: %v, want closed", st)
	}
}

func TestNextState_QuorumMetClosesEarly(t *testing.T) {
	t.Parallel()
	b := testBallot(model.Quorum{Abs: 5, Mode: model.QuorumModeAll}, true)
	if st := NextState(b, 5, 10, begin.Add(time.Hour)); st != model.StateClosed {
		t.Fatalf("quorum met mid-window: %v, want closed", st)
	}
}

func TestNextState_Idempotent(t *testing.T) {
	t.Parallel()
	b := testBallot(model.Quorum{Abs: 5, Mode: model.QuorumModeAll}, true)
	now := end.Add(time.Hour)
	first := NextState(b, 3, 10, now)
	second := NextState(b, 3, 10, now)
	if first != second {
		t.Fatalf("same snapshot produced %v then %v", first, second)
	}
}
