// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Assembly is an organizational unit that owns ballots and attendees.
type Assembly struct {
	ID        uuid.UUID
	Title     string
	SignupEnd time.Time // attendee registration closes at this instant
	CreatedAt time.Time
}

// Attendee links a persona to an assembly together with its verification secret.
// The secret is issued exactly once per (assembly, persona) and never reused
// across assemblies. It is returned to the voter at signup and otherwise only
// ever read back for commitment computation; it is never stored with a vote.
type Attendee struct {
	AssemblyID uuid.UUID
	PersonaID  uuid.UUID
	Secret     string
	CreatedAt  time.Time
}

// QuorumMode selects how absolute and relative quorum thresholds combine.
type QuorumMode string

const (
	// QuorumModeAny passes when either configured threshold is reached.
	QuorumModeAny QuorumMode = "any"
	// QuorumModeAll requires every configured threshold to be reached.
	QuorumModeAll QuorumMode = "all"
)

// Quorum is the participation requirement of a ballot. A zero threshold means
// that threshold is not configured; a fully zero Quorum means no quorum at all.
type Quorum struct {
	Abs        int        // absolute number of votes
	RelPercent int        // percent of eligible attendees, 0..100
	Mode       QuorumMode // combination rule when both thresholds are set
}

// Configured reports whether any quorum threshold is set.
func (q Quorum) Configured() bool { return q.Abs > 0 || q.RelPercent > 0 }

// relRequired is the vote count needed for the relative threshold,
// computed with integer ceiling arithmetic.
func (q Quorum) relRequired(eligible int) int {
	return (eligible*q.RelPercent + 99) / 100
}

// Met reports whether the cast-vote count satisfies the quorum for the given
// number of eligible attendees. An unconfigured quorum is never met (it also
// never triggers early closure or extension, see the lifecycle policy).
func (q Quorum) Met(votes, eligible int) bool {
	if !q.Configured() {
		return false
	}
	if q.Abs > 0 && q.RelPercent > 0 && q.Mode == QuorumModeAny {
		return votes >= q.Abs || votes >= q.relRequired(eligible)
	}
	// Single threshold, or "all": every configured threshold must hold.
	return (q.Abs == 0 || votes >= q.Abs) &&
		(q.RelPercent == 0 || votes >= q.relRequired(eligible))
}

// BallotState is the lifecycle state of a ballot, derived lazily from
// persisted fields and the clock rather than stored directly.
type BallotState int

const (
	StateCreated BallotState = iota
	StateOpen
	StateExtended
	StateClosed
	StateTallied
)

// String returns the wire name of the state.
func (s BallotState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateOpen:
		return "open"
	case StateExtended:
		return "extended"
	case StateClosed:
		return "closed"
	case StateTallied:
		return "tallied"
	default:
		return "unknown"
	}
}

// VotingOpen reports whether votes may be cast in this state.
func (s BallotState) VotingOpen() bool { return s == StateOpen || s == StateExtended }

// Ballot is one decision put to a vote, with its own candidates and window.
type Ballot struct {
	ID               uuid.UUID
	AssemblyID       uuid.UUID
	Title            string
	UseBar           bool // ballot carries an explicit "reject everything" option
	Quorum           Quorum
	VoteBegin        time.Time
	VoteEnd          time.Time
	VoteExtensionEnd *time.Time // nil when no extension is configured
	Extended         bool       // extension has been granted (at most once)
	Tallied          bool       // monotonic one-way flag
	Candidates       []Candidate
	CreatedAt        time.Time
}

// HasExtension reports whether an extension window is configured.
func (b *Ballot) HasExtension() bool { return b.VoteExtensionEnd != nil }

// Deadline is the instant voting ends in the current state.
func (b *Ballot) Deadline() time.Time {
	if b.Extended && b.VoteExtensionEnd != nil {
		return *b.VoteExtensionEnd
	}
	return b.VoteEnd
}

// Monikers returns the candidate monikers in list order.
func (b *Ballot) Monikers() []string {
	out := make([]string, 0, len(b.Candidates))
	for _, c := range b.Candidates {
		out = append(out, c.Moniker)
	}
	return out
}

// Candidate is one option on a ballot. The moniker is the atom used inside
// ranking strings; unique per ballot and never the reserved baseline token.
type Candidate struct {
	BallotID    uuid.UUID
	Moniker     string
	Description string
}

// VoterRegisterEntry is the only persona-to-ballot link. It records *that* a
// persona voted, never what; uniqueness per (ballot, persona) is the
// concurrency backstop against double voting.
type VoterRegisterEntry struct {
	BallotID  uuid.UUID
	PersonaID uuid.UUID
	HasVoted  bool
}

// VoteRecord is one row of the published ledger. By construction it has no
// persona field; the commitment is the only tie back to a voter, and only the
// voter holding the matching secret can establish it.
type VoteRecord struct {
	BallotID   uuid.UUID
	Ranking    string // canonical ranking string
	Salt       string
	Commitment string
}

// Receipt is returned to the voter after a successful cast. Together with the
// secret the voter already holds it suffices for later self-verification.
type Receipt struct {
	Salt       string `json:"salt"`
	Commitment string `json:"commitment"`
}

// Tally outcomes.
const (
	OutcomeAccepted         = "accepted"
	OutcomeRejected         = "rejected"
	OutcomeRejectedNoQuorum = "rejected-no-quorum"
)

// TallyResult is the cached, immutable outcome of a tallied ballot.
type TallyResult struct {
	// Ranking is the aggregate group ranking, best first, with explicit tie
	// groups; it always contains the baseline token.
	Ranking [][]string `json:"ranking"`
	// Accepted lists candidates ranked strictly above the baseline, best first.
	Accepted []string `json:"accepted"`
	// Outcome is one of the Outcome* constants. Quorum failure is a result
	// state, not an error: a ballot can legitimately close without quorum.
	Outcome   string    `json:"outcome"`
	QuorumMet bool      `json:"quorum_met"`
	Votes     int       `json:"votes"`
	Eligible  int       `json:"eligible"`
	TalliedAt time.Time `json:"tallied_at"`
}
