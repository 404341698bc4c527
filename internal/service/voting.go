package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"golang.org/x/sync/singleflight"

	"agora/internal/ballot"
	"agora/internal/commit"
	"agora/internal/errs"
	"agora/internal/metrics"
	"agora/internal/model"
	"agora/internal/ranking"
	"agora/internal/repository"
	"agora/internal/tally"
)

// VotingService defines the voter- and organizer-facing voting operations.
type VotingService interface {
	// Cast validates and atomically records one vote, returning the receipt.
	Cast(ctx context.Context, ballotID, personaID uuid.UUID, raw string) (model.Receipt, error)
	// BallotState returns the ballot with its lazily evaluated state.
	BallotState(ctx context.Context, ballotID uuid.UUID) (*BallotStatus, error)
	// Tally runs the Schulze tally on a closed ballot and commits the result.
	Tally(ctx context.Context, ballotID uuid.UUID) (*model.TallyResult, error)
	// GetTally returns the cached result of a tallied ballot.
	GetTally(ctx context.Context, ballotID uuid.UUID) (*model.TallyResult, error)
	// Verify recomputes a commitment and checks ledger membership.
	Verify(ctx context.Context, ballotID uuid.UUID, secret, raw, salt string) (bool, error)
	// Records returns the persona-free ledger of a ballot.
	Records(ctx context.Context, ballotID uuid.UUID) ([]model.VoteRecord, error)
}

// BallotStatus is a ballot snapshot with its derived lifecycle state.
type BallotStatus struct {
	Ballot   *model.Ballot
	State    model.BallotState
	Votes    int
	Eligible int
}

type VotingServiceImpl struct {
	assemblies repository.AssemblyRepository
	ballots    repository.BallotRepository
	votes      repository.VoteRepository
	met        *metrics.Metrics
	tallies    singleflight.Group
	now        func() time.Time
}

// NewVotingService constructs VotingService with required dependencies.
func NewVotingService(
	assemblies repository.AssemblyRepository,
	ballots repository.BallotRepository,
	votes repository.VoteRepository,
	met *metrics.Metrics,
) *VotingServiceImpl {
	return &VotingServiceImpl{
		assemblies: assemblies,
		ballots:    ballots,
		votes:      votes,
		met:        met,
		now:        time.Now,
	}
}

// load reads a ballot snapshot, derives its state and persists the one-way
// transition side effects (register opening, extension grant). The derived
// state is never cached across requests; every operation re-evaluates it.
func (s *VotingServiceImpl) load(ctx context.Context, ballotID uuid.UUID) (*BallotStatus, error) {
	b, err := s.ballots.Get(ctx, ballotID)
	if err != nil {
		return nil, err
	}
	eligible, err := s.assemblies.CountAttendees(ctx, b.AssemblyID)
	if err != nil {
		return nil, err
	}
	votes, err := s.votes.CountVotes(ctx, ballotID)
	if err != nil {
		return nil, err
	}

	st := ballot.NextState(b, votes, eligible, s.now())
	if st.VotingOpen() {
		if err := s.votes.OpenRegister(ctx, ballotID); err != nil {
			return nil, err
		}
	}
	if st == model.StateExtended && !b.Extended {
		if err := s.ballots.SetExtended(ctx, ballotID); err != nil {
			return nil, err
		}
		b.Extended = true
		if s.met != nil {
			s.met.ExtensionsTotal.Inc()
		}
	}
	return &BallotStatus{Ballot: b, State: st, Votes: votes, Eligible: eligible}, nil
}

// BallotState returns the current snapshot of a ballot.
func (s *VotingServiceImpl) BallotState(ctx context.Context, ballotID uuid.UUID) (*BallotStatus, error) {
	return s.load(ctx, ballotID)
}

// Cast validates eligibility, window and grammar, then records the vote
// atomically. All validation happens before any storage mutation; the
// register check-and-set and the ledger insert are one transaction in the
// repository, so two concurrent casts by the same persona cannot both commit.
func (s *VotingServiceImpl) Cast(ctx context.Context, ballotID, personaID uuid.UUID, raw string) (model.Receipt, error) {
	st, err := s.load(ctx, ballotID)
	if err != nil {
		return model.Receipt{}, err
	}
	if !st.State.VotingOpen() {
		s.reject("not_open")
		return model.Receipt{}, errs.ErrNotOpen
	}

	secret, err := s.assemblies.AttendeeSecret(ctx, st.Ballot.AssemblyID, personaID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			s.reject("not_eligible")
			return model.Receipt{}, errs.ErrNotEligible
		}
		return model.Receipt{}, err
	}

	parsed, err := ranking.Parse(raw, st.Ballot.Monikers(), st.Ballot.UseBar)
	if err != nil {
		s.reject("malformed")
		return model.Receipt{}, err
	}
	canonical := parsed.Canonical()

	salt, err := commit.NewSalt()
	if err != nil {
		return model.Receipt{}, err
	}
	digest := commit.Commit(secret, salt, canonical)

	rec := &model.VoteRecord{
		BallotID:   ballotID,
		Ranking:    canonical,
		Salt:       salt,
		Commitment: digest,
	}
	if err := s.votes.Cast(ctx, personaID, rec); err != nil {
		if errors.Is(err, errs.ErrAlreadyVoted) {
			s.reject("already_voted")
		}
		return model.Receipt{}, err
	}
	if s.met != nil {
		s.met.VotesCastTotal.Inc()
	}
	return model.Receipt{Salt: salt, Commitment: digest}, nil
}

// Tally computes and commits the result of a closed ballot. Runs are
// serialized per ballot; the repository's tallied guard keeps a lost race
// from overwriting the published result, and an interrupted run before the
// commit is safely retryable.
func (s *VotingServiceImpl) Tally(ctx context.Context, ballotID uuid.UUID) (*model.TallyResult, error) {
	v, err, _ := s.tallies.Do(ballotID.String(), func() (any, error) {
		return s.tallyOnce(ctx, ballotID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.TallyResult), nil
}

func (s *VotingServiceImpl) tallyOnce(ctx context.Context, ballotID uuid.UUID) (*model.TallyResult, error) {
	st, err := s.load(ctx, ballotID)
	if err != nil {
		return nil, err
	}
	switch st.State {
	case model.StateTallied:
		return nil, errs.ErrAlreadyTallied
	case model.StateClosed:
	default:
		return nil, errs.ErrNotOpen
	}

	records, err := s.votes.Records(ctx, ballotID)
	if err != nil {
		return nil, err
	}
	monikers := st.Ballot.Monikers()
	rankings := make([]ranking.Ranking, 0, len(records))
	for _, rec := range records {
		parsed, err := ranking.Parse(rec.Ranking, monikers, st.Ballot.UseBar)
		if err != nil {
			return nil, fmt.Errorf("stored vote: %w", err)
		}
		rankings = append(rankings, parsed)
	}

	start := s.now()
	outcome := tally.Compute(monikers, rankings)
	if s.met != nil {
		s.met.TallyDuration.Observe(time.Since(start).Seconds())
	}

	quorumMet := !st.Ballot.Quorum.Configured() || st.Ballot.Quorum.Met(st.Votes, st.Eligible)
	res := &model.TallyResult{
		Ranking:   outcome.Ranking,
		Accepted:  outcome.Accepted,
		QuorumMet: quorumMet,
		Votes:     st.Votes,
		Eligible:  st.Eligible,
		TalliedAt: s.now().UTC(),
	}
	switch {
	case !quorumMet:
		res.Outcome = model.OutcomeRejectedNoQuorum
	case len(res.Accepted) > 0:
		res.Outcome = model.OutcomeAccepted
	default:
		res.Outcome = model.OutcomeRejected
	}

	buf, err := json.Marshal(res)
	if err != nil {
		return nil, err
	}
	if err := s.ballots.MarkTallied(ctx, ballotID, buf); err != nil {
		return nil, err
	}
	if s.met != nil {
		s.met.TalliesTotal.Inc()
	}
	return res, nil
}

// GetTally returns the cached result; fails with errs.ErrNotTallied until a
// tally has been committed.
func (s *VotingServiceImpl) GetTally(ctx context.Context, ballotID uuid.UUID) (*model.TallyResult, error) {
	buf, err := s.ballots.Result(ctx, ballotID)
	if err != nil {
		return nil, err
	}
	var res model.TallyResult
	if err := json.Unmarshal(buf, &res); err != nil {
		return nil, fmt.Errorf("cached result: %w", err)
	}
	return &res, nil
}

// Verify recomputes Commit(secret, salt, ranking) and checks membership in
// the ballot's ledger. The server learns nothing beyond the single lookup
// the voter issues; an unparseable ranking can never match a stored record.
func (s *VotingServiceImpl) Verify(ctx context.Context, ballotID uuid.UUID, secret, raw, salt string) (bool, error) {
	b, err := s.ballots.Get(ctx, ballotID)
	if err != nil {
		return false, err
	}
	parsed, err := ranking.Parse(raw, b.Monikers(), b.UseBar)
	if err != nil {
		return false, nil
	}
	digest := commit.Commit(secret, salt, parsed.Canonical())
	return s.votes.HasCommitment(ctx, ballotID, digest)
}

// Records returns the persona-free ledger of a ballot.
func (s *VotingServiceImpl) Records(ctx context.Context, ballotID uuid.UUID) ([]model.VoteRecord, error) {
	if _, err := s.ballots.Get(ctx, ballotID); err != nil {
		return nil, err
	}
	return s.votes.Records(ctx, ballotID)
}

func (s *VotingServiceImpl) reject(reason string) {
	if s.met != nil {
		s.met.CastRejected(reason)
	}
}
