// Package service contains application services for assemblies and voting.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"agora/internal/commit"
	"agora/internal/errs"
	"agora/internal/model"
	"agora/internal/ranking"
	"agora/internal/repository"
)

// AssemblyService defines organizer-facing assembly and ballot management.
type AssemblyService interface {
	// CreateAssembly creates an assembly with a signup deadline.
	CreateAssembly(ctx context.Context, title string, signupEnd time.Time) (*model.Assembly, error)
	// CreateBallot creates a ballot with its immutable candidate list.
	CreateBallot(ctx context.Context, nb NewBallot) (*model.Ballot, error)
	// ListBallots returns the ballots of an assembly.
	ListBallots(ctx context.Context, assemblyID uuid.UUID) ([]model.Ballot, error)
	// RegisterAttendee signs a persona up and returns its verification
	// secret. Idempotent: re-registration returns the original secret.
	RegisterAttendee(ctx context.Context, assemblyID, personaID uuid.UUID) (string, error)
}

// NewBallot carries the parameters of a ballot creation.
type NewBallot struct {
	AssemblyID       uuid.UUID
	Title            string
	UseBar           bool
	Quorum           model.Quorum
	VoteBegin        time.Time
	VoteEnd          time.Time
	VoteExtensionEnd *time.Time
	Candidates       []model.Candidate
}

type AssemblyServiceImpl struct {
	assemblies repository.AssemblyRepository
	ballots    repository.BallotRepository
	now        func() time.Time
}

// NewAssemblyService constructs AssemblyService with required dependencies.
func NewAssemblyService(assemblies repository.AssemblyRepository, ballots repository.BallotRepository) *AssemblyServiceImpl {
	return &AssemblyServiceImpl{assemblies: assemblies, ballots: ballots, now: time.Now}
}

// CreateAssembly validates and stores a new assembly.
func (s *AssemblyServiceImpl) CreateAssembly(ctx context.Context, title string, signupEnd time.Time) (*model.Assembly, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("validation: empty title")
	}
	if signupEnd.IsZero() {
		return nil, fmt.Errorf("validation: missing signup_end")
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	a := &model.Assembly{ID: id, Title: title, SignupEnd: signupEnd}
	if err := s.assemblies.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// CreateBallot validates window ordering, quorum configuration and the
// candidate list, then stores the ballot. Candidates are immutable from here
// on; there is no later mutation path once voting can begin.
func (s *AssemblyServiceImpl) CreateBallot(ctx context.Context, nb NewBallot) (*model.Ballot, error) {
	if strings.TrimSpace(nb.Title) == "" {
		return nil, fmt.Errorf("validation: empty title")
	}
	if _, err := s.assemblies.Get(ctx, nb.AssemblyID); err != nil {
		return nil, err
	}
	if !nb.VoteBegin.Before(nb.VoteEnd) {
		return nil, fmt.Errorf("validation: vote_begin must precede vote_end")
	}
	if nb.VoteExtensionEnd != nil {
		if !nb.VoteEnd.Before(*nb.VoteExtensionEnd) {
			return nil, fmt.Errorf("validation: vote_end must precede vote_extension_end")
		}
		if !nb.Quorum.Configured() {
			return nil, fmt.Errorf("validation: extension window requires a quorum")
		}
	}
	if nb.Quorum.Abs < 0 || nb.Quorum.RelPercent < 0 || nb.Quorum.RelPercent > 100 {
		return nil, fmt.Errorf("validation: quorum out of range")
	}
	if nb.Quorum.Mode == "" {
		nb.Quorum.Mode = model.QuorumModeAll
	}
	if nb.Quorum.Mode != model.QuorumModeAll && nb.Quorum.Mode != model.QuorumModeAny {
		return nil, fmt.Errorf("validation: unknown quorum mode %q", nb.Quorum.Mode)
	}
	if len(nb.Candidates) == 0 {
		return nil, fmt.Errorf("validation: ballot needs at least one candidate")
	}
	seen := make(map[string]bool, len(nb.Candidates))
	for _, c := range nb.Candidates {
		m := c.Moniker
		if m == "" || m == ranking.BarToken || strings.ContainsAny(m, ">= \t") {
			return nil, fmt.Errorf("validation: invalid moniker %q", m)
		}
		if seen[m] {
			return nil, fmt.Errorf("validation: duplicate moniker %q", m)
		}
		seen[m] = true
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	b := &model.Ballot{
		ID:               id,
		AssemblyID:       nb.AssemblyID,
		Title:            strings.TrimSpace(nb.Title),
		UseBar:           nb.UseBar,
		Quorum:           nb.Quorum,
		VoteBegin:        nb.VoteBegin,
		VoteEnd:          nb.VoteEnd,
		VoteExtensionEnd: nb.VoteExtensionEnd,
	}
	for _, c := range nb.Candidates {
		b.Candidates = append(b.Candidates, model.Candidate{
			BallotID:    id,
			Moniker:     c.Moniker,
			Description: c.Description,
		})
	}
	if err := s.ballots.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ListBallots returns the ballots of an assembly.
func (s *AssemblyServiceImpl) ListBallots(ctx context.Context, assemblyID uuid.UUID) ([]model.Ballot, error) {
	if _, err := s.assemblies.Get(ctx, assemblyID); err != nil {
		return nil, err
	}
	return s.ballots.ListByAssembly(ctx, assemblyID)
}

// RegisterAttendee issues (or re-reads) the persona's unlinkability secret.
// Fails with errs.ErrSignupClosed once the assembly's deadline has passed.
func (s *AssemblyServiceImpl) RegisterAttendee(ctx context.Context, assemblyID, personaID uuid.UUID) (string, error) {
	if personaID == uuid.Nil {
		return "", fmt.Errorf("validation: empty persona")
	}
	a, err := s.assemblies.Get(ctx, assemblyID)
	if err != nil {
		return "", err
	}
	if s.now().After(a.SignupEnd) {
		return "", errs.ErrSignupClosed
	}
	secret, err := commit.NewSecret()
	if err != nil {
		return "", err
	}
	// On conflict the repository returns the previously issued secret, so a
	// voter who registers twice keeps the ability to verify past votes.
	return s.assemblies.UpsertAttendee(ctx, &model.Attendee{
		AssemblyID: assemblyID,
		PersonaID:  personaID,
		Secret:     secret,
	})
}
