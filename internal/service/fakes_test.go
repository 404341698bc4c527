package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"agora/internal/errs"
	"agora/internal/model"
	"agora/internal/repository"
)

// memStore is a mutex-guarded in-memory store, faithful to the postgres
// semantics the services rely on: idempotent attendee upsert, atomic
// register check-and-set, and the one-way tallied guard. The repository
// interfaces are implemented by thin views over it.
type memStore struct {
	mu         sync.Mutex
	assemblies map[uuid.UUID]*model.Assembly
	attendees  map[string]string // assembly|persona -> secret
	ballots    map[uuid.UUID]*model.Ballot
	register   map[string]bool // ballot|persona -> has_voted
	records    map[uuid.UUID][]model.VoteRecord
	results    map[uuid.UUID][]byte
}

type memAssemblyRepo struct{ s *memStore }
type memBallotRepo struct{ s *memStore }
type memVoteRepo struct{ s *memStore }

var (
	_ repository.AssemblyRepository = (*memAssemblyRepo)(nil)
	_ repository.BallotRepository   = (*memBallotRepo)(nil)
	_ repository.VoteRepository     = (*memVoteRepo)(nil)
)

func newMemStore() *memStore {
	return &memStore{
		assemblies: make(map[uuid.UUID]*model.Assembly),
		attendees:  make(map[string]string),
		ballots:    make(map[uuid.UUID]*model.Ballot),
		register:   make(map[string]bool),
		records:    make(map[uuid.UUID][]model.VoteRecord),
		results:    make(map[uuid.UUID][]byte),
	}
}

func (s *memStore) repos() (*memAssemblyRepo, *memBallotRepo, *memVoteRepo) {
	return &memAssemblyRepo{s}, &memBallotRepo{s}, &memVoteRepo{s}
}

func key(a, b uuid.UUID) string { return a.String() + "|" + b.String() }

// --- AssemblyRepository ---

func (r *memAssemblyRepo) Create(_ context.Context, a *model.Assembly) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *a
	r.s.assemblies[a.ID] = &cp
	return nil
}

func (r *memAssemblyRepo) Get(_ context.Context, id uuid.UUID) (*model.Assembly, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.assemblies[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memAssemblyRepo) UpsertAttendee(_ context.Context, a *model.Attendee) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := key(a.AssemblyID, a.PersonaID)
	if existing, ok := r.s.attendees[k]; ok {
		return existing, nil
	}
	r.s.attendees[k] = a.Secret
	return a.Secret, nil
}

func (r *memAssemblyRepo) AttendeeSecret(_ context.Context, assemblyID, personaID uuid.UUID) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	secret, ok := r.s.attendees[key(assemblyID, personaID)]
	if !ok {
		return "", errs.ErrNotFound
	}
	return secret, nil
}

func (r *memAssemblyRepo) CountAttendees(_ context.Context, assemblyID uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for k := range r.s.attendees {
		if strings.HasPrefix(k, assemblyID.String()+"|") {
			n++
		}
	}
	return n, nil
}

// --- BallotRepository ---

func (r *memBallotRepo) Create(_ context.Context, b *model.Ballot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *b
	r.s.ballots[b.ID] = &cp
	return nil
}

func (r *memBallotRepo) Get(_ context.Context, id uuid.UUID) (*model.Ballot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.ballots[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *memBallotRepo) ListByAssembly(_ context.Context, assemblyID uuid.UUID) ([]model.Ballot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Ballot
	for _, b := range r.s.ballots {
		if b.AssemblyID == assemblyID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memBallotRepo) SetExtended(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.ballots[id]
	if !ok {
		return errs.ErrNotFound
	}
	b.Extended = true
	return nil
}

func (r *memBallotRepo) MarkTallied(_ context.Context, id uuid.UUID, result []byte) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.ballots[id]
	if !ok {
		return errs.ErrNotFound
	}
	if b.Tallied {
		return errs.ErrAlreadyTallied
	}
	b.Tallied = true
	r.s.results[id] = append([]byte(nil), result...)
	return nil
}

func (r *memBallotRepo) Result(_ context.Context, id uuid.UUID) ([]byte, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.ballots[id]; !ok {
		return nil, errs.ErrNotFound
	}
	buf, ok := r.s.results[id]
	if !ok {
		return nil, errs.ErrNotTallied
	}
	return append([]byte(nil), buf...), nil
}

// --- VoteRepository ---

func (r *memVoteRepo) OpenRegister(_ context.Context, ballotID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.ballots[ballotID]
	if !ok {
		return errs.ErrNotFound
	}
	prefix := b.AssemblyID.String() + "|"
	for k := range r.s.attendees {
		if strings.HasPrefix(k, prefix) {
			rk := ballotID.String() + "|" + strings.TrimPrefix(k, prefix)
			if _, exists := r.s.register[rk]; !exists {
				r.s.register[rk] = false
			}
		}
	}
	return nil
}

func (r *memVoteRepo) CountVotes(_ context.Context, ballotID uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.records[ballotID]), nil
}

func (r *memVoteRepo) Cast(_ context.Context, personaID uuid.UUID, rec *model.VoteRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rk := key(rec.BallotID, personaID)
	if r.s.register[rk] {
		return errs.ErrAlreadyVoted
	}
	r.s.register[rk] = true
	r.s.records[rec.BallotID] = append(r.s.records[rec.BallotID], *rec)
	return nil
}

func (r *memVoteRepo) Records(_ context.Context, ballotID uuid.UUID) ([]model.VoteRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]model.VoteRecord(nil), r.s.records[ballotID]...), nil
}

func (r *memVoteRepo) HasCommitment(_ context.Context, ballotID uuid.UUID, commitment string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rec := range r.s.records[ballotID] {
		if rec.Commitment == commitment {
			return true, nil
		}
	}
	return false, nil
}

// fixedClock returns a controllable now() func for lifecycle tests.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}
