// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrSignupClosed indicates the assembly's signup deadline has passed.
	ErrSignupClosed = errors.New("signup closed")

	// ErrNotEligible indicates the persona is not an attendee of the ballot's assembly.
	ErrNotEligible = errors.New("not eligible")

	// ErrAlreadyVoted indicates the persona already cast a vote on this ballot.
	// A concurrency loser on the register check-and-set surfaces as this same
	// error; callers cannot tell a genuine duplicate from a race loser.
	ErrAlreadyVoted = errors.New("already voted")

	// ErrNotOpen indicates the ballot is outside its voting window.
	ErrNotOpen = errors.New("voting not open")

	// ErrMalformedVote indicates the ranking string violates the vote grammar.
	ErrMalformedVote = errors.New("malformed vote")

	// ErrAlreadyTallied indicates a re-tally attempt on a tallied ballot.
	ErrAlreadyTallied = errors.New("already tallied")

	// ErrNotTallied indicates a tally result was requested before tallying.
	ErrNotTallied = errors.New("not tallied")

	// ErrCandidatesLocked indicates a candidate mutation after voting began.
	ErrCandidatesLocked = errors.New("candidates locked")

	// ErrUnauthorized indicates a missing or invalid organizer token.
	ErrUnauthorized = errors.New("unauthorized")
)
