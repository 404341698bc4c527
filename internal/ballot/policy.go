// Package ballot implements the ballot lifecycle: the quorum/extension policy
// and the pure state transition function evaluated lazily on every access.
package ballot

import "agora/internal/model"

// Decision is the outcome of one quorum/extension evaluation.
type Decision int

const (
	KeepOpen Decision = iota
	Extend
	Close
)

// String returns a readable decision name.
func (d Decision) String() string {
	switch d {
	case KeepOpen:
		return "keep-open"
	case Extend:
		return "extend"
	case Close:
		return "close"
	default:
		return "unknown"
	}
}

// Decide applies the quorum/extension rule to one ballot snapshot.
//
// A configured quorum that is met closes voting immediately, even before the
// deadline; this quorum check is the only automatic early closure, so vote
// timing cannot be used to close a ballot strategically. A ballot still below
// quorum when its deadline passes is extended at most once (when an extension
// window is configured), otherwise closed. Without a configured quorum there
// is nothing to wait for: the ballot simply closes at its deadline.
func Decide(q model.Quorum, eligible, votes int, pastEnd, extended, hasExtension bool) Decision {
	if q.Met(votes, eligible) {
		return Close
	}
	if !pastEnd {
		return KeepOpen
	}
	if q.Configured() && !extended && hasExtension {
		return Extend
	}
	return Close
}
