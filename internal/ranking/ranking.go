// Package ranking implements the vote grammar: a sequence of rank groups
// separated by '>' (strict preference), each group a '='-separated set of
// candidate monikers. Rankings are validated once at the boundary and used as
// the tally engine's input type.
package ranking

import (
	"fmt"
	"sort"
	"strings"

	"agora/internal/errs"
)

// BarToken is the reserved moniker of the baseline ("reject everything")
// pseudo-candidate. Real candidates must never use it.
const BarToken = "_baseline_"

// Group is a set of monikers tied at the same rank.
type Group []string

// Ranking is an ordered list of rank groups, most preferred first.
type Ranking []Group

// Parse validates raw against the ballot's candidate set and returns the
// parsed ranking. Every candidate moniker must appear exactly once; the
// baseline token must appear exactly once iff useBar is set. Violations
// return an error wrapping errs.ErrMalformedVote.
func Parse(raw string, monikers []string, useBar bool) (Ranking, error) {
	if strings.TrimSpace(raw) != raw || raw == "" {
		return nil, fmt.Errorf("%w: empty or padded ranking", errs.ErrMalformedVote)
	}

	want := make(map[string]bool, len(monikers)+1)
	for _, m := range monikers {
		want[m] = false
	}
	if useBar {
		want[BarToken] = false
	}

	var r Ranking
	for _, part := range strings.Split(raw, ">") {
		if part == "" {
			return nil, fmt.Errorf("%w: dangling '>'", errs.ErrMalformedVote)
		}
		var g Group
		for _, tok := range strings.Split(part, "=") {
			if tok == "" {
				return nil, fmt.Errorf("%w: dangling '='", errs.ErrMalformedVote)
			}
			seen, known := want[tok]
			if !known {
				return nil, fmt.Errorf("%w: unknown token %q", errs.ErrMalformedVote, tok)
			}
			if seen {
				return nil, fmt.Errorf("%w: duplicate token %q", errs.ErrMalformedVote, tok)
			}
			want[tok] = true
			g = append(g, tok)
		}
		r = append(r, g)
	}

	for tok, seen := range want {
		if !seen {
			return nil, fmt.Errorf("%w: missing token %q", errs.ErrMalformedVote, tok)
		}
	}
	return r, nil
}

// Canonical renders the normalized string form: members of each group sorted,
// groups joined by '>'. Two rankings that express the same preorder produce
// the same canonical string; commitments are computed over it.
func (r Ranking) Canonical() string {
	parts := make([]string, 0, len(r))
	for _, g := range r {
		ms := append([]string(nil), g...)
		sort.Strings(ms)
		parts = append(parts, strings.Join(ms, "="))
	}
	return strings.Join(parts, ">")
}

// Positions maps each token to its group index. Lower means preferred.
// Tokens absent from the ranking are simply absent from the map; the tally
// engine treats them as ranked below everything.
func (r Ranking) Positions() map[string]int {
	pos := make(map[string]int)
	for i, g := range r {
		for _, m := range g {
			pos[m] = i
		}
	}
	return pos
}
