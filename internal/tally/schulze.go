// Package tally implements the Schulze (beatpath) method over parsed rankings.
// The computation is a pure function of the candidate set and the cast votes:
// exact integer counts throughout, no dependence on input order.
package tally

import (
	"sort"

	"agora/internal/ranking"
)

// Outcome is the aggregate result of one tally run.
type Outcome struct {
	// Ranking is the group ranking, best first, with explicit tie groups.
	// It always contains the baseline token, virtual or real.
	Ranking [][]string
	// Accepted lists the candidates ranked strictly above the baseline,
	// best first (ties flattened in group order, alphabetical within a group).
	Accepted []string
}

// Compute tallies the given votes over the ballot's candidate monikers.
//
// Votes that do not mention the baseline token (ballots without an explicit
// bar option) are treated as ranking it below every candidate, so single-
// and multi-option ballots share one algorithm. The result is deterministic:
// candidates are processed in sorted order and ties are broken only by the
// beat relation itself.
func Compute(monikers []string, votes []ranking.Ranking) Outcome {
	opts := append([]string(nil), monikers...)
	sort.Strings(opts)
	opts = append(opts, ranking.BarToken)

	n := len(opts)
	idx := make(map[string]int, n)
	for i, m := range opts {
		idx[m] = i
	}

	d := pairwise(opts, votes)
	p := strongestPaths(d, n)

	beats := func(i, j int) bool { return p[i][j] > p[j][i] }

	// Extract tie groups: the candidates not beaten by any remaining
	// candidate form the next group. The Schulze beat relation is acyclic,
	// so extraction always makes progress.
	remaining := make([]int, n)
	for i := range remaining {
		remaining[i] = i
	}
	var groups [][]string
	for len(remaining) > 0 {
		var top, rest []int
		for _, i := range remaining {
			dominated := false
			for _, j := range remaining {
				if j != i && beats(j, i) {
					dominated = true
					break
				}
			}
			if dominated {
				rest = append(rest, i)
			} else {
				top = append(top, i)
			}
		}
		if len(top) == 0 {
			// Unreachable for a Schulze relation; keep the output total.
			top, rest = remaining, nil
		}
		g := make([]string, 0, len(top))
		for _, i := range top {
			g = append(g, opts[i])
		}
		sort.Strings(g)
		groups = append(groups, g)
		remaining = rest
	}

	var accepted []string
	for _, g := range groups {
		if contains(g, ranking.BarToken) {
			break
		}
		accepted = append(accepted, g...)
	}
	return Outcome{Ranking: groups, Accepted: accepted}
}

// pairwise builds d[i][j]: the number of votes ranking option i strictly
// above option j. Ties contribute to neither side; options absent from a
// vote rank below every option the vote mentions.
func pairwise(opts []string, votes []ranking.Ranking) [][]int {
	n := len(opts)
	d := make([][]int, n)
	for i := range d {
		d[i] = make([]int, n)
	}
	for _, v := range votes {
		pos := v.Positions()
		worst := len(v)
		rank := make([]int, n)
		for i, m := range opts {
			if r, ok := pos[m]; ok {
				rank[i] = r
			} else {
				rank[i] = worst
			}
		}
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if rank[i] < rank[j] {
					d[i][j]++
				}
			}
		}
	}
	return d
}

// strongestPaths computes the widest-path closure p[i][j]: the maximum over
// all paths from i to j of the minimum winning-edge strength, restricted to
// edges where d[i][j] > d[j][i].
func strongestPaths(d [][]int, n int) [][]int {
	p := make([][]int, n)
	for i := range p {
		p[i] = make([]int, n)
		for j := 0; j < n; j++ {
			if i != j && d[i][j] > d[j][i] {
				p[i][j] = d[i][j]
			}
		}
	}
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			if i == k {
				continue
			}
			for j := 0; j < n; j++ {
				if j == k || j == i {
					continue
				}
				if s := min(p[i][k], p[k][j]); s > p[i][j] {
					p[i][j] = s
				}
			}
		}
	}
	return p
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
