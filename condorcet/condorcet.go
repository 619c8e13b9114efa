// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package condorcet builds the pairwise-preference matrix over a contest's
// normalized ballots and identifies a Condorcet winner when one exists.
package condorcet

import (
	"github.com/ranked-vote/rcv.report/model/election"
)

// Election accumulates pairwise preferences between candidates.
// The sum matrix is stored in row major order.
type Election struct {
	n int
	m []uint32
}

// New returns an election with n candidates.
func New(n int) *Election {
	return &Election{
		n: n,
		m: make([]uint32, n*n),
	}
}

// index of the (i, j) pair in the sum matrix.
func (e *Election) index(i, j int) int { return e.n*i + j }

// Vote registers one ballot. A ballot prefers i over j if i appears at some
// rank and j either appears at a later rank or does not appear. Overvote and
// undervote ranks never express a preference; candidates both absent yield no
// preference. Only the first rank mentioning a candidate counts.
func (e *Election) Vote(ballot election.NormalizedBallot) {
	ranked := make([]election.CandidateId, 0, len(ballot.Choices))
	seen := make(map[election.CandidateId]struct{}, len(ballot.Choices))
	for _, choice := range ballot.Choices {
		if id, ok := choice.Vote(); ok {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ranked = append(ranked, id)
		}
	}

	// Ranked candidates beat everyone ranked later and everyone unranked.
	for i, winner := range ranked {
		for j := i + 1; j < len(ranked); j++ {
			e.m[e.index(int(winner), int(ranked[j]))]++
		}
		for other := 0; other < e.n; other++ {
			if _, ok := seen[election.CandidateId(other)]; !ok {
				e.m[e.index(int(winner), other)]++
			}
		}
	}
}

// Matrix returns the pairwise matrix: Matrix()[i][j] is the number of ballots
// that prefer candidate i over candidate j.
func (e *Election) Matrix() [][]uint32 {
	matrix := make([][]uint32, e.n)
	for i := 0; i < e.n; i++ {
		matrix[i] = make([]uint32, e.n)
		copy(matrix[i], e.m[e.index(i, 0):e.index(i, e.n)])
	}
	return matrix
}

// Winner returns the Condorcet winner, if any: a candidate who beats every
// other candidate head to head.
func (e *Election) Winner() (election.CandidateId, bool) {
	if e.n == 0 {
		return 0, false
	}

	// Find the only possible winner by successive challenges.
	w := 0
	for i := 1; i < e.n; i++ {
		if e.m[e.index(w, i)] < e.m[e.index(i, w)] {
			w = i
		}
	}

	// Verify w actually beats everyone.
	for i := 0; i < e.n; i++ {
		if w == i {
			continue
		}
		if e.m[e.index(w, i)] <= e.m[e.index(i, w)] {
			return 0, false
		}
	}

	return election.CandidateId(w), true
}
