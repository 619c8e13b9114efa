// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package condorcet

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ranked-vote/rcv.report/model/election"
)

const (
	candA = election.CandidateId(0)
	candB = election.CandidateId(1)
	candC = election.CandidateId(2)
)

func vote(ids ...election.CandidateId) election.NormalizedBallot {
	choices := make([]election.Choice, 0, len(ids))
	for _, c := range ids {
		choices = append(choices, election.Vote(c))
	}
	return election.NormalizedBallot{Choices: choices}
}

func addVotes(e *Election, count int, ids ...election.CandidateId) {
	for i := 0; i < count; i++ {
		e.Vote(vote(ids...))
	}
}

func TestMajorityWinner(t *testing.T) {
	require := require.New(t)

	e := New(3)
	addVotes(e, 6, candA, candB, candC)
	addVotes(e, 3, candB, candA, candC)
	addVotes(e, 1, candC, candA, candB)

	w, ok := e.Winner()
	require.True(ok)
	require.Equal(candA, w)

	matrix := e.Matrix()
	require.Equal(uint32(7), matrix[candA][candB])
	require.Equal(uint32(3), matrix[candB][candA])
}

func TestCondorcetWinnerDiffersFromIrv(t *testing.T) {
	require := require.New(t)

	e := New(3)
	addVotes(e, 4, candA, candC, candB)
	addVotes(e, 4, candB, candC, candA)
	addVotes(e, 3, candC, candA, candB)

	// C beats A 7-4 and B 7-4 head to head, but loses IRV.
	matrix := e.Matrix()
	require.Equal(uint32(7), matrix[candC][candA])
	require.Equal(uint32(4), matrix[candA][candC])
	require.Equal(uint32(7), matrix[candC][candB])
	require.Equal(uint32(4), matrix[candB][candC])

	w, ok := e.Winner()
	require.True(ok)
	require.Equal(candC, w)
}

func TestCycleHasNoWinner(t *testing.T) {
	require := require.New(t)

	e := New(3)
	addVotes(e, 1, candA, candB, candC)
	addVotes(e, 1, candB, candC, candA)
	addVotes(e, 1, candC, candA, candB)

	_, ok := e.Winner()
	require.False(ok)
}

func TestPartialBallotPrefersRankedOverUnranked(t *testing.T) {
	require := require.New(t)

	e := New(3)
	e.Vote(vote(candA))

	matrix := e.Matrix()
	require.Equal(uint32(1), matrix[candA][candB])
	require.Equal(uint32(1), matrix[candA][candC])
	require.Equal(uint32(0), matrix[candB][candA])
	require.Equal(uint32(0), matrix[candB][candC])
}

func TestOvervoteRanksExpressNoPreference(t *testing.T) {
	require := require.New(t)

	e := New(2)
	e.Vote(election.NormalizedBallot{Choices: []election.Choice{
		election.Overvote,
		election.Vote(candB),
	}})

	matrix := e.Matrix()
	require.Equal(uint32(0), matrix[candA][candB])
	require.Equal(uint32(1), matrix[candB][candA])
}

func TestDuplicateRankingCountsFirstOnly(t *testing.T) {
	require := require.New(t)

	e := New(2)
	e.Vote(vote(candA, candA, candB))

	matrix := e.Matrix()
	require.Equal(uint32(1), matrix[candA][candB])
	require.Equal(uint32(0), matrix[candB][candA])
}

func TestEmptyElection(t *testing.T) {
	require := require.New(t)

	e := New(0)
	_, ok := e.Winner()
	require.False(ok)
}
