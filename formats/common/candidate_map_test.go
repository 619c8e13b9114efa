// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package common

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ranked-vote/rcv.report/model/election"
)

func TestAddIdToChoiceIsIdempotent(t *testing.T) {
	require := require.New(t)

	m := NewCandidateMap[string]()
	candidate := election.NewCandidate("Alice Example", election.KindRegular)

	first := m.AddIdToChoice("alice", candidate)
	second := m.AddIdToChoice("alice", candidate)

	require.Equal(first, second)
	require.Len(m.IntoVec(), 1)
}

func TestAddIdToChoiceAliasesByName(t *testing.T) {
	require := require.New(t)

	// NYC keys every write-in as external id 0 per file; different keys with
	// the same name must land on one internal candidate.
	m := NewCandidateMap[uint32]()
	writeIn := election.NewCandidate("Write-in", election.KindWriteIn)

	first := m.AddIdToChoice(0, writeIn)
	m.Add(7, election.NewCandidate("Alice Example", election.KindRegular))
	aliased := m.AddIdToChoice(99, writeIn)

	require.Equal(first, aliased)
	require.Len(m.IntoVec(), 2)
}

func TestMergeDoesNotDedupByName(t *testing.T) {
	require := require.New(t)

	m := NewCandidateMap[string]()
	m.Add("a", election.NewCandidate("Alice Example", election.KindRegular))

	other := NewCandidateMap[string]()
	other.Add("b", election.NewCandidate("Alice Example", election.KindRegular))

	m.Merge(other)
	require.Len(m.IntoVec(), 2)

	// Keys already present keep their assignment.
	again := NewCandidateMap[string]()
	again.Add("a", election.NewCandidate("Someone Else", election.KindRegular))
	m.Merge(again)
	require.Len(m.IntoVec(), 2)
	require.Equal(election.Vote(0), m.IdToChoice("a"))
}

func TestIdToChoiceUnknownKeyPanics(t *testing.T) {
	require := require.New(t)

	m := NewCandidateMap[string]()
	require.Panics(func() {
		m.IdToChoice("never-issued")
	})
}
