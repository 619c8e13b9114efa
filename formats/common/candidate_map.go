// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package common holds helpers shared by the format readers.
package common

import (
	"fmt"

	"github.com/ranked-vote/rcv.report/model/election"
)

// CandidateMap assigns stable internal candidate indices to externally keyed
// candidates. External keys are strings or numeric ids, depending on the
// source format.
type CandidateMap[ExternalId comparable] struct {
	idToIndex  map[ExternalId]election.CandidateId
	candidates []election.Candidate
}

// NewCandidateMap returns an empty map.
func NewCandidateMap[ExternalId comparable]() *CandidateMap[ExternalId] {
	return &CandidateMap[ExternalId]{
		idToIndex: make(map[ExternalId]election.CandidateId),
	}
}

// Add appends a new internal id for the external key.
func (m *CandidateMap[ExternalId]) Add(externalId ExternalId, candidate election.Candidate) {
	m.idToIndex[externalId] = election.CandidateId(len(m.candidates))
	m.candidates = append(m.candidates, candidate)
}

// AddIdToChoice returns the vote choice for the external key, adding the
// candidate if the key is unknown. An unknown key whose candidate name matches
// an existing candidate aliases the key to that candidate instead of adding a
// duplicate: the same candidate may be keyed differently across input files
// within one election.
func (m *CandidateMap[ExternalId]) AddIdToChoice(
	externalId ExternalId,
	candidate election.Candidate,
) election.Choice {
	if _, ok := m.idToIndex[externalId]; !ok {
		if existing, ok := m.indexOfName(candidate.Name); ok {
			m.idToIndex[externalId] = existing
		} else {
			m.Add(externalId, candidate)
		}
	}
	return m.IdToChoice(externalId)
}

func (m *CandidateMap[ExternalId]) indexOfName(name string) (election.CandidateId, bool) {
	for i, c := range m.candidates {
		if c.Name == name {
			return election.CandidateId(i), true
		}
	}
	return 0, false
}

// IdToChoice returns the vote choice for a previously issued external key.
// An unknown key is a contract violation upstream and panics.
func (m *CandidateMap[ExternalId]) IdToChoice(externalId ExternalId) election.Choice {
	index, ok := m.idToIndex[externalId]
	if !ok {
		panic(fmt.Sprintf("candidate on ballot but not in master lookup: %v", externalId))
	}
	return election.Vote(index)
}

// IntoVec returns the candidate table in internal-id order.
func (m *CandidateMap[ExternalId]) IntoVec() []election.Candidate {
	return m.candidates
}

// Merge folds another map into this one, assigning fresh internal ids to
// external keys not yet present. Unlike AddIdToChoice there is no name-level
// dedup: merged maps are per-file observations that must agree at their own
// level.
func (m *CandidateMap[ExternalId]) Merge(other *CandidateMap[ExternalId]) {
	for externalId, candidateId := range other.idToIndex {
		if _, ok := m.idToIndex[externalId]; !ok {
			m.idToIndex[externalId] = election.CandidateId(len(m.candidates))
			m.candidates = append(m.candidates, other.candidates[candidateId])
		}
	}
}
