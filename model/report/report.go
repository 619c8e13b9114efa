// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package report defines the per-contest report and index types. The JSON
// shapes here are the contract consumed by the downstream web front-end.
package report

import (
	"github.com/ranked-vote/rcv.report/model/election"
	"github.com/ranked-vote/rcv.report/tabulator"
)

// ContestReport is the full round-by-round record for one contest.
type ContestReport struct {
	Info election.ElectionInfo `json:"info"`
	// BallotCount is the total number of ballots tabulated.
	BallotCount uint32 `json:"ballot_count"`
	// NumCandidates counts regular candidates only; write-ins participate in
	// tabulation but are excluded from the headline count.
	NumCandidates int                        `json:"num_candidates"`
	Candidates    []election.Candidate       `json:"candidates"`
	Rounds        []tabulator.TabulatorRound `json:"rounds"`
	// Winner is the leading candidate in the final round, or nil when no
	// candidate holds any votes.
	Winner *election.CandidateId `json:"winner"`
	// Condorcet is the pairwise winner, if one exists.
	Condorcet *election.CandidateId `json:"condorcet"`
	// Pairwise[i][j] is the number of ballots preferring candidate i over j.
	Pairwise [][]uint32 `json:"pairwise"`
}

// WinnerCandidate returns the winning candidate, if any.
func (r *ContestReport) WinnerCandidate() (election.Candidate, bool) {
	if r.Winner == nil || int(*r.Winner) >= len(r.Candidates) {
		return election.Candidate{}, false
	}
	return r.Candidates[*r.Winner], true
}

// HasNonCondorcetWinner reports the flagged anomaly: a Condorcet winner
// exists and differs from the instant-runoff winner.
func (r *ContestReport) HasNonCondorcetWinner() bool {
	if r.Condorcet == nil || r.Winner == nil {
		return r.Condorcet != nil
	}
	return *r.Condorcet != *r.Winner
}

// ContestIndexEntry is the compact per-contest record in the global index.
type ContestIndexEntry struct {
	Office                string  `json:"office"`
	OfficeName            string  `json:"office_name"`
	Name                  string  `json:"name"`
	Winner                string  `json:"winner"`
	NumCandidates         int     `json:"num_candidates"`
	NumRounds             uint32  `json:"num_rounds"`
	CondorcetWinner       *string `json:"condorcet_winner"`
	HasNonCondorcetWinner bool    `json:"has_non_condorcet_winner"`
}

// IndexEntry extracts the compact index record from a full report.
func (r *ContestReport) IndexEntry() ContestIndexEntry {
	winner := "No Winner"
	if candidate, ok := r.WinnerCandidate(); ok {
		winner = candidate.Name
	}
	var condorcetWinner *string
	if r.Condorcet != nil && int(*r.Condorcet) < len(r.Candidates) {
		name := r.Candidates[*r.Condorcet].Name
		condorcetWinner = &name
	}
	return ContestIndexEntry{
		Office:                r.Info.Office,
		OfficeName:            r.Info.OfficeName,
		Name:                  r.Info.Name,
		Winner:                winner,
		NumCandidates:         r.NumCandidates,
		NumRounds:             uint32(len(r.Rounds)),
		CondorcetWinner:       condorcetWinner,
		HasNonCondorcetWinner: r.HasNonCondorcetWinner(),
	}
}

// ElectionIndexEntry groups an election's contests in the global index.
type ElectionIndexEntry struct {
	Path             string              `json:"path"`
	JurisdictionName string              `json:"jurisdiction_name"`
	ElectionName     string              `json:"election_name"`
	Date             string              `json:"date"`
	Contests         []ContestIndexEntry `json:"contests"`
}

// ReportIndex is the global index over all processed contests.
type ReportIndex struct {
	Elections []ElectionIndexEntry `json:"elections"`
}
