// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package election defines the canonical ranked-choice ballot model shared by
// the format readers, the normalizer, and the tabulator.
package election

import (
	"encoding/json"
	"fmt"
)

// CandidateId is a dense internal candidate index, assigned in the order
// candidates are first encountered within a contest.
type CandidateId uint32

// CandidateKind distinguishes declared candidates from write-ins.
type CandidateKind string

const (
	KindRegular          CandidateKind = "Regular"
	KindWriteIn          CandidateKind = "WriteIn"
	KindQualifiedWriteIn CandidateKind = "QualifiedWriteIn"
)

// Candidate is a contest-local candidate record.
type Candidate struct {
	Name string        `json:"name"`
	Kind CandidateKind `json:"kind"`
}

// NewCandidate returns a candidate with the given name and kind.
func NewCandidate(name string, kind CandidateKind) Candidate {
	return Candidate{Name: name, Kind: kind}
}

// WriteIn reports whether the candidate is any flavor of write-in. Write-ins
// participate in tabulation but are excluded from the headline candidate count.
func (c Candidate) WriteIn() bool {
	return c.Kind == KindWriteIn || c.Kind == KindQualifiedWriteIn
}

type choiceKind uint8

const (
	kindUndervote choiceKind = iota
	kindOvervote
	kindVote
)

// Choice is a single rank on a ballot: a vote for a candidate, an undervote
// (no mark), or an overvote (conflicting marks). The zero value is Undervote.
type Choice struct {
	kind      choiceKind
	candidate CandidateId
}

// Undervote is the choice recorded for a rank with no mark.
var Undervote = Choice{kind: kindUndervote}

// Overvote is the choice recorded for a rank with multiple conflicting marks.
var Overvote = Choice{kind: kindOvervote}

// Vote returns a choice for the candidate with internal id c.
func Vote(c CandidateId) Choice {
	return Choice{kind: kindVote, candidate: c}
}

// IsUndervote reports whether the choice is an undervote.
func (c Choice) IsUndervote() bool { return c.kind == kindUndervote }

// IsOvervote reports whether the choice is an overvote.
func (c Choice) IsOvervote() bool { return c.kind == kindOvervote }

// Vote returns the voted-for candidate and true, or false for undervotes and
// overvotes.
func (c Choice) Vote() (CandidateId, bool) {
	return c.candidate, c.kind == kindVote
}

// Less is the total order used by the tabulator's sorted buckets: undervote,
// then overvote, then votes by ascending candidate id.
func (c Choice) Less(other Choice) bool {
	if c.kind != other.kind {
		return c.kind < other.kind
	}
	return c.candidate < other.candidate
}

func (c Choice) String() string {
	switch c.kind {
	case kindUndervote:
		return "U"
	case kindOvervote:
		return "O"
	default:
		return fmt.Sprintf("C%d", c.candidate)
	}
}

// MarshalJSON encodes votes as the candidate index, undervotes as "U" and
// overvotes as "O". This encoding is part of the report contract.
func (c Choice) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case kindUndervote:
		return []byte(`"U"`), nil
	case kindOvervote:
		return []byte(`"O"`), nil
	default:
		return json.Marshal(c.candidate)
	}
}

func (c *Choice) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"U"`:
		*c = Undervote
		return nil
	case `"O"`:
		*c = Overvote
		return nil
	}
	var id CandidateId
	if err := json.Unmarshal(data, &id); err != nil {
		return fmt.Errorf("invalid choice %s: %w", data, err)
	}
	*c = Vote(id)
	return nil
}

// Ballot is a raw, positionally ranked ballot as read from a source file.
// Index 0 is the voter's first preference.
type Ballot struct {
	ID      string   `json:"id"`
	Choices []Choice `json:"choices"`
}

// NewBallot returns a ballot with the given provenance id and choices.
func NewBallot(id string, choices []Choice) Ballot {
	return Ballot{ID: id, Choices: choices}
}

// NormalizedBallot is a ballot after jurisdiction policies have been applied.
type NormalizedBallot struct {
	ID      string   `json:"id"`
	Choices []Choice `json:"choices"`
}

// TopVote returns the ballot's current first preference, or Undervote if no
// ranks remain.
func (b NormalizedBallot) TopVote() Choice {
	if len(b.Choices) == 0 {
		return Undervote
	}
	return b.Choices[0]
}

// PopTopVote returns the ballot with its first rank removed. The returned
// ballot shares the underlying choice storage.
func (b NormalizedBallot) PopTopVote() NormalizedBallot {
	if len(b.Choices) == 0 {
		return b
	}
	return NormalizedBallot{ID: b.ID, Choices: b.Choices[1:]}
}

// Election is the raw output of a format reader. Every Vote(c) in Ballots
// satisfies c < len(Candidates).
type Election struct {
	Candidates []Candidate `json:"candidates"`
	Ballots    []Ballot    `json:"ballots"`
}

// NewElection returns an election over the given candidate table and ballots.
func NewElection(candidates []Candidate, ballots []Ballot) Election {
	return Election{Candidates: candidates, Ballots: ballots}
}

// NormalizedElection is a contest's normalized ballot set together with its
// candidate table. It is the payload of the preprocessed artifact.
type NormalizedElection struct {
	Candidates []Candidate        `json:"candidates"`
	Ballots    []NormalizedBallot `json:"ballots"`
}

// ElectionInfo identifies a contest within the corpus.
type ElectionInfo struct {
	Name             string `json:"name"`
	Office           string `json:"office"`
	OfficeName       string `json:"office_name"`
	Date             string `json:"date"`
	JurisdictionPath string `json:"jurisdiction_path"`
	ElectionPath     string `json:"election_path"`
	JurisdictionName string `json:"jurisdiction_name"`
	ElectionName     string `json:"election_name"`
}
