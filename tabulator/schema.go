// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tabulator

import (
	"encoding/json"
	"fmt"

	"github.com/ranked-vote/rcv.report/model/election"
)

// Allocatee is the destination of a ballot allocation: a continuing candidate
// or the exhausted pile.
type Allocatee struct {
	exhausted bool
	candidate election.CandidateId
}

// Exhausted is the allocatee for ballots with no continuing preference.
var Exhausted = Allocatee{exhausted: true}

// AllocateeFor returns the allocatee for the candidate with internal id c.
func AllocateeFor(c election.CandidateId) Allocatee {
	return Allocatee{candidate: c}
}

// allocateeForChoice maps a bucket choice to its allocatee. Undervotes and
// overvotes both land in the exhausted pile.
func allocateeForChoice(c election.Choice) Allocatee {
	if id, ok := c.Vote(); ok {
		return AllocateeFor(id)
	}
	return Exhausted
}

// IsExhausted reports whether the allocatee is the exhausted pile.
func (a Allocatee) IsExhausted() bool { return a.exhausted }

// Candidate returns the allocatee's candidate id and true, or false for the
// exhausted pile.
func (a Allocatee) Candidate() (election.CandidateId, bool) {
	return a.candidate, !a.exhausted
}

// less orders candidates by ascending id with Exhausted last.
func (a Allocatee) less(other Allocatee) bool {
	if a.exhausted != other.exhausted {
		return other.exhausted
	}
	return a.candidate < other.candidate
}

func (a Allocatee) String() string {
	if a.exhausted {
		return "X"
	}
	return fmt.Sprintf("C%d", a.candidate)
}

// MarshalJSON encodes candidates as their index and the exhausted pile as "X".
// This encoding is part of the report contract.
func (a Allocatee) MarshalJSON() ([]byte, error) {
	if a.exhausted {
		return []byte(`"X"`), nil
	}
	return json.Marshal(a.candidate)
}

func (a *Allocatee) UnmarshalJSON(data []byte) error {
	if string(data) == `"X"` {
		*a = Exhausted
		return nil
	}
	var id election.CandidateId
	if err := json.Unmarshal(data, &id); err != nil {
		return fmt.Errorf("invalid allocatee %s: %w", data, err)
	}
	*a = AllocateeFor(id)
	return nil
}

// TabulatorAllocation is one candidate's (or the exhausted pile's) ballot
// count in a round.
type TabulatorAllocation struct {
	Allocatee Allocatee `json:"allocatee"`
	Votes     uint32    `json:"votes"`
}

// Transfer records the movement of ballots from an eliminated candidate to a
// destination between rounds.
type Transfer struct {
	From  election.CandidateId `json:"from"`
	To    Allocatee            `json:"to"`
	Count uint32               `json:"count"`
}

// TabulatorRound is one round of the instant-runoff tabulation. Allocations
// are sorted descending by vote count with Exhausted last. Transfers are
// present only on rounds following an elimination.
type TabulatorRound struct {
	Allocations       []TabulatorAllocation `json:"allocations"`
	Undervote         uint32                `json:"undervote"`
	Overvote          uint32                `json:"overvote"`
	ContinuingBallots uint32                `json:"continuing_ballots"`
	Transfers         []Transfer            `json:"transfers"`
}
