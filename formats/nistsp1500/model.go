// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package nistsp1500

import (
	"encoding/json"
	"fmt"
)

// CvrExport is the top-level CvrExport.json document.
type CvrExport struct {
	Version    string    `json:"Version"`
	ElectionId string    `json:"ElectionId"`
	Sessions   []Session `json:"Sessions"`
}

// Session is one scanning session, yielding at most one ballot per contest.
type Session struct {
	TabulatorId     uint32         `json:"TabulatorId"`
	BatchId         uint32         `json:"BatchId"`
	RecordId        RecordId       `json:"RecordId"`
	CountingGroupId uint32         `json:"CountingGroupId"`
	ImageMask       string         `json:"ImageMask"`
	Original        SessionBallot  `json:"Original"`
	Modified        *SessionBallot `json:"Modified"`
}

// Ballot returns the adjudicated ballot when present, else the original scan.
func (s *Session) Ballot() *SessionBallot {
	if s.Modified != nil {
		return s.Modified
	}
	return &s.Original
}

// Contests returns the session's contest marks: the original's top-level
// contest list when present, otherwise flattened from the ballot's cards.
func (s *Session) Contests() []ContestMarks {
	if s.Original.Contests != nil {
		return s.Original.Contests
	}
	var contests []ContestMarks
	for _, card := range s.Ballot().Cards {
		contests = append(contests, card.Contests...)
	}
	return contests
}

// RecordId is a string on the wire in newer exports and an integer in older
// ones.
type RecordId string

func (r *RecordId) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = RecordId(s)
		return nil
	}
	var n uint64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("record id is neither string nor integer: %s", data)
	}
	*r = RecordId(fmt.Sprintf("%d", n))
	return nil
}

// SessionBallot is one scanned ballot image's marks.
type SessionBallot struct {
	PrecinctPortionId uint32         `json:"PrecinctPortionId"`
	BallotTypeId      uint32         `json:"BallotTypeId"`
	IsCurrent         bool           `json:"IsCurrent"`
	Contests          []ContestMarks `json:"Contests"`
	Cards             []Card         `json:"Cards"`
}

// Card is one physical ballot card.
type Card struct {
	Id         uint32         `json:"Id"`
	PaperIndex uint32         `json:"PaperIndex"`
	Contests   []ContestMarks `json:"Contests"`
}

// ContestMarks is the set of marks a session recorded for one contest.
type ContestMarks struct {
	Id    uint32 `json:"Id"`
	Marks Marks  `json:"Marks"`
}

// Marks decodes either an array of marks or a redacted placeholder string,
// which counts as an empty mark list.
type Marks []Mark

func (m *Marks) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*m = nil
		return nil
	}
	var marks []Mark
	if err := json.Unmarshal(data, &marks); err != nil {
		return err
	}
	*m = marks
	return nil
}

// Mark is a single rank mark for a candidate.
type Mark struct {
	CandidateId uint32  `json:"CandidateId"`
	PartyId     *uint32 `json:"PartyId"`
	Rank        uint32  `json:"Rank"`
	MarkDensity uint32  `json:"MarkDensity"`
	IsAmbiguous bool    `json:"IsAmbiguous"`
	IsVote      bool    `json:"IsVote"`
}

// CandidateManifest is the CandidateManifest.json document.
type CandidateManifest struct {
	Version string              `json:"Version"`
	List    []ManifestCandidate `json:"List"`
}

// ManifestCandidate is one candidate declaration.
type ManifestCandidate struct {
	Description string  `json:"Description"`
	Id          uint32  `json:"Id"`
	ExternalId  *string `json:"ExternalId"`
	ContestId   uint32  `json:"ContestId"`
	Type        string  `json:"Type"`
}

// ContestManifest is the ContestManifest.json document.
type ContestManifest struct {
	Version string            `json:"Version"`
	List    []ManifestContest `json:"List"`
}

// ManifestContest is one contest declaration.
type ManifestContest struct {
	Description string  `json:"Description"`
	Id          *uint32 `json:"Id"`
	ExternalId  *string `json:"ExternalId"`
	VoteFor     uint32  `json:"VoteFor"`
	NumOfRanks  uint32  `json:"NumOfRanks"`
}
