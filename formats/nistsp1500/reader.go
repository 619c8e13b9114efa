// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package nistsp1500 reads NIST SP-1500 cast-vote-record JSON exports. The
// export holds every contest in one bundle, so the batch reader parses the
// session records once and fans elections out per contest.
package nistsp1500

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/luxfi/log"
	"go.uber.org/zap"

	"github.com/ranked-vote/rcv.report/formats/common"
	"github.com/ranked-vote/rcv.report/model/election"
)

// Read parses the contest named by params["contest"] from the CVR export at
// params["cvr"].
func Read(path string, params map[string]string, logger log.Logger) (election.Election, error) {
	contestParam, ok := params["contest"]
	if !ok {
		return election.Election{}, fmt.Errorf("missing loader param %q for %s", "contest", path)
	}
	contestId, err := strconv.ParseUint(contestParam, 10, 32)
	if err != nil {
		return election.Election{}, fmt.Errorf("invalid contest id %q: %w", contestParam, err)
	}

	elections, err := ReadBatch(path, []BatchContest{
		{ContestId: uint32(contestId), Params: params},
	}, logger)
	if err != nil {
		return election.Election{}, err
	}
	return elections[uint32(contestId)], nil
}

// BatchContest pairs a contest id with its loader params.
type BatchContest struct {
	ContestId uint32
	Params    map[string]string
}

// ReadBatch parses the shared CVR export once and returns one raw election
// per requested contest. All contests must name the same cvr file.
func ReadBatch(
	path string,
	contests []BatchContest,
	logger log.Logger,
) (map[uint32]election.Election, error) {
	if len(contests) == 0 {
		return map[uint32]election.Election{}, nil
	}

	cvrFile, ok := contests[0].Params["cvr"]
	if !ok {
		return nil, fmt.Errorf("missing loader param %q for %s", "cvr", path)
	}
	cvrPath := filepath.Join(path, cvrFile)

	export, err := readCvrExport(cvrPath)
	if err != nil {
		logger.Warn("failed to read CVR export, producing empty elections",
			zap.String("path", cvrPath),
			log.Err(err),
		)
		empty := make(map[uint32]election.Election, len(contests))
		for _, contest := range contests {
			empty[contest.ContestId] = election.Election{}
		}
		return empty, nil
	}

	manifest, err := readCandidateManifest(filepath.Dir(cvrPath))
	if err != nil {
		return nil, err
	}

	elections := make(map[uint32]election.Election, len(contests))
	for _, contest := range contests {
		elections[contest.ContestId] = contestElection(export, manifest, contest.ContestId, logger)
	}
	return elections, nil
}

func readCvrExport(path string) (*CvrExport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var export CvrExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &export, nil
}

func readCandidateManifest(dir string) (*CandidateManifest, error) {
	path := filepath.Join(dir, "CandidateManifest.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var manifest CandidateManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &manifest, nil
}

func candidateKind(manifestType string) election.CandidateKind {
	switch manifestType {
	case "WriteIn":
		return election.KindWriteIn
	case "QualifiedWriteIn":
		return election.KindQualifiedWriteIn
	default:
		return election.KindRegular
	}
}

// contestElection extracts one contest's ballots from the parsed export. Each
// session that lists the contest contributes one ballot, empty when its marks
// are empty or redacted; a session that does not list the contest contributes
// none.
func contestElection(
	export *CvrExport,
	manifest *CandidateManifest,
	contestId uint32,
	logger log.Logger,
) election.Election {
	candidates := common.NewCandidateMap[uint32]()
	known := make(map[uint32]struct{})
	for _, c := range manifest.List {
		if c.ContestId == contestId {
			candidates.Add(c.Id, election.NewCandidate(c.Description, candidateKind(c.Type)))
			known[c.Id] = struct{}{}
		}
	}

	var ballots []election.Ballot
	for i := range export.Sessions {
		session := &export.Sessions[i]
		marks, found := sessionContestMarks(session, contestId)
		if !found {
			continue
		}

		// Ranks are 1-based on the wire. Duplicate ranks on one ballot are
		// conflicting marks; a rank no mark names is an undervote.
		maxRank := uint32(0)
		byRank := make(map[uint32][]Mark)
		for _, mark := range marks {
			if mark.IsAmbiguous {
				continue
			}
			byRank[mark.Rank] = append(byRank[mark.Rank], mark)
			if mark.Rank > maxRank {
				maxRank = mark.Rank
			}
		}

		choices := make([]election.Choice, 0, maxRank)
		for rank := uint32(1); rank <= maxRank; rank++ {
			ranked := byRank[rank]
			switch {
			case len(ranked) == 0:
				choices = append(choices, election.Undervote)
			case len(ranked) > 1:
				choices = append(choices, election.Overvote)
			default:
				if _, ok := known[ranked[0].CandidateId]; !ok {
					logger.Warn("unknown candidate id in ballot, counting as undervote",
						zap.Uint32("candidateId", ranked[0].CandidateId),
						zap.Uint32("contestId", contestId),
					)
					choices = append(choices, election.Undervote)
					continue
				}
				choices = append(choices, candidates.IdToChoice(ranked[0].CandidateId))
			}
		}

		ballots = append(ballots, election.NewBallot(
			fmt.Sprintf("%d-%d-%s", session.TabulatorId, session.BatchId, session.RecordId),
			choices,
		))
	}

	return election.NewElection(candidates.IntoVec(), ballots)
}

func sessionContestMarks(session *Session, contestId uint32) (Marks, bool) {
	for _, contest := range session.Contests() {
		if contest.Id == contestId {
			return contest.Marks, true
		}
	}
	return nil, false
}
