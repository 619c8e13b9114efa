// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package usmnmpls reads the Minneapolis flat-CSV ballot format: three ranks
// per row plus a repetition count.
package usmnmpls

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/luxfi/log"
	"go.uber.org/zap"

	"github.com/ranked-vote/rcv.report/formats/common"
	"github.com/ranked-vote/rcv.report/model/election"
)

// parseChoice maps one CSV cell to a choice. The UWI token denotes the
// aggregate "Undeclared Write-ins" pseudo-candidate.
func parseChoice(cell string, candidates *common.CandidateMap[string]) election.Choice {
	cell = strings.TrimSpace(cell)
	switch {
	case cell == "":
		return election.Undervote
	case strings.EqualFold(cell, "undervote"):
		return election.Undervote
	case strings.EqualFold(cell, "overvote"):
		return election.Overvote
	}

	name := cell
	kind := election.KindRegular
	if strings.EqualFold(cell, "uwi") {
		name = "Undeclared Write-ins"
		kind = election.KindWriteIn
	}
	return candidates.AddIdToChoice(cell, election.NewCandidate(name, kind))
}

// Read parses the contest's CSV file into a raw election. Rows expand to
// `count` identical ballots. A row with any overvoted rank collapses to a
// single-element overvote ballot, matching the jurisdiction's accounting.
func Read(path string, params map[string]string, logger log.Logger) (election.Election, error) {
	file, ok := params["file"]
	if !ok {
		return election.Election{}, fmt.Errorf("missing loader param %q for %s", "file", path)
	}
	filePath := filepath.Join(path, file)

	f, err := os.Open(filePath)
	if err != nil {
		logger.Warn("failed to open ballots file, producing empty election",
			zap.String("path", filePath),
			log.Err(err),
		)
		return election.Election{}, nil
	}
	defer f.Close()

	rdr := csv.NewReader(f)
	rdr.FieldsPerRecord = -1

	records, err := rdr.ReadAll()
	if err != nil {
		logger.Warn("failed to read ballots file, producing empty election",
			zap.String("path", filePath),
			log.Err(err),
		)
		return election.Election{}, nil
	}

	candidates := common.NewCandidateMap[string]()
	var ballots []election.Ballot
	ballotId := 0

	for i, record := range records {
		if i == 0 {
			// Header row.
			continue
		}
		if len(record) < 5 {
			continue
		}

		precinct := record[0]
		ranks := record[1:4]
		count, err := strconv.Atoi(strings.TrimSpace(record[4]))
		if err != nil {
			count = 1
		}

		var choices []election.Choice
		if overvoted(ranks) {
			choices = []election.Choice{election.Overvote}
		} else {
			choices = make([]election.Choice, 0, len(ranks))
			for _, rank := range ranks {
				choices = append(choices, parseChoice(rank, candidates))
			}
		}

		for n := 0; n < count; n++ {
			ballotId++
			ballots = append(ballots, election.NewBallot(
				fmt.Sprintf("%s:%d", precinct, ballotId),
				choices,
			))
		}
	}

	return election.NewElection(candidates.IntoVec(), ballots), nil
}

func overvoted(ranks []string) bool {
	for _, rank := range ranks {
		if strings.EqualFold(strings.TrimSpace(rank), "overvote") {
			return true
		}
	}
	return false
}
