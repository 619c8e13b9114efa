// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package report combines the normalized ballot set with tabulation output
// and the pairwise matrix into a single contest report.
package report

import (
	"fmt"

	"github.com/luxfi/log"

	"github.com/ranked-vote/rcv.report/condorcet"
	"github.com/ranked-vote/rcv.report/formats"
	"github.com/ranked-vote/rcv.report/model/election"
	"github.com/ranked-vote/rcv.report/model/metadata"
	"github.com/ranked-vote/rcv.report/model/report"
	"github.com/ranked-vote/rcv.report/normalizer"
	"github.com/ranked-vote/rcv.report/tabulator"
)

// PreprocessElection reads and normalizes a contest's raw data.
func PreprocessElection(
	rawBase string,
	electionMeta *metadata.ElectionMetadata,
	electionPath string,
	jurisdiction *metadata.Jurisdiction,
	contest *metadata.Contest,
	logger log.Logger,
) (*election.ElectionPreprocessed, error) {
	reader, err := formats.GetReader(electionMeta.DataFormat)
	if err != nil {
		return nil, fmt.Errorf("election %s/%s: %w", jurisdiction.Path, electionPath, err)
	}

	raw, err := reader(rawBase, contest.LoaderParams, logger)
	if err != nil {
		return nil, err
	}

	return PreprocessElectionFromData(raw, electionMeta, electionPath, jurisdiction, contest), nil
}

// PreprocessElectionFromData normalizes raw election data already read by a
// batch reader.
func PreprocessElectionFromData(
	raw election.Election,
	electionMeta *metadata.ElectionMetadata,
	electionPath string,
	jurisdiction *metadata.Jurisdiction,
	contest *metadata.Contest,
) *election.ElectionPreprocessed {
	office := jurisdiction.Offices[contest.Office]

	return &election.ElectionPreprocessed{
		Info: election.ElectionInfo{
			Name:             electionMeta.Name,
			Office:           contest.Office,
			OfficeName:       office.Name,
			Date:             electionMeta.Date,
			JurisdictionPath: jurisdiction.Path,
			ElectionPath:     electionPath,
			JurisdictionName: jurisdiction.Name,
			ElectionName:     electionMeta.Name,
		},
		Metadata: *contest,
		Ballots:  normalizer.Normalize(raw, contest.NormalizerOptions),
	}
}

// GenerateReport tabulates a preprocessed contest and assembles the full
// report.
func GenerateReport(
	preprocessed *election.ElectionPreprocessed,
	tabulationOptions metadata.TabulationOptions,
	logger log.Logger,
) *report.ContestReport {
	ballots := preprocessed.Ballots.Ballots
	candidates := preprocessed.Ballots.Candidates

	rounds := tabulator.Tabulate(ballots, tabulationOptions, logger)

	pairwise := condorcet.New(len(candidates))
	for _, ballot := range ballots {
		pairwise.Vote(ballot)
	}

	var condorcetWinner *election.CandidateId
	if w, ok := pairwise.Winner(); ok {
		condorcetWinner = &w
	}

	numCandidates := 0
	for _, c := range candidates {
		if !c.WriteIn() {
			numCandidates++
		}
	}

	return &report.ContestReport{
		Info:          preprocessed.Info,
		BallotCount:   uint32(len(ballots)),
		NumCandidates: numCandidates,
		Candidates:    candidates,
		Rounds:        rounds,
		Winner:        finalWinner(rounds),
		Condorcet:     condorcetWinner,
		Pairwise:      pairwise.Matrix(),
	}
}

// finalWinner returns the leading candidate allocatee of the last round, if
// any candidate remains.
func finalWinner(rounds []tabulator.TabulatorRound) *election.CandidateId {
	if len(rounds) == 0 {
		return nil
	}
	final := rounds[len(rounds)-1]
	for _, alloc := range final.Allocations {
		if id, ok := alloc.Allocatee.Candidate(); ok && alloc.Votes > 0 {
			return &id
		}
	}
	return nil
}
