// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package report

import (
	"fmt"
	"testing"

	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"

	"github.com/ranked-vote/rcv.report/model/election"
	"github.com/ranked-vote/rcv.report/model/metadata"
)

func preprocessed(candidates []election.Candidate, ballots []election.NormalizedBallot) *election.ElectionPreprocessed {
	return &election.ElectionPreprocessed{
		Info: election.ElectionInfo{
			Name:       "2024 General",
			Office:     "mayor",
			OfficeName: "Mayor",
			Date:       "2024-11-05",
		},
		Ballots: election.NormalizedElection{
			Candidates: candidates,
			Ballots:    ballots,
		},
	}
}

func votes(count int, ids ...election.CandidateId) []election.NormalizedBallot {
	ballots := make([]election.NormalizedBallot, 0, count)
	for i := 0; i < count; i++ {
		choices := make([]election.Choice, 0, len(ids))
		for _, c := range ids {
			choices = append(choices, election.Vote(c))
		}
		ballots = append(ballots, election.NormalizedBallot{
			ID:      fmt.Sprintf("b%d", i),
			Choices: choices,
		})
	}
	return ballots
}

func TestGenerateReportFlagsNonCondorcetWinner(t *testing.T) {
	require := require.New(t)

	candidates := []election.Candidate{
		election.NewCandidate("Alice Example", election.KindRegular),
		election.NewCandidate("Bob Sample", election.KindRegular),
		election.NewCandidate("Carol Test", election.KindRegular),
	}
	var ballots []election.NormalizedBallot
	ballots = append(ballots, votes(4, 0, 2, 1)...)
	ballots = append(ballots, votes(4, 1, 2, 0)...)
	ballots = append(ballots, votes(3, 2, 0, 1)...)

	contestReport := GenerateReport(
		preprocessed(candidates, ballots),
		metadata.TabulationOptions{},
		log.NewNoOpLogger(),
	)

	require.Equal(uint32(11), contestReport.BallotCount)
	require.Equal(3, contestReport.NumCandidates)
	require.Len(contestReport.Rounds, 2)

	// Carol is eliminated under IRV and Alice wins, but Carol beats both head
	// to head.
	require.NotNil(contestReport.Winner)
	require.Equal(election.CandidateId(0), *contestReport.Winner)
	require.NotNil(contestReport.Condorcet)
	require.Equal(election.CandidateId(2), *contestReport.Condorcet)
	require.True(contestReport.HasNonCondorcetWinner())

	winner, ok := contestReport.WinnerCandidate()
	require.True(ok)
	require.Equal("Alice Example", winner.Name)

	entry := contestReport.IndexEntry()
	require.Equal("Alice Example", entry.Winner)
	require.NotNil(entry.CondorcetWinner)
	require.Equal("Carol Test", *entry.CondorcetWinner)
	require.True(entry.HasNonCondorcetWinner)
	require.Equal(uint32(2), entry.NumRounds)
}

func TestGenerateReportAgreement(t *testing.T) {
	require := require.New(t)

	candidates := []election.Candidate{
		election.NewCandidate("Alice Example", election.KindRegular),
		election.NewCandidate("Bob Sample", election.KindRegular),
		election.NewCandidate("Carol Test", election.KindRegular),
	}
	var ballots []election.NormalizedBallot
	ballots = append(ballots, votes(6, 0, 1, 2)...)
	ballots = append(ballots, votes(3, 1, 0, 2)...)
	ballots = append(ballots, votes(1, 2, 0, 1)...)

	contestReport := GenerateReport(
		preprocessed(candidates, ballots),
		metadata.TabulationOptions{},
		log.NewNoOpLogger(),
	)

	require.Len(contestReport.Rounds, 1)
	require.NotNil(contestReport.Winner)
	require.Equal(election.CandidateId(0), *contestReport.Winner)
	require.NotNil(contestReport.Condorcet)
	require.Equal(election.CandidateId(0), *contestReport.Condorcet)
	require.False(contestReport.HasNonCondorcetWinner())
}

func TestGenerateReportEmptyContest(t *testing.T) {
	require := require.New(t)

	contestReport := GenerateReport(
		preprocessed(nil, nil),
		metadata.TabulationOptions{},
		log.NewNoOpLogger(),
	)

	require.Equal(uint32(0), contestReport.BallotCount)
	require.Nil(contestReport.Winner)
	require.Equal("No Winner", contestReport.IndexEntry().Winner)
}

func TestWriteInsExcludedFromHeadlineCount(t *testing.T) {
	require := require.New(t)

	candidates := []election.Candidate{
		election.NewCandidate("Alice Example", election.KindRegular),
		election.NewCandidate("Undeclared Write-ins", election.KindWriteIn),
	}
	contestReport := GenerateReport(
		preprocessed(candidates, votes(3, 0, 1)),
		metadata.TabulationOptions{},
		log.NewNoOpLogger(),
	)

	require.Equal(1, contestReport.NumCandidates)
	require.Len(contestReport.Candidates, 2)
}
